package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/builder"
	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/channel"
	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/errors"
	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/git"
)

// DocsOutputDir is the documentation output directory removed between
// packages. Successive packages share the workspace, and stale generated
// documentation from one package breaks the next one's build.
const DocsOutputDir = "sphinx"

// versionFile is the file bob packages record their version in.
const versionFile = "version.txt"

// recipeSubdir is where bob packages keep their conda recipe.
const recipeSubdir = "conda"

// Status is the per-package outcome of one pipeline iteration.
type Status int

const (
	// StatusBuilt means artifacts were produced (and deployed when the
	// run deploys).
	StatusBuilt Status = iota

	// StatusSkipped means the package had nothing to build here, which
	// is expected and does not stop the run.
	StatusSkipped

	// StatusFailed means an unrecovered error; the run stops at this
	// package.
	StatusFailed
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusBuilt:
		return "built"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome reports what happened to one package.
type Outcome struct {
	Package Package
	Status  Status

	// Reason explains a skip.
	Reason string

	// Artifacts are the produced (and possibly deployed) files for a
	// built package.
	Artifacts []string

	// Err is set for a failed package.
	Err error
}

// VCS is the version-control collaborator: a shallow single-branch clone
// into a destination directory. Failing loudly when the ref is missing.
type VCS interface {
	Clone(ctx context.Context, remoteURL, branch, dest string) error
}

// GitVCS implements VCS with go-git shallow clones.
type GitVCS struct {
	// Auth is the optional transport auth, a CI job token in pipelines.
	Auth transport.AuthMethod

	// Depth is the shallow-clone depth. Zero means full history.
	Depth int
}

// Clone implements VCS.
func (g *GitVCS) Clone(ctx context.Context, remoteURL, branch, dest string) error {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return errors.Wrap(err, errors.CodeExecutionFailed, "creating "+dest)
	}
	_, err := git.Clone(ctx, remoteURL, branch, &git.Options{
		FS:           osfs.New(dest),
		Auth:         g.Auth,
		ShallowDepth: g.Depth,
	})
	return err
}

// ArtifactDeployer is the slice of the deployment layer the pipeline uses.
type ArtifactDeployer interface {
	DeployArtifacts(ctx context.Context, uploadChannelURL string, paths []string) error
}

// Options is the run-level pipeline configuration.
type Options struct {
	// WorkRoot is the workspace directory packages are cloned under,
	// keyed by group/name.
	WorkRoot string

	// ProjectServer is the base URL projects live under, used both for
	// clone URLs and the visibility probe.
	ProjectServer string

	// CondaServer overrides the conda channel server. Empty selects the
	// resolver default.
	CondaServer string

	// Intranet marks runs executing inside the lab network.
	Intranet bool

	// Stable is the run-level stability flag. Nightly builds of the
	// default branch pass false; release pipelines pass true.
	Stable bool

	// DefaultBranch is the branch built when an order entry carries no
	// override, and the only branch whose artifacts are deployed.
	DefaultBranch string

	// PythonVersion is the interpreter version built against.
	PythonVersion string

	// BuildDefaults are the run-level variant and append files used when
	// a package carries no local overrides.
	BuildDefaults builder.BuildConfig

	// BaseBuild disables deployment: base runs only populate the local
	// package cache.
	BaseBuild bool

	// DryRun suppresses builds and deployments while still computing
	// every decision.
	DryRun bool
}

func (o *Options) applyDefaults() {
	if o.DefaultBranch == "" {
		o.DefaultBranch = git.DefaultBranchName
	}
}

// Validate checks the run configuration.
func (o *Options) Validate() error {
	if o.WorkRoot == "" {
		return errors.New(errors.CodeInvalidConfig, "WorkRoot is required")
	}
	if o.ProjectServer == "" {
		return errors.New(errors.CodeInvalidConfig, "ProjectServer is required")
	}
	if o.PythonVersion == "" {
		return errors.New(errors.CodeInvalidConfig, "PythonVersion is required")
	}
	return nil
}

// Orchestrator runs the nightly loop over an ordered package list.
type Orchestrator struct {
	VCS      VCS
	Builder  builder.Builder
	Deployer ArtifactDeployer
	Prober   VisibilityProber
	Options  Options
	Log      *slog.Logger
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Log == nil {
		return slog.Default()
	}
	return o.Log
}

// Run processes the entries strictly in order. The returned outcomes cover
// every package that was started; the error, when non-nil, belongs to the
// last outcome and aborted the run. Packages after the failure are never
// started.
func (o *Orchestrator) Run(ctx context.Context, entries []Entry) ([]Outcome, error) {
	o.Options.applyDefaults()
	if err := o.Options.Validate(); err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, 0, len(entries))
	for _, entry := range entries {
		outcome := o.runOne(ctx, entry)
		outcomes = append(outcomes, outcome)
		if outcome.Status == StatusFailed {
			return outcomes, outcome.Err
		}
	}
	return outcomes, nil
}

func (o *Orchestrator) runOne(ctx context.Context, entry Entry) Outcome {
	pkg := entry.Package
	log := o.logger().With("package", pkg.String())

	branch := entry.Branch
	if branch == "" {
		branch = o.Options.DefaultBranch
	}

	dest := filepath.Join(o.Options.WorkRoot, pkg.Group, pkg.Name)
	// A fresh clone every iteration: leftovers from a previous run would
	// otherwise shadow the branch we were asked to build.
	if err := os.RemoveAll(dest); err != nil {
		return failed(pkg, errors.Wrap(err, errors.CodeExecutionFailed, "clearing "+dest))
	}

	projectURL := o.projectURL(pkg)
	log.Info("cloning", "url", projectURL, "branch", branch)
	if err := o.VCS.Clone(ctx, projectURL+".git", branch, dest); err != nil {
		return failed(pkg, errors.Wrapf(err, errors.CodeExecutionFailed,
			"cloning %s at %s", pkg, branch))
	}
	defer o.cleanupDocs(dest, log)

	recipeDir := filepath.Join(dest, recipeSubdir)
	if !builder.HasRecipe(recipeDir) {
		log.Info("no conda recipe, skipping", "dir", recipeDir)
		return Outcome{Package: pkg, Status: StatusSkipped, Reason: "no conda recipe"}
	}

	public, err := o.Prober.Public(ctx, projectURL)
	if err != nil {
		return failed(pkg, err)
	}
	log.Info("resolved visibility", "public", public)

	channels, err := channel.Resolve(channel.Params{
		Public:   public,
		Stable:   o.Options.Stable,
		Server:   o.Options.CondaServer,
		Intranet: o.Options.Intranet,
		Group:    pkg.Group,
	})
	if err != nil {
		return failed(pkg, err)
	}

	version, err := o.readVersion(dest)
	if err != nil {
		return failed(pkg, err)
	}

	cfg := builder.DiscoverConfig(recipeDir, o.Options.BuildDefaults, log)
	result, err := o.Builder.Build(ctx, &builder.Request{
		RecipeDir:        recipeDir,
		Name:             pkg.Name,
		Version:          version,
		PythonVersion:    o.Options.PythonVersion,
		Channels:         channels.URLs(),
		UploadChannelURL: channels.Upload.URL,
		VariantFile:      cfg.VariantFile,
		AppendFile:       cfg.AppendFile,
		DryRun:           o.Options.DryRun,
	})
	if err != nil {
		return failed(pkg, err)
	}

	if result.Skipped {
		log.Info("build skipped", "reason", result.SkipReason)
		return Outcome{Package: pkg, Status: StatusSkipped, Reason: result.SkipReason}
	}

	// The produced artifacts travel through this value and nowhere else:
	// once deployed the slice's job is done and the next iteration starts
	// with a clean slate.
	if o.shouldDeploy(branch, result) {
		if err := o.Deployer.DeployArtifacts(ctx, channels.Upload.URL, result.Paths); err != nil {
			return failed(pkg, err)
		}
		log.Info("deployed", "artifacts", len(result.Paths), "channel", channels.Upload.URL)
	}

	return Outcome{Package: pkg, Status: StatusBuilt, Artifacts: result.Paths}
}

func (o *Orchestrator) shouldDeploy(branch string, result *builder.Result) bool {
	return !o.Options.BaseBuild &&
		branch == o.Options.DefaultBranch &&
		len(result.Paths) > 0
}

func (o *Orchestrator) projectURL(pkg Package) string {
	return strings.TrimSuffix(o.Options.ProjectServer, "/") + "/" + pkg.Group + "/" + pkg.Name
}

func (o *Orchestrator) readVersion(dest string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dest, versionFile))
	if err != nil {
		return "", errors.Wrapf(err, errors.CodeInvalidConfig,
			"reading %s under %s", versionFile, dest)
	}
	return strings.TrimSpace(string(data)), nil
}

func (o *Orchestrator) cleanupDocs(dest string, log *slog.Logger) {
	docs := filepath.Join(dest, DocsOutputDir)
	if _, err := os.Stat(docs); err != nil {
		return
	}
	log.Info("removing generated documentation", "dir", docs)
	if err := os.RemoveAll(docs); err != nil {
		log.Warn("could not remove generated documentation", "dir", docs, "error", err)
	}
}

func failed(pkg Package, err error) Outcome {
	return Outcome{Package: pkg, Status: StatusFailed, Err: err}
}
