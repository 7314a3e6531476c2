package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/artifact"
	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/builder"
	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/channel"
	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/config"
	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/errors"
	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/executor"
	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/git"
	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/release"
)

var buildCmd = &cobra.Command{
	Use:   "build [recipe-dir]",
	Short: "Build the current project's conda package",
	Long: `Build resolves the channels for the current project, allocates the
next build number on the upload channel and invokes conda-build. Nothing is
uploaded: deployment is a separate step.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	r, err := loadRuntime()
	if err != nil {
		return err
	}

	recipeDir := filepath.Join(r.ProjectDir, "conda")
	if len(args) == 1 {
		recipeDir = args[0]
	}

	stable, err := classifyStability(ctx, r)
	if err != nil {
		return err
	}

	params := channel.Params{
		Public:               r.Public(),
		Stable:               stable,
		Intranet:             flagIntranet,
		Group:                r.Group(),
		AddDependentChannels: true,
	}
	channels, err := channel.Resolve(params)
	if err != nil {
		return err
	}

	if err := writeCondarc(r, channels); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "documentation servers:", channel.DocServerSetup(params))

	version, err := readProjectVersion(r.ProjectDir)
	if err != nil {
		return err
	}

	st, err := newStore(ctx)
	if err != nil {
		return err
	}

	b := &builder.CondaBuilder{
		Runner:    executor.Shell{},
		Allocator: &artifact.Allocator{Store: st},
		OutputDir: condaBldDir(r),
		Echo:      cmd.OutOrStdout(),
	}
	cfg := builder.DiscoverConfig(recipeDir, builder.BuildConfig{}, nil)

	result, err := b.Build(ctx, &builder.Request{
		RecipeDir:        recipeDir,
		Name:             r.Name(),
		Version:          version,
		PythonVersion:    r.PythonVersion,
		Channels:         channels.URLs(),
		UploadChannelURL: channels.Upload.URL,
		VariantFile:      cfg.VariantFile,
		AppendFile:       cfg.AppendFile,
		DryRun:           flagDryRun,
	})
	if err != nil {
		return err
	}

	if result.Skipped {
		fmt.Fprintln(cmd.OutOrStdout(), "build skipped:", result.SkipReason)
		return nil
	}
	for _, p := range result.Paths {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}
	return nil
}

// classifyStability computes the run's stability. Untagged builds are
// prereleases without any repository inspection; tagged builds need the tag
// checked against the default branch history.
func classifyStability(ctx context.Context, r *config.Runtime) (bool, error) {
	if r.Tag == "" {
		return false, nil
	}

	repo, err := git.Open(ctx, &git.Options{FS: osfs.New(r.ProjectDir)})
	if err != nil {
		return false, errors.Wrap(err, errors.CodeInvalidConfig,
			"opening project checkout at "+r.ProjectDir)
	}

	classifier := &release.Classifier{}
	return classifier.IsStable(ctx, r.Name(), r.RefName, r.Tag, repo)
}

// writeCondarc renders the resolved channels into the conda configuration
// consumed by conda-build.
func writeCondarc(r *config.Runtime, channels *channel.Set) error {
	data, err := channel.CondarcYAML(channels)
	if err != nil {
		return err
	}
	if flagDryRun {
		fmt.Fprintln(os.Stderr, "dry-run: would write", r.CondarcPath())
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(r.CondarcPath()), 0o755); err != nil {
		return errors.Wrap(err, errors.CodeInvalidConfig, "creating conda root")
	}
	return os.WriteFile(r.CondarcPath(), data, 0o644)
}

func readProjectVersion(projectDir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(projectDir, "version.txt"))
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInvalidConfig,
			"reading version.txt under "+projectDir)
	}
	return strings.TrimSpace(string(data)), nil
}
