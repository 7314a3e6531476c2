package builder

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/artifact"
	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/errors"
	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/executor"
)

// BuildNumberEnv is the environment variable the conda recipe reads to pin
// its build number.
const BuildNumberEnv = "BOB_BUILD_NUMBER"

// DefaultProgram is the build tool invoked unless overridden.
const DefaultProgram = "conda"

// PyTag converts an interpreter version like "3.9" into the conda build
// string tag "py39".
func PyTag(pythonVersion string) string {
	return "py" + strings.ReplaceAll(pythonVersion, ".", "")
}

// CondaBuilder shells out to conda-build through a Runner. It allocates the
// build number against the upload channel before invoking the tool and
// exports it to the recipe through the environment.
type CondaBuilder struct {
	// Runner executes the build tool.
	Runner executor.Runner

	// Allocator supplies the next free build number.
	Allocator *artifact.Allocator

	// Program is the build tool, DefaultProgram when empty. Set to
	// "mamba" to use the faster solver.
	Program string

	// OutputDir is the conda-bld directory artifacts land in.
	OutputDir string

	// Echo receives the streamed build output. Nil disables streaming.
	Echo io.Writer

	// Log receives build progress records. Defaults to slog.Default.
	Log *slog.Logger
}

func (b *CondaBuilder) logger() *slog.Logger {
	if b.Log == nil {
		return slog.Default()
	}
	return b.Log
}

// Build implements Builder.
func (b *CondaBuilder) Build(ctx context.Context, req *Request) (*Result, error) {
	if !HasRecipe(req.RecipeDir) {
		return nil, errors.Newf(errors.CodeNotFound,
			"no %s under %s", RecipeFile, req.RecipeDir)
	}

	pyTag := PyTag(req.PythonVersion)
	candidate := &artifact.Artifact{
		Name:    req.Name,
		Version: req.Version,
		PyTag:   pyTag,
	}
	number, matches, err := b.Allocator.Next(ctx, req.UploadChannelURL, candidate.Basename())
	if err != nil {
		return nil, err
	}
	b.logger().Info("allocated build number",
		"package", req.Name, "version", req.Version, "python", req.PythonVersion,
		"number", number, "previous", len(matches))

	args := b.buildArgs(req)

	if req.DryRun {
		b.logger().Info("dry-run: would build",
			"program", b.program(), "args", args, BuildNumberEnv, number)
		return &Result{BuildNumber: number}, nil
	}

	opts := []executor.Option{
		executor.WithEnvVar(BuildNumberEnv, strconv.Itoa(number)),
		executor.WithLogger(b.logger()),
	}
	if b.Echo != nil {
		opts = append(opts, executor.WithEcho(b.Echo))
	}

	if _, err := b.Runner.Run(ctx, b.program(), args, opts...); err != nil {
		return nil, errors.Wrapf(err, errors.CodeBuildFailed,
			"building %s %s", req.Name, req.Version)
	}

	paths, err := b.collect(candidate, number)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return &Result{
			Skipped:     true,
			SkipReason:  "recipe rendered no output on this platform",
			BuildNumber: number,
		}, nil
	}
	return &Result{Paths: paths, BuildNumber: number}, nil
}

func (b *CondaBuilder) program() string {
	if b.Program == "" {
		return DefaultProgram
	}
	return b.Program
}

func (b *CondaBuilder) buildArgs(req *Request) []string {
	args := []string{"build", "--no-anaconda-upload", "--python", req.PythonVersion}
	for _, ch := range req.Channels {
		args = append(args, "-c", ch)
	}
	if req.VariantFile != "" {
		args = append(args, "--variant-config-files", req.VariantFile)
	}
	if req.AppendFile != "" {
		args = append(args, "--append-file", req.AppendFile)
	}
	if b.OutputDir != "" {
		args = append(args, "--output-folder", b.OutputDir)
	}
	return append(args, req.RecipeDir)
}

// collect scans the output directory for the artifacts this build produced.
// conda-build exits zero even when a recipe renders to nothing, so an empty
// scan means the package was skipped on this platform.
func (b *CondaBuilder) collect(candidate *artifact.Artifact, number int) ([]string, error) {
	var paths []string
	for _, arch := range artifact.Architectures {
		pattern := filepath.Join(b.OutputDir, arch, candidate.Prefix()+"*")
		found, err := filepath.Glob(pattern)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeBuildFailed,
				"scanning build outputs under "+b.OutputDir)
		}
		for _, p := range found {
			a, parseErr := artifact.ParsePath(filepath.ToSlash(p))
			if parseErr != nil {
				continue
			}
			if a.Name != candidate.Name || a.Version != candidate.Version ||
				a.PyTag != candidate.PyTag || a.BuildNumber != number {
				continue
			}
			if _, statErr := os.Stat(p); statErr != nil {
				continue
			}
			paths = append(paths, p)
		}
	}
	return paths, nil
}
