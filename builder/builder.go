// Package builder drives conda-build invocations for one package at a time.
// A builder only compiles: publishing the produced artifacts is the
// deployment layer's job, and a builder must never upload on its own.
package builder

import "context"

// Request parametrizes one package build.
type Request struct {
	// RecipeDir is the directory holding the conda recipe (meta.yaml).
	RecipeDir string

	// Name and Version identify the package being built, used to match
	// produced artifacts and allocate the build number.
	Name    string
	Version string

	// PythonVersion is the interpreter to build against, e.g. "3.9".
	PythonVersion string

	// Channels are the read channel URLs consulted for dependencies, in
	// resolution order.
	Channels []string

	// UploadChannelURL is where the artifact will eventually be
	// published. Consulted only to allocate the build number; the
	// builder never uploads.
	UploadChannelURL string

	// VariantFile and AppendFile are optional conda-build configuration
	// overrides. Discovered per package or taken from run defaults.
	VariantFile string
	AppendFile  string

	// DryRun computes the build parameters without invoking the build
	// tool.
	DryRun bool
}

// Result reports what a build produced.
type Result struct {
	// Paths are the produced artifact files, empty when the build was
	// skipped or dry.
	Paths []string

	// Skipped is true when the recipe rendered to nothing on this
	// platform, which is an expected outcome rather than a failure.
	Skipped bool

	// SkipReason explains a skip for the logs.
	SkipReason string

	// BuildNumber is the number allocated for this build.
	BuildNumber int
}

// Builder is the build collaborator contract used by the pipeline.
type Builder interface {
	Build(ctx context.Context, req *Request) (*Result, error)
}
