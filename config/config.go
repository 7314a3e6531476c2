// Package config loads the run-level configuration from the CI environment.
// Every knob arrives as an environment variable set by the CI system; there
// is no configuration file beyond the generated condarc fragment.
package config

import (
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/errors"
)

// Environment variable names consumed from the CI system.
const (
	EnvProjectPath   = "CI_PROJECT_PATH"
	EnvVisibility    = "CI_PROJECT_VISIBILITY"
	EnvRefName       = "CI_COMMIT_REF_NAME"
	EnvTag           = "CI_COMMIT_TAG"
	EnvProjectDir    = "CI_PROJECT_DIR"
	EnvJobToken      = "CI_JOB_TOKEN"
	EnvCondaRoot     = "CONDA_ROOT"
	EnvPythonVersion = "PYTHON_VERSION"
)

// VisibilityPublic is the CI visibility value marking a public project.
const VisibilityPublic = "public"

// Runtime is the configuration of one CI run.
type Runtime struct {
	// ProjectPath is the namespaced project path, e.g. "bob/bob.extension".
	ProjectPath string

	// Visibility is the project visibility as reported by the CI system
	// ("public", "internal" or "private").
	Visibility string

	// RefName is the branch or tag name being built.
	RefName string

	// Tag is the tag being built, empty on branch builds.
	Tag string

	// ProjectDir is the checkout directory of the project under build.
	ProjectDir string

	// JobToken authenticates clone and API calls during the run.
	JobToken string

	// CondaRoot is the conda installation prefix. Defaults to a
	// per-user cache location when the CI does not provide one.
	CondaRoot string

	// PythonVersion is the interpreter version to build against,
	// e.g. "3.9".
	PythonVersion string
}

// Load reads the runtime configuration from the environment through viper.
// Pass nil to use a fresh viper instance.
func Load(v *viper.Viper) (*Runtime, error) {
	if v == nil {
		v = viper.New()
	}
	v.AutomaticEnv()
	for _, key := range []string{
		EnvProjectPath, EnvVisibility, EnvRefName, EnvTag,
		EnvProjectDir, EnvJobToken, EnvCondaRoot, EnvPythonVersion,
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidConfig, "binding "+key)
		}
	}

	r := &Runtime{
		ProjectPath:   v.GetString(EnvProjectPath),
		Visibility:    v.GetString(EnvVisibility),
		RefName:       v.GetString(EnvRefName),
		Tag:           v.GetString(EnvTag),
		ProjectDir:    v.GetString(EnvProjectDir),
		JobToken:      v.GetString(EnvJobToken),
		CondaRoot:     v.GetString(EnvCondaRoot),
		PythonVersion: v.GetString(EnvPythonVersion),
	}
	if r.CondaRoot == "" {
		r.CondaRoot = filepath.Join(xdg.CacheHome, "bdt", "conda")
	}
	return r, nil
}

// Validate checks the values every CI command needs. Commands with extra
// requirements check those themselves.
func (r *Runtime) Validate() error {
	if r.ProjectPath == "" || !strings.Contains(r.ProjectPath, "/") {
		return errors.Newf(errors.CodeInvalidConfig,
			"%s must hold a group/name project path, got %q", EnvProjectPath, r.ProjectPath)
	}
	if r.RefName == "" {
		return errors.Newf(errors.CodeInvalidConfig, "%s is required", EnvRefName)
	}
	if r.PythonVersion == "" {
		return errors.Newf(errors.CodeInvalidConfig, "%s is required", EnvPythonVersion)
	}
	return nil
}

// Group returns the namespace part of the project path.
func (r *Runtime) Group() string {
	group, _, _ := strings.Cut(r.ProjectPath, "/")
	return group
}

// Name returns the project name part of the project path.
func (r *Runtime) Name() string {
	_, name, _ := strings.Cut(r.ProjectPath, "/")
	return name
}

// Public reports whether the project is publicly visible to the CI system.
// The pipeline orchestrator probes visibility over HTTP instead, since it
// inspects projects other than the one the run belongs to.
func (r *Runtime) Public() bool {
	return r.Visibility == VisibilityPublic
}

// CondarcPath is where the generated condarc fragment lives.
func (r *Runtime) CondarcPath() string {
	return filepath.Join(r.CondaRoot, "condarc")
}
