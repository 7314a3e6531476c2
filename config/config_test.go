package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/errors"
)

func setCIEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvProjectPath, "bob/bob.extension")
	t.Setenv(EnvVisibility, "public")
	t.Setenv(EnvRefName, "master")
	t.Setenv(EnvTag, "")
	t.Setenv(EnvProjectDir, "/builds/bob/bob.extension")
	t.Setenv(EnvJobToken, "token")
	t.Setenv(EnvCondaRoot, "/opt/conda")
	t.Setenv(EnvPythonVersion, "3.9")
}

func TestLoad(t *testing.T) {
	setCIEnv(t)

	r, err := Load(nil)
	require.NoError(t, err)
	require.NoError(t, r.Validate())

	assert.Equal(t, "bob", r.Group())
	assert.Equal(t, "bob.extension", r.Name())
	assert.True(t, r.Public())
	assert.Equal(t, "master", r.RefName)
	assert.Equal(t, filepath.Join("/opt/conda", "condarc"), r.CondarcPath())
}

func TestLoadDefaultsCondaRoot(t *testing.T) {
	setCIEnv(t)
	t.Setenv(EnvCondaRoot, "")

	r, err := Load(nil)
	require.NoError(t, err)
	assert.NotEmpty(t, r.CondaRoot)
	assert.Contains(t, r.CondaRoot, "bdt")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Runtime)
	}{
		{"missing project path", func(r *Runtime) { r.ProjectPath = "" }},
		{"project path without group", func(r *Runtime) { r.ProjectPath = "bob.extension" }},
		{"missing ref name", func(r *Runtime) { r.RefName = "" }},
		{"missing python version", func(r *Runtime) { r.PythonVersion = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Runtime{
				ProjectPath:   "bob/bob.extension",
				RefName:       "master",
				PythonVersion: "3.9",
			}
			tt.mutate(r)
			err := r.Validate()
			require.Error(t, err)
			assert.Equal(t, errors.CodeInvalidConfig, errors.CodeOf(err))
		})
	}
}

func TestVisibility(t *testing.T) {
	assert.True(t, (&Runtime{Visibility: "public"}).Public())
	assert.False(t, (&Runtime{Visibility: "internal"}).Public())
	assert.False(t, (&Runtime{Visibility: "private"}).Public())
}
