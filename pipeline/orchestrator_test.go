package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/builder"
	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/errors"
)

// fakeVCS materializes a minimal package checkout instead of cloning:
// version.txt, a recipe unless the package is listed recipe-less, and a
// generated documentation directory to exercise the cleanup.
type fakeVCS struct {
	noRecipe map[string]bool
	cloned   []string
}

func (f *fakeVCS) Clone(ctx context.Context, remoteURL, branch, dest string) error {
	name := filepath.Base(dest)
	f.cloned = append(f.cloned, name+"@"+branch)

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dest, versionFile), []byte("1.0.0\n"), 0o644); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(dest, DocsOutputDir), 0o755); err != nil {
		return err
	}
	if f.noRecipe[name] {
		return nil
	}
	recipeDir := filepath.Join(dest, recipeSubdir)
	if err := os.MkdirAll(recipeDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(recipeDir, builder.RecipeFile), []byte("package: {}\n"), 0o644)
}

type fakeBuilder struct {
	failFor map[string]error
	skipFor map[string]string
	built   []string
	lastReq *builder.Request
}

func (f *fakeBuilder) Build(ctx context.Context, req *builder.Request) (*builder.Result, error) {
	f.built = append(f.built, req.Name)
	f.lastReq = req
	if err := f.failFor[req.Name]; err != nil {
		return nil, err
	}
	if reason, ok := f.skipFor[req.Name]; ok {
		return &builder.Result{Skipped: true, SkipReason: reason}, nil
	}
	return &builder.Result{
		Paths:       []string{"/bld/linux-64/" + req.Name + "-1.0.0-py39_0.tar.bz2"},
		BuildNumber: 0,
	}, nil
}

type fakeDeployer struct {
	channels []string
	paths    [][]string
}

func (f *fakeDeployer) DeployArtifacts(ctx context.Context, uploadChannelURL string, paths []string) error {
	f.channels = append(f.channels, uploadChannelURL)
	f.paths = append(f.paths, paths)
	return nil
}

type fakeProber struct{ public bool }

func (f *fakeProber) Public(ctx context.Context, projectURL string) (bool, error) {
	return f.public, nil
}

func newOrchestrator(t *testing.T, vcs *fakeVCS, b *fakeBuilder, d *fakeDeployer) *Orchestrator {
	t.Helper()
	return &Orchestrator{
		VCS:      vcs,
		Builder:  b,
		Deployer: d,
		Prober:   &fakeProber{public: true},
		Options: Options{
			WorkRoot:      t.TempDir(),
			ProjectServer: "https://gitlab.idiap.ch",
			PythonVersion: "3.9",
		},
	}
}

func entries(names ...string) []Entry {
	var out []Entry
	for _, n := range names {
		out = append(out, Entry{Package: Package{Group: "bob", Name: n}})
	}
	return out
}

func TestRunBuildFailureAbortsRemainingPackages(t *testing.T) {
	vcs := &fakeVCS{}
	b := &fakeBuilder{failFor: map[string]error{
		"pkg-a": errors.New(errors.CodeBuildFailed, "compiler exploded"),
	}}
	d := &fakeDeployer{}
	o := newOrchestrator(t, vcs, b, d)

	outcomes, err := o.Run(context.Background(), entries("pkg-a", "pkg-b"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeBuildFailed, errors.CodeOf(err))

	require.Len(t, outcomes, 1)
	assert.Equal(t, StatusFailed, outcomes[0].Status)
	assert.Equal(t, []string{"pkg-a"}, b.built)
	assert.Empty(t, d.channels)
}

func TestRunMissingRecipeSkipsAndContinues(t *testing.T) {
	vcs := &fakeVCS{noRecipe: map[string]bool{"pkg-a": true}}
	b := &fakeBuilder{}
	d := &fakeDeployer{}
	o := newOrchestrator(t, vcs, b, d)

	outcomes, err := o.Run(context.Background(), entries("pkg-a", "pkg-b"))
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	assert.Equal(t, StatusSkipped, outcomes[0].Status)
	assert.Equal(t, "no conda recipe", outcomes[0].Reason)
	assert.Equal(t, StatusBuilt, outcomes[1].Status)
	assert.Equal(t, []string{"pkg-b"}, b.built)
	require.Len(t, d.channels, 1)
}

func TestRunDeploysOnlyDefaultBranch(t *testing.T) {
	vcs := &fakeVCS{}
	b := &fakeBuilder{}
	d := &fakeDeployer{}
	o := newOrchestrator(t, vcs, b, d)

	order := []Entry{
		{Package: Package{Group: "bob", Name: "pkg-a"}, Branch: "add-feature"},
		{Package: Package{Group: "bob", Name: "pkg-b"}},
	}
	outcomes, err := o.Run(context.Background(), order)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	assert.Equal(t, StatusBuilt, outcomes[0].Status)
	assert.Equal(t, StatusBuilt, outcomes[1].Status)
	assert.Contains(t, vcs.cloned, "pkg-a@add-feature")
	assert.Contains(t, vcs.cloned, "pkg-b@master")

	// Only the default-branch build publishes.
	require.Len(t, d.paths, 1)
	assert.Contains(t, d.paths[0][0], "pkg-b")
}

func TestRunBaseBuildNeverDeploys(t *testing.T) {
	vcs := &fakeVCS{}
	b := &fakeBuilder{}
	d := &fakeDeployer{}
	o := newOrchestrator(t, vcs, b, d)
	o.Options.BaseBuild = true

	_, err := o.Run(context.Background(), entries("pkg-a"))
	require.NoError(t, err)
	assert.Empty(t, d.channels)
}

func TestRunSkippedBuildIsNotDeployed(t *testing.T) {
	vcs := &fakeVCS{}
	b := &fakeBuilder{skipFor: map[string]string{"pkg-a": "unsupported platform"}}
	d := &fakeDeployer{}
	o := newOrchestrator(t, vcs, b, d)

	outcomes, err := o.Run(context.Background(), entries("pkg-a"))
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, outcomes[0].Status)
	assert.Equal(t, "unsupported platform", outcomes[0].Reason)
	assert.Empty(t, d.channels)
}

func TestRunCleansDocumentationBetweenPackages(t *testing.T) {
	vcs := &fakeVCS{}
	b := &fakeBuilder{}
	d := &fakeDeployer{}
	o := newOrchestrator(t, vcs, b, d)

	_, err := o.Run(context.Background(), entries("pkg-a", "pkg-b"))
	require.NoError(t, err)

	for _, name := range []string{"pkg-a", "pkg-b"} {
		docs := filepath.Join(o.Options.WorkRoot, "bob", name, DocsOutputDir)
		_, statErr := os.Stat(docs)
		assert.True(t, os.IsNotExist(statErr), docs)
	}
}

func TestRunThreadsChannelsIntoBuild(t *testing.T) {
	vcs := &fakeVCS{}
	b := &fakeBuilder{}
	d := &fakeDeployer{}
	o := newOrchestrator(t, vcs, b, d)

	_, err := o.Run(context.Background(), entries("pkg-a"))
	require.NoError(t, err)

	require.NotNil(t, b.lastReq)
	assert.Equal(t, "1.0.0", b.lastReq.Version)
	assert.NotEmpty(t, b.lastReq.Channels)
	assert.Equal(t, b.lastReq.UploadChannelURL, d.channels[0])
}

func TestHTTPProber(t *testing.T) {
	public := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer public.Close()
	private := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer private.Close()

	p := &HTTPProber{}
	got, err := p.Public(context.Background(), public.URL)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = p.Public(context.Background(), private.URL)
	require.NoError(t, err)
	assert.False(t, got)
}
