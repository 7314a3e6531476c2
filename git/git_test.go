package git

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSignature() *object.Signature {
	return &object.Signature{
		Name:  "ci",
		Email: "ci@example.com",
		When:  time.Now(),
	}
}

// testRepo builds an in-memory repository:
//
//	master: c1 -- c2 (tag v1.0.0, annotated v2.0.0)
//	feature:       \-- c3 (tag v3.0.0)
func testRepo(t *testing.T) (*Repo, *gogit.Repository, map[string]plumbing.Hash) {
	t.Helper()

	fs := memfs.New()
	raw, err := gogit.Init(memory.NewStorage(), fs)
	require.NoError(t, err)

	wt, err := raw.Worktree()
	require.NoError(t, err)

	commit := func(name, content string) plumbing.Hash {
		require.NoError(t, util.WriteFile(fs, name, []byte(content), 0o644))
		_, addErr := wt.Add(name)
		require.NoError(t, addErr)
		hash, commitErr := wt.Commit("add "+name, &gogit.CommitOptions{Author: testSignature()})
		require.NoError(t, commitErr)
		return hash
	}

	hashes := map[string]plumbing.Hash{}
	hashes["c1"] = commit("a.txt", "one")
	hashes["c2"] = commit("b.txt", "two")

	_, err = raw.CreateTag("v1.0.0", hashes["c2"], nil)
	require.NoError(t, err)
	_, err = raw.CreateTag("v2.0.0", hashes["c2"], &gogit.CreateTagOptions{
		Tagger:  testSignature(),
		Message: "release 2.0.0",
	})
	require.NoError(t, err)

	require.NoError(t, wt.Checkout(&gogit.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName("feature"),
		Create: true,
	}))
	hashes["c3"] = commit("c.txt", "three")
	_, err = raw.CreateTag("v3.0.0", hashes["c3"], nil)
	require.NoError(t, err)

	return FromRepository(raw), raw, hashes
}

func TestResolveTag(t *testing.T) {
	repo, _, hashes := testRepo(t)
	ctx := context.Background()

	commit, err := repo.ResolveTag(ctx, "v1.0.0")
	require.NoError(t, err)
	assert.Equal(t, hashes["c2"], commit.Hash)

	// Annotated tags resolve through the tag object to the target commit.
	commit, err = repo.ResolveTag(ctx, "v2.0.0")
	require.NoError(t, err)
	assert.Equal(t, hashes["c2"], commit.Hash)

	_, err = repo.ResolveTag(ctx, "v9.9.9")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTagMissing))
}

func TestBranchHead(t *testing.T) {
	repo, _, hashes := testRepo(t)
	ctx := context.Background()

	head, err := repo.BranchHead(ctx, DefaultBranchName)
	require.NoError(t, err)
	assert.Equal(t, hashes["c2"], head.Hash)

	_, err = repo.BranchHead(ctx, "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBranchMissing))
}

func TestBranchContains(t *testing.T) {
	repo, _, hashes := testRepo(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		commit string
		branch string
		want   bool
	}{
		{"head itself", "c2", DefaultBranchName, true},
		{"ancestor of head", "c1", DefaultBranchName, true},
		{"commit only on feature branch", "c3", DefaultBranchName, false},
		{"master commit reachable from feature", "c2", "feature", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			commit, err := repo.repo.CommitObject(hashes[tt.commit])
			require.NoError(t, err)

			got, err := repo.BranchContains(ctx, tt.branch, commit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCurrentBranch(t *testing.T) {
	repo, _, _ := testRepo(t)

	branch, err := repo.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "feature", branch)
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"missing FS", Options{}, true},
		{"negative cache", Options{FS: memfs.New(), StorerCacheSize: -1}, true},
		{"negative depth", Options{FS: memfs.New(), ShallowDepth: -1}, true},
		{"valid", Options{FS: memfs.New(), ShallowDepth: 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCloneRejectsEmptyURL(t *testing.T) {
	_, err := Clone(context.Background(), "", "master", &Options{FS: memfs.New()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRef))
}

// sourceRepo builds an on-disk repository to clone from and pull against.
func sourceRepo(t *testing.T) (string, func(name, content string) plumbing.Hash) {
	t.Helper()

	dir := t.TempDir()
	raw, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := raw.Worktree()
	require.NoError(t, err)

	commit := func(name, content string) plumbing.Hash {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
		_, addErr := wt.Add(name)
		require.NoError(t, addErr)
		hash, commitErr := wt.Commit("add "+name, &gogit.CommitOptions{Author: testSignature()})
		require.NoError(t, commitErr)
		return hash
	}
	commit("a.txt", "one")

	return dir, commit
}

func TestPull(t *testing.T) {
	ctx := context.Background()
	src, commit := sourceRepo(t)

	repo, err := Clone(ctx, src, "master", &Options{FS: osfs.New(t.TempDir())})
	require.NoError(t, err)

	// Nothing new on the remote yet.
	err = repo.Pull(ctx, "", "master")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAlreadyUpToDate))

	c2 := commit("b.txt", "two")

	// An empty branch pulls the branch HEAD points at.
	require.NoError(t, repo.Pull(ctx, "", ""))

	head, err := repo.BranchHead(ctx, "master")
	require.NoError(t, err)
	assert.Equal(t, c2, head.Hash)
}

func TestPullMissingBranchFailsLoudly(t *testing.T) {
	ctx := context.Background()
	src, _ := sourceRepo(t)

	repo, err := Clone(ctx, src, "master", &Options{FS: osfs.New(t.TempDir())})
	require.NoError(t, err)

	err = repo.Pull(ctx, "", "nope")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrAlreadyUpToDate))
}
