// Package git provides a high-level wrapper around go-git for the CI
// drivers: shallow clones of package repositories, pulls, tag resolution and
// branch-ancestry checks. All repository state lives within a billy
// filesystem so tests can run entirely in memory.
package git

import (
	"context"
	"net/http"
	"time"

	"github.com/go-git/go-billy/v5"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

const (
	// DefaultStorerCacheSize is the default size for the LRU object cache.
	DefaultStorerCacheSize = 1000

	// DefaultRemoteName is the default remote name used for operations.
	DefaultRemoteName = "origin"

	// DefaultBranchName is the branch stable releases are cut from.
	DefaultBranchName = "master"
)

// Options configures repository discovery/creation and performance.
type Options struct {
	// FS is the REQUIRED filesystem root holding the worktree.
	FS billy.Filesystem

	// StorerCacheSize sets the LRU object cache entries.
	// Defaults to DefaultStorerCacheSize.
	StorerCacheSize int

	// Auth is an optional authentication method for network operations.
	// CI runs use a job-token HTTP auth; local runs usually need none.
	Auth transport.AuthMethod

	// HTTPClient is an optional custom transport for network operations.
	// If nil, a default client with reasonable timeouts is used.
	HTTPClient *http.Client

	// ShallowDepth sets the depth for shallow clone/fetch operations.
	// If > 0, operations are shallow with the specified depth.
	ShallowDepth int
}

// Validate checks that the Options are properly configured.
func (o *Options) Validate() error {
	if o.FS == nil {
		return WrapError(ErrInvalidRef, "FS is required")
	}
	if o.StorerCacheSize < 0 {
		return WrapError(ErrInvalidRef, "StorerCacheSize cannot be negative")
	}
	if o.ShallowDepth < 0 {
		return WrapError(ErrInvalidRef, "ShallowDepth cannot be negative")
	}
	return nil
}

func (o *Options) applyDefaults() {
	if o.StorerCacheSize == 0 {
		o.StorerCacheSize = DefaultStorerCacheSize
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
}

// Repo represents a cloned package repository and provides the high-level
// operations the CI drivers need.
type Repo struct {
	repo     *gogit.Repository
	worktree *gogit.Worktree
	options  Options
}

// newStorage builds go-git filesystem storage under .git of the scoped
// filesystem, with an LRU object cache.
func newStorage(fs billy.Filesystem, cacheSize int) (*filesystem.Storage, error) {
	dotGit, err := fs.Chroot(gogit.GitDirName)
	if err != nil {
		return nil, WrapError(err, "failed to access .git directory")
	}
	return filesystem.NewStorage(dotGit, cache.NewObjectLRU(cache.FileSize(cacheSize)*cache.MiByte)), nil
}

// Clone creates a new repository by cloning remoteURL at the given branch.
// The clone is shallow when Options.ShallowDepth > 0 and always
// single-branch. Cloning fails loudly when the branch does not exist on the
// remote.
//
// Context timeout/cancellation is honored during the clone operation.
func Clone(ctx context.Context, remoteURL, branch string, opts *Options) (*Repo, error) {
	if remoteURL == "" {
		return nil, WrapError(ErrInvalidRef, "remote URL cannot be empty")
	}
	if err := opts.Validate(); err != nil {
		return nil, WrapError(err, "invalid options")
	}
	opts.applyDefaults()

	storage, err := newStorage(opts.FS, opts.StorerCacheSize)
	if err != nil {
		return nil, err
	}

	cloneOpts := &gogit.CloneOptions{
		URL:          remoteURL,
		Auth:         opts.Auth,
		Depth:        opts.ShallowDepth,
		SingleBranch: true,
	}
	if branch != "" {
		cloneOpts.ReferenceName = plumbing.NewBranchReferenceName(branch)
	}

	repo, err := gogit.CloneContext(ctx, storage, opts.FS, cloneOpts)
	if err != nil {
		return nil, WrapErrorf(err, "failed to clone %q at branch %q", remoteURL, branch)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, WrapError(err, "failed to get worktree")
	}

	return &Repo{repo: repo, worktree: worktree, options: *opts}, nil
}

// Open opens an existing repository at the root of Options.FS.
func Open(ctx context.Context, opts *Options) (*Repo, error) {
	if err := opts.Validate(); err != nil {
		return nil, WrapError(err, "invalid options")
	}
	opts.applyDefaults()

	storage, err := newStorage(opts.FS, opts.StorerCacheSize)
	if err != nil {
		return nil, err
	}

	repo, err := gogit.Open(storage, opts.FS)
	if err != nil {
		return nil, WrapError(err, "failed to open repository")
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, WrapError(err, "failed to get worktree")
	}

	return &Repo{repo: repo, worktree: worktree, options: *opts}, nil
}

// FromRepository wraps an already-constructed go-git repository. Used by
// tests that assemble repositories in memory.
func FromRepository(repo *gogit.Repository) *Repo {
	worktree, _ := repo.Worktree()
	return &Repo{repo: repo, worktree: worktree}
}
