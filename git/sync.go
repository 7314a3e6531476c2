package git

import (
	"context"
	"errors"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Pull fetches and integrates changes for the given branch from the named
// remote. An empty branch pulls the branch HEAD currently points at.
// Returns ErrAlreadyUpToDate when there is nothing to integrate and fails
// loudly when the branch does not exist on the remote.
//
// Context timeout/cancellation is honored during the operation.
func (r *Repo) Pull(ctx context.Context, remote, branch string) error {
	if remote == "" {
		remote = DefaultRemoteName
	}
	if branch == "" {
		current, err := r.CurrentBranch()
		if err != nil {
			return err
		}
		if current == "" {
			return WrapError(ErrInvalidRef, "cannot pull with a detached HEAD and no branch given")
		}
		branch = current
	}

	pullOpts := &gogit.PullOptions{
		RemoteName:   remote,
		Auth:         r.options.Auth,
		SingleBranch: true,
	}
	if branch != "" {
		pullOpts.ReferenceName = plumbing.NewBranchReferenceName(branch)
	}

	err := r.worktree.PullContext(ctx, pullOpts)
	if err != nil {
		if errors.Is(err, gogit.NoErrAlreadyUpToDate) {
			return ErrAlreadyUpToDate
		}
		return WrapErrorf(err, "failed to pull %q from %q", branch, remote)
	}
	return nil
}
