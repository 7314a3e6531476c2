package git

import (
	"context"
	"errors"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ResolveTag resolves a tag name to the commit it points at, following
// annotated tag objects to their target. Returns ErrTagMissing when the tag
// does not exist.
func (r *Repo) ResolveTag(ctx context.Context, name string) (*object.Commit, error) {
	if name == "" {
		return nil, WrapError(ErrInvalidRef, "tag name cannot be empty")
	}

	ref, err := r.repo.Reference(plumbing.NewTagReferenceName(name), true)
	if err != nil {
		return nil, WrapErrorf(ErrTagMissing, "tag %q", name)
	}

	hash := ref.Hash()
	if tag, tagErr := r.repo.TagObject(hash); tagErr == nil {
		commit, commitErr := tag.Commit()
		if commitErr != nil {
			return nil, WrapErrorf(commitErr, "resolving annotated tag %q", name)
		}
		return commit, nil
	}

	commit, err := r.repo.CommitObject(hash)
	if err != nil {
		return nil, WrapErrorf(ErrResolveFailed, "tag %q does not point at a commit", name)
	}
	return commit, nil
}

// BranchHead returns the head commit of the named local branch.
// Returns ErrBranchMissing when the branch does not exist.
func (r *Repo) BranchHead(ctx context.Context, branch string) (*object.Commit, error) {
	ref, err := r.repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		// Shallow single-branch clones only materialize the remote ref.
		ref, err = r.repo.Reference(
			plumbing.NewRemoteReferenceName(DefaultRemoteName, branch), true)
		if err != nil {
			return nil, WrapErrorf(ErrBranchMissing, "branch %q", branch)
		}
	}

	commit, err := r.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, WrapErrorf(err, "resolving head of branch %q", branch)
	}
	return commit, nil
}

// BranchContains tells whether the given commit belongs to the history of
// the named branch: it is the branch head itself or one of its ancestors.
//
// The check uses go-git's merge-base machinery instead of scanning the full
// commit list, which keeps it bounded on long histories while preserving
// the membership semantics.
func (r *Repo) BranchContains(ctx context.Context, branch string, commit *object.Commit) (bool, error) {
	head, err := r.BranchHead(ctx, branch)
	if err != nil {
		return false, err
	}

	if head.Hash == commit.Hash {
		return true, nil
	}

	ok, err := commit.IsAncestor(head)
	if err != nil {
		return false, WrapErrorf(err, "ancestry check for %s on branch %q", commit.Hash, branch)
	}
	return ok, nil
}

// CurrentBranch returns the short name of the branch HEAD points at, or an
// empty string for a detached HEAD.
func (r *Repo) CurrentBranch() (string, error) {
	ref, err := r.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", WrapError(ErrResolveFailed, "repository has no HEAD")
		}
		return "", WrapError(err, "resolving HEAD")
	}
	if !ref.Name().IsBranch() {
		return "", nil
	}
	return ref.Name().Short(), nil
}
