package release

import (
	"context"
	"log/slog"

	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/git"
)

// Classifier decides the stability of one package build from its git
// metadata. The decision is computed once per package per run and never
// re-derived mid-pipeline.
type Classifier struct {
	// Log receives the informational and warning messages explaining the
	// classification. Defaults to slog.Default when nil.
	Log *slog.Logger
}

func (c *Classifier) logger() *slog.Logger {
	if c == nil || c.Log == nil {
		return slog.Default()
	}
	return c.Log
}

// IsMaster tells if the build sits on the default branch.
//
// When a tag is set, the tag's commit must belong to the default branch's
// history (the head itself or one of its ancestors). Without a tag, the
// branch name is compared literally to the default branch name.
func (c *Classifier) IsMaster(ctx context.Context, refName, tag string, repo *git.Repo) (bool, error) {
	if tag != "" {
		commit, err := repo.ResolveTag(ctx, tag)
		if err != nil {
			return false, err
		}
		return repo.BranchContains(ctx, git.DefaultBranchName, commit)
	}

	return refName == git.DefaultBranchName, nil
}

// IsStable determines if the build being published is a stable release.
//
// A stable release requires a tag. Tags carrying a prerelease marker are
// rejected before any branch check; clean numeric tags are then
// cross-checked to come from the default branch. Untagged builds are
// prereleases by definition.
func (c *Classifier) IsStable(ctx context.Context, pkg, refName, tag string, repo *git.Repo) (bool, error) {
	log := c.logger()

	if tag == "" {
		log.Info("no tag information available at build")
		log.Info("considering this to be a pre-release build", "package", pkg)
		return false, nil
	}

	log.Info("project tag found", "package", pkg, "tag", tag)

	if IsPrereleaseTag(tag) {
		log.Warn("pre-release detected - not publishing to stable channels",
			"package", pkg, "tag", tag)
		return false, nil
	}

	onMaster, err := c.IsMaster(ctx, refName, tag, repo)
	if err != nil {
		return false, err
	}
	if !onMaster {
		log.Warn("tag in non-master branch will be ignored",
			"package", pkg, "tag", tag)
		return false, nil
	}

	return true, nil
}
