// Package deploy decides where built artifacts and documentation get
// published, and executes those decisions against the artifact store.
//
// Conda packages go to exactly one architecture-scoped location under the
// resolved upload channel and are never overwritten: a clash means two
// builds raced for the same build number, and the loser must rebuild.
// Documentation trees fan out to between one and four path segments
// depending on stability.
package deploy

import (
	"fmt"
	"path"
	"strings"

	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/artifact"
	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/errors"
)

// Target is one publication destination: a remote path and whether an
// existing object there may be replaced.
type Target struct {
	Remote    string
	Overwrite bool
}

// PackageTarget computes the single destination of a built conda package:
// its architecture subdirectory under the upload channel, never
// overwriting. A clash at deploy time means two builds raced for the same
// build number and the loser must rebuild with a fresh one.
func PackageTarget(uploadChannelURL string, a *artifact.Artifact) (Target, error) {
	if a.Arch == "" {
		return Target{}, errors.Newf(errors.CodeInvalidConfig,
			"cannot derive architecture for %s", a.Path)
	}
	return Target{
		Remote: fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(uploadChannelURL, "/"),
			a.Arch, path.Base(a.Path)),
	}, nil
}

// DocTargets returns the documentation path segments to publish under:
// the branch for every build; additionally the tag for stable builds; and
// the synthetic "stable" and "master" aliases when the stable build is also
// the latest release.
func DocTargets(stable, latest bool, branch, tag string) []string {
	candidates := []string{branch}
	if stable {
		candidates = append(candidates, tag)
		if latest {
			candidates = append(candidates, "stable", "master")
		}
	}

	// Stable builds normally run from the master branch, which would
	// otherwise appear twice.
	seen := make(map[string]bool, len(candidates))
	var targets []string
	for _, c := range candidates {
		if seen[c] {
			continue
		}
		seen[c] = true
		targets = append(targets, c)
	}
	return targets
}

// FilterBaseArtifacts drops artifacts produced by the package itself from a
// base-dependency deploy: base builds only publish the *other* packages
// collected incidentally, never their own output.
func FilterBaseArtifacts(pkgName string, paths []string) []string {
	var kept []string
	for _, p := range paths {
		if strings.HasPrefix(path.Base(p), pkgName+"-") {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

// CheckVisibility refuses publishing a non-public project to a public
// channel. The channel resolver never produces such a pairing; this guard
// catches manual channel overrides.
func CheckVisibility(public bool, uploadChannelURL string) error {
	if !public && !strings.Contains(uploadChannelURL, "/private/") {
		return errors.Newf(errors.CodeForbidden,
			"refusing to publish a private project to public channel %s", uploadChannelURL)
	}
	return nil
}
