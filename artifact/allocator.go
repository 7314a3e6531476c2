package artifact

import (
	"context"

	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/errors"
)

// Lister is the slice of the artifact store the allocator needs: listing
// the artifacts published on a channel under a basename prefix.
type Lister interface {
	List(ctx context.Context, channelURL, prefix string) ([]string, error)
}

// Allocator computes the next free build number for a candidate artifact
// against its upload channel. Build numbers for a fixed (name, version,
// python) combination are strictly increasing and never reused.
type Allocator struct {
	Store Lister
}

// Next returns the next build number for the candidate basename on the
// upload channel, together with the existing artifact paths that matched.
//
// The result is max(existing)+1, or 0 when no previous build exists. The
// computation is a pure read: calling it twice against an unchanged channel
// yields the same number.
func (a *Allocator) Next(ctx context.Context, channelURL, candidateBasename string) (int, []string, error) {
	candidate, err := Parse(candidateBasename)
	if err != nil {
		return 0, nil, err
	}
	prefix := candidate.Prefix()

	listed, err := a.Store.List(ctx, channelURL, prefix)
	if err != nil {
		return 0, nil, errors.Wrap(err, errors.CodeNetwork,
			"listing channel "+channelURL)
	}

	next := 0
	var matches []string
	for _, p := range listed {
		existing, parseErr := Parse(p)
		if parseErr != nil {
			// Channel listings may carry unrelated files (index pages,
			// checksums); those never count against the build number.
			continue
		}
		if existing.Name != candidate.Name || existing.Version != candidate.Version ||
			existing.PyTag != candidate.PyTag {
			continue
		}
		if existing.BuildNumber >= next {
			next = existing.BuildNumber + 1
		}
		matches = append(matches, p)
	}

	return next, matches, nil
}
