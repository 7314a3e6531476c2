// Package release classifies builds as stable releases or prereleases.
//
// A build is a stable release when it carries a purely numeric version tag
// whose commit belongs to the default branch's history. Everything else -
// untagged builds, tags with prerelease markers, tags cut off other
// branches - is a prerelease.
package release

import (
	"strconv"
	"strings"
	"unicode"
)

// TagPrefix is the character conventionally prepended to release tags.
const TagPrefix = "v"

// Component is one element of a loosely parsed version string: either a
// number or a textual marker such as "rc", "beta" or "alpha".
type Component struct {
	Num    int
	Text   string
	IsText bool
}

// String renders the component back to its textual form.
func (c Component) String() string {
	if c.IsText {
		return c.Text
	}
	return strconv.Itoa(c.Num)
}

// ParseVersion splits a version string into numeric and textual components,
// discarding separators. "1.2.0rc1" parses to [1 2 0 rc 1]; any textual
// component marks the version as a prerelease.
func ParseVersion(version string) []Component {
	var components []Component
	var run strings.Builder
	var runIsDigit bool

	flush := func() {
		if run.Len() == 0 {
			return
		}
		text := run.String()
		run.Reset()
		if runIsDigit {
			n, err := strconv.Atoi(text)
			if err != nil {
				components = append(components, Component{Text: text, IsText: true})
				return
			}
			components = append(components, Component{Num: n})
			return
		}
		components = append(components, Component{Text: text, IsText: true})
	}

	for _, r := range version {
		switch {
		case unicode.IsDigit(r):
			if run.Len() > 0 && !runIsDigit {
				flush()
			}
			runIsDigit = true
			run.WriteRune(r)
		case unicode.IsLetter(r):
			if run.Len() > 0 && runIsDigit {
				flush()
			}
			runIsDigit = false
			run.WriteRune(r)
		default:
			// Separator ('.', '-', '_', ...): ends the current run.
			flush()
		}
	}
	flush()

	return components
}

// IsPrereleaseTag tells whether a release tag carries any non-numeric
// version component (e.g. "v1.2.0rc1", "v2.0.0beta2"). Such tags are never
// published as stable, regardless of which branch they were cut from.
func IsPrereleaseTag(tag string) bool {
	version := strings.TrimPrefix(tag, TagPrefix)
	for _, c := range ParseVersion(version) {
		if c.IsText {
			return true
		}
	}
	return false
}
