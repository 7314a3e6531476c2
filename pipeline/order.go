// Package pipeline drives the nightly build loop: an ordered list of
// packages is cloned, classified, built and conditionally deployed, strictly
// one at a time. The order file is the dependency order, so the first
// unrecovered error aborts the whole run.
package pipeline

import (
	"bufio"
	"io"
	"strings"

	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/errors"
)

// Package identifies a project by its namespace group and name.
type Package struct {
	Group string
	Name  string
}

// String renders the package as group/name.
func (p Package) String() string {
	return p.Group + "/" + p.Name
}

// Entry is one line of the order file: a package plus an optional branch
// override.
type Entry struct {
	Package Package

	// Branch overrides the branch to build. Empty means the run default.
	Branch string
}

// ParseOrderFile reads the build order: one `group/name[, branch]` entry per
// line, the comma separating an optional branch override, `#` starting a
// comment, blank lines ignored. Order is preserved and is the build order.
// A malformed entry is a configuration error naming the offending line.
func ParseOrderFile(r io.Reader) ([]Entry, error) {
	var entries []Entry

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		pkgPart, branch, hasBranch := strings.Cut(line, ",")
		pkgPart = strings.TrimSpace(pkgPart)
		branch = strings.TrimSpace(branch)
		if hasBranch && (branch == "" || strings.ContainsAny(branch, ", \t")) {
			return nil, errors.Newf(errors.CodeInvalidConfig,
				"order file line %d has a malformed branch override: %q", lineNo, line)
		}

		pkg, err := parsePackage(pkgPart)
		if err != nil {
			return nil, errors.Wrapf(err, errors.CodeInvalidConfig,
				"order file line %d", lineNo)
		}

		entries = append(entries, Entry{Package: pkg, Branch: branch})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidConfig, "reading order file")
	}
	return entries, nil
}

func parsePackage(s string) (Package, error) {
	group, name, found := strings.Cut(s, "/")
	if !found || group == "" || name == "" ||
		strings.Contains(name, "/") || strings.ContainsAny(s, " \t") {
		return Package{}, errors.Newf(errors.CodeInvalidConfig,
			"%q is not a group/name package reference", s)
	}
	return Package{Group: group, Name: name}, nil
}
