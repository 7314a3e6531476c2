// Package artifact models built conda packages: parsing their basenames and
// allocating monotonic build numbers against a publish channel.
package artifact

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/errors"
)

// Architectures we build and deploy for, in deployment order.
var Architectures = []string{"linux-64", "osx-64", "noarch"}

var pyTagRe = regexp.MustCompile(`^py[2-9][0-9]+`)

// Artifact identifies one built conda package. Once uploaded an artifact is
// immutable; the build number is the only field that varies between
// repeated builds of the same logical version.
type Artifact struct {
	// Name is the conda package name (e.g. "bob.extension").
	Name string

	// Version is the package version (e.g. "2.3.1").
	Version string

	// PyTag is the python build tag (e.g. "py39"), empty for noarch
	// packages built without a python pin.
	PyTag string

	// BuildNumber distinguishes repeated builds of the same
	// (name, version, python) combination.
	BuildNumber int

	// Arch is the platform subdirectory the artifact was built for
	// ("linux-64", "osx-64", "noarch"). Empty when parsed from a bare
	// basename.
	Arch string

	// Path is the original file path the artifact was parsed from.
	Path string
}

// stripExtension removes the conda package extension, reporting whether the
// basename carried one.
func stripExtension(basename string) (string, bool) {
	for _, ext := range []string{".tar.bz2", ".conda"} {
		if strings.HasSuffix(basename, ext) {
			return strings.TrimSuffix(basename, ext), true
		}
	}
	return basename, false
}

// Parse interprets a conda package basename of the form
// name-version-buildstring{.tar.bz2,.conda}, where the build string is
// [pyXY[hash]]_N. The name may itself contain dashes; version and build
// string never do.
func Parse(basename string) (*Artifact, error) {
	stem, ok := stripExtension(path.Base(basename))
	if !ok {
		return nil, errors.Newf(errors.CodeInvalidConfig,
			"%q is not a conda package filename", basename)
	}

	parts := strings.Split(stem, "-")
	if len(parts) < 3 {
		return nil, errors.Newf(errors.CodeInvalidConfig,
			"%q does not follow the name-version-build layout", basename)
	}

	buildString := parts[len(parts)-1]
	version := parts[len(parts)-2]
	name := strings.Join(parts[:len(parts)-2], "-")

	underscore := strings.LastIndex(buildString, "_")
	if underscore < 0 {
		// Third-party packages often use a bare numeric build string
		// ("zlib-1.2.11-0.tar.bz2").
		number, err := strconv.Atoi(buildString)
		if err != nil {
			return nil, errors.Newf(errors.CodeInvalidConfig,
				"build string %q carries no build number", buildString)
		}
		return &Artifact{
			Name:        name,
			Version:     version,
			BuildNumber: number,
			Path:        basename,
		}, nil
	}

	number, err := strconv.Atoi(buildString[underscore+1:])
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidConfig,
			fmt.Sprintf("build number in %q is not an integer", buildString))
	}

	return &Artifact{
		Name:        name,
		Version:     version,
		PyTag:       pyTagRe.FindString(buildString),
		BuildNumber: number,
		Path:        basename,
	}, nil
}

// ParsePath interprets a full artifact path, additionally extracting the
// architecture from the parent directory when it is one of Architectures.
func ParsePath(p string) (*Artifact, error) {
	a, err := Parse(path.Base(p))
	if err != nil {
		return nil, err
	}
	a.Path = p

	parent := path.Base(path.Dir(p))
	for _, arch := range Architectures {
		if parent == arch {
			a.Arch = arch
		}
	}
	return a, nil
}

// Prefix returns the basename prefix shared by all builds of the same
// (name, version, python) combination, used to match historical builds on a
// channel listing.
func (a *Artifact) Prefix() string {
	if a.PyTag == "" {
		return fmt.Sprintf("%s-%s-", a.Name, a.Version)
	}
	return fmt.Sprintf("%s-%s-%s", a.Name, a.Version, a.PyTag)
}

// Basename renders the canonical artifact filename.
func (a *Artifact) Basename() string {
	build := a.PyTag
	return fmt.Sprintf("%s-%s-%s_%d.tar.bz2", a.Name, a.Version, build, a.BuildNumber)
}
