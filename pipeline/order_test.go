package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/errors"
)

func TestParseOrderFile(t *testing.T) {
	input := strings.Join([]string{
		"# nightly build order",
		"",
		"bob/bob.extension",
		"bob/bob.blitz, add-feature   # temporary branch override",
		"bob/bob.core,next",
		"  ",
		"beat/beat.core",
	}, "\n")

	entries, err := ParseOrderFile(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, entries, 4)

	assert.Equal(t, Entry{Package: Package{Group: "bob", Name: "bob.extension"}}, entries[0])
	assert.Equal(t, Entry{
		Package: Package{Group: "bob", Name: "bob.blitz"},
		Branch:  "add-feature",
	}, entries[1])
	assert.Equal(t, Entry{
		Package: Package{Group: "bob", Name: "bob.core"},
		Branch:  "next",
	}, entries[2])
	assert.Equal(t, "beat/beat.core", entries[3].Package.String())
}

// The comma is the branch delimiter: it must never end up inside the
// package name, whatever whitespace surrounds it.
func TestParseOrderFileCommaNeverJoinsName(t *testing.T) {
	entries, err := ParseOrderFile(strings.NewReader("bob/bob.extension, add-feature"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "bob.extension", entries[0].Package.Name)
	assert.Equal(t, "add-feature", entries[0].Branch)
}

func TestParseOrderFileMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing group", "bob.extension"},
		{"empty name", "bob/"},
		{"empty group", "/bob.extension"},
		{"nested path", "bob/sub/bob.extension"},
		{"space instead of comma", "bob/bob.extension master"},
		{"empty branch after comma", "bob/bob.extension,"},
		{"branch with spaces", "bob/bob.extension, master extra"},
		{"second comma", "bob/bob.extension, master, extra"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOrderFile(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Equal(t, errors.CodeInvalidConfig, errors.CodeOf(err))
		})
	}
}

func TestParseOrderFileEmpty(t *testing.T) {
	entries, err := ParseOrderFile(strings.NewReader("# only comments\n\n"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}
