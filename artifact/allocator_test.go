package artifact

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLister returns a fixed channel listing regardless of prefix.
type fakeLister struct {
	paths []string
	calls int
}

func (f *fakeLister) List(ctx context.Context, channelURL, prefix string) ([]string, error) {
	f.calls++
	return f.paths, nil
}

const candidate = "bob.extension-2.3.1-py39_0.tar.bz2"

func TestAllocatorEmptyChannel(t *testing.T) {
	alloc := &Allocator{Store: &fakeLister{}}

	next, matches, err := alloc.Next(context.Background(), "http://example.com/conda", candidate)
	require.NoError(t, err)
	assert.Equal(t, 0, next)
	assert.Empty(t, matches)
}

func TestAllocatorSkipsGaps(t *testing.T) {
	alloc := &Allocator{Store: &fakeLister{paths: []string{
		"bob.extension-2.3.1-py39_0.tar.bz2",
		"bob.extension-2.3.1-py39_1.tar.bz2",
		"bob.extension-2.3.1-py39_3.tar.bz2",
	}}}

	next, matches, err := alloc.Next(context.Background(), "http://example.com/conda", candidate)
	require.NoError(t, err)
	assert.Equal(t, 4, next, "gaps in numbering must not cause reuse")
	assert.Len(t, matches, 3)
}

func TestAllocatorOutOfOrderListing(t *testing.T) {
	alloc := &Allocator{Store: &fakeLister{paths: []string{
		"bob.extension-2.3.1-py39_7.tar.bz2",
		"bob.extension-2.3.1-py39_2.tar.bz2",
		"bob.extension-2.3.1-py39_5.tar.bz2",
	}}}

	next, _, err := alloc.Next(context.Background(), "http://example.com/conda", candidate)
	require.NoError(t, err)
	assert.Equal(t, 8, next)
}

func TestAllocatorIgnoresOtherVersionsAndPythons(t *testing.T) {
	alloc := &Allocator{Store: &fakeLister{paths: []string{
		"bob.extension-2.3.0-py39_9.tar.bz2", // other version
		"bob.extension-2.3.1-py38_9.tar.bz2", // other python
		"bob.io.base-2.3.1-py39_9.tar.bz2",   // other package
		"repodata.json",                      // not a package at all
		"bob.extension-2.3.1-py39_1.tar.bz2",
	}}}

	next, matches, err := alloc.Next(context.Background(), "http://example.com/conda", candidate)
	require.NoError(t, err)
	assert.Equal(t, 2, next)
	assert.Equal(t, []string{"bob.extension-2.3.1-py39_1.tar.bz2"}, matches)
}

func TestAllocatorIdempotentRead(t *testing.T) {
	store := &fakeLister{paths: []string{
		"bob.extension-2.3.1-py39_0.tar.bz2",
	}}
	alloc := &Allocator{Store: store}
	ctx := context.Background()

	first, _, err := alloc.Next(ctx, "http://example.com/conda", candidate)
	require.NoError(t, err)
	second, _, err := alloc.Next(ctx, "http://example.com/conda", candidate)
	require.NoError(t, err)

	assert.Equal(t, first, second, "re-reading an unchanged channel must be stable")
	assert.Equal(t, 2, store.calls)
}
