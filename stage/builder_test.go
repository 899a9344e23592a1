package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitforge/gitkit/gitobj"
)

func TestBuilderSortsCanonically(t *testing.T) {
	idx := New()
	b := NewBuilder(idx)
	b.Add(StagingEntry{Path: "zeta.txt"})
	b.Add(StagingEntry{Path: "alpha.txt"})
	b.Add(StagingEntry{Path: "alpha.txt", Stage: 1})
	require.NoError(t, b.Finish())

	entries := idx.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "alpha.txt", entries[0].Path)
	assert.Equal(t, 0, entries[0].Stage)
	assert.Equal(t, "alpha.txt", entries[1].Path)
	assert.Equal(t, 1, entries[1].Stage)
	assert.Equal(t, "zeta.txt", entries[2].Path)
}

func TestBuilderRejectsDuplicateKey(t *testing.T) {
	idx := New()
	b := NewBuilder(idx)
	b.Add(StagingEntry{Path: "a.txt", Stage: 0})
	b.Add(StagingEntry{Path: "a.txt", Stage: 0})

	err := b.Finish()
	require.Error(t, err)
	assert.True(t, gitobj.IsInvalidArgument(err))
}

func TestBuilderReplacesWholesale(t *testing.T) {
	idx := New()
	first := NewBuilder(idx)
	first.Add(StagingEntry{Path: "old.txt"})
	require.NoError(t, first.Finish())

	second := NewBuilder(idx)
	second.Add(StagingEntry{Path: "new.txt"})
	require.NoError(t, second.Finish())

	entries := idx.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "new.txt", entries[0].Path)
}
