package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditorPreservesUnaffectedEntries(t *testing.T) {
	idx := New()
	b := NewBuilder(idx)
	b.Add(StagingEntry{Path: "keep.txt", Size: 1})
	b.Add(StagingEntry{Path: "change.txt", Size: 1})
	require.NoError(t, b.Finish())

	ed := NewEditor(idx)
	ed.Apply("change.txt", 0, func(current *StagingEntry) *StagingEntry {
		require.NotNil(t, current)
		updated := *current
		updated.Size = 99
		return &updated
	})
	ed.Finish()

	keep, ok := idx.Get("keep.txt", 0)
	require.True(t, ok)
	assert.Equal(t, uint32(1), keep.Size)

	changed, ok := idx.Get("change.txt", 0)
	require.True(t, ok)
	assert.Equal(t, uint32(99), changed.Size)
}

func TestEditorCreatesAndRemovesEntries(t *testing.T) {
	idx := New()
	ed := NewEditor(idx)
	ed.Apply("new.txt", 0, func(current *StagingEntry) *StagingEntry {
		assert.Nil(t, current)
		return &StagingEntry{Size: 7}
	})
	ed.Finish()

	_, ok := idx.Get("new.txt", 0)
	require.True(t, ok)

	ed2 := NewEditor(idx)
	ed2.Apply("new.txt", 0, func(current *StagingEntry) *StagingEntry {
		return nil
	})
	ed2.Finish()

	_, ok = idx.Get("new.txt", 0)
	assert.False(t, ok)
}

func TestEditorKeepsSortOrderAcrossStages(t *testing.T) {
	idx := New()
	ed := NewEditor(idx)
	ed.Apply("a.txt", 2, func(*StagingEntry) *StagingEntry { return &StagingEntry{} })
	ed.Apply("a.txt", 1, func(*StagingEntry) *StagingEntry { return &StagingEntry{} })
	ed.Apply("a.txt", 3, func(*StagingEntry) *StagingEntry { return &StagingEntry{} })
	ed.Finish()

	entries := idx.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, 1, entries[0].Stage)
	assert.Equal(t, 2, entries[1].Stage)
	assert.Equal(t, 3, entries[2].Stage)
}
