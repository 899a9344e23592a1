package commitgraph

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitforge/gitkit/gitobj"
	"github.com/kitforge/gitkit/gitobj/objects"
)

// stubLoader is an in-memory CommitLoader for tests, avoiding any need to
// stand up a real object store.
type stubLoader struct {
	commits map[gitobj.ObjectID]*objects.Commit
}

func newStubLoader() *stubLoader {
	return &stubLoader{commits: make(map[gitobj.ObjectID]*objects.Commit)}
}

func (s *stubLoader) LoadCommit(id gitobj.ObjectID) (*objects.Commit, error) {
	c, ok := s.commits[id]
	if !ok {
		return nil, gitobj.NewNotFoundError("commit " + id.String())
	}
	return c, nil
}

// add registers a commit with the given id byte, timestamp, and parents.
func (s *stubLoader) add(idByte byte, ts int64, parents ...byte) gitobj.ObjectID {
	id := idFor(idByte)
	c := &objects.Commit{
		TreeID:    gitobj.EmptyTreeID,
		Committer: gitobj.PersonIdent{Name: "t", Email: "t@example.com", Timestamp: ts},
		Author:    gitobj.PersonIdent{Name: "t", Email: "t@example.com", Timestamp: ts},
		Message:   "msg",
	}
	for _, p := range parents {
		c.ParentIDs = append(c.ParentIDs, idFor(p))
	}
	s.commits[id] = c
	return id
}

func idFor(b byte) gitobj.ObjectID {
	var id gitobj.ObjectID
	id[len(id)-1] = b
	return id
}

func collect(t *testing.T, w *Walker) []gitobj.ObjectID {
	t.Helper()
	var out []gitobj.ObjectID
	for {
		id, _, err := w.Next()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, id)
	}
}

func TestWalkerOrdersByCommitterTimestampDescending(t *testing.T) {
	s := newStubLoader()
	c1 := s.add(1, 100)
	c2 := s.add(2, 200, 1)
	c3 := s.add(3, 300, 2)

	w, err := NewWalker(s, []gitobj.ObjectID{c3}, Options{})
	require.NoError(t, err)

	got := collect(t, w)
	assert.Equal(t, []gitobj.ObjectID{c3, c2, c1}, got)
}

func TestWalkerDedupesDiamondHistory(t *testing.T) {
	s := newStubLoader()
	base := s.add(1, 100)
	left := s.add(2, 200, 1)
	right := s.add(3, 200, 1)
	merge := s.add(4, 300, 2, 3)

	w, err := NewWalker(s, []gitobj.ObjectID{merge}, Options{})
	require.NoError(t, err)

	got := collect(t, w)
	assert.Len(t, got, 4)
	assert.Contains(t, got, base)
	assert.Contains(t, got, left)
	assert.Contains(t, got, right)
	assert.Contains(t, got, merge)
}

func TestWalkerTieBreaksByIDWhenTimestampsMatch(t *testing.T) {
	s := newStubLoader()
	a := s.add(1, 100)
	b := s.add(2, 100)

	w, err := NewWalker(s, []gitobj.ObjectID{b, a}, Options{})
	require.NoError(t, err)

	got := collect(t, w)
	// tie-break is id.Compare ascending: idFor(1) < idFor(2)
	assert.Equal(t, []gitobj.ObjectID{a, b}, got)
}

func TestWalkerRespectsLimit(t *testing.T) {
	s := newStubLoader()
	c1 := s.add(1, 100)
	c2 := s.add(2, 200, 1)
	s.add(3, 300, 2)

	w, err := NewWalker(s, []gitobj.ObjectID{idFor(3)}, Options{Limit: 2})
	require.NoError(t, err)

	got := collect(t, w)
	assert.Equal(t, []gitobj.ObjectID{idFor(3), c2}, got)
	_ = c1
}

func TestWalkerStopAtCutsTraversalButYieldsTheCommit(t *testing.T) {
	s := newStubLoader()
	base := s.add(1, 100)
	mid := s.add(2, 200, 1)
	tip := s.add(3, 300, 2)

	w, err := NewWalker(s, []gitobj.ObjectID{tip}, Options{StopAt: map[gitobj.ObjectID]bool{mid: true}})
	require.NoError(t, err)

	got := collect(t, w)
	assert.Equal(t, []gitobj.ObjectID{tip, mid}, got)
	assert.NotContains(t, got, base)
}

func TestWalkerFirstParentOnlyIgnoresMergeParents(t *testing.T) {
	s := newStubLoader()
	left := s.add(1, 100)
	right := s.add(2, 100)
	merge := s.add(3, 300, 1, 2)

	w, err := NewWalker(s, []gitobj.ObjectID{merge}, Options{FirstParentOnly: true})
	require.NoError(t, err)

	got := collect(t, w)
	assert.Equal(t, []gitobj.ObjectID{merge, left}, got)
	assert.NotContains(t, got, right)
}

func TestWalkerSilentlySkipsDanglingParents(t *testing.T) {
	s := newStubLoader()
	tip := s.add(1, 100, 99) // parent byte 99 never registered

	w, err := NewWalker(s, []gitobj.ObjectID{tip}, Options{})
	require.NoError(t, err)

	got := collect(t, w)
	assert.Equal(t, []gitobj.ObjectID{tip}, got)
}

func TestCollectMatchesManualNextLoop(t *testing.T) {
	s := newStubLoader()
	c1 := s.add(1, 100)
	c2 := s.add(2, 200, 1)

	got, err := Collect(s, []gitobj.ObjectID{c2}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []gitobj.ObjectID{c2, c1}, got)
}
