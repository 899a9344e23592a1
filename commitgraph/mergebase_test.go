package commitgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitforge/gitkit/gitobj"
)

func TestIsAncestorSelf(t *testing.T) {
	s := newStubLoader()
	c := s.add(1, 100)

	ok, err := IsAncestor(s, c, c)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIsAncestorTrueAndFalse(t *testing.T) {
	s := newStubLoader()
	base := s.add(1, 100)
	tip := s.add(2, 200, 1)
	unrelated := s.add(3, 300)

	ok, err := IsAncestor(s, base, tip)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = IsAncestor(s, unrelated, tip)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMergeBaseLinearHistory(t *testing.T) {
	s := newStubLoader()
	base := s.add(1, 100)
	s.add(2, 200, 1)
	s.add(3, 300, 1)

	got, err := MergeBase(s, idFor(2), idFor(3))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, base, got[0])
}

func TestMergeBaseOneIsAncestorOfOther(t *testing.T) {
	s := newStubLoader()
	base := s.add(1, 100)
	s.add(2, 200, 1)

	got, err := MergeBase(s, idFor(1), idFor(2))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, base, got[0])
}

func TestMergeBaseNoCommonHistory(t *testing.T) {
	s := newStubLoader()
	s.add(1, 100)
	s.add(2, 100)

	got, err := MergeBase(s, idFor(1), idFor(2))
	require.NoError(t, err)
	assert.Empty(t, got)
}

// TestMergeBaseCrissCross builds:
//
//	base -> l1 -> m1(l1,r1) -> tipA(m1)
//	     -> r1 -> m2(l1,r1) -> tipB(m2)
//
// m1 and m2 each merge l1 and r1, but neither m1 nor m2 is reachable from
// the other tip, so the best common ancestors of tipA/tipB are l1 and
// r1 themselves: two candidates, neither an ancestor of the other.
func TestMergeBaseCrissCross(t *testing.T) {
	s := newStubLoader()
	base := s.add(1, 100)
	l1 := s.add(2, 200, 1)
	r1 := s.add(3, 200, 1)
	s.add(4, 300, 2, 3)
	s.add(5, 300, 3, 2)
	tipA := s.add(6, 400, 4)
	tipB := s.add(7, 400, 5)

	got, err := MergeBase(s, tipA, tipB)
	require.NoError(t, err)
	assert.ElementsMatch(t, []gitobj.ObjectID{l1, r1}, got)

	_ = base
}
