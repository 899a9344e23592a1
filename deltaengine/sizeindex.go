package deltaengine

import (
	"sort"

	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/emirpasic/gods/utils"

	"github.com/kitforge/gitkit/gitobj"
)

// SizeIndex orders object ids by their uncompressed size, backing the
// size-similarity CandidateFinder strategy's "within ±50%, ordered by
// proximity" requirement with Ceiling walks instead of a linear scan.
type SizeIndex struct {
	tree *redblacktree.Tree
}

// NewSizeIndex returns an empty SizeIndex.
func NewSizeIndex() *SizeIndex {
	return &SizeIndex{tree: redblacktree.NewWith(utils.Int64Comparator)}
}

// Insert records id as having uncompressed size bytes long.
func (s *SizeIndex) Insert(size int64, id gitobj.ObjectID) {
	if v, ok := s.tree.Get(size); ok {
		ids := v.([]gitobj.ObjectID)
		s.tree.Put(size, append(ids, id))
	} else {
		s.tree.Put(size, []gitobj.ObjectID{id})
	}
}

// Remove drops id from the size bucket it was inserted under.
func (s *SizeIndex) Remove(size int64, id gitobj.ObjectID) {
	v, ok := s.tree.Get(size)
	if !ok {
		return
	}
	ids := v.([]gitobj.ObjectID)
	kept := ids[:0]
	for _, existing := range ids {
		if existing != id {
			kept = append(kept, existing)
		}
	}
	if len(kept) == 0 {
		s.tree.Remove(size)
		return
	}
	s.tree.Put(size, kept)
}

// Near returns every id whose recorded size lies within [size*(1-ratio),
// size*(1+ratio)], closest size first, walking the tree from the smallest
// qualifying size upward via repeated Ceiling lookups rather than a full
// scan.
func (s *SizeIndex) Near(size int64, ratio float64) []gitobj.ObjectID {
	lo := int64(float64(size) * (1 - ratio))
	hi := int64(float64(size) * (1 + ratio))
	if lo < 0 {
		lo = 0
	}

	type bucket struct {
		key int64
		ids []gitobj.ObjectID
	}
	var buckets []bucket
	cursor := lo
	for {
		node, found := s.tree.Ceiling(cursor)
		if !found {
			break
		}
		key := node.Key.(int64)
		if key > hi {
			break
		}
		buckets = append(buckets, bucket{key: key, ids: node.Value.([]gitobj.ObjectID)})
		cursor = key + 1
	}
	dist := func(k int64) int64 {
		if k > size {
			return k - size
		}
		return size - k
	}
	sort.SliceStable(buckets, func(i, j int) bool { return dist(buckets[i].key) < dist(buckets[j].key) })

	var out []gitobj.ObjectID
	for _, b := range buckets {
		out = append(out, b.ids...)
	}
	return out
}
