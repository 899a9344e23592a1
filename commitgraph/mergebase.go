package commitgraph

import (
	"io"

	"github.com/kitforge/gitkit/gitobj"
)

// paintAncestry returns the set of ids reachable from start (start
// included), following every parent edge.
func paintAncestry(loader CommitLoader, start gitobj.ObjectID) (map[gitobj.ObjectID]bool, error) {
	w, err := NewWalker(loader, []gitobj.ObjectID{start}, Options{})
	if err != nil {
		return nil, err
	}
	paint := make(map[gitobj.ObjectID]bool)
	for {
		id, _, err := w.Next()
		if err == io.EOF {
			return paint, nil
		}
		if err != nil {
			return nil, err
		}
		paint[id] = true
	}
}

// IsAncestor reports whether a is an ancestor of b, or a == b (spec.md
// §4.6).
func IsAncestor(loader CommitLoader, a, b gitobj.ObjectID) (bool, error) {
	if a == b {
		return true, nil
	}
	ancestry, err := paintAncestry(loader, b)
	if err != nil {
		return false, err
	}
	return ancestry[a], nil
}

// MergeBase returns the best common ancestors of a and b, found by
// painting a's ancestry and walking b's looking for the first paint hits
// (spec.md §4.6). A result already reachable from another result is
// dropped, since it is not a *best* common ancestor. The result is empty
// when a and b share no history, has one entry in the common case, and
// may have more than one for criss-cross merges.
func MergeBase(loader CommitLoader, a, b gitobj.ObjectID) ([]gitobj.ObjectID, error) {
	aPaint, err := paintAncestry(loader, a)
	if err != nil {
		return nil, err
	}

	w, err := NewWalker(loader, []gitobj.ObjectID{b}, Options{})
	if err != nil {
		return nil, err
	}

	var candidates []gitobj.ObjectID
	for {
		id, _, err := w.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if aPaint[id] {
			candidates = append(candidates, id)
		}
	}

	return pruneRedundant(loader, candidates)
}

// pruneRedundant removes any candidate that is itself an ancestor of
// another candidate, leaving only the "best" (most recent along each
// line of history) common ancestors.
func pruneRedundant(loader CommitLoader, candidates []gitobj.ObjectID) ([]gitobj.ObjectID, error) {
	best := make([]gitobj.ObjectID, 0, len(candidates))
	for i, c := range candidates {
		redundant := false
		for j, other := range candidates {
			if i == j {
				continue
			}
			isAnc, err := IsAncestor(loader, c, other)
			if err != nil {
				return nil, err
			}
			if isAnc && c != other {
				redundant = true
				break
			}
		}
		if !redundant {
			best = append(best, c)
		}
	}
	return dedupe(best), nil
}

func dedupe(ids []gitobj.ObjectID) []gitobj.ObjectID {
	seen := make(map[gitobj.ObjectID]bool, len(ids))
	out := make([]gitobj.ObjectID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
