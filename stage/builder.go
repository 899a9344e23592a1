package stage

import (
	"fmt"

	"github.com/kitforge/gitkit/gitobj"
)

// Builder collects StagingEntry records in any order and replaces an
// Index's entries wholesale on Finish (spec.md §4.5). It is the right tool
// for a full re-scan of the worktree; for a handful of targeted changes to
// an otherwise-unchanged index, use Editor instead.
type Builder struct {
	idx     *Index
	pending []StagingEntry
}

// NewBuilder returns a Builder that will replace idx's entries on Finish.
func NewBuilder(idx *Index) *Builder {
	return &Builder{idx: idx}
}

// Add stages entry for inclusion. Order does not matter; duplicates by
// (path, stage) are rejected at Finish, not here.
func (b *Builder) Add(entry StagingEntry) {
	b.pending = append(b.pending, entry)
}

// Finish validates that no (path, stage) key was added twice, sorts the
// batch into canonical order, and atomically replaces idx's entries.
func (b *Builder) Finish() error {
	seen := make(map[string]struct{}, len(b.pending))
	for _, e := range b.pending {
		key := fmt.Sprintf("%s\x00%d", e.Path, e.Stage)
		if _, dup := seen[key]; dup {
			return gitobj.NewInvalidArgumentError("Builder.Finish: duplicate entry for " + e.Path)
		}
		seen[key] = struct{}{}
	}

	sortEntries(b.pending)
	b.idx.entries = b.pending
	return nil
}
