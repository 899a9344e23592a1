package stage

import (
	"github.com/emirpasic/gods/trees/redblacktree"
)

// editorKey is the (path, stage) composite an Editor's tree is ordered by,
// matching the index's own canonical sort key (spec.md §3).
type editorKey struct {
	Path  string
	Stage int
}

func compareEditorKeys(a, b interface{}) int {
	ka, kb := a.(editorKey), b.(editorKey)
	if ka.Path != kb.Path {
		if ka.Path < kb.Path {
			return -1
		}
		return 1
	}
	return ka.Stage - kb.Stage
}

// Editor applies targeted edits to an Index while leaving every
// unaffected entry untouched (spec.md §4.5). It loads idx's current
// entries into a red-black tree keyed by (path, stage) so a single-entry
// update is a tree operation rather than a full-slice rewrite; Finish
// flattens the tree back into idx in sorted order.
type Editor struct {
	idx  *Index
	tree *redblacktree.Tree
}

// NewEditor returns an Editor seeded with idx's current entries.
func NewEditor(idx *Index) *Editor {
	tree := redblacktree.NewWith(compareEditorKeys)
	for _, e := range idx.entries {
		e := e
		tree.Put(editorKey{e.Path, e.Stage}, &e)
	}
	return &Editor{idx: idx, tree: tree}
}

// Apply looks up the current entry at (path, stage) (nil if absent) and
// replaces it with whatever fn returns: a non-nil StagingEntry to
// upsert, or nil to remove the entry entirely. fn's returned entry's Path
// and Stage are forced to match the (path, stage) key being edited.
func (ed *Editor) Apply(path string, stage int, fn func(current *StagingEntry) *StagingEntry) {
	key := editorKey{path, stage}

	var current *StagingEntry
	if v, ok := ed.tree.Get(key); ok {
		c := *v.(*StagingEntry)
		current = &c
	}

	next := fn(current)
	if next == nil {
		ed.tree.Remove(key)
		return
	}

	next.Path = path
	next.Stage = stage
	ed.tree.Put(key, next)
}

// Finish flattens the tree's current contents into idx's entries, in
// canonical (path, stage) order.
func (ed *Editor) Finish() {
	values := ed.tree.Values()
	entries := make([]StagingEntry, 0, len(values))
	for _, v := range values {
		entries = append(entries, *v.(*StagingEntry))
	}
	ed.idx.entries = entries
}
