package stage

import (
	"bytes"
	"path"
	"sort"
	"time"

	"github.com/kitforge/gitkit/gitobj"
	"github.com/kitforge/gitkit/gitobj/objects"
	"github.com/kitforge/gitkit/objstore"
)

// Index is the in-memory staging area: a sorted collection of
// StagingEntry records (spec.md §4.5).
type Index struct {
	entries  []StagingEntry
	loadedAt time.Time
}

// New returns an empty Index.
func New() *Index {
	return &Index{}
}

// Entries returns the index's entries in canonical sort order. The
// returned slice is owned by the caller; mutating it does not affect idx.
func (idx *Index) Entries() []StagingEntry {
	out := make([]StagingEntry, len(idx.entries))
	copy(out, idx.entries)
	return out
}

// Len reports the number of entries.
func (idx *Index) Len() int { return len(idx.entries) }

// Get returns the entry at (path, stage), if present.
func (idx *Index) Get(p string, stage int) (StagingEntry, bool) {
	i := idx.search(p, stage)
	if i < len(idx.entries) && idx.entries[i].Path == p && idx.entries[i].Stage == stage {
		return idx.entries[i], true
	}
	return StagingEntry{}, false
}

func (idx *Index) search(p string, stage int) int {
	return sort.Search(len(idx.entries), func(i int) bool {
		return !idx.entries[i].less(StagingEntry{Path: p, Stage: stage})
	})
}

// sortEntries sorts entries into canonical (path, stage) order, in place.
func sortEntries(entries []StagingEntry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].less(entries[j]) })
}

// HasConflicts reports whether any entry records a merge stage greater
// than 0 (spec.md §4.5).
func (idx *Index) HasConflicts() bool {
	for _, e := range idx.entries {
		if e.Stage > 0 {
			return true
		}
	}
	return false
}

// IsOutdated compares name's on-disk modification time against the instant
// idx was last loaded via Decode, reporting true if the file has changed
// since (spec.md §4.5). An Index that was never loaded via Decode is never
// considered outdated by this check.
func (idx *Index) IsOutdated(fs gitobj.FilesApi, name string) (bool, error) {
	if idx.loadedAt.IsZero() {
		return false, nil
	}
	fi, err := fs.Stat(name)
	if err != nil {
		return false, gitobj.WrapBackend(err)
	}
	return fi.ModTime().After(idx.loadedAt), nil
}

// WriteTree materializes idx's entries into a tree of Git tree objects,
// written bottom-up to store, and returns the root tree id (spec.md
// §4.5). It rejects the index outright if any entry has stage > 0, since a
// conflicted path has no single blob to place in the tree. Calling
// WriteTree twice on an unchanged index returns the same id, since tree
// encoding and content addressing are both deterministic.
func (idx *Index) WriteTree(store *objstore.ObjectStore) (gitobj.ObjectID, error) {
	if idx.HasConflicts() {
		return gitobj.ZeroHash, gitobj.NewConflictingStateError("WriteTree: index has unresolved conflicts (stage > 0 entries present)")
	}

	root := newTreeDir()
	for _, e := range idx.entries {
		root.insert(splitPath(e.Path), e)
	}
	return root.write(store)
}

// ReadTree loads the tree named by id (recursively) and replaces idx's
// entries with one stage-0 StagingEntry per blob leaf (spec.md §4.5). The
// file mode recorded in the tree is preserved; size and mtime, which a
// tree does not carry, are left zero.
func ReadTree(store *objstore.ObjectStore, id gitobj.ObjectID) (*Index, error) {
	idx := &Index{}
	if err := readTreeInto(store, id, "", idx); err != nil {
		return nil, err
	}
	sortEntries(idx.entries)
	return idx, nil
}

func readTreeInto(store *objstore.ObjectStore, id gitobj.ObjectID, prefix string, idx *Index) error {
	hdr, content, err := store.LoadBytes(id)
	if err != nil {
		return err
	}
	if hdr.Type != gitobj.TreeObject {
		return gitobj.NewInvalidArgumentError("ReadTree: " + id.String() + " is not a tree")
	}

	tree, err := objects.DecodeTree(bytes.NewReader(content))
	if err != nil {
		return err
	}

	for _, e := range tree.Entries {
		p := path.Join(prefix, e.Name)
		if e.Mode == gitobj.Dir {
			if err := readTreeInto(store, e.ID, p, idx); err != nil {
				return err
			}
			continue
		}
		idx.entries = append(idx.entries, StagingEntry{Path: p, Mode: e.Mode, ID: e.ID, Stage: 0})
	}
	return nil
}

// Checkout materializes every stage-0, non-conflicted entry's blob content
// into the worktree rooted at root, via fs. An entry whose SkipWorktree
// flag is set is left untouched (SPEC_FULL.md's sparse-checkout
// enforcement: the flag is honored at exactly this boundary).
func (idx *Index) Checkout(store *objstore.ObjectStore, fs gitobj.FilesApi, root string) error {
	for _, e := range idx.entries {
		if e.Stage > 0 || e.SkipWorktree {
			continue
		}

		hdr, content, err := store.LoadBytes(e.ID)
		if err != nil {
			return err
		}
		if hdr.Type != gitobj.BlobObject {
			continue
		}

		full := path.Join(root, e.Path)
		if err := fs.MkdirAll(path.Dir(full), 0o755); err != nil {
			return gitobj.WrapBackend(err)
		}
		f, err := fs.Create(full)
		if err != nil {
			return gitobj.WrapBackend(err)
		}
		if _, err := f.Write(content); err != nil {
			f.Close()
			return gitobj.WrapBackend(err)
		}
		if err := f.Close(); err != nil {
			return gitobj.WrapBackend(err)
		}
	}
	return nil
}
