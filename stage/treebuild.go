package stage

import (
	"strings"

	"github.com/kitforge/gitkit/gitobj"
	"github.com/kitforge/gitkit/gitobj/objects"
	"github.com/kitforge/gitkit/objstore"
)

// splitPath breaks a '/'-separated index path into its components.
func splitPath(p string) []string {
	return strings.Split(p, "/")
}

// treeDir is an in-memory directory node built from the index's sorted
// entries, grouped by path prefix, ready to be written bottom-up as Git
// tree objects (spec.md §4.5).
type treeDir struct {
	dirs   map[string]*treeDir
	leaves map[string]StagingEntry
}

func newTreeDir() *treeDir {
	return &treeDir{dirs: make(map[string]*treeDir), leaves: make(map[string]StagingEntry)}
}

// insert places entry at the path named by components, creating
// intermediate directory nodes as needed.
func (d *treeDir) insert(components []string, entry StagingEntry) {
	if len(components) == 1 {
		d.leaves[components[0]] = entry
		return
	}
	name := components[0]
	child, ok := d.dirs[name]
	if !ok {
		child = newTreeDir()
		d.dirs[name] = child
	}
	child.insert(components[1:], entry)
}

// write recursively encodes d's subtrees bottom-up and stores them via
// store, returning d's own tree id.
func (d *treeDir) write(store *objstore.ObjectStore) (gitobj.ObjectID, error) {
	t := &objects.Tree{}

	for name, leaf := range d.leaves {
		t.Entries = append(t.Entries, objects.TreeEntry{Name: name, Mode: leaf.Mode, ID: leaf.ID})
	}
	for name, child := range d.dirs {
		id, err := child.write(store)
		if err != nil {
			return gitobj.ZeroHash, err
		}
		t.Entries = append(t.Entries, objects.TreeEntry{Name: name, Mode: gitobj.Dir, ID: id})
	}

	// Tree.Bytes sorts entries into canonical order before hashing, so the
	// id produced here does not depend on the (random) map iteration order
	// used to build t.Entries above.
	payload, err := t.Bytes()
	if err != nil {
		return gitobj.ZeroHash, err
	}
	return store.WriteBytes(gitobj.TreeObject, payload)
}
