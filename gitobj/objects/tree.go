package objects

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/kitforge/gitkit/gitobj"
)

// TreeEntry is one row of a tree object: a name, the mode it was recorded
// with, and the id of the blob/tree/commit it names.
type TreeEntry struct {
	Name string
	Mode gitobj.FileMode
	ID   gitobj.ObjectID
}

// Tree is the decoded form of a tree object: an ordered list of entries.
// Entries are always held sorted in the canonical order described by
// SortEntries; callers that build a Tree by hand must call SortEntries (or
// go through Encode, which sorts defensively) before relying on ordering.
type Tree struct {
	Entries []TreeEntry
}

// sortName returns the byte string a tree entry name compares under for
// canonical tree ordering (spec.md §3): directory entries compare as though
// their name had a trailing '/', so "foo" (a blob) sorts before "foo.c",
// while a directory "foo" (compared as "foo/") sorts after "foo.c" and
// before "food".
func sortName(e TreeEntry) string {
	if e.Mode == gitobj.Dir {
		return e.Name + "/"
	}
	return e.Name
}

// SortEntries sorts t.Entries into canonical tree order, in place.
func (t *Tree) SortEntries() {
	sort.Slice(t.Entries, func(i, j int) bool {
		return sortName(t.Entries[i]) < sortName(t.Entries[j])
	})
}

// Encode writes t's canonical byte encoding to w: each entry as
// "<mode-octal> <name>\0<20-byte-id>", concatenated in sorted order, with no
// separators between entries and no trailing newline (spec.md §3).
func (t *Tree) Encode(w io.Writer) error {
	t.SortEntries()
	for _, e := range t.Entries {
		if _, err := fmt.Fprintf(w, "%s %s\x00", e.Mode.String(), e.Name); err != nil {
			return gitobj.WrapBackend(err)
		}
		if _, err := w.Write(e.ID.Bytes()); err != nil {
			return gitobj.WrapBackend(err)
		}
	}
	return nil
}

// EncodeObject builds a MemoryObject of type TreeObject holding t's
// canonical encoding. The returned object's id is unset.
func (t *Tree) EncodeObject() (*gitobj.MemoryObject, error) {
	o := gitobj.NewMemoryObject(gitobj.TreeObject)
	w, err := o.Writer()
	if err != nil {
		return nil, err
	}
	if err := t.Encode(w); err != nil {
		return nil, err
	}
	return o, w.Close()
}

// DecodeTree parses a tree object's canonical byte encoding.
func DecodeTree(r io.Reader) (*Tree, error) {
	br := bufio.NewReader(r)
	t := &Tree{}

	for {
		modeName, err := br.ReadString(' ')
		if err == io.EOF && modeName == "" {
			break
		}
		if err != nil {
			return nil, gitobj.NewCorruptionError("malformed tree entry: missing mode separator", err)
		}
		mode, err := gitobj.New(modeName[:len(modeName)-1])
		if err != nil {
			return nil, gitobj.NewCorruptionError("malformed tree entry mode", err)
		}

		name, err := br.ReadString(0)
		if err != nil {
			return nil, gitobj.NewCorruptionError("malformed tree entry: missing name terminator", err)
		}
		name = name[:len(name)-1]

		var raw [20]byte
		if _, err := io.ReadFull(br, raw[:]); err != nil {
			return nil, gitobj.NewCorruptionError("malformed tree entry: truncated object id", err)
		}
		id, _ := gitobj.FromBytes(raw[:])

		t.Entries = append(t.Entries, TreeEntry{Name: name, Mode: mode, ID: id})
	}

	return t, nil
}

// DecodeTreeObject is a convenience wrapper reading a tree's payload via its
// GitObject reader.
func DecodeTreeObject(obj gitobj.GitObject) (*Tree, error) {
	if obj.Type() != gitobj.TreeObject {
		return nil, gitobj.NewInvalidArgumentError("DecodeTreeObject: not a tree: " + obj.Type().String())
	}
	r, err := obj.Reader()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return DecodeTree(r)
}

// Bytes returns t's canonical encoding as a standalone byte slice, useful
// for hashing without allocating a MemoryObject.
func (t *Tree) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Entry looks up an entry by exact name, returning ok=false if absent.
func (t *Tree) Entry(name string) (TreeEntry, bool) {
	for _, e := range t.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return TreeEntry{}, false
}
