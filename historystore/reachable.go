package historystore

import (
	"bytes"
	"io"

	"github.com/kitforge/gitkit/commitgraph"
	"github.com/kitforge/gitkit/gitobj"
	"github.com/kitforge/gitkit/gitobj/objects"
)

// ReachableIter pulls ids reachable from a set of roots, one at a time,
// terminating via io.EOF (spec.md §5's pull-protocol convention, matched
// here to commitgraph.Walker's own Next/io.EOF shape). Each id is yielded
// at most once.
type ReachableIter struct {
	store   *Store
	commits *commitgraph.Walker
	queue   []gitobj.ObjectID
	visited map[gitobj.ObjectID]bool
}

// EnumerateReachable walks from roots (spec.md §6): every commit reachable
// by following parent edges from roots, each commit's tree and every
// descendant tree recursively, and every referenced blob (spec.md §8
// property 10). An annotated tag root is peeled to the commit it names
// before the commit walk begins. A commit's dangling/missing parent is
// silently skipped, matching commitgraph.Walker; a tree missing from the
// object store is reported as a *gitobj.NotFoundError from Next. Blob ids
// are yielded from their tree entries without checking that the blob is
// stored.
func (s *Store) EnumerateReachable(roots []gitobj.ObjectID) (*ReachableIter, error) {
	loader := commitgraph.ObjectStoreLoader{Store: s.Objects}

	commitRoots := make([]gitobj.ObjectID, 0, len(roots))
	for _, id := range roots {
		peeled, err := s.peelToCommit(id)
		if err != nil {
			return nil, err
		}
		commitRoots = append(commitRoots, peeled)
	}

	w, err := commitgraph.NewWalker(loader, commitRoots, commitgraph.Options{})
	if err != nil {
		return nil, err
	}

	return &ReachableIter{store: s, commits: w, visited: make(map[gitobj.ObjectID]bool)}, nil
}

// peelToCommit follows tag -> object links until it reaches a commit, so a
// root naming an annotated tag still starts the commit walk at the commit
// the tag ultimately points to.
func (s *Store) peelToCommit(id gitobj.ObjectID) (gitobj.ObjectID, error) {
	for {
		hdr, err := s.Objects.GetHeader(id)
		if err != nil {
			return gitobj.ZeroHash, err
		}
		if hdr.Type != gitobj.TagObject {
			return id, nil
		}
		_, content, err := s.Objects.LoadBytes(id)
		if err != nil {
			return gitobj.ZeroHash, err
		}
		tag, err := objects.DecodeTag(bytes.NewReader(content))
		if err != nil {
			return gitobj.ZeroHash, err
		}
		id = tag.ObjectID
	}
}

// Next returns the next reachable id, or io.EOF once exhausted.
func (it *ReachableIter) Next() (gitobj.ObjectID, error) {
	for {
		if len(it.queue) > 0 {
			id := it.queue[0]
			it.queue = it.queue[1:]
			return id, nil
		}

		commitID, commit, err := it.commits.Next()
		if err == io.EOF {
			return gitobj.ZeroHash, io.EOF
		}
		if err != nil {
			return gitobj.ZeroHash, err
		}

		if !it.visited[commitID] {
			it.visited[commitID] = true
			it.queue = append(it.queue, commitID)
		}
		if err := it.queueTree(commit.TreeID); err != nil {
			return gitobj.ZeroHash, err
		}
	}
}

// queueTree recursively enumerates a tree's own id plus every descendant
// tree and blob id into it.queue, deduping against it.visited.
func (it *ReachableIter) queueTree(id gitobj.ObjectID) error {
	if it.visited[id] {
		return nil
	}
	it.visited[id] = true
	it.queue = append(it.queue, id)

	hdr, content, err := it.store.Objects.LoadBytes(id)
	if err != nil {
		return err
	}
	if hdr.Type != gitobj.TreeObject {
		return gitobj.NewInvalidArgumentError("EnumerateReachable: " + id.String() + " is not a tree")
	}

	tree, err := objects.DecodeTree(bytes.NewReader(content))
	if err != nil {
		return err
	}

	for _, e := range tree.Entries {
		if e.Mode == gitobj.Dir {
			if err := it.queueTree(e.ID); err != nil {
				return err
			}
			continue
		}
		if !it.visited[e.ID] {
			it.visited[e.ID] = true
			it.queue = append(it.queue, e.ID)
		}
	}
	return nil
}

// Collect drains it to completion, returning every id in discovery order.
func (it *ReachableIter) Collect() ([]gitobj.ObjectID, error) {
	var out []gitobj.ObjectID
	for {
		id, err := it.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
}
