package commitgraph

import (
	"container/heap"
	"io"

	"github.com/kitforge/gitkit/gitobj"
	"github.com/kitforge/gitkit/gitobj/objects"
)

// Options controls a Walker's traversal (spec.md §4.6).
type Options struct {
	// Limit caps the number of commits Next will yield. Zero means
	// unlimited.
	Limit int
	// StopAt names ids whose parents are never traversed; the id itself
	// is still yielded the one time it is reached (whether callers keep
	// it is policy, left to the caller, per spec.md §4.6).
	StopAt map[gitobj.ObjectID]bool
	// FirstParentOnly restricts traversal to each commit's first parent,
	// ignoring merge parents beyond it.
	FirstParentOnly bool
}

// walkItem is one entry in the walker's priority queue.
type walkItem struct {
	id     gitobj.ObjectID
	commit *objects.Commit
}

// walkQueue orders walkItems by committer timestamp descending, ties
// broken by id lexicographically (spec.md §4.6).
type walkQueue []walkItem

func (q walkQueue) Len() int { return len(q) }

func (q walkQueue) Less(i, j int) bool {
	ti, tj := q[i].commit.Committer.Timestamp, q[j].commit.Committer.Timestamp
	if ti != tj {
		return ti > tj
	}
	return q[i].id.Compare(q[j].id.Bytes()) < 0
}

func (q walkQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *walkQueue) Push(x any) { *q = append(*q, x.(walkItem)) }

func (q *walkQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// Walker yields ancestry from one or more starting commits, in committer-
// timestamp-descending order (spec.md §4.6). Each id is yielded at most
// once; missing (dangling) parents are silently skipped rather than
// failing the walk.
type Walker struct {
	loader  CommitLoader
	opts    Options
	queue   walkQueue
	visited map[gitobj.ObjectID]bool
	yielded int
}

// NewWalker seeds a Walker from starts.
func NewWalker(loader CommitLoader, starts []gitobj.ObjectID, opts Options) (*Walker, error) {
	w := &Walker{loader: loader, opts: opts, visited: make(map[gitobj.ObjectID]bool)}
	for _, id := range starts {
		if err := w.push(id); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func (w *Walker) push(id gitobj.ObjectID) error {
	if w.visited[id] {
		return nil
	}
	w.visited[id] = true

	commit, err := w.loader.LoadCommit(id)
	if err != nil {
		if gitobj.IsNotFound(err) {
			return nil
		}
		return err
	}
	heap.Push(&w.queue, walkItem{id: id, commit: commit})
	return nil
}

// Next pulls the next commit, or io.EOF once the walk is exhausted or
// Options.Limit has been reached. Ending the walk early (simply not
// calling Next again) leaves no background work running, matching
// spec.md §5's cancellation semantics for walkAncestry.
func (w *Walker) Next() (gitobj.ObjectID, *objects.Commit, error) {
	if w.opts.Limit > 0 && w.yielded >= w.opts.Limit {
		return gitobj.ZeroHash, nil, io.EOF
	}
	if w.queue.Len() == 0 {
		return gitobj.ZeroHash, nil, io.EOF
	}

	item := heap.Pop(&w.queue).(walkItem)
	w.yielded++

	if !w.opts.StopAt[item.id] {
		parents := item.commit.ParentIDs
		if w.opts.FirstParentOnly && len(parents) > 1 {
			parents = parents[:1]
		}
		for _, p := range parents {
			if err := w.push(p); err != nil {
				return gitobj.ZeroHash, nil, err
			}
		}
	}

	return item.id, item.commit, nil
}

// Collect drains the walker to completion, returning every yielded id in
// order. Convenience wrapper over Next for callers that want the whole
// result rather than pulling incrementally.
func Collect(loader CommitLoader, starts []gitobj.ObjectID, opts Options) ([]gitobj.ObjectID, error) {
	w, err := NewWalker(loader, starts, opts)
	if err != nil {
		return nil, err
	}
	var out []gitobj.ObjectID
	for {
		id, _, err := w.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
}
