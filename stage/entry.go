package stage

import (
	"time"

	"github.com/kitforge/gitkit/gitobj"
)

// StagingEntry is one index record (spec.md §3): a path, the mode and id it
// was recorded with, a merge stage, and cached worktree metadata used to
// short-circuit re-hashing unchanged files. Stage 0 means "no conflict";
// stages 1-3 are the base/ours/theirs slots a merge leaves behind when a
// path conflicts, and a single path may hold up to three such entries
// simultaneously.
type StagingEntry struct {
	Path     string
	Mode     gitobj.FileMode
	ID       gitobj.ObjectID
	Stage    int
	Size     uint32
	MTime    time.Time
	CTime    time.Time
	Dev      uint32
	Ino      uint32
	UID      uint32
	GID      uint32

	AssumeValid  bool
	IntentToAdd  bool
	SkipWorktree bool
}

// less reports whether e sorts before o under the index's canonical
// (path, stage) sort key (spec.md §3).
func (e StagingEntry) less(o StagingEntry) bool {
	if e.Path != o.Path {
		return e.Path < o.Path
	}
	return e.Stage < o.Stage
}
