package historystore

import (
	"io"
	"time"

	"github.com/kitforge/gitkit/gitobj"
	"github.com/kitforge/gitkit/rawstore"
)

// DefaultGracePeriod is spec.md §9's GC answer: unreachable loose objects
// younger than this are kept, mirroring git's own gc.pruneExpire default.
const DefaultGracePeriod = 14 * 24 * time.Hour

// PackInventory describes one attached pack for GC's whole-pack removal
// decision: the set of object ids it contains, and a callback that deletes
// the pack (and its sidecar index) when every one of those ids turns out
// to be unreachable. The object store's own PackBackend interface is
// deliberately too narrow to enumerate or remove a pack (spec.md §9:
// "shrink the surface"), so the caller that owns the pack's files supplies
// this instead.
type PackInventory struct {
	IDs    []gitobj.ObjectID
	Remove func() error
}

// GCOptions controls GC.
type GCOptions struct {
	// GracePeriod overrides DefaultGracePeriod. Zero means the default.
	GracePeriod time.Duration
	// Now overrides the reference instant age is measured against; the
	// zero value means time.Now().
	Now time.Time
	// Packs is the caller-supplied inventory of attached packs. A pack
	// absent from this list is never considered for removal.
	Packs []PackInventory
}

// GCResult reports what GC actually did — the counts and byte totals the
// teacher's own GC stub never computed (SPEC_FULL.md's supplement to
// spec.md §9's open question).
type GCResult struct {
	ObjectsRemoved int
	BytesFreed     int64
	PacksRemoved   int
}

// GC computes the reachable object set from every ref (loose and packed),
// HEAD, and each ref's reflog tip, then removes loose objects outside that
// set older than GracePeriod, and any pack in opts.Packs whose every
// object is unreachable (spec.md §9).
func (s *Store) GC(opts GCOptions) (GCResult, error) {
	log := s.logOrDiscard()

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	grace := opts.GracePeriod
	if grace <= 0 {
		grace = DefaultGracePeriod
	}

	roots, err := s.gcRoots()
	if err != nil {
		return GCResult{}, err
	}

	reachable := make(map[gitobj.ObjectID]bool)
	if len(roots) > 0 {
		iter, err := s.EnumerateReachable(roots)
		if err != nil {
			return GCResult{}, err
		}
		for {
			id, err := iter.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return GCResult{}, err
			}
			reachable[id] = true
		}
	}

	result := GCResult{}

	raw := s.Objects.Raw()
	timestamped, canAge := raw.(rawstore.TimestampedRawStorage)

	keys, err := raw.Keys()
	if err != nil {
		return GCResult{}, err
	}
	defer keys.Close()

	if err := keys.ForEach(func(key string) error {
		id, ok := gitobj.FromHex(key)
		if !ok || reachable[id] {
			return nil
		}

		if canAge {
			mtime, err := timestamped.ModTime(key)
			if err == nil && now.Sub(mtime) < grace {
				return nil // too young to collect
			}
		}

		size, _ := raw.Size(key)
		removed, err := raw.Remove(key)
		if err != nil {
			return err
		}
		if removed {
			result.ObjectsRemoved++
			result.BytesFreed += size
			log.WithField("objectID", id.String()).Debug("removed unreachable loose object")
		}
		return nil
	}); err != nil {
		return GCResult{}, err
	}

	for _, pack := range opts.Packs {
		allUnreachable := len(pack.IDs) > 0
		for _, id := range pack.IDs {
			if reachable[id] {
				allUnreachable = false
				break
			}
		}
		if !allUnreachable {
			continue
		}
		if err := pack.Remove(); err != nil {
			return GCResult{}, err
		}
		result.PacksRemoved++
		log.WithField("objectCount", len(pack.IDs)).Debug("removed fully unreachable pack")
	}

	return result, nil
}

// gcRoots collects every ref target (resolving symbolic refs, including
// HEAD), plus each ref's reflog tip (SPEC_FULL.md's GC-reachability
// supplement: a reflog tip is protected even with no live ref pointing at
// it).
func (s *Store) gcRoots() ([]gitobj.ObjectID, error) {
	var roots []gitobj.ObjectID
	seen := make(map[gitobj.ObjectID]bool)
	add := func(id gitobj.ObjectID) {
		if id == gitobj.ZeroHash || seen[id] {
			return
		}
		seen[id] = true
		roots = append(roots, id)
	}

	refs, err := s.Refs.List("")
	if err != nil {
		return nil, err
	}
	for _, ref := range refs {
		resolved, err := s.Refs.Resolve(ref.Name)
		if err != nil {
			continue
		}
		add(resolved.Target)
	}

	if head, err := s.Refs.Resolve(gitobj.HEAD); err == nil {
		add(head.Target)
	}

	names, err := s.Refs.AllReflogNames()
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		if tip, ok, err := s.Refs.ReflogTip(name); err == nil && ok {
			add(tip)
		}
	}

	return roots, nil
}
