package refstore

import (
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/kitforge/gitkit/gitobj"
)

// maxSymbolicChainDepth is spec.md §3's "resolution chain depth ≤ 100".
const maxSymbolicChainDepth = 100

// packedRefsPath is the conventional location of the packed-refs file
// relative to the repository root.
const packedRefsPath = "packed-refs"

// Store is the reference store (spec.md §4.4): loose refs shadow entries in
// a packed-refs file, all updates serialize through a single mutex per
// spec.md §5 ("loose-ref implementation creates a <name>.lock sibling file
// before rename" — gitkit additionally serializes in-process, since a
// single FilesApi handle is assumed owned by one goroutine at a time).
type Store struct {
	fs gitobj.FilesApi
	mu sync.Mutex
}

// New returns a Store rooted at fs (a FilesApi positioned at the
// repository's git directory, i.e. containing HEAD, refs/, packed-refs).
func New(fs gitobj.FilesApi) *Store {
	return &Store{fs: fs}
}

// ReflogMeta carries the identity and message a successful update records
// to the affected ref's reflog (SPEC_FULL.md's reflog supplement).
type ReflogMeta struct {
	Ident   gitobj.PersonIdent
	Message string
}

// Get returns name's stored value exactly as recorded — symbolic or
// direct — without following a symbolic link.
func (s *Store) Get(name string) (*gitobj.Reference, error) {
	if err := gitobj.ValidateReferenceName(name); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(name)
}

func (s *Store) getLocked(name string) (*gitobj.Reference, error) {
	if ref, err := s.readLoose(name); err == nil {
		return ref, nil
	} else if !gitobj.IsNotFound(err) {
		return nil, err
	}

	packed, err := s.loadPacked()
	if err != nil {
		return nil, err
	}
	for _, e := range packed {
		if e.Name == name {
			ref := gitobj.NewHashReference(name, e.ID)
			ref.Storage = gitobj.PackedStorage
			if e.Peeled {
				ref.Peeled = true
				ref.PeeledObjectID = e.PeeledID
			}
			return ref, nil
		}
	}

	return nil, gitobj.NewNotFoundError("ref " + name)
}

// Resolve follows a chain of symbolic references starting at name, up to
// maxSymbolicChainDepth levels, returning the terminal direct Reference.
func (s *Store) Resolve(name string) (*gitobj.Reference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := name
	for depth := 0; depth < maxSymbolicChainDepth; depth++ {
		ref, err := s.getLocked(cur)
		if err != nil {
			return nil, err
		}
		if ref.Type == gitobj.HashReference {
			return ref, nil
		}
		cur = ref.Symbolic
	}
	return nil, gitobj.NewChainTooDeepError("symbolic ref resolution of "+name, maxSymbolicChainDepth)
}

// Set creates or updates name to point directly at id.
func (s *Store) Set(name string, id gitobj.ObjectID, meta ReflogMeta) error {
	if err := gitobj.ValidateReferenceName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old, err := s.currentHashLocked(name)
	if err != nil && !gitobj.IsNotFound(err) {
		return err
	}

	if err := s.writeLoose(name, "%s\n", id.String()); err != nil {
		return err
	}
	return s.appendReflog(name, old, id, meta)
}

// SetSymbolic stores name as a symbolic reference to target.
func (s *Store) SetSymbolic(name, target string, meta ReflogMeta) error {
	if err := gitobj.ValidateReferenceName(name); err != nil {
		return err
	}
	if err := gitobj.ValidateReferenceName(target); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old, err := s.currentHashLocked(name)
	if err != nil && !gitobj.IsNotFound(err) {
		return err
	}

	if err := s.writeLoose(name, "ref: %s\n", target); err != nil {
		return err
	}

	resolved, rerr := s.resolveLocked(target, 0)
	if rerr == nil {
		return s.appendReflog(name, old, resolved.Target, meta)
	}
	return nil
}

// CompareAndSwap atomically updates name to newValue only if name's
// current resolved value equals expected (nil meaning the ref must be
// absent). On failure it returns a *gitobj.CasConflictError carrying the
// value actually observed.
func (s *Store) CompareAndSwap(name string, expected *gitobj.ObjectID, newValue gitobj.ObjectID, meta ReflogMeta) error {
	if err := gitobj.ValidateReferenceName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	observed, err := s.currentHashLocked(name)
	if err != nil && !gitobj.IsNotFound(err) {
		return err
	}

	observedStr := "<absent>"
	if err == nil {
		observedStr = observed.String()
	}
	expectedStr := "<absent>"
	matches := gitobj.IsNotFound(err)
	if expected != nil {
		expectedStr = expected.String()
		matches = err == nil && observed == *expected
	}
	if !matches {
		return &gitobj.CasConflictError{Ref: name, Expected: expectedStr, Observed: observedStr}
	}

	if err := s.writeLoose(name, "%s\n", newValue.String()); err != nil {
		return err
	}
	return s.appendReflog(name, observed, newValue, meta)
}

// currentHashLocked returns name's current direct target, resolving one
// symbolic hop if name itself is symbolic (e.g. HEAD), so CAS and reflog
// "old" values reflect the commit the ref actually pointed at.
func (s *Store) currentHashLocked(name string) (gitobj.ObjectID, error) {
	ref, err := s.getLocked(name)
	if err != nil {
		return gitobj.ZeroHash, err
	}
	if ref.Type == gitobj.HashReference {
		return ref.Target, nil
	}
	resolved, err := s.resolveLocked(ref.Symbolic, 0)
	if err != nil {
		return gitobj.ZeroHash, err
	}
	return resolved.Target, nil
}

func (s *Store) resolveLocked(name string, depth int) (*gitobj.Reference, error) {
	if depth >= maxSymbolicChainDepth {
		return nil, gitobj.NewChainTooDeepError("symbolic ref resolution of "+name, maxSymbolicChainDepth)
	}
	ref, err := s.getLocked(name)
	if err != nil {
		return nil, err
	}
	if ref.Type == gitobj.HashReference {
		return ref, nil
	}
	return s.resolveLocked(ref.Symbolic, depth+1)
}

// Remove deletes name. If it exists only in packed-refs, the file is
// rewritten without it.
func (s *Store) Remove(name string) error {
	if err := gitobj.ValidateReferenceName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.fs.Stat(name); err == nil {
		if err := s.fs.Remove(name); err != nil {
			return gitobj.WrapBackend(err)
		}
		return nil
	}

	packed, err := s.loadPacked()
	if err != nil {
		return err
	}
	kept := packed[:0]
	found := false
	for _, e := range packed {
		if e.Name == name {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	if !found {
		return gitobj.NewNotFoundError("ref " + name)
	}
	return s.writePacked(kept)
}

// List yields every ref (loose and packed, loose shadowing packed on name
// collision) whose name has the given prefix. An empty prefix lists all.
func (s *Store) List(prefix string) ([]*gitobj.Reference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]*gitobj.Reference)

	var walk func(dir string) error
	walk = func(dir string) error {
		entries, err := s.fs.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return gitobj.WrapBackend(err)
		}
		for _, e := range entries {
			p := path.Join(dir, e.Name())
			if e.IsDir() {
				if err := walk(p); err != nil {
					return err
				}
				continue
			}
			ref, err := s.readLoose(p)
			if err != nil {
				continue
			}
			seen[p] = ref
		}
		return nil
	}

	if err := walk("refs"); err != nil {
		return nil, err
	}

	packed, err := s.loadPacked()
	if err != nil {
		return nil, err
	}
	for _, e := range packed {
		if _, ok := seen[e.Name]; ok {
			continue
		}
		ref := gitobj.NewHashReference(e.Name, e.ID)
		ref.Storage = gitobj.PackedStorage
		if e.Peeled {
			ref.Peeled = true
			ref.PeeledObjectID = e.PeeledID
		}
		seen[e.Name] = ref
	}

	var out []*gitobj.Reference
	for name, ref := range seen {
		if strings.HasPrefix(name, prefix) {
			out = append(out, ref)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// PackRefsOptions controls PackRefs.
type PackRefsOptions struct {
	// All packs every loose ref found under refs/ (default behavior packs
	// refs/tags only, matching git's own conservative default).
	All bool
	// DeleteLoose removes the loose file for every ref that got packed.
	DeleteLoose bool
}

// PackRefs moves selected loose refs into packed-refs.
func (s *Store) PackRefs(opts PackRefsOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	packed, err := s.loadPacked()
	if err != nil {
		return err
	}
	byName := make(map[string]packedEntry, len(packed))
	for _, e := range packed {
		byName[e.Name] = e
	}

	var toDelete []string
	var walk func(dir string) error
	walk = func(dir string) error {
		entries, err := s.fs.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return gitobj.WrapBackend(err)
		}
		for _, e := range entries {
			p := path.Join(dir, e.Name())
			if e.IsDir() {
				if err := walk(p); err != nil {
					return err
				}
				continue
			}
			if !opts.All && !gitobj.IsTag(p) {
				continue
			}
			ref, err := s.readLoose(p)
			if err != nil || ref.Type != gitobj.HashReference {
				continue
			}
			byName[p] = packedEntry{ID: ref.Target, Name: p}
			toDelete = append(toDelete, p)
		}
		return nil
	}
	if err := walk("refs"); err != nil {
		return err
	}

	merged := make([]packedEntry, 0, len(byName))
	for _, e := range byName {
		merged = append(merged, e)
	}
	if err := s.writePacked(merged); err != nil {
		return err
	}

	if opts.DeleteLoose {
		for _, p := range toDelete {
			s.fs.Remove(p)
		}
	}
	return nil
}

// Optimize rebuilds packed-refs in canonical (sorted) form. Filesystem-
// backed stores benefit from this after many individual CompareAndSwap
// calls each of which only ever appends or rewrites whole-file; KV-backed
// implementations of this contract are expected to no-op.
func (s *Store) Optimize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	packed, err := s.loadPacked()
	if err != nil {
		return err
	}
	return s.writePacked(packed)
}

func (s *Store) readLoose(name string) (*gitobj.Reference, error) {
	f, err := s.fs.Open(name)
	if err != nil {
		return nil, gitobj.NewNotFoundError("ref " + name)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, gitobj.WrapBackend(err)
	}
	line := strings.TrimRight(string(content), "\n")

	if strings.HasPrefix(line, "ref: ") {
		ref := gitobj.NewSymbolicReference(name, strings.TrimSpace(line[len("ref: "):]))
		ref.Storage = gitobj.LooseStorage
		return ref, nil
	}

	id, ok := gitobj.FromHex(strings.TrimSpace(line))
	if !ok {
		return nil, gitobj.NewCorruptionError("malformed loose ref "+name, nil)
	}
	ref := gitobj.NewHashReference(name, id)
	ref.Storage = gitobj.LooseStorage
	return ref, nil
}

func (s *Store) writeLoose(name, format string, args ...any) error {
	if err := s.fs.MkdirAll(path.Dir(name), 0o755); err != nil {
		return gitobj.WrapBackend(err)
	}

	tmp, err := s.fs.TempFile(path.Dir(name), "tmp-ref-")
	if err != nil {
		return gitobj.WrapBackend(err)
	}
	tmpName := tmp.Name()

	if _, err := fmt.Fprintf(tmp, format, args...); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return gitobj.WrapBackend(err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return gitobj.WrapBackend(err)
	}
	if err := s.fs.Rename(tmpName, name); err != nil {
		s.fs.Remove(tmpName)
		return gitobj.WrapBackend(err)
	}
	return nil
}

func (s *Store) loadPacked() ([]packedEntry, error) {
	f, err := s.fs.Open(packedRefsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, gitobj.WrapBackend(err)
	}
	defer f.Close()
	return parsePackedRefs(f)
}

func (s *Store) writePacked(entries []packedEntry) error {
	tmp, err := s.fs.TempFile("", "tmp-packed-refs-")
	if err != nil {
		return gitobj.WrapBackend(err)
	}
	tmpName := tmp.Name()

	if err := writePackedRefs(tmp, entries); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return gitobj.WrapBackend(err)
	}
	if err := s.fs.Rename(tmpName, packedRefsPath); err != nil {
		s.fs.Remove(tmpName)
		return gitobj.WrapBackend(err)
	}
	return nil
}
