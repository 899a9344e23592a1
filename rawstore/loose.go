package rawstore

import (
	"fmt"
	"io"
	"path"
	"sort"
	"time"

	"github.com/go-git/go-billy/v5"

	"github.com/kitforge/gitkit/gitobj"
)

// LooseRawStorage is the two-level fan-out directory layout Git itself uses
// for loose objects: a key's physical path is
// "<base>/<first-two-chars>/<rest>" (spec.md §4.1). Keys are expected to be
// 40-character lowercase hex ids, though LooseRawStorage does not itself
// enforce that beyond requiring at least 3 characters (a two-character
// directory prefix plus a non-empty file name) — callers that want id
// validation use gitobj.IsHash first.
type LooseRawStorage struct {
	fs          gitobj.FilesApi
	base        string
	compression gitobj.Compression // nil: store raw bytes uncompressed
}

// NewLooseRawStorage returns a LooseRawStorage rooted at base within fs. If
// compression is non-nil, stored bytes are zlib-wrapped-deflated on write
// and inflated on read, matching Git's own loose-object convention
// (spec.md §4.1, §6).
func NewLooseRawStorage(fs gitobj.FilesApi, base string, compression gitobj.Compression) *LooseRawStorage {
	return &LooseRawStorage{fs: fs, base: base, compression: compression}
}

func (s *LooseRawStorage) keyPath(key string) (string, error) {
	if len(key) < 3 {
		return "", gitobj.NewInvalidArgumentError("raw storage key too short to fan out: " + key)
	}
	return path.Join(s.base, key[:2], key[2:]), nil
}

// Store writes r's bytes under key using a temp-file-plus-rename so a
// failed or interrupted write never leaves a partial object visible
// (spec.md §5, §7: "writes use temp-file-plus-rename").
func (s *LooseRawStorage) Store(key string, r io.Reader) error {
	p, err := s.keyPath(key)
	if err != nil {
		return err
	}

	if ok, _ := s.Has(key); ok {
		// Content-addressed: identical bytes already present, so this is a
		// no-op (spec.md §4.1, §8 property 2).
		return nil
	}

	if err := s.fs.MkdirAll(path.Dir(p), 0o755); err != nil {
		return gitobj.WrapBackend(err)
	}

	tmp, err := s.fs.TempFile(s.base, "tmp-raw-")
	if err != nil {
		return gitobj.WrapBackend(err)
	}
	tmpName := tmp.Name()

	var w io.WriteCloser = tmp
	if s.compression != nil {
		cw, err := s.compression.Deflate(tmp, false)
		if err != nil {
			tmp.Close()
			s.fs.Remove(tmpName)
			return err
		}
		w = chainCloser{w: cw, also: tmp}
	}

	if _, copyErr := io.Copy(w, r); copyErr != nil {
		w.Close()
		s.fs.Remove(tmpName)
		return gitobj.WrapBackend(copyErr)
	}
	if closeErr := w.Close(); closeErr != nil {
		s.fs.Remove(tmpName)
		return gitobj.WrapBackend(closeErr)
	}

	if err := s.fs.Rename(tmpName, p); err != nil {
		s.fs.Remove(tmpName)
		return gitobj.WrapBackend(err)
	}
	return nil
}

type chainCloser struct {
	w    io.WriteCloser
	also billy.File
}

func (c chainCloser) Write(p []byte) (int, error) { return c.w.Write(p) }
func (c chainCloser) Close() error {
	if err := c.w.Close(); err != nil {
		c.also.Close()
		return err
	}
	return c.also.Close()
}

// Load opens a reader over key's stored bytes, inflating first if this
// store was constructed with a Compression provider.
func (s *LooseRawStorage) Load(key string, rng ReadRange) (io.ReadCloser, error) {
	p, err := s.keyPath(key)
	if err != nil {
		return nil, err
	}

	f, err := s.fs.Open(p)
	if err != nil {
		return nil, gitobj.NewNotFoundError(fmt.Sprintf("raw storage key %q: %v", key, err))
	}

	var r io.Reader = f
	if s.compression != nil {
		ir, err := s.compression.Inflate(f, false)
		if err != nil {
			f.Close()
			return nil, gitobj.NewCorruptionError("inflating loose object "+key, err)
		}
		r = ir
	}

	if rng.Offset > 0 {
		if _, err := io.CopyN(io.Discard, r, rng.Offset); err != nil {
			f.Close()
			return nil, gitobj.WrapBackend(err)
		}
	}

	bounded := &boundedReader{r: r, remaining: -1}
	if rng.Length >= 0 {
		bounded.remaining = rng.Length
	}

	return readCloser{Reader: bounded, closer: f}, nil
}

type readCloser struct {
	io.Reader
	closer io.Closer
}

func (rc readCloser) Close() error { return rc.closer.Close() }

// Has reports whether key's loose file exists.
func (s *LooseRawStorage) Has(key string) (bool, error) {
	p, err := s.keyPath(key)
	if err != nil {
		return false, err
	}
	if _, err := s.fs.Stat(p); err != nil {
		return false, nil
	}
	return true, nil
}

// Remove deletes key's loose file if present.
func (s *LooseRawStorage) Remove(key string) (bool, error) {
	p, err := s.keyPath(key)
	if err != nil {
		return false, err
	}
	if _, statErr := s.fs.Stat(p); statErr != nil {
		return false, nil
	}
	if err := s.fs.Remove(p); err != nil {
		return false, gitobj.WrapBackend(err)
	}
	return true, nil
}

// ModTime reports key's on-disk last-modified time, satisfying
// TimestampedRawStorage for historystore's GC grace-period check.
func (s *LooseRawStorage) ModTime(key string) (time.Time, error) {
	p, err := s.keyPath(key)
	if err != nil {
		return time.Time{}, err
	}
	fi, err := s.fs.Stat(p)
	if err != nil {
		return time.Time{}, gitobj.NewNotFoundError("raw storage key " + key)
	}
	return fi.ModTime(), nil
}

// Size reports the stored (possibly compressed) byte length of key. Callers
// that need the decompressed size must read the object header instead.
func (s *LooseRawStorage) Size(key string) (int64, error) {
	p, err := s.keyPath(key)
	if err != nil {
		return 0, err
	}
	fi, err := s.fs.Stat(p)
	if err != nil {
		return 0, gitobj.NewNotFoundError("raw storage key " + key)
	}
	return fi.Size(), nil
}

// Keys walks the two-level fan-out directory structure and returns every
// key found.
func (s *LooseRawStorage) Keys() (KeyIterator, error) {
	var keys []string

	prefixes, err := s.fs.ReadDir(s.base)
	if err != nil {
		if gitobj.IsNotFound(err) {
			return newSliceKeyIterator(nil), nil
		}
		return nil, gitobj.WrapBackend(err)
	}

	for _, prefix := range prefixes {
		if !prefix.IsDir() || len(prefix.Name()) != 2 {
			continue
		}
		entries, err := s.fs.ReadDir(path.Join(s.base, prefix.Name()))
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			keys = append(keys, prefix.Name()+e.Name())
		}
	}

	sort.Strings(keys)
	return newSliceKeyIterator(keys), nil
}
