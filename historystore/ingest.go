package historystore

import (
	"bytes"
	"io"

	"github.com/kitforge/gitkit/gitobj"
	"github.com/kitforge/gitkit/packfile"
)

// IngestResult is parsePackEntries' result (spec.md §6): the pack's
// declared object count, the ids it contributed to the object store, and
// its trailing checksum.
type IngestResult struct {
	ObjectCount uint32
	IngestedIDs []gitobj.ObjectID
	Checksum    gitobj.ObjectID
}

// resolvedEntry is a scanned pack entry after any delta chain against it
// has been fully applied.
type resolvedEntry struct {
	Type    gitobj.ObjectType
	Content []byte
}

// IngestPack parses a wire pack (parsePackEntries, spec.md §6) and stores
// every object it contains into the object store, resolving OFS_DELTA and
// REF_DELTA entries against either an earlier entry in this same pack or,
// for a REF_DELTA base the pack itself doesn't carry, an object already
// present in the store. Resolution happens as entries are scanned: an
// OFS_DELTA's base always precedes it in a well-formed pack, and a
// REF_DELTA's base is either already resolved this pass or already
// stored.
func (s *Store) IngestPack(packBytes []byte, compression gitobj.Compression) (IngestResult, error) {
	scanner, err := packfile.NewScanner(bytes.NewReader(packBytes), compression)
	if err != nil {
		return IngestResult{}, err
	}

	byOffset := make(map[int64]resolvedEntry)
	byID := make(map[gitobj.ObjectID]resolvedEntry)

	var ids []gitobj.ObjectID

	for {
		entry, err := scanner.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return IngestResult{}, err
		}

		resolved, err := s.resolvePackEntry(entry, byOffset, byID)
		if err != nil {
			return IngestResult{}, err
		}

		id, err := s.Objects.WriteBytes(resolved.Type, resolved.Content)
		if err != nil {
			return IngestResult{}, err
		}

		byOffset[entry.Offset] = resolved
		byID[id] = resolved
		ids = append(ids, id)
	}

	checksum, err := scanner.ReadTrailer()
	if err != nil {
		return IngestResult{}, err
	}

	s.logOrDiscard().WithField("objectCount", len(ids)).Debug("pack ingest complete")

	return IngestResult{ObjectCount: scanner.ObjectCount(), IngestedIDs: ids, Checksum: checksum}, nil
}

func (s *Store) resolvePackEntry(entry *packfile.ScannedObject, byOffset map[int64]resolvedEntry, byID map[gitobj.ObjectID]resolvedEntry) (resolvedEntry, error) {
	switch entry.Type {
	case packfile.OFSDeltaObject:
		base, ok := byOffset[entry.BaseOffset]
		if !ok {
			return resolvedEntry{}, gitobj.NewCorruptionError("ofs-delta base not found within this pack", nil)
		}
		return applyDeltaEntry(base, entry.Content)
	case packfile.REFDeltaObject:
		if base, ok := byID[entry.BaseID]; ok {
			return applyDeltaEntry(base, entry.Content)
		}
		hdr, content, err := s.Objects.LoadBytes(entry.BaseID)
		if err != nil {
			return resolvedEntry{}, err
		}
		return applyDeltaEntry(resolvedEntry{Type: hdr.Type, Content: content}, entry.Content)
	default:
		return resolvedEntry{Type: entry.Type, Content: entry.Content}, nil
	}
}

func applyDeltaEntry(base resolvedEntry, delta []byte) (resolvedEntry, error) {
	content, err := packfile.ApplyDelta(base.Content, delta)
	if err != nil {
		return resolvedEntry{}, err
	}
	return resolvedEntry{Type: base.Type, Content: content}, nil
}
