package historystore

import (
	"bytes"

	"github.com/kitforge/gitkit/deltaengine"
	"github.com/kitforge/gitkit/gitobj"
	"github.com/kitforge/gitkit/idxfile"
	"github.com/kitforge/gitkit/packfile"
)

// packAssembler implements deltaengine.CandidateSource over the set of
// objects being packed by WritePack, tracking per-path history and a size
// index as objects are added — spec.md §4.3's three candidate strategies
// read against the pack currently under construction rather than the
// whole repository, matching how a real pack-objects pass builds its
// window incrementally.
type packAssembler struct {
	byPath  map[string][]gitobj.ObjectID
	sizes   *deltaengine.SizeIndex
	content map[gitobj.ObjectID][]byte
	depth   map[gitobj.ObjectID]int
}

func newPackAssembler() *packAssembler {
	return &packAssembler{
		byPath:  make(map[string][]gitobj.ObjectID),
		sizes:   deltaengine.NewSizeIndex(),
		content: make(map[gitobj.ObjectID][]byte),
		depth:   make(map[gitobj.ObjectID]int),
	}
}

func (a *packAssembler) ObjectsAtPath(path string) []gitobj.ObjectID {
	return a.byPath[path]
}

func (a *packAssembler) ObjectsNearSize(size int64, ratio float64) []gitobj.ObjectID {
	return a.sizes.Near(size, ratio)
}

func (a *packAssembler) Load(id gitobj.ObjectID) ([]byte, int, error) {
	content, ok := a.content[id]
	if !ok {
		return nil, 0, gitobj.NewNotFoundError("pack assembler: " + id.String())
	}
	return content, a.depth[id], nil
}

func (a *packAssembler) record(path string, id gitobj.ObjectID, content []byte, depth int) {
	if path != "" {
		a.byPath[path] = append([]gitobj.ObjectID{id}, a.byPath[path]...)
	}
	a.sizes.Insert(int64(len(content)), id)
	a.content[id] = content
	a.depth[id] = depth
}

// PackObject is one object to include in a pack built by WritePack: its
// full content, type, and (optionally) the repository path it was found
// at, which feeds the path-based delta-candidate strategy.
type PackObject struct {
	ID      gitobj.ObjectID
	Type    gitobj.ObjectType
	Path    string
	Content []byte
}

// PackResult is writePack's result (spec.md §6).
type PackResult struct {
	PackBytes    []byte
	IndexEntries []idxfile.Entry
	Checksum     gitobj.ObjectID
}

// WritePack builds a pack containing objs, choosing a REF_DELTA encoding
// via the delta engine (path and size-similarity candidate strategies feed
// a deltaengine.Engine built for this call) whenever a candidate
// is profitable, and falling back to full storage otherwise (spec.md
// §4.3, §6). REF_DELTA is used rather than OFS_DELTA so a chosen base
// never needs to have already been flushed at a known byte offset — both
// are valid per spec.md §4.3's format description, and git itself accepts
// either on read.
func (s *Store) WritePack(objs []PackObject, compression gitobj.Compression) (PackResult, error) {
	engine := deltaengine.NewEngine(
		[]deltaengine.CandidateFinder{
			deltaengine.PathCandidateFinder{},
			deltaengine.SizeSimilarityCandidateFinder{},
		},
		deltaengine.NewRollingHashCompressor(),
		deltaengine.BestSmallestDelta{MaxChainDepth: deltaengine.DefaultPackMaxChainDepth},
	)

	assembler := newPackAssembler()

	var buf bytes.Buffer
	pw, err := packfile.NewWriter(&buf, uint32(len(objs)), compression)
	if err != nil {
		return PackResult{}, err
	}

	log := s.logOrDiscard()

	for _, obj := range objs {
		target := deltaengine.Target{ID: obj.ID, Path: obj.Path, Content: obj.Content}
		result, ok, derr := engine.Delta(target, assembler)
		if derr != nil {
			return PackResult{}, derr
		}

		if ok {
			payload, eerr := encodeDelta(len(assembler.content[result.CandidateID]), obj.Content, result.Instructions)
			if eerr != nil {
				return PackResult{}, eerr
			}
			log.WithField("objectID", obj.ID.String()).Debug("delta-encoding against candidate base")
			if err := pw.AddRefDelta(obj.ID, result.CandidateID, payload); err != nil {
				return PackResult{}, err
			}
			assembler.record(obj.Path, obj.ID, obj.Content, result.ChainDepth)
		} else {
			if err := pw.AddObject(obj.ID, obj.Type, obj.Content); err != nil {
				return PackResult{}, err
			}
			assembler.record(obj.Path, obj.ID, obj.Content, 0)
		}
	}

	checksum, idxEntries, err := pw.Finish()
	if err != nil {
		return PackResult{}, err
	}
	log.WithField("objectCount", len(objs)).Debug("pack build complete")

	return PackResult{PackBytes: buf.Bytes(), IndexEntries: idxEntries, Checksum: checksum}, nil
}

func encodeDelta(baseSize int, target []byte, instructions []packfile.Instruction) ([]byte, error) {
	var buf bytes.Buffer
	if err := packfile.EncodeDelta(&buf, int64(baseSize), int64(len(target)), instructions); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
