package deltaengine

import "github.com/kitforge/gitkit/gitobj"

// Target is the object a CandidateFinder is proposing bases for.
type Target struct {
	ID      gitobj.ObjectID
	Path    string // repository path this content was found at, if known
	Content []byte
}

// CandidateSource answers the lookups a CandidateFinder needs: prior
// objects stored at a path, prior objects near a given size, and a
// candidate's full bytes plus its own current delta-chain depth (0 if it is
// stored as a full object). A historystore-level assembler implements this
// over its object store and path history; deltaengine has no dependency on
// either.
type CandidateSource interface {
	ObjectsAtPath(path string) []gitobj.ObjectID
	ObjectsNearSize(size int64, ratio float64) []gitobj.ObjectID
	Load(id gitobj.ObjectID) (content []byte, chainDepth int, err error)
}

// CandidateFinder yields potential delta-base ids for target (spec.md
// §4.3's three named strategies: path-based, size-similarity, and
// commit/tree structural).
type CandidateFinder interface {
	FindCandidates(target Target, source CandidateSource) ([]gitobj.ObjectID, error)
}

// PathCandidateFinder proposes objects previously stored at the same
// repository path, most-recently-stored first — the common case of a file
// edited across commits.
type PathCandidateFinder struct{}

func (PathCandidateFinder) FindCandidates(target Target, source CandidateSource) ([]gitobj.ObjectID, error) {
	if target.Path == "" {
		return nil, nil
	}
	return source.ObjectsAtPath(target.Path), nil
}

// DefaultSizeSimilarityRatio is spec.md §4.3's "within ±50%" window.
const DefaultSizeSimilarityRatio = 0.5

// SizeSimilarityCandidateFinder proposes objects whose stored size is
// within Ratio of target's size, ordered by proximity via SizeIndex.
type SizeSimilarityCandidateFinder struct {
	Ratio float64 // zero means DefaultSizeSimilarityRatio
}

func (f SizeSimilarityCandidateFinder) FindCandidates(target Target, source CandidateSource) ([]gitobj.ObjectID, error) {
	ratio := f.Ratio
	if ratio <= 0 {
		ratio = DefaultSizeSimilarityRatio
	}
	return source.ObjectsNearSize(int64(len(target.Content)), ratio), nil
}

// StructuralCandidateFinder proposes a caller-resolved set of ids — the
// object at the same path in a parent commit's tree, or in the tree of any
// other ancestor the caller has already walked. Resolving "same path in an
// ancestor tree" requires walking commit history and trees, which live in
// commitgraph/stage; deltaengine stays a leaf package by accepting the
// already-resolved ids instead of doing that walk itself.
type StructuralCandidateFinder struct {
	Candidates []gitobj.ObjectID
}

func (f StructuralCandidateFinder) FindCandidates(Target, CandidateSource) ([]gitobj.ObjectID, error) {
	return f.Candidates, nil
}
