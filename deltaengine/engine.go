package deltaengine

import "github.com/kitforge/gitkit/gitobj"

// Engine composes a set of CandidateFinder strategies, a Compressor, and a
// DecisionStrategy into the single decision spec.md §4.3 describes: given a
// target object, either a chosen (base id, delta program) pair or a
// decision to store it full.
//
// This is spec.md §9's "polymorphism via capability sets" applied directly:
// three collaborating interfaces composed by a struct, not a class
// hierarchy.
type Engine struct {
	Finders    []CandidateFinder
	Compressor Compressor
	Decision   DecisionStrategy

	// MinSize is spec.md §4.3's "skip objects below min_size" gate, applied
	// before any candidate is even sought. Zero means DefaultMinSize.
	MinSize int64
}

// NewEngine returns an Engine ready to evaluate targets, using spec.md's
// default MinSize.
func NewEngine(finders []CandidateFinder, compressor Compressor, decision DecisionStrategy) *Engine {
	return &Engine{Finders: finders, Compressor: compressor, Decision: decision, MinSize: DefaultMinSize}
}

// Delta evaluates target against every candidate its finders propose and
// returns the DecisionStrategy's chosen result, or ok=false if target
// should be stored as a full object (too small, no candidates, or every
// candidate's delta was declined or too deep a chain).
func (e *Engine) Delta(target Target, source CandidateSource) (DeltaResult, bool, error) {
	minSize := e.MinSize
	if minSize <= 0 {
		minSize = DefaultMinSize
	}
	if int64(len(target.Content)) < minSize {
		return DeltaResult{}, false, nil
	}

	seen := make(map[gitobj.ObjectID]bool)
	var candidateIDs []gitobj.ObjectID
	for _, finder := range e.Finders {
		ids, err := finder.FindCandidates(target, source)
		if err != nil {
			return DeltaResult{}, false, err
		}
		for _, id := range ids {
			if id == target.ID || seen[id] {
				continue
			}
			seen[id] = true
			candidateIDs = append(candidateIDs, id)
		}
	}

	var results []DeltaResult
	for _, id := range candidateIDs {
		content, depth, err := source.Load(id)
		if err != nil {
			continue
		}

		instructions, size, ok := e.Compressor.Compress(content, target.Content)
		if !ok {
			continue
		}

		results = append(results, DeltaResult{
			CandidateID:  id,
			Instructions: instructions,
			EncodedSize:  size,
			ChainDepth:   depth + 1,
		})
	}

	result, ok := e.Decision.Choose(results)
	return result, ok, nil
}
