package deltaengine

import (
	"github.com/kitforge/gitkit/gitobj"
	"github.com/kitforge/gitkit/packfile"
)

// DefaultMinSize is spec.md §4.3's "Skip objects below min_size (default 50
// bytes)".
const DefaultMinSize = 50

// DefaultStorageMaxChainDepth and DefaultPackMaxChainDepth are spec.md
// §4.3's two named chain-depth ceilings: 10 for gitkit's own storage
// layout, 50 when producing a pack meant to be Git-compatible.
const (
	DefaultStorageMaxChainDepth = 10
	DefaultPackMaxChainDepth    = packfile.DefaultMaxChainDepth
)

// DeltaResult is one candidate base's evaluated outcome: the delta program,
// its exact encoded size, and the chain depth storing target against this
// base would produce.
type DeltaResult struct {
	CandidateID  gitobj.ObjectID
	Instructions []packfile.Instruction
	EncodedSize  int
	ChainDepth   int
}

// DecisionStrategy picks the best of a target's evaluated delta candidates,
// or reports that none is acceptable (the object should be stored full).
type DecisionStrategy interface {
	Choose(results []DeltaResult) (DeltaResult, bool)
}

// BestSmallestDelta implements spec.md §4.3's stated policy: "Best" =
// smallest resulting delta, rejecting any candidate that would extend a
// chain past MaxChainDepth.
type BestSmallestDelta struct {
	// MaxChainDepth is the ceiling on ChainDepth a chosen result may carry.
	// Zero means DefaultStorageMaxChainDepth.
	MaxChainDepth int
}

func (d BestSmallestDelta) Choose(results []DeltaResult) (DeltaResult, bool) {
	maxDepth := d.MaxChainDepth
	if maxDepth <= 0 {
		maxDepth = DefaultStorageMaxChainDepth
	}

	var best DeltaResult
	found := false
	for _, r := range results {
		if r.ChainDepth > maxDepth {
			continue
		}
		if !found || r.EncodedSize < best.EncodedSize {
			best = r
			found = true
		}
	}
	return best, found
}
