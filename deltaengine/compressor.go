package deltaengine

import (
	"bytes"

	"github.com/kitforge/gitkit/packfile"
)

// windowSize is the rolling-hash match window spec.md §4.3 names (16
// bytes); a match shorter than this is never proposed as a Copy.
const windowSize = 16

// maxCopyRun is the largest byte run a single Copy instruction can encode
// (spec.md §4.3: "size 0 means 0x10000"); longer runs are split across
// several consecutive Copy instructions.
const maxCopyRun = 0x10000

// rollingHashPrime is the polynomial base for the window's rolling hash.
const rollingHashPrime = 1000003

// DefaultMaxRatio is spec.md §4.3's "Returns None if the encoded size would
// exceed max_ratio × target_size" default.
const DefaultMaxRatio = 0.75

// Compressor computes a delta program reconstructing target from base, or
// declines (ok=false) when no profitable delta exists.
type Compressor interface {
	Compress(base, target []byte) (instructions []packfile.Instruction, encodedSize int, ok bool)
}

// RollingHashCompressor finds Copy runs via a rolling-hash index of base's
// windowSize-byte windows, matching go-git/real Git's general approach of
// hashing fixed windows to find candidate copy sources rather than running
// a full Myers diff (spec.md explicitly calls for a rolling hash, not a
// text-diff algorithm — see DESIGN.md for why go-diff was not wired here).
type RollingHashCompressor struct {
	// MinRun is the shortest match accepted as a Copy; shorter runs are
	// folded into the surrounding literal Insert. Zero means windowSize.
	MinRun int
	// MaxRatio is the largest encodedSize/len(target) this Compressor will
	// accept before declining. Zero means DefaultMaxRatio.
	MaxRatio float64
}

// NewRollingHashCompressor returns a RollingHashCompressor using spec.md's
// defaults.
func NewRollingHashCompressor() *RollingHashCompressor {
	return &RollingHashCompressor{MinRun: windowSize, MaxRatio: DefaultMaxRatio}
}

func (c *RollingHashCompressor) Compress(base, target []byte) ([]packfile.Instruction, int, bool) {
	minRun := c.MinRun
	if minRun <= 0 {
		minRun = windowSize
	}
	maxRatio := c.MaxRatio
	if maxRatio <= 0 {
		maxRatio = DefaultMaxRatio
	}

	index := buildWindowIndex(base, windowSize)

	var instructions []packfile.Instruction
	var literal []byte

	flushLiteral := func() {
		if len(literal) > 0 {
			instructions = append(instructions, packfile.Instruction{Data: literal})
			literal = nil
		}
	}

	i := 0
	for i < len(target) {
		if i+windowSize <= len(target) {
			h := windowHash(target[i : i+windowSize])
			if positions, ok := index[h]; ok {
				pos, length := bestMatch(base, target, positions, i)
				if length >= minRun {
					flushLiteral()
					for remaining, copyPos := length, pos; remaining > 0; {
						chunk := remaining
						if chunk > maxCopyRun {
							chunk = maxCopyRun
						}
						instructions = append(instructions, packfile.Instruction{IsCopy: true, Offset: uint32(copyPos), Length: uint32(chunk)})
						copyPos += chunk
						remaining -= chunk
					}
					i += length
					continue
				}
			}
		}
		literal = append(literal, target[i])
		i++
	}
	flushLiteral()

	var buf bytes.Buffer
	if err := packfile.EncodeDelta(&buf, int64(len(base)), int64(len(target)), instructions); err != nil {
		return nil, 0, false
	}

	size := buf.Len()
	if float64(size) > maxRatio*float64(len(target)) {
		return nil, 0, false
	}
	return instructions, size, true
}

// bestMatch finds the candidate window position (from positions, every
// base offset whose window hashes the same as target[at:at+windowSize])
// that extends into the longest verified byte match, guarding against hash
// collisions with a direct comparison before extending.
func bestMatch(base, target []byte, positions []int, at int) (pos, length int) {
	bestPos, bestLen := -1, 0
	for _, p := range positions {
		if p+windowSize > len(base) || !bytes.Equal(base[p:p+windowSize], target[at:at+windowSize]) {
			continue
		}
		l := windowSize
		for p+l < len(base) && at+l < len(target) && base[p+l] == target[at+l] {
			l++
		}
		if l > bestLen {
			bestPos, bestLen = p, l
		}
	}
	return bestPos, bestLen
}

// buildWindowIndex maps every windowSize-byte window's rolling hash to the
// list of base offsets it occurs at, computed incrementally in one pass
// rather than rehashing each window from scratch.
func buildWindowIndex(data []byte, window int) map[uint64][]int {
	idx := make(map[uint64][]int)
	if len(data) < window {
		return idx
	}

	var pow uint64 = 1
	for i := 0; i < window-1; i++ {
		pow *= rollingHashPrime
	}

	h := windowHash(data[:window])
	idx[h] = append(idx[h], 0)

	for i := 1; i+window <= len(data); i++ {
		h = (h-uint64(data[i-1])*pow)*rollingHashPrime + uint64(data[i+window-1])
		idx[h] = append(idx[h], i)
	}
	return idx
}

func windowHash(b []byte) uint64 {
	var h uint64
	for _, c := range b {
		h = h*rollingHashPrime + uint64(c)
	}
	return h
}
