package refstore

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/kitforge/gitkit/gitobj"
)

// packedRefsHeader is the optional comment line real Git writes atop a
// packed-refs file, recorded verbatim (spec.md §6) though gitkit does not
// read it back for any decision.
const packedRefsHeader = "# pack-refs with: peeled fully-peeled sorted \n"

// packedEntry is one packed-refs line, plus its optional peeled annotation.
type packedEntry struct {
	ID       gitobj.ObjectID
	Name     string
	Peeled   bool
	PeeledID gitobj.ObjectID
}

// parsePackedRefs reads the packed-refs ASCII format (spec.md §6): a
// leading optional comment, then "<hex> <name>\n" lines each optionally
// followed by a "^<hex>\n" peeled-annotation line.
func parsePackedRefs(r io.Reader) ([]packedEntry, error) {
	var entries []packedEntry
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		if line[0] == '^' {
			if len(entries) == 0 {
				return nil, gitobj.NewCorruptionError("packed-refs: peeled line with no preceding ref", nil)
			}
			id, ok := gitobj.FromHex(line[1:])
			if !ok {
				return nil, gitobj.NewCorruptionError("packed-refs: malformed peeled id: "+line, nil)
			}
			entries[len(entries)-1].Peeled = true
			entries[len(entries)-1].PeeledID = id
			continue
		}

		sp := strings.IndexByte(line, ' ')
		if sp < 0 {
			return nil, gitobj.NewCorruptionError("packed-refs: malformed line: "+line, nil)
		}
		id, ok := gitobj.FromHex(line[:sp])
		if !ok {
			return nil, gitobj.NewCorruptionError("packed-refs: malformed id: "+line, nil)
		}
		entries = append(entries, packedEntry{ID: id, Name: line[sp+1:]})
	}
	if err := sc.Err(); err != nil {
		return nil, gitobj.WrapBackend(err)
	}
	return entries, nil
}

// writePackedRefs writes entries (sorted by name) in packed-refs format.
func writePackedRefs(w io.Writer, entries []packedEntry) error {
	sorted := make([]packedEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	if _, err := io.WriteString(w, packedRefsHeader); err != nil {
		return gitobj.WrapBackend(err)
	}
	for _, e := range sorted {
		if _, err := fmt.Fprintf(w, "%s %s\n", e.ID.String(), e.Name); err != nil {
			return gitobj.WrapBackend(err)
		}
		if e.Peeled {
			if _, err := fmt.Fprintf(w, "^%s\n", e.PeeledID.String()); err != nil {
				return gitobj.WrapBackend(err)
			}
		}
	}
	return nil
}
