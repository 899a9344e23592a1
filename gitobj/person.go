package gitobj

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// PersonIdent identifies the author or committer of a commit, or the tagger
// of an annotated tag (spec.md §3). Serialization is
// "Name <email> timestamp ±HHMM".
type PersonIdent struct {
	Name      string
	Email     string
	Timestamp int64  // seconds since the Unix epoch
	TZOffset  string // "[+-]HHMM"
}

// Encode appends the "Name <email> timestamp ±HHMM" line for p to buf,
// without a trailing newline.
func (p PersonIdent) Encode(buf *bytes.Buffer) {
	fmt.Fprintf(buf, "%s <%s> %d %s", p.Name, p.Email, p.Timestamp, p.TZOffset)
}

// String returns the "Name <email> timestamp ±HHMM" encoding of p.
func (p PersonIdent) String() string {
	var buf bytes.Buffer
	p.Encode(&buf)
	return buf.String()
}

// ParsePersonIdent parses a "Name <email> timestamp ±HHMM" line as written
// by Encode. It accepts a missing timestamp/offset suffix, and a lone
// timestamp field that does not parse (Timestamp is then left zero); when
// both a timestamp and an offset are present, an unparseable timestamp is
// a *CorruptionError. The offset is stored as written, without validation.
// The "Name <email>" portion must be well formed.
func ParsePersonIdent(line string) (PersonIdent, error) {
	var p PersonIdent

	open := strings.IndexByte(line, '<')
	close := strings.IndexByte(line, '>')
	if open < 0 || close < 0 || close < open {
		return p, NewCorruptionError("malformed person identity line: "+line, nil)
	}

	p.Name = strings.TrimRight(line[:open], " ")
	p.Email = line[open+1 : close]

	rest := strings.TrimLeft(line[close+1:], " ")
	fields := strings.Fields(rest)
	switch len(fields) {
	case 2:
		ts, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return p, NewCorruptionError("malformed person identity timestamp: "+line, err)
		}
		p.Timestamp = ts
		p.TZOffset = fields[1]
	case 1:
		ts, err := strconv.ParseInt(fields[0], 10, 64)
		if err == nil {
			p.Timestamp = ts
		}
	}

	return p, nil
}
