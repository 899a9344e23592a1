package objects

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/kitforge/gitkit/gitobj"
)

// Commit is the decoded form of a commit object (spec.md §3): a tree, zero
// or more parents, author/committer identities, an optional non-UTF-8
// encoding declaration, an optional PGP signature, and a free-form message.
type Commit struct {
	TreeID    gitobj.ObjectID
	ParentIDs []gitobj.ObjectID
	Author    gitobj.PersonIdent
	Committer gitobj.PersonIdent
	Encoding  string // non-empty only when the commit declares one
	PGPSig    string // multi-line "gpgsig" header value, signature armor included
	Message   string
}

// Encode writes c's canonical byte encoding to w: a fixed sequence of
// headers ("tree", "parent"*, "author", "committer", optional "encoding",
// optional "gpgsig"), a blank line, then the message (spec.md §3).
func (c *Commit) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)

	writeHeader(bw, "tree", c.TreeID.String())
	for _, p := range c.ParentIDs {
		writeHeader(bw, "parent", p.String())
	}
	writeHeader(bw, "author", c.Author.String())
	writeHeader(bw, "committer", c.Committer.String())
	if c.Encoding != "" {
		writeHeader(bw, "encoding", c.Encoding)
	}
	if c.PGPSig != "" {
		writeMultilineHeader(bw, "gpgsig", c.PGPSig)
	}
	bw.WriteByte('\n')
	bw.WriteString(c.Message)

	return gitobj.WrapBackend(bw.Flush())
}

func writeHeader(w *bufio.Writer, key, value string) {
	w.WriteString(key)
	w.WriteByte(' ')
	w.WriteString(value)
	w.WriteByte('\n')
}

// writeMultilineHeader re-indents every continuation line of a multi-line
// header value (as gpgsig always is) with a single leading space, matching
// git's own header-folding convention.
func writeMultilineHeader(w *bufio.Writer, key, value string) {
	lines := strings.Split(value, "\n")
	w.WriteString(key)
	w.WriteByte(' ')
	w.WriteString(lines[0])
	w.WriteByte('\n')
	for _, l := range lines[1:] {
		w.WriteByte(' ')
		w.WriteString(l)
		w.WriteByte('\n')
	}
}

// EncodeObject builds a MemoryObject of type CommitObject holding c's
// canonical encoding.
func (c *Commit) EncodeObject() (*gitobj.MemoryObject, error) {
	o := gitobj.NewMemoryObject(gitobj.CommitObject)
	w, err := o.Writer()
	if err != nil {
		return nil, err
	}
	if err := c.Encode(w); err != nil {
		return nil, err
	}
	return o, w.Close()
}

// DecodeCommit parses a commit object's canonical byte encoding. Unknown
// single-line headers are ignored, matching git's own forward-compatible
// commit parser; only "tree", "parent", "author", "committer", "encoding"
// and "gpgsig" are interpreted.
func DecodeCommit(r io.Reader) (*Commit, error) {
	br := bufio.NewReader(r)
	c := &Commit{}

	for {
		line, err := br.ReadString('\n')
		if err != nil && line == "" {
			return nil, gitobj.NewCorruptionError("commit ended before blank header separator", nil)
		}
		line = strings.TrimSuffix(line, "\n")
		if line == "" {
			break
		}

		key, rest, ok := strings.Cut(line, " ")
		if !ok {
			return nil, gitobj.NewCorruptionError("malformed commit header line: "+line, nil)
		}

		switch key {
		case "tree":
			id, ok := gitobj.FromHex(rest)
			if !ok {
				return nil, gitobj.NewCorruptionError("malformed commit tree id: "+rest, nil)
			}
			c.TreeID = id
		case "parent":
			id, ok := gitobj.FromHex(rest)
			if !ok {
				return nil, gitobj.NewCorruptionError("malformed commit parent id: "+rest, nil)
			}
			c.ParentIDs = append(c.ParentIDs, id)
		case "author":
			p, err := gitobj.ParsePersonIdent(rest)
			if err != nil {
				return nil, err
			}
			c.Author = p
		case "committer":
			p, err := gitobj.ParsePersonIdent(rest)
			if err != nil {
				return nil, err
			}
			c.Committer = p
		case "encoding":
			c.Encoding = rest
		case "gpgsig":
			sig, err := readFoldedHeader(br, rest)
			if err != nil {
				return nil, err
			}
			c.PGPSig = sig
		default:
			// Forward-compatible: unknown headers are dropped, per git's own
			// commit parser.
		}
	}

	msg, err := io.ReadAll(br)
	if err != nil {
		return nil, gitobj.WrapBackend(err)
	}
	c.Message = string(msg)

	return c, nil
}

// readFoldedHeader consumes the continuation lines (each beginning with a
// single space) of a multi-line header whose first line has already been
// read as first.
func readFoldedHeader(br *bufio.Reader, first string) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(first)
	for {
		peek, err := br.Peek(1)
		if err != nil || len(peek) == 0 || peek[0] != ' ' {
			break
		}
		line, err := br.ReadString('\n')
		if err != nil {
			return "", gitobj.NewCorruptionError("truncated folded commit header", err)
		}
		buf.WriteByte('\n')
		buf.WriteString(strings.TrimSuffix(line[1:], "\n"))
	}
	return buf.String(), nil
}

// DecodeCommitObject is a convenience wrapper reading a commit's payload via
// its GitObject reader.
func DecodeCommitObject(obj gitobj.GitObject) (*Commit, error) {
	if obj.Type() != gitobj.CommitObject {
		return nil, gitobj.NewInvalidArgumentError("DecodeCommitObject: not a commit: " + obj.Type().String())
	}
	r, err := obj.Reader()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return DecodeCommit(r)
}

// IsMergeCommit reports whether c has more than one parent.
func (c *Commit) IsMergeCommit() bool { return len(c.ParentIDs) > 1 }

// IsRootCommit reports whether c has no parents.
func (c *Commit) IsRootCommit() bool { return len(c.ParentIDs) == 0 }
