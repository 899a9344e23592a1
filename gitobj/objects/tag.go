package objects

import (
	"bufio"
	"io"
	"strings"

	"github.com/kitforge/gitkit/gitobj"
)

// Tag is the decoded form of an annotated tag object (spec.md §3): a
// pointer at another object (of any type, not necessarily a commit), a
// name, a tagger identity, a message, and an optional PGP signature
// embedded at the end of the message the way `git tag -s` writes it.
type Tag struct {
	ObjectID   gitobj.ObjectID
	ObjectType gitobj.ObjectType
	Name       string
	Tagger     gitobj.PersonIdent
	Message    string
}

// Encode writes t's canonical byte encoding to w: "object"/"type"/"tag"/
// "tagger" headers, a blank line, then the message (spec.md §3).
func (t *Tag) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)
	writeHeader(bw, "object", t.ObjectID.String())
	writeHeader(bw, "type", t.ObjectType.String())
	writeHeader(bw, "tag", t.Name)
	writeHeader(bw, "tagger", t.Tagger.String())
	bw.WriteByte('\n')
	bw.WriteString(t.Message)
	return gitobj.WrapBackend(bw.Flush())
}

// EncodeObject builds a MemoryObject of type TagObject holding t's canonical
// encoding.
func (t *Tag) EncodeObject() (*gitobj.MemoryObject, error) {
	o := gitobj.NewMemoryObject(gitobj.TagObject)
	w, err := o.Writer()
	if err != nil {
		return nil, err
	}
	if err := t.Encode(w); err != nil {
		return nil, err
	}
	return o, w.Close()
}

// DecodeTag parses an annotated tag object's canonical byte encoding.
func DecodeTag(r io.Reader) (*Tag, error) {
	br := bufio.NewReader(r)
	t := &Tag{}

	for {
		line, err := br.ReadString('\n')
		if err != nil && line == "" {
			return nil, gitobj.NewCorruptionError("tag ended before blank header separator", nil)
		}
		line = strings.TrimSuffix(line, "\n")
		if line == "" {
			break
		}

		key, rest, ok := strings.Cut(line, " ")
		if !ok {
			return nil, gitobj.NewCorruptionError("malformed tag header line: "+line, nil)
		}

		switch key {
		case "object":
			id, ok := gitobj.FromHex(rest)
			if !ok {
				return nil, gitobj.NewCorruptionError("malformed tag object id: "+rest, nil)
			}
			t.ObjectID = id
		case "type":
			ot, err := gitobj.ParseObjectType(rest)
			if err != nil {
				return nil, gitobj.NewCorruptionError("malformed tag object type: "+rest, err)
			}
			t.ObjectType = ot
		case "tag":
			t.Name = rest
		case "tagger":
			p, err := gitobj.ParsePersonIdent(rest)
			if err != nil {
				return nil, err
			}
			t.Tagger = p
		default:
			// Forward-compatible: unknown headers are dropped.
		}
	}

	msg, err := io.ReadAll(br)
	if err != nil {
		return nil, gitobj.WrapBackend(err)
	}
	t.Message = string(msg)

	return t, nil
}

// DecodeTagObject is a convenience wrapper reading a tag's payload via its
// GitObject reader.
func DecodeTagObject(obj gitobj.GitObject) (*Tag, error) {
	if obj.Type() != gitobj.TagObject {
		return nil, gitobj.NewInvalidArgumentError("DecodeTagObject: not a tag: " + obj.Type().String())
	}
	r, err := obj.Reader()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return DecodeTag(r)
}

// PGPSignature extracts an embedded "-----BEGIN PGP SIGNATURE-----" block
// from the end of t.Message, if present, returning the message with the
// signature (and the blank line separating it) stripped, and the signature
// armor itself. ok is false if no signature block is present.
func (t *Tag) PGPSignature() (message, signature string, ok bool) {
	const marker = "-----BEGIN PGP SIGNATURE-----"
	idx := strings.Index(t.Message, marker)
	if idx < 0 {
		return t.Message, "", false
	}
	message = strings.TrimSuffix(t.Message[:idx], "\n")
	signature = t.Message[idx:]
	return message, signature, true
}
