package gitobj

import "strings"

// HEAD is the name of the special ref that tracks the current branch (or, in
// detached-HEAD state, a direct commit id).
const HEAD = "HEAD"

// ReferenceStorage records where a Reference's value physically lives.
type ReferenceStorage int8

const (
	// LooseStorage means the ref is (or would be) a standalone file under
	// refs/.
	LooseStorage ReferenceStorage = iota
	// PackedStorage means the ref's value comes from the packed-refs file.
	PackedStorage
)

// Reference is a named pointer to an object (direct) or to another ref's
// name (symbolic). Exactly one of Target/Symbolic is meaningful, selected by
// Type.
type Reference struct {
	Name    string
	Type    ReferenceType
	Target  ObjectID // valid when Type == HashReference
	Symbolic string  // valid when Type == SymbolicReference; another ref's name
	Storage ReferenceStorage

	// Peeled and PeeledObjectID describe an annotated tag ref's underlying
	// commit, as recorded by a "^<hex>" line in packed-refs.
	Peeled         bool
	PeeledObjectID ObjectID
}

// ReferenceType distinguishes a direct ref from a symbolic one.
type ReferenceType int8

const (
	// HashReference points directly at an ObjectID.
	HashReference ReferenceType = iota
	// SymbolicReference points at another ref by name.
	SymbolicReference
)

// NewHashReference builds a direct reference.
func NewHashReference(name string, target ObjectID) *Reference {
	return &Reference{Name: name, Type: HashReference, Target: target}
}

// NewSymbolicReference builds a symbolic reference.
func NewSymbolicReference(name, target string) *Reference {
	return &Reference{Name: name, Type: SymbolicReference, Symbolic: target}
}

// IsBranch reports whether name is under refs/heads/.
func IsBranch(name string) bool { return strings.HasPrefix(name, "refs/heads/") }

// IsTag reports whether name is under refs/tags/.
func IsTag(name string) bool { return strings.HasPrefix(name, "refs/tags/") }

// IsRemote reports whether name is under refs/remotes/.
func IsRemote(name string) bool { return strings.HasPrefix(name, "refs/remotes/") }

// ValidateReferenceName applies Git's ref-name rules (spec.md §4.4): no
// "..", no leading '-', no ".lock" suffix, no control characters, and a few
// further restrictions shared with `git check-ref-format`.
func ValidateReferenceName(name string) error {
	if name == "" {
		return NewInvalidArgumentError("empty ref name")
	}
	if name != HEAD && !strings.Contains(name, "/") {
		return NewInvalidArgumentError("ref name must be HEAD or contain a slash: " + name)
	}
	if strings.HasPrefix(name, "-") {
		return NewInvalidArgumentError("ref name may not start with '-': " + name)
	}
	if strings.HasSuffix(name, ".lock") {
		return NewInvalidArgumentError("ref name may not end in '.lock': " + name)
	}
	if strings.HasSuffix(name, "/") || strings.HasPrefix(name, "/") {
		return NewInvalidArgumentError("ref name may not start or end with '/': " + name)
	}
	if strings.Contains(name, "..") {
		return NewInvalidArgumentError("ref name may not contain '..': " + name)
	}
	if strings.Contains(name, "//") {
		return NewInvalidArgumentError("ref name may not contain '//': " + name)
	}
	for _, part := range strings.Split(name, "/") {
		if part == "" {
			return NewInvalidArgumentError("ref name may not contain an empty path component: " + name)
		}
		if part == "." {
			return NewInvalidArgumentError("ref name may not contain a '.' path component: " + name)
		}
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return NewInvalidArgumentError("ref name may not contain control characters: " + name)
		}
		switch r {
		case ' ', '~', '^', ':', '?', '*', '[', '\\':
			return NewInvalidArgumentError("ref name may not contain '" + string(r) + "': " + name)
		}
	}
	return nil
}
