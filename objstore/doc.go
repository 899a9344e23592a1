// Package objstore implements the content-addressed object store
// (spec.md §4.2): it adds the Git envelope ("<type> <size>\0<payload>") on
// top of a rawstore.RawStorage, computes SHA-1 identity, and unifies loose
// storage with zero or more read-only pack backends so that a NotFound from
// one backend transparently falls through to the next.
package objstore
