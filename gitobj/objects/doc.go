// Package objects implements the four Git object kinds — blob, tree, commit,
// and annotated tag — as typed Go values encoded to and decoded from the
// canonical byte layouts described in spec.md §3, independent of how the
// bytes are stored (loose, packed, or held only in memory).
package objects
