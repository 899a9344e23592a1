// Package refstore implements the reference store (spec.md §4.4): loose
// refs under refs/, a packed-refs file, symbolic resolution bounded at 100
// levels, compare-and-swap, and a reflog recording every successful update.
package refstore
