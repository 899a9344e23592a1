// Package idxfile implements the pack index v2 format (spec.md §4.3): the
// sidecar file giving O(log N) id-to-offset lookup into a pack file via a
// 256-entry fanout table, a sorted id table, a CRC32 table, and an offset
// table with large-offset overflow for packs bigger than 2GiB.
package idxfile
