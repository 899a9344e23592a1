// Package packfile implements the pack file format (spec.md §4.3): the
// object header varint encoding, OFS_DELTA/REF_DELTA framing, the Git wire
// delta program encode/decode/apply, a lazy pack reader with delta-chain
// resolution, and buffered/streaming pack writers.
package packfile
