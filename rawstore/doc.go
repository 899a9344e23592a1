// Package rawstore implements the lowest layer of gitkit (spec.md §4.1): a
// keyed byte-stream map with no knowledge of Git envelopes, object types, or
// ids beyond treating them as opaque strings. Two implementations are
// provided: a loose, two-level fan-out directory layout over a FilesApi
// (matching Git's own ".git/objects/xx/yyyy..." convention), and an
// in-memory KV layout for tests and ephemeral stores.
package rawstore
