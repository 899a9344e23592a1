// Package stage implements the staging area (spec.md §4.5): a sorted
// collection of StagingEntry records with a Builder (wholesale replace) and
// Editor (targeted edits) modification API, tree materialization
// (WriteTree/ReadTree), and the Git index on-disk format (version 2, or
// version 3 when an entry carries extended flags).
package stage
