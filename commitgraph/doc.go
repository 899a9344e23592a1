// Package commitgraph implements the commit graph walker (spec.md §4.6):
// ancestry traversal ordered by committer timestamp, merge-base, and
// ancestor tests.
package commitgraph
