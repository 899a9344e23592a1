// Package gitcfg reads and writes a repository's INI-style config file
// (spec.md §6): the "config" Git-style INI subset naming only the [core]
// section's repositoryformatversion, filemode and bare keys.
package gitcfg
