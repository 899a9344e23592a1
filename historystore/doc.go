// Package historystore ties the reference store, object store, commit
// graph walker and delta engine together into the three provided
// interfaces spec.md §6 names for transport/porcelain layers:
// enumerateReachable, writePack, and parsePackEntries — plus garbage
// collection (spec.md §9's reachability-based answer to the teacher's
// unfinished GC stub).
package historystore
