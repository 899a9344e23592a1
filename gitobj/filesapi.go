package gitobj

import "github.com/go-git/go-billy/v5"

// FilesApi is the narrow filesystem abstraction every on-disk component of
// gitkit is built against (spec.md §6): exists/mkdir/write/read/list/remove/
// stats/move, without caring whether bytes land on disk, in memory, or in a
// remote KV store behind a billy.Filesystem adapter.
//
// go-billy's Filesystem interface already *is* this contract — go-billy
// ships osfs (real disk), memfs (in-memory), and chroot/adapter
// implementations for everything else gitkit might be asked to run against.
// Per spec.md §9's design note ("model as a single trait with two
// implementations, not two traits with an adapter"), gitkit reuses the
// interface directly instead of wrapping it in a second FilesApi type that
// would just forward every call.
type FilesApi = billy.Filesystem
