package main

import (
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/sirupsen/logrus"

	"github.com/kitforge/gitkit/gitobj"
	"github.com/kitforge/gitkit/historystore"
	"github.com/kitforge/gitkit/objstore"
	"github.com/kitforge/gitkit/rawstore"
	"github.com/kitforge/gitkit/refstore"
)

// repoEnv is the set of collaborators every subcommand needs, wired the
// way a real embedder would: one FilesApi rooted at the git directory, one
// Compression provider shared by loose storage and pack/unpack, and the
// historystore.Store composing the object and ref stores on top.
type repoEnv struct {
	fs          billy.Filesystem
	compression gitobj.Compression
	objects     *objstore.ObjectStore
	refs        *refstore.Store
	store       *historystore.Store
}

// openRepo wires a repoEnv rooted at dir (the --git-dir flag). It does not
// require dir to already exist beyond being creatable by osfs — the loose
// object and ref stores create subdirectories lazily on first write.
func openRepo(dir string, log logrus.FieldLogger) *repoEnv {
	fs := osfs.New(dir)
	compression := gitobj.NewCompression()
	raw := rawstore.NewLooseRawStorage(fs, "objects", compression)
	objects := objstore.New(raw)
	refs := refstore.New(fs)
	store := historystore.New(objects, refs, log)
	return &repoEnv{fs: fs, compression: compression, objects: objects, refs: refs, store: store}
}
