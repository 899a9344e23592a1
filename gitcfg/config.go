package gitcfg

import (
	"bufio"
	"fmt"
	"io"

	"gopkg.in/gcfg.v1"

	"github.com/kitforge/gitkit/gitobj"
)

// coreSection mirrors gcfg's struct-tag decoding convention: exported field
// names lowercase to the INI key they bind, matching go-git's own
// storage/filesystem/config.go shape for the same three keys spec.md §6
// names.
type coreSection struct {
	RepositoryFormatVersion int
	FileMode                bool
	Bare                    bool
}

type configFile struct {
	Core coreSection
}

// Config is the decoded form of a repository's config file (spec.md §6).
// Only [core] is modeled; any other section present in a file being decoded
// is ignored rather than rejected, matching gcfg's own tolerance of unknown
// sections.
type Config struct {
	RepositoryFormatVersion int
	FileMode                bool
	Bare                    bool
}

// DefaultConfig returns the config a newly initialized non-bare repository
// would have: format version 0, filemode tracking on, not bare.
func DefaultConfig() *Config {
	return &Config{RepositoryFormatVersion: 0, FileMode: true, Bare: false}
}

// Decode parses r as a Git-style INI config file and returns its [core]
// section.
func Decode(r io.Reader) (*Config, error) {
	var raw configFile
	if err := gcfg.FatalOnly(gcfg.ReadInto(&raw, r)); err != nil {
		return nil, gitobj.NewCorruptionError("malformed config file", err)
	}
	return &Config{
		RepositoryFormatVersion: raw.Core.RepositoryFormatVersion,
		FileMode:                raw.Core.FileMode,
		Bare:                    raw.Core.Bare,
	}, nil
}

// Encode writes cfg's canonical byte encoding: a single [core] section with
// its three keys in the fixed order git itself writes them in
// (repositoryformatversion, filemode, bare). gcfg has no corresponding
// encoder, so this is hand-written rather than round-tripped through the
// decode library.
func Encode(w io.Writer, cfg *Config) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "[core]")
	fmt.Fprintf(bw, "\trepositoryformatversion = %d\n", cfg.RepositoryFormatVersion)
	fmt.Fprintf(bw, "\tfilemode = %t\n", cfg.FileMode)
	fmt.Fprintf(bw, "\tbare = %t\n", cfg.Bare)
	return gitobj.WrapBackend(bw.Flush())
}

// Load reads and decodes the config file at path within fs. A missing file
// is reported as a *gitobj.NotFoundError.
func Load(fs gitobj.FilesApi, path string) (*Config, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, gitobj.NewNotFoundError("config file " + path)
	}
	defer f.Close()
	return Decode(f)
}

// Save encodes cfg and writes it to path within fs, replacing any existing
// file via truncate-on-create (the config file is a single small file
// rewritten wholesale on every change, unlike the ref store's
// temp-file-plus-rename convention for concurrent-write safety).
func Save(fs gitobj.FilesApi, path string, cfg *Config) error {
	f, err := fs.Create(path)
	if err != nil {
		return gitobj.WrapBackend(err)
	}
	defer f.Close()
	return Encode(f, cfg)
}
