package gitobj

import (
	"fmt"
	"os"
	"strconv"
)

// FileMode is a Git tree entry's mode: an ASCII-octal-encoded Unix file mode
// as it appears, without leading zeros, in a tree object's canonical
// encoding (spec.md §3).
type FileMode uint32

const (
	// Empty is the zero mode, used only for diff-tree style "absent" markers.
	Empty FileMode = 0
	// Dir marks a tree entry that is itself a tree.
	Dir FileMode = 0o40000
	// Regular marks an ordinary, non-executable file.
	Regular FileMode = 0o100644
	// Deprecated is an old, no-longer-written regular file mode some
	// historical repositories still contain.
	Deprecated FileMode = 0o100664
	// Executable marks an ordinary, executable file.
	Executable FileMode = 0o100755
	// Symlink marks a symbolic link, whose blob content is the link target.
	Symlink FileMode = 0o120000
	// Submodule marks a gitlink entry pointing at a commit in another
	// repository.
	Submodule FileMode = 0o160000
)

// New parses the ASCII-octal mode string found in a tree entry or in
// porcelain output such as "git diff-tree". Leading zeros are tolerated.
func New(s string) (FileMode, error) {
	if s == "" {
		return Empty, NewInvalidArgumentError("empty file mode")
	}
	n, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return Empty, NewInvalidArgumentError(fmt.Sprintf("invalid file mode %q: %v", s, err))
	}
	return FileMode(n), nil
}

// String returns the canonical ASCII-octal spelling of m, without leading
// zeros, as written in a tree object's encoding.
func (m FileMode) String() string {
	return strconv.FormatUint(uint64(m), 8)
}

// IsRegular reports whether m is an ordinary (non-directory, non-symlink,
// non-submodule) file, executable or not.
func (m FileMode) IsRegular() bool {
	return m == Regular || m == Deprecated || m == Executable
}

// IsMalformed reports whether m is not one of the modes Git itself ever
// writes into a tree object.
func (m FileMode) IsMalformed() bool {
	switch m {
	case Dir, Regular, Deprecated, Executable, Symlink, Submodule:
		return false
	default:
		return true
	}
}

// ToOSFileMode converts m to the nearest os.FileMode, for worktree
// materialization.
func (m FileMode) ToOSFileMode() os.FileMode {
	switch m {
	case Dir:
		return os.ModeDir | 0o755
	case Symlink:
		return os.ModeSymlink | 0o777
	case Executable:
		return 0o755
	case Submodule:
		return os.ModeDir | 0o755
	default:
		return 0o644
	}
}
