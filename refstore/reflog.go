package refstore

import (
	"bufio"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/kitforge/gitkit/gitobj"
)

// reflogDir is the conventional directory holding one reflog file per ref.
const reflogDir = "logs"

// openAppendFlags opens (creating if absent) a reflog file for append-only
// writes.
const openAppendFlags = os.O_APPEND | os.O_CREATE | os.O_WRONLY

// appendReflog records a single "<old> <new> <ident>\t<message>\n" line to
// name's reflog (SPEC_FULL.md's reflog supplement, following the format
// spec.md §9 names without fully specifying). meta.Ident/Message being the
// zero value is tolerated — a no-message record is still written, matching
// git's own tolerance of an empty reflog subject.
func (s *Store) appendReflog(name string, oldID, newID gitobj.ObjectID, meta ReflogMeta) error {
	if err := s.appendReflogLine(name, oldID, newID, meta); err != nil {
		return err
	}

	if name == gitobj.HEAD {
		return nil
	}

	head, err := s.getLocked(gitobj.HEAD)
	if err != nil {
		return nil
	}
	if head.Type == gitobj.SymbolicReference && head.Symbolic == name {
		return s.appendReflogLine(gitobj.HEAD, oldID, newID, meta)
	}
	return nil
}

func (s *Store) appendReflogLine(name string, oldID, newID gitobj.ObjectID, meta ReflogMeta) error {
	logPath := path.Join(reflogDir, name)
	if err := s.fs.MkdirAll(path.Dir(logPath), 0o755); err != nil {
		return gitobj.WrapBackend(err)
	}

	f, err := s.fs.OpenFile(logPath, openAppendFlags, 0o644)
	if err != nil {
		return gitobj.WrapBackend(err)
	}
	defer f.Close()

	line := fmt.Sprintf("%s %s %s\t%s\n", oldID.String(), newID.String(), meta.Ident.String(), meta.Message)
	_, err = f.Write([]byte(line))
	return gitobj.WrapBackend(err)
}

// ReflogEntry is one parsed line of a ref's reflog.
type ReflogEntry struct {
	Old     gitobj.ObjectID
	New     gitobj.ObjectID
	Ident   gitobj.PersonIdent
	Message string
}

// ReadReflog returns name's reflog entries in the order written (oldest
// first), or (nil, nil) if name has no reflog.
func (s *Store) ReadReflog(name string) ([]ReflogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.fs.Open(path.Join(reflogDir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, gitobj.WrapBackend(err)
	}
	defer f.Close()

	var entries []ReflogEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		e, ok := parseReflogLine(scanner.Text())
		if !ok {
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, gitobj.WrapBackend(err)
	}
	return entries, nil
}

func parseReflogLine(line string) (ReflogEntry, bool) {
	fields := strings.SplitN(line, "\t", 2)
	header := fields[0]
	var message string
	if len(fields) == 2 {
		message = fields[1]
	}

	parts := strings.SplitN(header, " ", 3)
	if len(parts) < 2 {
		return ReflogEntry{}, false
	}
	oldID, ok := gitobj.FromHex(parts[0])
	if !ok {
		return ReflogEntry{}, false
	}
	newID, ok := gitobj.FromHex(parts[1])
	if !ok {
		return ReflogEntry{}, false
	}
	var ident gitobj.PersonIdent
	if len(parts) == 3 {
		if parsed, err := gitobj.ParsePersonIdent(parts[2]); err == nil {
			ident = parsed
		}
	}
	return ReflogEntry{Old: oldID, New: newID, Ident: ident, Message: message}, true
}

// ReflogTip returns the most recently recorded "new" object id for name's
// reflog, or (ZeroHash, false, nil) if name has no reflog entries.
func (s *Store) ReflogTip(name string) (gitobj.ObjectID, bool, error) {
	entries, err := s.ReadReflog(name)
	if err != nil {
		return gitobj.ZeroHash, false, err
	}
	if len(entries) == 0 {
		return gitobj.ZeroHash, false, nil
	}
	return entries[len(entries)-1].New, true, nil
}

// AllReflogNames walks the logs/ directory and returns every ref name that
// has a reflog, used by historystore.GC to collect reflog-tip GC roots.
func (s *Store) AllReflogNames() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var names []string
	var walk func(dir string) error
	walk = func(dir string) error {
		entries, err := s.fs.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return gitobj.WrapBackend(err)
		}
		for _, e := range entries {
			p := path.Join(dir, e.Name())
			if e.IsDir() {
				if err := walk(p); err != nil {
					return err
				}
				continue
			}
			names = append(names, strings.TrimPrefix(p, reflogDir+"/"))
		}
		return nil
	}
	if err := walk(reflogDir); err != nil {
		return nil, err
	}
	return names, nil
}
