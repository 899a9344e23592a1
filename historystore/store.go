package historystore

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/kitforge/gitkit/objstore"
	"github.com/kitforge/gitkit/refstore"
)

// Store composes an object store, a reference store, and an optional
// logger into the provided-interfaces layer (spec.md §6). A nil logger is
// valid and disables logging, matching go-git's treatment of optional
// collaborators as nil-safe.
type Store struct {
	Objects *objstore.ObjectStore
	Refs    *refstore.Store
	log     logrus.FieldLogger
}

// New returns a Store over objects and refs, logging through log (nil to
// discard).
func New(objects *objstore.ObjectStore, refs *refstore.Store, log logrus.FieldLogger) *Store {
	return &Store{Objects: objects, Refs: refs, log: log}
}

// logOrDiscard returns s.log, or a discarding logger if none was supplied.
func (s *Store) logOrDiscard() logrus.FieldLogger {
	if s.log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		return discard
	}
	return s.log
}
