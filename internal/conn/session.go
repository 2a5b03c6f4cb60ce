package conn

import (
	"sync"

	"github.com/cilforge/cilforge/internal/edit"
	"github.com/cilforge/cilforge/internal/view"
	"github.com/cilforge/cilforge/internal/writer"
	"github.com/pkg/errors"
)

var ErrSessionCommitted = errors.New("session already committed")

// Session is one editing session over a loaded assembly: the read-only
// parsed view plus the accumulating change set. Commit hands the change
// set to a write pipeline exactly once; after that the session is sealed
// and only its output can be read.
type Session struct {
	locker sync.RWMutex

	Assembly *view.Assembly
	Changes  *edit.AssemblyChanges
	Output   *writer.Output
}

func NewSession(assembly *view.Assembly) *Session {
	return &Session{
		Assembly: assembly,
		Changes:  edit.NewAssemblyChanges(assembly.HeapSizes()),
	}
}

func (s *Session) GetLocker() *sync.RWMutex { return &s.locker }

// Committed reports whether the session is sealed. Callers hold the
// session locker; ActionHandler takes it around every dispatch.
func (s *Session) Committed() bool { return s.Output != nil }

// Commit runs the reconciliation pipeline over the accumulated edits and
// seals the session. Callers hold the session locker.
func (s *Session) Commit() (*writer.Output, error) {
	if s.Output != nil {
		return nil, ErrSessionCommitted
	}
	out, err := writer.NewPipeline(s.Assembly, s.Changes).Run()
	if err != nil {
		return nil, err
	}
	s.Output = out
	return out, nil
}
