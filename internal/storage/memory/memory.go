// Package memory provides the transient implementation of
// storage.Storage: an ordered slice guarded by a single RWMutex.
//
// Records live only as long as the process. Every method takes the lock
// for its whole duration, so interleaved writers are serialised and
// readers never observe a half-applied update. Values handed out are
// deep copies.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/aanand-mishra/students-api/internal/errs"
	"github.com/aanand-mishra/students-api/internal/types"
)

// Memory is the in-process store.
type Memory struct {
	mu       sync.RWMutex
	students []types.Student
	newID    func() string
}

// New returns an empty store.
func New() *Memory {
	return &Memory{newID: uuid.NewString}
}

func (m *Memory) ListStudents(_ context.Context) ([]types.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	students := make([]types.Student, 0, len(m.students))
	for _, s := range m.students {
		students = append(students, s.Clone())
	}
	return students, nil
}

func (m *Memory) GetStudentByID(_ context.Context, id string) (types.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.indexOf(id)
	if i < 0 {
		return types.Student{}, errs.NewNotFound(id)
	}
	return m.students[i].Clone(), nil
}

func (m *Memory) CreateStudent(_ context.Context, in types.NewStudent) (types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	student := types.Student{
		ID:        m.newID(),
		Name:      in.Name,
		Age:       *in.Age,
		ClassYear: in.ClassYear,
	}.Clone()
	m.students = append(m.students, student)

	return student.Clone(), nil
}

func (m *Memory) UpdateStudentByID(_ context.Context, id string, patch types.StudentPatch) (types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return types.Student{}, errs.NewNotFound(id)
	}
	m.students[i] = patch.Apply(m.students[i])

	return m.students[i].Clone(), nil
}

func (m *Memory) DeleteStudentByID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return errs.NewNotFound(id)
	}
	// copy-down keeps insertion order for the survivors
	m.students = append(m.students[:i], m.students[i+1:]...)
	return nil
}

func (m *Memory) Close() error {
	return nil
}

// indexOf must be called with mu held.
func (m *Memory) indexOf(id string) int {
	for i := range m.students {
		if m.students[i].ID == id {
			return i
		}
	}
	return -1
}
