package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/students-api/internal/config"
	"github.com/aanand-mishra/students-api/internal/errs"
	"github.com/aanand-mishra/students-api/internal/storage"
	"github.com/aanand-mishra/students-api/internal/storage/storagetest"
	"github.com/aanand-mishra/students-api/internal/types"
)

func intPtr(i int) *int { return &i }

func newTestStore(t *testing.T) *SQLite {
	t.Helper()
	cfg := &config.Config{Storage: config.Storage{
		Backend: config.BackendSQLite,
		DSN:     filepath.Join(t.TempDir(), "students.db"),
	}}
	s, err := New(cfg, zerolog.Nop())
	require.NoError(t, err)
	return s
}

func TestSQLiteStorage(t *testing.T) {
	storagetest.Run(t, "SQLite", func(t *testing.T) storage.Storage {
		return newTestStore(t)
	})
}

func TestNewRequiresDSN(t *testing.T) {
	_, err := New(&config.Config{}, zerolog.Nop())
	require.Error(t, err)
}

func TestReopenKeepsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "students.db")
	cfg := &config.Config{Storage: config.Storage{Backend: config.BackendSQLite, DSN: path}}

	s, err := New(cfg, zerolog.Nop())
	require.NoError(t, err)
	created, err := s.CreateStudent(context.Background(), types.NewStudent{Name: "John", Age: intPtr(20)})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = New(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetStudentByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, created, got)
}

func TestClosedStoreIsUnavailable(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Close())

	_, err := s.ListStudents(context.Background())
	require.ErrorIs(t, err, errs.ErrStoreUnavailable)

	var su *errs.StoreUnavailableError
	require.ErrorAs(t, err, &su)
	require.Equal(t, "list", su.Op)

	_, err = s.GetStudentByID(context.Background(), "00000000-0000-4000-8000-000000000000")
	require.ErrorIs(t, err, errs.ErrStoreUnavailable)
	require.NotErrorIs(t, err, errs.ErrNotFound)
}

func TestCanceledContextRollsBack(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.CreateStudent(ctx, types.NewStudent{Name: "Ghost", Age: intPtr(1)})
	require.ErrorIs(t, err, errs.ErrStoreUnavailable)

	students, err := s.ListStudents(context.Background())
	require.NoError(t, err)
	require.Empty(t, students)
}
