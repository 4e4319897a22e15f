package gormstore

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"

	"github.com/aanand-mishra/students-api/internal/errs"
	"github.com/aanand-mishra/students-api/internal/storage"
	"github.com/aanand-mishra/students-api/internal/storage/storagetest"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(sqlite.Open(filepath.Join(t.TempDir(), "students.db")), zerolog.Nop())
	require.NoError(t, err)

	sqlDB, err := s.db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	return s
}

func TestGORMStorage(t *testing.T) {
	storagetest.Run(t, "GORM", func(t *testing.T) storage.Storage {
		return setupTestStore(t)
	})
}

func TestOpenPostgresRequiresDSN(t *testing.T) {
	_, err := OpenPostgres("", zerolog.Nop())
	require.Error(t, err)
}

func TestClosedStoreIsUnavailable(t *testing.T) {
	s := setupTestStore(t)
	require.NoError(t, s.Close())

	err := s.DeleteStudentByID(context.Background(), "00000000-0000-4000-8000-000000000000")
	require.ErrorIs(t, err, errs.ErrStoreUnavailable)
	require.NotErrorIs(t, err, errs.ErrNotFound)
}

func TestOpenClosesPoolWhenMigrationFails(t *testing.T) {
	sqlDB, err := sql.Open(sqlite.DriverName, filepath.Join(t.TempDir(), "students.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	// A view squatting on the table name makes AutoMigrate fail.
	_, err = sqlDB.Exec(`CREATE VIEW students AS SELECT 1 AS seq`)
	require.NoError(t, err)

	_, err = Open(sqlite.Dialector{Conn: sqlDB}, zerolog.Nop())
	require.Error(t, err)
	require.ErrorContains(t, sqlDB.Ping(), "database is closed")
}
