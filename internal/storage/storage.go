// Package storage defines the Storage interface: the contract every
// record store must satisfy to back the students service.
//
// WHY AN INTERFACE?
// ─────────────────
// The engine and the handlers should not know which database they are
// talking to. Switching backends is a config change (storage.backend),
// and engine tests run against the in-memory store with no database.
//
// Three implementations exist:
//
//   - memory:    a process-local ordered collection, lost on restart
//   - sqlite:    a SQLite table reached through database/sql
//   - gormstore: a relational table reached through GORM (PostgreSQL in
//     production, SQLite in tests)
//
// All of them must behave identically from the caller's point of view;
// storagetest.Run checks that.
package storage

import (
	"context"

	"github.com/aanand-mishra/students-api/internal/types"
)

// Storage is the record store contract.
// Any type with all of these methods satisfies it implicitly.
//
// Inputs are assumed valid: the engine validates before it calls in.
// Errors are one of *errs.NotFoundError or *errs.StoreUnavailableError.
type Storage interface {
	// ListStudents returns every student in insertion order.
	// Returns an empty slice (not nil) if there are none.
	ListStudents(ctx context.Context) ([]types.Student, error)

	// GetStudentByID returns the student whose id matches exactly.
	GetStudentByID(ctx context.Context, id string) (types.Student, error)

	// CreateStudent assigns a fresh id, persists the record and returns it.
	CreateStudent(ctx context.Context, student types.NewStudent) (types.Student, error)

	// UpdateStudentByID applies the merge-patch and returns the stored result.
	UpdateStudentByID(ctx context.Context, id string, patch types.StudentPatch) (types.Student, error)

	// DeleteStudentByID removes the student. Deleting an absent id, including
	// one deleted before, reports NotFound.
	DeleteStudentByID(ctx context.Context, id string) error

	// Close releases any resources held by the store.
	Close() error
}
