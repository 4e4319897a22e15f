// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// Every operation runs inside its own transaction: it begins on the
// request context, commits exactly once on success and rolls back exactly
// once on failure. database/sql hands the connection back to the pool
// when the transaction ends, on every exit path.
//
// Rows carry a hidden AUTOINCREMENT sequence column so listing preserves
// insertion order and a deleted row's slot is never reused.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aanand-mishra/students-api/internal/config"
	"github.com/aanand-mishra/students-api/internal/errs"
	"github.com/aanand-mishra/students-api/internal/types"

	// Blank import: registers the "sqlite3" driver with database/sql.
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
	CREATE TABLE IF NOT EXISTS students (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		id         TEXT    NOT NULL UNIQUE,
		name       TEXT    NOT NULL,
		age        INTEGER NOT NULL,
		class_year TEXT
	)
`

// SQLite is the concrete implementation of storage.Storage.
// Db is a connection pool; it is safe for concurrent use.
type SQLite struct {
	Db  *sql.DB
	log zerolog.Logger
}

// New opens the SQLite database at cfg.Storage.DSN, creates the students
// table if it does not already exist, and returns a ready-to-use *SQLite.
func New(cfg *config.Config, log zerolog.Logger) (*SQLite, error) {
	if cfg.Storage.DSN == "" {
		return nil, errors.New("sqlite.New: storage dsn is empty")
	}

	db, err := sql.Open("sqlite3", cfg.Storage.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}
	// SQLite allows a single writer; one connection avoids SQLITE_BUSY
	// between concurrent transactions.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return &SQLite{
		Db:  db,
		log: log.With().Str("component", "sqlite").Logger(),
	}, nil
}

func (s *SQLite) ListStudents(ctx context.Context) ([]types.Student, error) {
	students := make([]types.Student, 0)

	err := s.withTx(ctx, "list", "", func(tx *sql.Tx) error {
		// Explicit column list; SELECT * would break Scan if a column is added.
		stmt, err := tx.PrepareContext(ctx,
			"SELECT id, name, age, class_year FROM students ORDER BY seq",
		)
		if err != nil {
			return fmt.Errorf("prepare: %w", err)
		}
		defer stmt.Close()

		rows, err := stmt.QueryContext(ctx)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			student, err := scanStudent(rows)
			if err != nil {
				return fmt.Errorf("scan row: %w", err)
			}
			students = append(students, student)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return students, nil
}

func (s *SQLite) GetStudentByID(ctx context.Context, id string) (types.Student, error) {
	var student types.Student

	err := s.withTx(ctx, "get", id, func(tx *sql.Tx) error {
		var err error
		student, err = getByID(ctx, tx, id)
		return err
	})

	return student, err
}

// ─────────────────────────────────────────────────────────────────────────────
// CreateStudent inserts a new row with a freshly generated v4 UUID.
//
// HOW PLACEHOLDERS PREVENT SQL INJECTION:
// ───────────────────────────────────────
// The driver sends the statement and the values separately, so a name
// such as "'); DROP TABLE students; --" is stored as plain text and never
// parsed as SQL.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) CreateStudent(ctx context.Context, in types.NewStudent) (types.Student, error) {
	student := types.Student{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Age:       *in.Age,
		ClassYear: in.ClassYear,
	}.Clone()

	err := s.withTx(ctx, "create", student.ID, func(tx *sql.Tx) error {
		// Placeholders keep user input out of the SQL text.
		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO students (id, name, age, class_year) VALUES (?, ?, ?, ?)",
		)
		if err != nil {
			return fmt.Errorf("prepare: %w", err)
		}
		defer stmt.Close()

		if _, err := stmt.ExecContext(ctx,
			student.ID, student.Name, student.Age, nullString(student.ClassYear),
		); err != nil {
			return fmt.Errorf("exec: %w", err)
		}
		return nil
	})
	if err != nil {
		return types.Student{}, err
	}

	return student, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// UpdateStudentByID reads the row, applies the patch in Go and writes
// every column back. The read and the write share one transaction, so a
// concurrent update cannot slip in between them.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) UpdateStudentByID(ctx context.Context, id string, patch types.StudentPatch) (types.Student, error) {
	var updated types.Student

	err := s.withTx(ctx, "update", id, func(tx *sql.Tx) error {
		current, err := getByID(ctx, tx, id)
		if err != nil {
			return err
		}
		updated = patch.Apply(current)

		_, err = tx.ExecContext(ctx,
			"UPDATE students SET name = ?, age = ?, class_year = ? WHERE id = ?",
			updated.Name, updated.Age, nullString(updated.ClassYear), id,
		)
		if err != nil {
			return fmt.Errorf("exec: %w", err)
		}
		return nil
	})
	if err != nil {
		return types.Student{}, err
	}

	return updated, nil
}

func (s *SQLite) DeleteStudentByID(ctx context.Context, id string) error {
	return s.withTx(ctx, "delete", id, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, "DELETE FROM students WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("exec: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			return errs.NewNotFound(id)
		}
		return nil
	})
}

func (s *SQLite) Close() error {
	return s.Db.Close()
}

// ─────────────────────────────────────────────────────────────────────────────
// withTx runs fn inside a transaction.
//
//	fn returns nil    commit; a failed commit is StoreUnavailable
//	fn returns error  rollback; NotFound passes through untouched,
//	                  anything else is wrapped as StoreUnavailable
//
// op and subject only label the error and the log line.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) withTx(ctx context.Context, op, subject string, fn func(tx *sql.Tx) error) error {
	tx, err := s.Db.BeginTx(ctx, nil)
	if err != nil {
		return errs.NewStoreUnavailable(op, subject, fmt.Errorf("begin: %w", err))
	}

	if err := fn(tx); err != nil {
		// ErrTxDone means the context already rolled it back for us.
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.log.Error().Err(rbErr).Str("op", op).Str("subject", subject).Msg("rollback failed")
		}
		if errors.Is(err, errs.ErrNotFound) {
			return err
		}
		return errs.NewStoreUnavailable(op, subject, err)
	}

	if err := tx.Commit(); err != nil {
		return errs.NewStoreUnavailable(op, subject, fmt.Errorf("commit: %w", err))
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows, so one scan
// helper serves the single-row and the listing queries.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudent(row rowScanner) (types.Student, error) {
	var (
		student   types.Student
		classYear sql.NullString
	)
	// Scan fills the pointers in SELECT column order.
	// A NULL class_year arrives as NullString{Valid: false}.
	if err := row.Scan(&student.ID, &student.Name, &student.Age, &classYear); err != nil {
		return types.Student{}, err
	}
	if classYear.Valid {
		student.ClassYear = &classYear.String
	}
	return student, nil
}

func getByID(ctx context.Context, tx *sql.Tx, id string) (types.Student, error) {
	row := tx.QueryRowContext(ctx,
		"SELECT id, name, age, class_year FROM students WHERE id = ? LIMIT 1", id,
	)
	student, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Student{}, errs.NewNotFound(id)
	}
	if err != nil {
		return types.Student{}, fmt.Errorf("scan: %w", err)
	}
	return student, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
