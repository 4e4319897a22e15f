// Package gormstore implements storage.Storage on top of GORM, so any
// relational database GORM has a dialector for can hold the students
// table. Production uses PostgreSQL; the tests use SQLite.
package gormstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/aanand-mishra/students-api/internal/errs"
	"github.com/aanand-mishra/students-api/internal/types"
)

// studentRow is the table model. Seq only orders rows by insertion.
type studentRow struct {
	Seq       uint    `gorm:"primaryKey;autoIncrement"`
	ID        string  `gorm:"column:id;size:36;not null;uniqueIndex"`
	Name      string  `gorm:"size:100;not null"`
	Age       int     `gorm:"not null"`
	ClassYear *string `gorm:"size:50"`
}

func (studentRow) TableName() string {
	return "students"
}

func (r studentRow) toStudent() types.Student {
	return types.Student{ID: r.ID, Name: r.Name, Age: r.Age, ClassYear: r.ClassYear}.Clone()
}

// Store is the GORM-backed store.
type Store struct {
	db  *gorm.DB
	log zerolog.Logger
}

// OpenPostgres connects to PostgreSQL using dsn and prepares the table.
func OpenPostgres(dsn string, log zerolog.Logger) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn must not be empty")
	}
	return Open(postgres.Open(dsn), log)
}

// Open connects through the given dialector and creates the students
// table if needed.
func Open(dialector gorm.Dialector, log zerolog.Logger) (*Store, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&studentRow{}); err != nil {
		closeDB(db)
		return nil, fmt.Errorf("failed to prepare students table: %w", err)
	}

	return &Store{
		db:  db,
		log: log.With().Str("component", "gormstore").Logger(),
	}, nil
}

func (s *Store) ListStudents(ctx context.Context) ([]types.Student, error) {
	var rows []studentRow
	err := s.transaction(ctx, "list", "", func(tx *gorm.DB) error {
		return tx.Order("seq ASC").Find(&rows).Error
	})
	if err != nil {
		return nil, err
	}

	students := make([]types.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, r.toStudent())
	}
	return students, nil
}

func (s *Store) GetStudentByID(ctx context.Context, id string) (types.Student, error) {
	var row studentRow
	err := s.transaction(ctx, "get", id, func(tx *gorm.DB) error {
		return first(tx, id, &row)
	})
	if err != nil {
		return types.Student{}, err
	}
	return row.toStudent(), nil
}

func (s *Store) CreateStudent(ctx context.Context, in types.NewStudent) (types.Student, error) {
	row := studentRow{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Age:       *in.Age,
		ClassYear: in.ClassYear,
	}
	err := s.transaction(ctx, "create", row.ID, func(tx *gorm.DB) error {
		return tx.Create(&row).Error
	})
	if err != nil {
		return types.Student{}, err
	}
	return row.toStudent(), nil
}

func (s *Store) UpdateStudentByID(ctx context.Context, id string, patch types.StudentPatch) (types.Student, error) {
	var row studentRow
	err := s.transaction(ctx, "update", id, func(tx *gorm.DB) error {
		if err := first(tx, id, &row); err != nil {
			return err
		}
		updated := patch.Apply(row.toStudent())
		row.Name, row.Age, row.ClassYear = updated.Name, updated.Age, updated.ClassYear
		// Select forces zero values through, e.g. a patched age of 0.
		return tx.Model(&row).Select("name", "age", "class_year").Updates(&row).Error
	})
	if err != nil {
		return types.Student{}, err
	}
	return row.toStudent(), nil
}

func (s *Store) DeleteStudentByID(ctx context.Context, id string) error {
	return s.transaction(ctx, "delete", id, func(tx *gorm.DB) error {
		result := tx.Where("id = ?", id).Delete(&studentRow{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errs.NewNotFound(id)
		}
		return nil
	})
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// closeDB releases the pool behind db on a failed Open.
func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// transaction wraps fn in db.Transaction, which commits when fn returns
// nil and rolls back otherwise.
func (s *Store) transaction(ctx context.Context, op, subject string, fn func(tx *gorm.DB) error) error {
	err := s.db.WithContext(ctx).Transaction(fn)
	if err == nil {
		return nil
	}
	if errors.Is(err, errs.ErrNotFound) {
		return err
	}
	s.log.Debug().Err(err).Str("op", op).Str("subject", subject).Msg("transaction rolled back")
	return errs.NewStoreUnavailable(op, subject, err)
}

func first(tx *gorm.DB, id string, row *studentRow) error {
	err := tx.Where("id = ?", id).Take(row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.NewNotFound(id)
	}
	return err
}
