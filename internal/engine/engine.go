// Package engine is the query and validation layer between the HTTP
// handlers and a storage.Storage.
//
// It owns every rule about what a valid student, patch or filter looks
// like, and the filter predicates themselves, so all backends share one
// implementation. Input is always validated before the store is touched.
// Store failures are returned as-is (wrapped with the filter being
// evaluated), never retried.
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/students-api/internal/errs"
	"github.com/aanand-mishra/students-api/internal/storage"
	"github.com/aanand-mishra/students-api/internal/types"
)

// Engine evaluates queries and mutations against a store. It keeps no
// state of its own and is safe for concurrent use when the store is.
type Engine struct {
	store    storage.Storage
	rules    Rules
	validate *validator.Validate
}

// New returns an Engine over store enforcing rules.
func New(store storage.Storage, rules Rules) *Engine {
	return &Engine{
		store:    store,
		rules:    rules,
		validate: rules.newValidator(),
	}
}

// List returns every student in store order.
func (e *Engine) List(ctx context.Context) ([]types.Student, error) {
	return e.store.ListStudents(ctx)
}

// Filter returns the students matching f, in store order.
//
// A present name keeps students whose name contains it, ignoring case;
// an empty name counts as absent. A present age range must hold exactly
// two integers [min, max] with min <= max and keeps students with
// min <= age <= max. Both criteria combine with AND.
func (e *Engine) Filter(ctx context.Context, f types.Filter) ([]types.Student, error) {
	var minAge, maxAge int
	if f.AgeRange != nil {
		if len(f.AgeRange) != 2 {
			return nil, errs.NewMalformedRange()
		}
		minAge, maxAge = f.AgeRange[0], f.AgeRange[1]
		if minAge > maxAge {
			return nil, errs.NewInvertedRange(minAge, maxAge)
		}
	}

	var needle string
	if f.Name != nil {
		needle = strings.ToLower(*f.Name)
	}

	students, err := e.store.ListStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("filter %s: %w", describe(f), err)
	}
	if needle == "" && f.AgeRange == nil {
		return students, nil
	}

	matched := make([]types.Student, 0, len(students))
	for _, s := range students {
		if needle != "" && !strings.Contains(strings.ToLower(s.Name), needle) {
			continue
		}
		if f.AgeRange != nil && (s.Age < minAge || s.Age > maxAge) {
			continue
		}
		matched = append(matched, s)
	}
	return matched, nil
}

// GetByID returns the student with id or an *errs.NotFoundError.
func (e *Engine) GetByID(ctx context.Context, id string) (types.Student, error) {
	return e.store.GetStudentByID(ctx, id)
}

// Create validates in and stores it under a fresh id.
func (e *Engine) Create(ctx context.Context, in types.NewStudent) (types.Student, error) {
	if err := e.validateNew(in); err != nil {
		return types.Student{}, err
	}
	return e.store.CreateStudent(ctx, in)
}

// Update validates the patch, then applies it to the student with id.
func (e *Engine) Update(ctx context.Context, id string, patch types.StudentPatch) (types.Student, error) {
	if err := e.validatePatch(patch); err != nil {
		return types.Student{}, err
	}
	return e.store.UpdateStudentByID(ctx, id, patch)
}

// Delete removes the student with id.
func (e *Engine) Delete(ctx context.Context, id string) error {
	return e.store.DeleteStudentByID(ctx, id)
}

func describe(f types.Filter) string {
	var parts []string
	if f.Name != nil {
		parts = append(parts, fmt.Sprintf("name=%q", *f.Name))
	}
	if f.AgeRange != nil {
		parts = append(parts, fmt.Sprintf("age_range=%v", f.AgeRange))
	}
	if len(parts) == 0 {
		return "(all)"
	}
	return strings.Join(parts, " ")
}
