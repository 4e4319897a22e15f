package engine

import (
	"context"
	"fmt"

	"github.com/aanand-mishra/students-api/internal/types"
)

func classYear(s string) *string { return &s }

func years(n int) *int { return &n }

// DemoStudents is the sample roster inserted when seeding is enabled.
func DemoStudents() []types.NewStudent {
	return []types.NewStudent{
		{Name: "jhon", Age: years(20), ClassYear: classYear("Year 12")},
		{Name: "alex", Age: years(12), ClassYear: classYear("Year 6")},
		{Name: "mohammad", Age: years(30), ClassYear: classYear("grajuated")},
	}
}

// Seed creates each student in order through the normal validation path
// and returns what was stored. It stops at the first failure.
func (e *Engine) Seed(ctx context.Context, students []types.NewStudent) ([]types.Student, error) {
	created := make([]types.Student, 0, len(students))
	for i, in := range students {
		s, err := e.Create(ctx, in)
		if err != nil {
			return created, fmt.Errorf("seed student %d (%s): %w", i, in.Name, err)
		}
		created = append(created, s)
	}
	return created, nil
}

// SeedIfEmpty runs Seed only when the store holds no records, so a
// persistent backend is seeded once and not again on every restart.
// It reports whether anything was inserted.
func (e *Engine) SeedIfEmpty(ctx context.Context, students []types.NewStudent) ([]types.Student, bool, error) {
	existing, err := e.List(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("seed: count students: %w", err)
	}
	if len(existing) > 0 {
		return nil, false, nil
	}

	created, err := e.Seed(ctx, students)
	return created, true, err
}
