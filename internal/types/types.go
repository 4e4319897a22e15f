// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles:
// handlers, storage, and the engine can all import types without
// depending on each other.
package types

// IDLength is the length of the canonical string form of a student id
// (a v4 UUID such as "3f0c6f8e-5f55-4a5a-9d1e-2c7b0c1b4a10").
const IDLength = 36

// Student represents a student record in our system.
//
// ClassYear is a pointer because the column may be NULL when the service
// is configured with class_year_nullable.
type Student struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Age       int     `json:"age"`
	ClassYear *string `json:"class_year"`
}

// Clone returns a deep copy, so callers holding the copy cannot reach
// into the store that produced it.
func (s Student) Clone() Student {
	if s.ClassYear != nil {
		cy := *s.ClassYear
		s.ClassYear = &cy
	}
	return s
}

// NewStudent carries the caller-supplied fields of a record about to be
// created. The id is assigned by the store.
//
// The validate tags only describe shape; the age bounds and class_year
// nullability come from configuration and are checked by the engine.
type NewStudent struct {
	Name      string  `json:"name"       schema:"name"       validate:"required,max=100"`
	Age       *int    `json:"age"        schema:"age"        validate:"required,student_age"`
	ClassYear *string `json:"class_year" schema:"class_year" validate:"omitnil,min=1,max=50"`
}

// StudentPatch is a merge-patch: nil fields are left untouched, set
// fields replace the stored value.
type StudentPatch struct {
	Name      *string `json:"name"       schema:"name"       validate:"omitnil,min=1,max=100"`
	Age       *int    `json:"age"        schema:"age"        validate:"omitnil,student_age"`
	ClassYear *string `json:"class_year" schema:"class_year" validate:"omitnil,min=1,max=50"`
}

// Apply returns s with every supplied patch field written over it.
// The id is never touched.
func (p StudentPatch) Apply(s Student) Student {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Age != nil {
		s.Age = *p.Age
	}
	if p.ClassYear != nil {
		cy := *p.ClassYear
		s.ClassYear = &cy
	}
	return s
}

// Filter describes a list query. A nil Name or a nil AgeRange means that
// criterion is absent.
//
// AgeRange holds the raw decomposed values; the engine rejects it unless
// it holds exactly two integers with AgeRange[0] <= AgeRange[1].
type Filter struct {
	Name     *string
	AgeRange []int
}
