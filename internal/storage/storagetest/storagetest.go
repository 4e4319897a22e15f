// Package storagetest holds the conformance suite every storage.Storage
// implementation must pass. Backends call Run from their own tests with
// a factory that returns a fresh, empty store.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/students-api/internal/errs"
	"github.com/aanand-mishra/students-api/internal/storage"
	"github.com/aanand-mishra/students-api/internal/types"
)

// Factory creates a new, empty store.
type Factory func(t *testing.T) storage.Storage

// Run runs the suite against the stores produced by factory.
func Run(t *testing.T, name string, factory Factory) {
	t.Run(name, func(t *testing.T) {
		t.Run("CreateGet", func(t *testing.T) {
			testCreateGet(t, factory(t))
		})

		t.Run("ListInsertionOrder", func(t *testing.T) {
			testListInsertionOrder(t, factory(t))
		})

		t.Run("ListEmpty", func(t *testing.T) {
			testListEmpty(t, factory(t))
		})

		t.Run("GetUnknown", func(t *testing.T) {
			testGetUnknown(t, factory(t))
		})

		t.Run("PartialUpdate", func(t *testing.T) {
			testPartialUpdate(t, factory(t))
		})

		t.Run("UpdateUnknown", func(t *testing.T) {
			testUpdateUnknown(t, factory(t))
		})

		t.Run("DeleteTwice", func(t *testing.T) {
			testDeleteTwice(t, factory(t))
		})

		t.Run("NullClassYear", func(t *testing.T) {
			testNullClassYear(t, factory(t))
		})

		t.Run("ReturnsCopies", func(t *testing.T) {
			testReturnsCopies(t, factory(t))
		})

		t.Run("ConcurrentCreate", func(t *testing.T) {
			testConcurrentCreate(t, factory(t))
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

func str(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func mustCreate(t *testing.T, s storage.Storage, name string, age int, classYear string) types.Student {
	t.Helper()
	student, err := s.CreateStudent(context.Background(), types.NewStudent{
		Name: name, Age: intPtr(age), ClassYear: str(classYear),
	})
	require.NoError(t, err)
	return student
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testCreateGet(t *testing.T, s storage.Storage) {
	defer s.Close()
	ctx := context.Background()

	created := mustCreate(t, s, "John", 20, "Year 12")
	require.Len(t, created.ID, types.IDLength)
	require.Equal(t, "John", created.Name)
	require.Equal(t, 20, created.Age)
	require.Equal(t, "Year 12", *created.ClassYear)

	got, err := s.GetStudentByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created, got)

	other := mustCreate(t, s, "John", 20, "Year 12")
	require.NotEqual(t, created.ID, other.ID, "ids must be unique even for identical payloads")
}

func testListInsertionOrder(t *testing.T, s storage.Storage) {
	defer s.Close()

	var want []string
	for i, name := range []string{"Zed", "Alex", "Mohammad", "Bea"} {
		want = append(want, mustCreate(t, s, name, 10+i, "Year 1").ID)
	}
	require.NoError(t, s.DeleteStudentByID(context.Background(), want[1]))
	want = append(want[:1], want[2:]...)
	want = append(want, mustCreate(t, s, "Alex", 12, "Year 6").ID)

	students, err := s.ListStudents(context.Background())
	require.NoError(t, err)

	var got []string
	for _, st := range students {
		got = append(got, st.ID)
	}
	require.Equal(t, want, got)
}

func testListEmpty(t *testing.T, s storage.Storage) {
	defer s.Close()

	students, err := s.ListStudents(context.Background())
	require.NoError(t, err)
	require.NotNil(t, students)
	require.Empty(t, students)
}

func testGetUnknown(t *testing.T, s storage.Storage) {
	defer s.Close()

	id := "00000000-0000-4000-8000-000000000000"
	_, err := s.GetStudentByID(context.Background(), id)
	require.ErrorIs(t, err, errs.ErrNotFound)

	var nf *errs.NotFoundError
	require.ErrorAs(t, err, &nf)
	require.Equal(t, id, nf.ID)
	require.NotErrorIs(t, err, errs.ErrStoreUnavailable)
}

func testPartialUpdate(t *testing.T, s storage.Storage) {
	defer s.Close()
	ctx := context.Background()

	created := mustCreate(t, s, "Alex", 12, "Year 6")

	updated, err := s.UpdateStudentByID(ctx, created.ID, types.StudentPatch{Age: intPtr(25)})
	require.NoError(t, err)
	require.Equal(t, created.ID, updated.ID)
	require.Equal(t, 25, updated.Age)
	require.Equal(t, "Alex", updated.Name)
	require.Equal(t, "Year 6", *updated.ClassYear)

	got, err := s.GetStudentByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, updated, got)

	updated, err = s.UpdateStudentByID(ctx, created.ID, types.StudentPatch{
		Name: str("Alexandra"), ClassYear: str("Year 7"),
	})
	require.NoError(t, err)
	require.Equal(t, "Alexandra", updated.Name)
	require.Equal(t, 25, updated.Age)
	require.Equal(t, "Year 7", *updated.ClassYear)

	// zero is a real value, not "absent"
	updated, err = s.UpdateStudentByID(ctx, created.ID, types.StudentPatch{Age: intPtr(0)})
	require.NoError(t, err)
	require.Equal(t, 0, updated.Age)

	unchanged, err := s.UpdateStudentByID(ctx, created.ID, types.StudentPatch{})
	require.NoError(t, err)
	require.Equal(t, updated, unchanged)
}

func testUpdateUnknown(t *testing.T, s storage.Storage) {
	defer s.Close()

	_, err := s.UpdateStudentByID(context.Background(), "00000000-0000-4000-8000-000000000001",
		types.StudentPatch{Age: intPtr(30)})
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func testDeleteTwice(t *testing.T, s storage.Storage) {
	defer s.Close()
	ctx := context.Background()

	keep := mustCreate(t, s, "John", 20, "Year 12")
	gone := mustCreate(t, s, "Mohammad", 30, "graduated")

	require.NoError(t, s.DeleteStudentByID(ctx, gone.ID))
	require.ErrorIs(t, s.DeleteStudentByID(ctx, gone.ID), errs.ErrNotFound)

	_, err := s.GetStudentByID(ctx, gone.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)

	students, err := s.ListStudents(ctx)
	require.NoError(t, err)
	require.Equal(t, []types.Student{keep}, students)
}

func testNullClassYear(t *testing.T, s storage.Storage) {
	defer s.Close()
	ctx := context.Background()

	created, err := s.CreateStudent(ctx, types.NewStudent{Name: "Nobody", Age: intPtr(40)})
	require.NoError(t, err)
	require.Nil(t, created.ClassYear)

	got, err := s.GetStudentByID(ctx, created.ID)
	require.NoError(t, err)
	require.Nil(t, got.ClassYear)
}

func testReturnsCopies(t *testing.T, s storage.Storage) {
	defer s.Close()
	ctx := context.Background()

	created := mustCreate(t, s, "John", 20, "Year 12")
	*created.ClassYear = "tampered"

	got, err := s.GetStudentByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Year 12", *got.ClassYear)

	list, err := s.ListStudents(ctx)
	require.NoError(t, err)
	list[0].Name = "tampered"
	*list[0].ClassYear = "tampered"

	got, err = s.GetStudentByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "John", got.Name)
	require.Equal(t, "Year 12", *got.ClassYear)
}

func testConcurrentCreate(t *testing.T, s storage.Storage) {
	defer s.Close()
	ctx := context.Background()

	const workers = 8
	const perWorker = 10

	var wg sync.WaitGroup
	errCh := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				_, err := s.CreateStudent(ctx, types.NewStudent{
					Name: fmt.Sprintf("student-%d-%d", w, i), Age: intPtr(i), ClassYear: str("Year 1"),
				})
				errCh <- err
			}
		}(w)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	students, err := s.ListStudents(ctx)
	require.NoError(t, err)
	require.Len(t, students, workers*perWorker)

	seen := make(map[string]struct{}, len(students))
	for _, st := range students {
		_, dup := seen[st.ID]
		require.False(t, dup, "duplicate id %s", st.ID)
		seen[st.ID] = struct{}{}
	}
}
