package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/students-api/internal/errs"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteJSON(rec, http.StatusCreated, map[string]string{"id": "x"}))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.JSONEq(t, `{"id":"x"}`, rec.Body.String())
}

func TestFromError(t *testing.T) {
	t.Run("validation list", func(t *testing.T) {
		err := errs.ValidationErrors{
			{Kind: errs.KindInvalidField, Field: "name", Message: "is required"},
			{Kind: errs.KindInvalidField, Field: "age", Message: "must be between 0 and 150"},
		}
		status, body := FromError(err)
		require.Equal(t, http.StatusBadRequest, status)
		require.Len(t, body.Errors, 2)
		require.Equal(t, "name", body.Errors[0].Field)
	})

	t.Run("inverted range", func(t *testing.T) {
		status, body := FromError(errs.NewInvertedRange(30, 13))
		require.Equal(t, http.StatusBadRequest, status)
		require.Equal(t, StatusError, body.Status)
		require.Equal(t, []FieldError{{
			Field: "age_range",
			Kind:  string(errs.KindInvertedRange),
			Error: errs.NewInvertedRange(30, 13).Message,
		}}, body.Errors)
	})

	t.Run("not found", func(t *testing.T) {
		status, body := FromError(fmt.Errorf("get: %w", errs.NewNotFound("abc")))
		require.Equal(t, http.StatusNotFound, status)
		require.Equal(t, "Student with ID abc not found", body.Error)
	})

	t.Run("store failure hides driver text", func(t *testing.T) {
		err := errs.NewStoreUnavailable("list", "", errors.New("pq: password authentication failed"))
		status, body := FromError(err)
		require.Equal(t, http.StatusInternalServerError, status)
		require.Equal(t, "Internal Server Error", body.Error)

		raw, jerr := json.Marshal(body)
		require.NoError(t, jerr)
		require.NotContains(t, string(raw), "password")
	})
}
