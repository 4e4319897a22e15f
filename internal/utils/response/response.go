// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Every handler sends JSON back to the client. Rather than repeating the
// same three lines (set header, set status, encode) in every handler, we
// centralise them here, together with the mapping from engine and store
// errors to status codes.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aanand-mishra/students-api/internal/errs"
)

// ─────────────────────────────────────────────────────────────────────────────
// Response is the standard envelope returned for error cases.
//
// Success responses may return any JSON shape (a student, a list, ...).
// Error responses always look like:
//
//	{ "status": "error", "error": "name: is required",
//	  "errors": [{ "field": "name", "kind": "invalid_field", "error": "is required" }] }
//
// Errors is only present for validation failures.
// ─────────────────────────────────────────────────────────────────────────────
type Response struct {
	Status string       `json:"status"`           // "ok" or "error"
	Error  string       `json:"error"`            // human-readable summary
	Errors []FieldError `json:"errors,omitempty"` // one entry per failed field
}

// FieldError is one entry of Response.Errors.
type FieldError struct {
	Field string `json:"field"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// Status string constants; use these instead of raw literals so a typo
// is a compile error rather than a silent "eroor".
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// ─────────────────────────────────────────────────────────────────────────────
// WriteJSON writes data as JSON with the given HTTP status code.
//
// ORDER MATTERS: Header() then WriteHeader() then body writes.
// Once WriteHeader is called, headers are locked.
// ─────────────────────────────────────────────────────────────────────────────
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")

	// Write the status line before any body bytes.
	w.WriteHeader(status)

	// The encoder streams straight into w and appends a newline.
	return json.NewEncoder(w).Encode(data)
}

// GeneralError wraps any Go error into our standard Response shape.
// Only use it for errors whose text is safe to show a client.
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

// ValidationError lists every field failure carried by err.
func ValidationError(err error) Response {
	resp := GeneralError(err)

	var many errs.ValidationErrors
	var one *errs.ValidationError
	switch {
	case errors.As(err, &many):
		for _, e := range many {
			resp.Errors = append(resp.Errors, fieldError(e))
		}
	case errors.As(err, &one):
		resp.Errors = append(resp.Errors, fieldError(one))
	}
	return resp
}

func fieldError(e *errs.ValidationError) FieldError {
	return FieldError{Field: e.Field, Kind: string(e.Kind), Error: e.Message}
}

// Status maps an error from the engine or a store to an HTTP status.
func Status(err error) int {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// FromError builds the client-facing status and body for err.
//
//	validation failure   400, every field error listed
//	unknown id           404, "Student with ID ... not found"
//	anything else        500, generic status text only
//
// Internal failures never echo err, so driver details (hosts, SQL) stay
// in the server log.
// ─────────────────────────────────────────────────────────────────────────────
func FromError(err error) (int, Response) {
	status := Status(err)
	switch status {
	case http.StatusBadRequest:
		return status, ValidationError(err)
	case http.StatusNotFound:
		var nf *errs.NotFoundError
		if errors.As(err, &nf) {
			return status, GeneralError(nf)
		}
		return status, GeneralError(err)
	default:
		return status, Response{Status: StatusError, Error: http.StatusText(status)}
	}
}
