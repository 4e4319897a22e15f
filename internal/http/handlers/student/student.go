// Package student contains all HTTP handlers related to the Student resource.
//
// HANDLER PATTERN USED HERE: THE CLOSURE / FACTORY PATTERN
// ────────────────────────────────────────────────────────
// The router wants handlers with the signature
//
//	func(http.ResponseWriter, *http.Request)
//
// which has no room for the engine. Each handler is therefore built by a
// factory that takes the Service and returns a func of exactly that shape.
// The inner func closes over svc:
//
//	router.HandleFunc("POST /students", student.New(svc))
//	//                                  ^^^^^^^^^^^^^^^^
//	//                 New(svc) runs ONCE at startup. The func it
//	//                 returns runs on EVERY incoming request.
//
// Handlers never validate or filter on their own. They decode the request,
// hand it to the Service and map its error to a status code.
package student

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog/hlog"

	"github.com/aanand-mishra/students-api/internal/types"
	"github.com/aanand-mishra/students-api/internal/utils/response"
)

// Service is what the handlers need from the engine. *engine.Engine
// satisfies it; tests can pass a fake.
type Service interface {
	Filter(ctx context.Context, f types.Filter) ([]types.Student, error)
	GetByID(ctx context.Context, id string) (types.Student, error)
	Create(ctx context.Context, in types.NewStudent) (types.Student, error)
	Update(ctx context.Context, id string, patch types.StudentPatch) (types.Student, error)
	Delete(ctx context.Context, id string) error
}

// Register mounts the student routes on router.
//
//	GET       /students        list, optionally filtered by name and age_range
//	POST      /students        create
//	GET       /students/{id}   fetch one
//	PUT,PATCH /students/{id}   merge-patch update
//	DELETE    /students/{id}   delete
func Register(router *http.ServeMux, svc Service) {
	router.HandleFunc("GET /students", GetList(svc))
	router.HandleFunc("POST /students", New(svc))
	router.HandleFunc("GET /students/{id}", GetByID(svc))
	router.HandleFunc("PUT /students/{id}", Update(svc))
	router.HandleFunc("PATCH /students/{id}", Update(svc))
	router.HandleFunc("DELETE /students/{id}", Delete(svc))
}

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /students
// Creates a new student from the request body.
//
// Request body (JSON, or the same keys form-encoded):
//
//	{ "name": "Rakesh", "age": 35, "class_year": "Year 9" }
//
// Success response (201 Created), the stored record with its new id:
//
//	{ "id": "3f0c6f8e-...", "name": "Rakesh", "age": 35, "class_year": "Year 9" }
//
// Error responses:
//
//	400 Bad Request    empty body, malformed body, or failed validation
//	500 Internal       the store could not be reached
//
// ─────────────────────────────────────────────────────────────────────────────
func New(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// The request logger already carries req_id, method and url.
		log := hlog.FromRequest(r)

		// ── Step 1: Decode the body into a NewStudent ─────────────────
		var in types.NewStudent
		if err := decodeBody(r, &in); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		// ── Step 2: Validate and persist ──────────────────────────────
		// The engine rejects bad input before the store is touched.
		student, err := svc.Create(r.Context(), in)
		if err != nil {
			writeError(w, r, err)
			return
		}

		// ── Step 3: Return 201 Created with the stored record ─────────
		log.Info().Str("id", student.ID).Msg("student created")
		response.WriteJSON(w, http.StatusCreated, student)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetByID handles GET /students/{id}
// Returns one student.
//
// r.PathValue("id") reads the {id} wildcard from the route pattern.
// An id of the wrong length is a 400; a well-formed unknown id is a 404:
//
//	{ "status": "error", "error": "Student with ID ... not found" }
//
// ─────────────────────────────────────────────────────────────────────────────
func GetByID(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		student, err := svc.GetByID(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, student)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetList handles GET /students
// Lists students, optionally filtered.
//
// Query parameters (both optional, combined with AND):
//
//	?name=oh                    case-insensitive substring of the name
//	?age_range=13&age_range=30  inclusive [min_age, max_age]
//	?age_range=13,30            the same, comma form
//
// Always returns an array, [] when nothing matches. A range that is not
// two integers, or whose min exceeds its max, is a 400.
// ─────────────────────────────────────────────────────────────────────────────
func GetList(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseFilter(r.URL.Query())
		if err != nil {
			writeError(w, r, err)
			return
		}

		students, err := svc.Filter(r.Context(), filter)
		if err != nil {
			writeError(w, r, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, students)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT and PATCH /students/{id}
// Applies a merge-patch to one student.
//
// Only fields present in the body change; the rest keep their stored
// values. An "id" in the body is ignored:
//
//	{ "age": 25 }
//
// Responds 200 with the updated record, 400 on a bad body, 404 when the
// id is unknown.
// ─────────────────────────────────────────────────────────────────────────────
func Update(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		// ── Step 1: Decode the patch ──────────────────────────────────
		// Absent keys stay nil in the StudentPatch.
		var patch types.StudentPatch
		if err := decodeBody(r, &patch); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		// ── Step 2: Validate, then merge inside one store transaction ─
		student, err := svc.Update(r.Context(), id, patch)
		if err != nil {
			writeError(w, r, err)
			return
		}

		hlog.FromRequest(r).Info().Str("id", id).Msg("student updated")
		response.WriteJSON(w, http.StatusOK, student)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete handles DELETE /students/{id}
// Removes one student.
//
// Success response (200 OK):
//
//	{ "status": "deleted", "id": "..." }
//
// Deleting the same id twice gives 404 the second time.
// ─────────────────────────────────────────────────────────────────────────────
func Delete(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			writeError(w, r, err)
			return
		}

		hlog.FromRequest(r).Info().Str("id", id).Msg("student deleted")
		response.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
	}
}

// pathID reads {id} and rejects anything that is not 36 characters long.
func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if len(id) != types.IDLength {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(
			fmt.Errorf("invalid id: must be %d characters", types.IDLength)))
		return "", false
	}
	return id, true
}

// parseFilter turns the query string into a Filter. It only splits and
// converts; the engine decides whether the range is acceptable.
func parseFilter(q url.Values) (types.Filter, error) {
	var f types.Filter

	if q.Has("name") {
		name := q.Get("name")
		f.Name = &name
	}

	if raw, ok := q["age_range"]; ok {
		f.AgeRange = make([]int, 0, 2)
		for _, v := range raw {
			for _, part := range strings.Split(v, ",") {
				n, err := strconv.Atoi(strings.TrimSpace(part))
				if err != nil {
					return types.Filter{}, errMalformedRange
				}
				f.AgeRange = append(f.AgeRange, n)
			}
		}
	}

	return f, nil
}

// writeError logs err with the request logger and sends the mapped status.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := response.FromError(err)

	log := hlog.FromRequest(r)
	switch {
	case status >= http.StatusInternalServerError:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	case errors.Is(err, errMalformedRange):
		log.Debug().Str("query", r.URL.RawQuery).Msg("unparsable age_range")
	default:
		log.Debug().Err(err).Int("status", status).Msg("request rejected")
	}

	response.WriteJSON(w, status, body)
}
