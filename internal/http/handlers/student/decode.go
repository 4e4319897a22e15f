package student

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"mime"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/gorilla/schema"

	"github.com/aanand-mishra/students-api/internal/errs"
)

const maxFormMemory = 1 << 20

var (
	errEmptyBody      = errors.New("request body is empty")
	errTrailingData   = errors.New("invalid json body: unexpected data after the object")
	errMalformedJSON  = errors.New("invalid json body: malformed json")
	errMalformedRange = errs.NewMalformedRange()
)

// formDecoder maps form keys onto struct fields through their schema:"..."
// tags. Unknown keys (a stray "id", a submit button) are ignored.
var formDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

// ─────────────────────────────────────────────────────────────────────────────
// decodeBody fills dst from the request body.
//
// Two encodings are accepted:
//
//	application/json                    { "name": "Rakesh", "age": 35 }
//	application/x-www-form-urlencoded   name=Rakesh&age=35
//	multipart/form-data                 same keys as form parts
//
// A missing Content-Type is treated as JSON.
//
// A blank form field (age=) counts as absent, exactly like a key the
// client never sent. So a create without a real age fails the required
// check, and a patch leaves the stored value alone.
//
// Errors returned here are shown to the client, so they never carry Go
// type names or decoder internals.
// ─────────────────────────────────────────────────────────────────────────────
func decodeBody(r *http.Request, dst any) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		return decodeForm(r, mediaType, dst)
	default:
		return decodeJSON(r.Body, dst)
	}
}

func decodeForm(r *http.Request, mediaType string, dst any) error {
	// ── Step 1: parse the body into r.PostForm ────────────────────────
	var err error
	if mediaType == "multipart/form-data" {
		err = r.ParseMultipartForm(maxFormMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return errors.New("invalid form body")
	}
	if len(r.PostForm) == 0 {
		return errEmptyBody
	}

	// ── Step 2: drop blank values ─────────────────────────────────────
	// gorilla/schema would turn "age=" into a pointer to 0.
	values := nonBlank(r.PostForm)

	// ── Step 3: decode into the struct ────────────────────────────────
	if err := formDecoder.Decode(dst, values); err != nil {
		return formError(err)
	}
	return nil
}

func decodeJSON(body io.Reader, dst any) error {
	dec := json.NewDecoder(body)

	err := dec.Decode(dst)
	if errors.Is(err, io.EOF) {
		// Nothing at all was sent.
		return errEmptyBody
	}
	if err != nil {
		return jsonError(err)
	}

	// One object per request: `{...} garbage` is rejected.
	if dec.More() {
		return errTrailingData
	}
	return nil
}

// nonBlank copies form, leaving out every value that is empty after
// trimming and every key left with no values.
func nonBlank(form url.Values) url.Values {
	out := make(url.Values, len(form))
	for key, vals := range form {
		for _, v := range vals {
			if strings.TrimSpace(v) != "" {
				out[key] = append(out[key], v)
			}
		}
	}
	return out
}

// jsonError rewrites a decoder failure in client terms. The field name is
// the json key, never the Go struct path.
func jsonError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Errorf("invalid json body: %s has the wrong type", typeErr.Field)
	}
	return errMalformedJSON
}

// formError lists the keys gorilla/schema could not convert.
func formError(err error) error {
	var multi schema.MultiError
	if errors.As(err, &multi) && len(multi) > 0 {
		keys := slices.Sorted(maps.Keys(multi))
		return fmt.Errorf("invalid form body: %s has the wrong type", strings.Join(keys, ", "))
	}
	return errors.New("invalid form body")
}
