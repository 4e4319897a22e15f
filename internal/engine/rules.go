package engine

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/students-api/internal/config"
	"github.com/aanand-mishra/students-api/internal/errs"
	"github.com/aanand-mishra/students-api/internal/types"
)

// Rules are the configurable field constraints.
type Rules struct {
	MinAge            int
	MaxAge            int
	ClassYearNullable bool
}

// DefaultRules: ages 0..150, class_year required.
func DefaultRules() Rules {
	return Rules{MinAge: 0, MaxAge: 150}
}

// RulesFromConfig copies the student rules out of the service config.
func RulesFromConfig(c config.Students) Rules {
	return Rules{
		MinAge:            c.MinAge,
		MaxAge:            c.MaxAge,
		ClassYearNullable: c.ClassYearNullable,
	}
}

// newValidator returns a validator that knows the student_age tag for
// these rules and reports fields by their json names.
func (r Rules) newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	// the error is only non-nil for an empty tag name
	_ = v.RegisterValidation("student_age", func(fl validator.FieldLevel) bool {
		age := fl.Field().Int()
		return age >= int64(r.MinAge) && age <= int64(r.MaxAge)
	})

	return v
}

func (e *Engine) validateNew(in types.NewStudent) error {
	var out errs.ValidationErrors
	if err := e.validate.Struct(in); err != nil {
		out = e.translate(err)
	}
	if in.ClassYear == nil && !e.rules.ClassYearNullable {
		out = append(out, fieldError("class_year", "is required"))
	}
	if len(out) > 0 {
		return out
	}
	return nil
}

func (e *Engine) validatePatch(p types.StudentPatch) error {
	if err := e.validate.Struct(p); err != nil {
		return e.translate(err)
	}
	return nil
}

func fieldError(field, msg string) *errs.ValidationError {
	return &errs.ValidationError{Kind: errs.KindInvalidField, Field: field, Message: msg}
}

// translate converts validator output into field errors a client can read.
func (e *Engine) translate(err error) errs.ValidationErrors {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return errs.ValidationErrors{fieldError("", err.Error())}
	}

	out := make(errs.ValidationErrors, 0, len(validationErrors))
	for _, fe := range validationErrors {
		var msg string

		switch fe.Tag() {
		case "required":
			msg = "is required"

		case "min":
			msg = fmt.Sprintf("must be at least %s characters", fe.Param())

		case "max":
			msg = fmt.Sprintf("must not exceed %s characters", fe.Param())

		case "student_age":
			msg = fmt.Sprintf("must be between %d and %d", e.rules.MinAge, e.rules.MaxAge)

		default:
			if fe.Param() != "" {
				msg = fmt.Sprintf("failed %s:%s", fe.Tag(), fe.Param())
			} else {
				msg = fmt.Sprintf("failed %s", fe.Tag())
			}
		}

		out = append(out, fieldError(fe.Field(), msg))
	}
	return out
}
