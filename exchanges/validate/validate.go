// Package validate runs field checks over gateway requests. Failures carry the
// wire name of the offending field so handlers can list every missing field
// instead of stopping at the first.
package validate

import (
	"errors"
	"strings"
)

// ErrRequired is wrapped by a FieldError for a blank required field
var ErrRequired = errors.New("required")

// Checker is a single check over a request
type Checker interface {
	Check() error
}

// Check adapts a closure to a Checker
type Check func() error

// Check runs the closure
func (c Check) Check() error {
	return c()
}

// FieldError reports a failed check on one request field
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return e.Field + " " + e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Required fails when value is blank
func Required(field, value string) Checker {
	return Check(func() error {
		if strings.TrimSpace(value) == "" {
			return &FieldError{Field: field, Err: ErrRequired}
		}
		return nil
	})
}

// First runs checks in order and returns the first failure
func First(checks ...Checker) error {
	for i := range checks {
		if err := checks[i].Check(); err != nil {
			return err
		}
	}
	return nil
}

// All runs every check and joins the failures in check order
func All(checks ...Checker) error {
	var errs []error
	for i := range checks {
		if err := checks[i].Check(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Fields returns the field names of every FieldError in err, including those
// joined by All. A nil error yields an empty slice.
func Fields(err error) []string {
	fields := []string{}
	var walk func(error)
	walk = func(err error) {
		switch e := err.(type) {
		case nil:
		case *FieldError:
			fields = append(fields, e.Field)
		case interface{ Unwrap() []error }:
			for _, inner := range e.Unwrap() {
				walk(inner)
			}
		default:
			var fe *FieldError
			if errors.As(err, &fe) {
				fields = append(fields, fe.Field)
			}
		}
	}
	walk(err)
	return fields
}
