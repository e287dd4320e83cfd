// Package validation checks untyped input values (as decoded from JSON or
// form bodies) and either normalizes them or reports every violated rule.
//
// Validators return (value, error). The error is always an Errors list so a
// form can show all problems for a field at once. Pick(...).Into(&errs) runs
// several validators and accumulates their messages in call order.
package validation

import (
	"errors"
	"strings"
)

// Errors is an ordered list of human-readable validation messages.
type Errors []string

func (e Errors) Error() string {
	return strings.Join(e, "; ")
}

// Add appends a message.
func (e *Errors) Add(msg string) {
	*e = append(*e, msg)
}

// Merge appends the messages carried by err. A plain error contributes its
// Error() text.
func (e *Errors) Merge(err error) {
	if err == nil {
		return
	}
	var list Errors
	if errors.As(err, &list) {
		*e = append(*e, list...)
		return
	}
	*e = append(*e, err.Error())
}

// Err returns nil for an empty list, otherwise the list itself.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Result pairs a validator's value with its error so the two can be
// merged into an Errors list in one expression.
type Result[T any] struct {
	Value T
	Err   error
}

// Pick wraps a validator's return values:
//
//	var errs validation.Errors
//	name := validation.Pick(validation.String(req.Name, "Name")).Into(&errs)
//	addr := validation.Pick(validation.String(req.Address, "Address")).Into(&errs)
//	if err := errs.Err(); err != nil { ... }
func Pick[T any](v T, err error) Result[T] {
	return Result[T]{Value: v, Err: err}
}

// Into merges the error into errs and returns the value.
func (r Result[T]) Into(errs *Errors) T {
	errs.Merge(r.Err)
	return r.Value
}

// Check runs a validator that only returns an error and merges the result.
func Check(errs *Errors, err error) {
	errs.Merge(err)
}
