// Package hooks implements the sanitizer → validator chain applied to
// every field before PK/FK checks. The plug-in contract is
// two single-method interfaces; built-in implementations live in
// hooks/builtin.
package hooks

import (
	"icdb/codec"
	"icdb/dberr"
)

// Sanitizer transforms a Value before validation and persistence. A
// sanitizer not applicable to a given kind (e.g. Trim on an integer) must
// be the identity transform.
type Sanitizer interface {
	Apply(v codec.Value) (codec.Value, error)
}

// Validator checks a (post-sanitization) Value, returning a
// dberr.ValidationFailed error on rejection.
type Validator interface {
	Check(v codec.Value) error
}

// SanitizerFunc adapts a function to the Sanitizer interface.
type SanitizerFunc func(codec.Value) (codec.Value, error)

func (f SanitizerFunc) Apply(v codec.Value) (codec.Value, error) { return f(v) }

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(codec.Value) error

func (f ValidatorFunc) Check(v codec.Value) error { return f(v) }

// Run executes sanitizers in declaration order (each transforming the
// Value), then validators in declaration order against the sanitized
// result — so that the persisted form is the sanitized form and FK
// lookups compare sanitized keys.
func Run(sanitizers []Sanitizer, validators []Validator, v codec.Value) (codec.Value, error) {
	cur := v
	for _, s := range sanitizers {
		next, err := s.Apply(cur)
		if err != nil {
			return codec.Value{}, dberr.Wrap(dberr.SanitizationFailed, err, "%v", err)
		}
		cur = next
	}
	for _, val := range validators {
		if err := val.Check(cur); err != nil {
			return codec.Value{}, dberr.Wrap(dberr.ValidationFailed, err, "%v", err)
		}
	}
	return cur, nil
}
