// Package builtin ships concrete Sanitizer/Validator implementations on
// top of the plug-in contract hooks defines.
package builtin

import (
	"strings"

	"icdb/codec"
)

// trimSanitizer strips leading/trailing whitespace from Text values;
// identity on every other kind.
type trimSanitizer struct{}

// Trim returns a sanitizer that trims surrounding whitespace from Text
// values.
func Trim() trimSanitizer { return trimSanitizer{} }

func (trimSanitizer) Apply(v codec.Value) (codec.Value, error) {
	if v.Kind() != codec.KindText {
		return v, nil
	}
	return codec.Text(strings.TrimSpace(v.AsText())), nil
}

// lowercaseSanitizer lowercases Text values; identity otherwise.
type lowercaseSanitizer struct{}

func Lowercase() lowercaseSanitizer { return lowercaseSanitizer{} }

func (lowercaseSanitizer) Apply(v codec.Value) (codec.Value, error) {
	if v.Kind() != codec.KindText {
		return v, nil
	}
	return codec.Text(strings.ToLower(v.AsText())), nil
}

// collapseWhitespaceSanitizer collapses runs of whitespace in Text values
// to a single space and trims the ends.
type collapseWhitespaceSanitizer struct{}

func CollapseWhitespace() collapseWhitespaceSanitizer { return collapseWhitespaceSanitizer{} }

func (collapseWhitespaceSanitizer) Apply(v codec.Value) (codec.Value, error) {
	if v.Kind() != codec.KindText {
		return v, nil
	}
	fields := strings.Fields(v.AsText())
	return codec.Text(strings.Join(fields, " ")), nil
}

// nullIfEmptySanitizer converts empty Text values to Null. Never errors.
type nullIfEmptySanitizer struct{}

func NullIfEmpty() nullIfEmptySanitizer { return nullIfEmptySanitizer{} }

func (nullIfEmptySanitizer) Apply(v codec.Value) (codec.Value, error) {
	if v.Kind() == codec.KindText && v.AsText() == "" {
		return codec.Null(), nil
	}
	return v, nil
}

// clampInt64Sanitizer clamps Int8/16/32/64 values into [min, max]; identity
// on every other kind.
type clampInt64Sanitizer struct{ min, max int64 }

func ClampInt(min, max int64) clampInt64Sanitizer { return clampInt64Sanitizer{min: min, max: max} }

func (c clampInt64Sanitizer) Apply(v codec.Value) (codec.Value, error) {
	switch v.Kind() {
	case codec.KindInt8, codec.KindInt16, codec.KindInt32, codec.KindInt64:
		n := v.AsInt64()
		if n < c.min {
			n = c.min
		}
		if n > c.max {
			n = c.max
		}
		switch v.Kind() {
		case codec.KindInt8:
			return codec.Int8(int8(n)), nil
		case codec.KindInt16:
			return codec.Int16(int16(n)), nil
		case codec.KindInt32:
			return codec.Int32(int32(n)), nil
		default:
			return codec.Int64(n), nil
		}
	default:
		return v, nil
	}
}

// clampUint64Sanitizer clamps Uint8/16/32/64 values into [min, max].
// Grounded on ClampUnsignedSanitizer in the same Rust file.
type clampUint64Sanitizer struct{ min, max uint64 }

func ClampUint(min, max uint64) clampUint64Sanitizer {
	return clampUint64Sanitizer{min: min, max: max}
}

func (c clampUint64Sanitizer) Apply(v codec.Value) (codec.Value, error) {
	switch v.Kind() {
	case codec.KindUint8, codec.KindUint16, codec.KindUint32, codec.KindUint64:
		n := v.AsUint64()
		if n < c.min {
			n = c.min
		}
		if n > c.max {
			n = c.max
		}
		switch v.Kind() {
		case codec.KindUint8:
			return codec.Uint8(uint8(n)), nil
		case codec.KindUint16:
			return codec.Uint16(uint16(n)), nil
		case codec.KindUint32:
			return codec.Uint32(uint32(n)), nil
		default:
			return codec.Uint64(n), nil
		}
	default:
		return v, nil
	}
}
