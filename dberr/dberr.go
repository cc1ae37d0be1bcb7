// Package dberr defines the structured error type returned by every
// operation in the engine. Nothing in this module panics; every failure
// path returns an *Error so callers can branch on Code without string
// matching.
package dberr

import "fmt"

// Kind partitions errors into three tiers.
type Kind uint8

const (
	// CallerError is recoverable and surfaced as the operation's result:
	// ACL rejections, validation/sanitization failures, PK/FK conflicts,
	// unknown table/column, invalid query, transaction-ownership mismatches.
	CallerError Kind = iota
	// Corruption is non-retryable state corruption: bad offsets, bad
	// magic/version, malformed payloads.
	Corruption
	// ResourceExhaustion covers out-of-space and out-of-bounds conditions.
	ResourceExhaustion
)

// Code enumerates the named error variants.
type Code string

const (
	Unauthorized                 Code = "Unauthorized"
	UnknownTable                 Code = "UnknownTable"
	UnknownColumn                Code = "UnknownColumn"
	MissingNonNullableField      Code = "MissingNonNullableField"
	PrimaryKeyConflict           Code = "PrimaryKeyConflict"
	BrokenForeignKeyReference    Code = "BrokenForeignKeyReference"
	ForeignKeyConstraintViolation Code = "ForeignKeyConstraintViolation"
	InvalidQuery                 Code = "InvalidQuery"
	ValidationFailed             Code = "ValidationFailed"
	SanitizationFailed           Code = "SanitizationFailed"
	TransactionNotFound          Code = "TransactionNotFound"
	TransactionNotOwned          Code = "TransactionNotOwned"
	CommitConflict                Code = "CommitConflict"
	OffsetNotAligned             Code = "OffsetNotAligned"
	CorruptedStore               Code = "CorruptedStore"
	InsufficientSpace            Code = "InsufficientSpace"
	OutOfBounds                  Code = "OutOfBounds"
	DecodeError                  Code = "DecodeError"
)

var kindByCode = map[Code]Kind{
	Unauthorized:                  CallerError,
	UnknownTable:                  CallerError,
	UnknownColumn:                 CallerError,
	MissingNonNullableField:       CallerError,
	PrimaryKeyConflict:            CallerError,
	BrokenForeignKeyReference:     CallerError,
	ForeignKeyConstraintViolation: CallerError,
	InvalidQuery:                  CallerError,
	ValidationFailed:              CallerError,
	SanitizationFailed:            CallerError,
	TransactionNotFound:           CallerError,
	TransactionNotOwned:           CallerError,
	CommitConflict:                CallerError,
	OffsetNotAligned:              Corruption,
	CorruptedStore:                Corruption,
	DecodeError:                   Corruption,
	InsufficientSpace:             ResourceExhaustion,
	OutOfBounds:                   ResourceExhaustion,
}

// Error is the structured error type returned by every package in this
// module. It deliberately omits stack capture: nothing here needs a
// debugging trace, only a stable code a caller can switch on.
type Error struct {
	Code   Code
	Kind   Kind
	Reason string
	Cause  error
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Reason)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error with the given code and formatted reason.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Kind: kindByCode[code], Reason: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error around an existing error, preserving it as Cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Kind: kindByCode[code], Reason: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether err carries the given Code.
func Is(err error, code Code) bool {
	var e *Error
	for err != nil {
		if ae, ok := err.(*Error); ok {
			e = ae
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return e != nil && e.Code == code
}
