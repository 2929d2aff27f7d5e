package errors

import (
	stdErrors "errors"
	"fmt"
)

// Code classifies engine failures so callers can branch without string
// matching. Storage constraint details ride separately on db.StoreError.
type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeStore         Code = "STORE_ERROR"
	CodeSync          Code = "SYNC_ERROR"
	CodeFatalInit     Code = "FATAL_INIT"
	CodeInternal      Code = "INTERNAL_ERROR"
)

// Metadata captures handling hints per code.
type Metadata struct {
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		Retryable:      false,
		PublicMessage:  "validation failed",
		DetailsAllowed: true,
	},
	CodeNotFound: {
		Retryable:      false,
		PublicMessage:  "resource not found",
		DetailsAllowed: false,
	},
	CodeConflict: {
		Retryable:      false,
		PublicMessage:  "conflict detected",
		DetailsAllowed: false,
	},
	CodeStateConflict: {
		Retryable:      false,
		PublicMessage:  "state transition disallowed",
		DetailsAllowed: true,
	},
	CodeStore: {
		Retryable:      false,
		PublicMessage:  "storage constraint violated",
		DetailsAllowed: true,
	},
	CodeSync: {
		Retryable:      true,
		PublicMessage:  "synchronization failed",
		DetailsAllowed: true,
	},
	CodeFatalInit: {
		// The init sequence as a whole may be re-attempted by the caller.
		Retryable:      true,
		PublicMessage:  "initialization failed",
		DetailsAllowed: false,
	},
	CodeInternal: {
		Retryable:      true,
		PublicMessage:  "internal error",
		DetailsAllowed: false,
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}

func IsValidation(err error) bool    { return HasCode(err, CodeValidation) }
func IsNotFound(err error) bool      { return HasCode(err, CodeNotFound) }
func IsConflict(err error) bool      { return HasCode(err, CodeConflict) }
func IsStateConflict(err error) bool { return HasCode(err, CodeStateConflict) }
