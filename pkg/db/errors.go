package db

import (
	stdErrors "errors"
	"fmt"
	"strings"

	apperrors "github.com/mamacare/engine/pkg/errors"
	"gorm.io/gorm"
)

// ConstraintKind classifies SQLite constraint failures.
type ConstraintKind string

const (
	ConstraintUnique     ConstraintKind = "unique"
	ConstraintForeignKey ConstraintKind = "foreign_key"
	ConstraintNotNull    ConstraintKind = "not_null"
	ConstraintOther      ConstraintKind = "other"
)

// StoreError is the structured form of an engine constraint violation,
// carrying the violated kind and the affected table alongside the raw cause.
type StoreError struct {
	Kind  ConstraintKind
	Table string
	cause error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error: %s constraint on %s: %v", e.Kind, e.Table, e.cause)
}

func (e *StoreError) Unwrap() error {
	return e.cause
}

// AsStoreError unwraps err to a *StoreError if one is present.
func AsStoreError(err error) *StoreError {
	if err == nil {
		return nil
	}
	var typed *StoreError
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// Translate maps raw engine errors to the engine taxonomy: record-not-found
// becomes NOT_FOUND, constraint failures become STORE_ERROR wrapping a
// StoreError tagged with kind and table. Other errors pass through untouched.
func Translate(err error, table string) error {
	if err == nil {
		return nil
	}
	if stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.Wrap(apperrors.CodeNotFound, err, fmt.Sprintf("%s: record not found", table))
	}
	if kind, ok := constraintKind(err); ok {
		storeErr := &StoreError{Kind: kind, Table: table, cause: err}
		return apperrors.Wrap(apperrors.CodeStore, storeErr, storeErr.Error())
	}
	return err
}

func constraintKind(err error) (ConstraintKind, bool) {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return ConstraintUnique, true
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return ConstraintForeignKey, true
	case strings.Contains(msg, "NOT NULL constraint failed"):
		return ConstraintNotNull, true
	case strings.Contains(msg, "constraint failed"):
		return ConstraintOther, true
	}
	return "", false
}

// IsUniqueViolation reports whether err is a unique-constraint failure,
// optionally scoped to a table.column name appearing in the message.
func IsUniqueViolation(err error, constraintName string) bool {
	storeErr := AsStoreError(err)
	if storeErr == nil || storeErr.Kind != ConstraintUnique {
		return false
	}
	if constraintName == "" {
		return true
	}
	return strings.Contains(storeErr.cause.Error(), constraintName)
}
