package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("disk full")
	err := Wrap(CodeStore, cause, "writing row")

	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to satisfy errors.Is")
	}
	if err.Code() != CodeStore {
		t.Fatalf("expected %s, got %s", CodeStore, err.Code())
	}
	if got := err.Error(); got != "STORE_ERROR: writing row" {
		t.Fatalf("unexpected error string %q", got)
	}
}

func TestWrapNilCause(t *testing.T) {
	err := Wrap(CodeSync, nil, "no cause")
	if err.Unwrap() != nil {
		t.Fatal("expected nil cause")
	}
}

func TestHasCodeThroughWrapping(t *testing.T) {
	inner := New(CodeNotFound, "user missing")
	outer := fmt.Errorf("loading profile: %w", inner)

	if !HasCode(outer, CodeNotFound) {
		t.Fatal("expected NOT_FOUND through fmt wrapping")
	}
	if HasCode(outer, CodeConflict) {
		t.Fatal("did not expect CONFLICT")
	}
	if !IsNotFound(outer) {
		t.Fatal("expected IsNotFound")
	}
}

func TestHasCodeOnForeignError(t *testing.T) {
	if HasCode(stdErrors.New("plain"), CodeInternal) {
		t.Fatal("plain errors carry no code")
	}
	if As(nil) != nil {
		t.Fatal("As(nil) should be nil")
	}
}

func TestWithDetails(t *testing.T) {
	err := New(CodeValidation, "bad input").WithDetails(map[string]string{"email": "required"})
	details, ok := err.Details().(map[string]string)
	if !ok {
		t.Fatalf("unexpected details type %T", err.Details())
	}
	if details["email"] != "required" {
		t.Fatalf("unexpected details %v", details)
	}
}

func TestMetadataFor(t *testing.T) {
	if MetadataFor(CodeSync).Retryable != true {
		t.Fatal("sync failures should be retryable")
	}
	if MetadataFor(CodeValidation).Retryable {
		t.Fatal("validation failures are not retryable")
	}
	// Unknown codes fall back to internal handling.
	if MetadataFor(Code("BOGUS")).PublicMessage != MetadataFor(CodeInternal).PublicMessage {
		t.Fatal("unknown code should use internal metadata")
	}
}
