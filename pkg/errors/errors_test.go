package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := New(ErrCodeMissingTemplate, "no template for %s/%s", "wall", "duct")
	want := "MISSING_TEMPLATE: no template for wall/duct"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("socket closed")
	err := Wrap(cause, ErrCodeCreationFailure, "create opening")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should match cause via errors.Is")
	}
	if got := err.Error(); got != "CREATION_FAILURE: create opening: socket closed" {
		t.Errorf("unexpected message: %q", got)
	}
}

func TestIsMatchesCode(t *testing.T) {
	err := New(ErrCodeNoIntersection, "no host found")

	if !Is(err, ErrCodeNoIntersection) {
		t.Error("Is should match the error's own code")
	}
	if Is(err, ErrCodeMissingTemplate) {
		t.Error("Is should not match a different code")
	}

	// Wrapped in a plain fmt error, the code must still be found.
	wrapped := fmt.Errorf("element 42: %w", err)
	if !Is(wrapped, ErrCodeNoIntersection) {
		t.Error("Is should unwrap plain error chains")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeSuppressedDuplicate, "dup")); got != ErrCodeSuppressedDuplicate {
		t.Errorf("GetCode = %q, want %q", got, ErrCodeSuppressedDuplicate)
	}
	if got := GetCode(stderrors.New("plain")); got != "" {
		t.Errorf("GetCode on plain error = %q, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(ErrCodeInvalidInput, "bad category")); got != "bad category" {
		t.Errorf("UserMessage = %q", got)
	}
	if got := UserMessage(stderrors.New("plain")); got != "plain" {
		t.Errorf("UserMessage on plain error = %q", got)
	}
}

func TestIsElementFault(t *testing.T) {
	tests := []struct {
		code Code
		want bool
	}{
		{ErrCodeGeometryUnavailable, true},
		{ErrCodeNoIntersection, true},
		{ErrCodeMissingTemplate, true},
		{ErrCodeSuppressedDuplicate, true},
		{ErrCodeCreationFailure, true},
		{ErrCodeDegenerateCluster, true},
		{ErrCodeTransactionFailed, false},
		{ErrCodeInvalidInput, false},
		{ErrCodeInternal, false},
	}

	for _, tt := range tests {
		err := New(tt.code, "x")
		if got := IsElementFault(err); got != tt.want {
			t.Errorf("IsElementFault(%s) = %v, want %v", tt.code, got, tt.want)
		}
	}
}
