package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataFor(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		retryable bool
	}{
		{CodeValidation, http.StatusBadRequest, false},
		{CodeInsufficientStock, http.StatusConflict, true},
		{CodePriceBelowFloor, http.StatusUnprocessableEntity, false},
		{CodeInsufficientBalance, http.StatusUnprocessableEntity, false},
		{CodeConcurrency, http.StatusConflict, true},
		{CodeInternal, http.StatusInternalServerError, true},
		{Code("SOMETHING_ELSE"), http.StatusInternalServerError, true},
	}
	for _, tc := range tests {
		meta := MetadataFor(tc.code)
		if meta.HTTPStatus != tc.status {
			t.Errorf("%s: status = %d, want %d", tc.code, meta.HTTPStatus, tc.status)
		}
		if meta.Retryable != tc.retryable {
			t.Errorf("%s: retryable = %v, want %v", tc.code, meta.Retryable, tc.retryable)
		}
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := Wrap(CodeDependency, cause, "query wallets")
	if err.Unwrap() != cause {
		t.Fatalf("expected cause to be preserved")
	}
	if As(fmt.Errorf("outer: %w", err)).Code() != CodeDependency {
		t.Fatalf("expected typed error through wrapping")
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(New(CodeConcurrency, "serialization failure")) {
		t.Fatal("concurrency conflicts should be retryable")
	}
	if IsRetryable(New(CodeInsufficientBalance, "balance too low")) {
		t.Fatal("insufficient balance is not retryable")
	}
	if IsRetryable(fmt.Errorf("untyped")) {
		t.Fatal("untyped errors are not retryable")
	}
}
