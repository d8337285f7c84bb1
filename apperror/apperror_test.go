package apperror

import (
	"errors"
	"testing"
)

func TestKindOfDefaultsToInternalForForeignErrors(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != KindInternal {
		t.Errorf("KindOf(plain error) = %v, want %v", got, KindInternal)
	}
	if got := KindOf(New(KindConflict, "duplicate")); got != KindConflict {
		t.Errorf("KindOf(*Error) = %v, want %v", got, KindConflict)
	}
}

func TestAsUnwrapsWrappedErrors(t *testing.T) {
	cause := errors.New("underlying failure")
	wrapped := Wrap(KindNotFound, "role not found", cause)
	doubleWrapped := Wrap(KindInternal, "outer", wrapped)

	ae, ok := As(doubleWrapped)
	if !ok {
		t.Fatalf("As() failed to find an *Error in the chain")
	}
	if ae.Kind != KindInternal {
		t.Errorf("As() returned Kind %v, want %v (the outermost wrap)", ae.Kind, KindInternal)
	}

	if _, ok := As(cause); ok {
		t.Errorf("As() unexpectedly matched a plain error")
	}
}

func TestErrorUnwrapReachesCause(t *testing.T) {
	cause := errors.New("db exploded")
	err := Wrap(KindInternal, "failed to read role", cause)

	if !errors.Is(err, cause) {
		t.Errorf("errors.Is did not find the wrapped cause")
	}
}

func TestUnauthenticatedNeverLeaksDetail(t *testing.T) {
	err := Unauthenticated()
	if err.Kind != KindUnauthenticated {
		t.Errorf("Kind = %v, want %v", err.Kind, KindUnauthenticated)
	}
	if err.Cause != nil {
		t.Errorf("Unauthenticated() carried a cause; it must never leak which check failed")
	}
}
