package errors

import (
	stdErrors "errors"
	"testing"
)

func TestErrorIncludesInternal(t *testing.T) {
	err := Wrap(stdErrors.New("boom"), "failed")
	if err.Error() != "failed: boom" {
		t.Fatalf("unexpected error string: %s", err.Error())
	}
}

func TestWithInternalCopies(t *testing.T) {
	base := New("TEST", "test", 400)
	with := base.WithInternal(stdErrors.New("oops"))

	if with == base {
		t.Fatal("expected WithInternal to return a copy")
	}
	if base.Internal != nil {
		t.Fatal("expected original error to remain unchanged")
	}
	if with.Internal == nil {
		t.Fatal("expected internal error to be set")
	}
}

func TestFromError(t *testing.T) {
	if out := FromError(ErrNotFound); out != ErrNotFound {
		t.Fatal("expected FromError to return the same AppError instance")
	}

	out := FromError(stdErrors.New("raw"))
	if out.Code != ErrInternalServer.Code {
		t.Fatalf("expected internal server code, got %s", out.Code)
	}
	if out.Internal == nil {
		t.Fatal("expected internal error to be attached")
	}
}

func TestUnwrap(t *testing.T) {
	inner := stdErrors.New("inner")
	wrapped := ErrBadRequest.WithInternal(inner)
	if !stdErrors.Is(wrapped, inner) {
		t.Fatal("expected errors.Is to reach the internal error")
	}
}
