package ferrors

import (
	"errors"
	"testing"
)

func TestKindOfClassifiedError(t *testing.T) {
	err := New(Conflict, "kind mismatch")
	if got := KindOf(err); got != Conflict {
		t.Fatalf("KindOf() = %v, want %v", got, Conflict)
	}
}

func TestKindOfWrappedError(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := Wrap(Transient, cause, "probe failed")
	if got := KindOf(err); got != Transient {
		t.Fatalf("KindOf() = %v, want %v", got, Transient)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected Unwrap to reach cause")
	}
}

func TestKindOfUnclassifiedErrorDefaultsToPermanent(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != Permanent {
		t.Fatalf("KindOf() = %v, want %v", got, Permanent)
	}
}

func TestWithTargetDoesNotMutateOriginal(t *testing.T) {
	base := New(NotFound, "storage missing")
	tagged := base.WithTarget("db-primary")

	if base.Target != "" {
		t.Fatalf("WithTarget mutated the receiver")
	}
	if tagged.Target != "db-primary" {
		t.Fatalf("tagged.Target = %q, want db-primary", tagged.Target)
	}
}

func TestIs(t *testing.T) {
	err := New(Fatal, "model mutated under ready binding")
	if !Is(err, Fatal) {
		t.Fatalf("expected Is(err, Fatal) to be true")
	}
	if Is(err, Transient) {
		t.Fatalf("expected Is(err, Transient) to be false")
	}
}
