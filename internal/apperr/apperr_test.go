package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"plain error", errors.New("boom"), Internal},
		{"direct", New(Forbidden, "permission denied"), Forbidden},
		{"wrapped", fmt.Errorf("handler: %w", New(Conflict, "dup")), Conflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMessageOf_HidesInternalDetail(t *testing.T) {
	err := Wrap(Internal, "listing members", errors.New("pq: connection reset"))
	if got := MessageOf(err); got != "internal server error" {
		t.Errorf("expected generic message, got %q", got)
	}
	if got := MessageOf(errors.New("raw driver error")); got != "internal server error" {
		t.Errorf("expected generic message for plain error, got %q", got)
	}
	if got := MessageOf(New(NotFound, "member not found")); got != "member not found" {
		t.Errorf("expected message to pass through, got %q", got)
	}
}

func TestIs_MatchesSentinel(t *testing.T) {
	sentinel := New(InvalidOperation, "cannot remove self")
	err := fmt.Errorf("remove: %w", New(InvalidOperation, "cannot remove self"))
	if !errors.Is(err, sentinel) {
		t.Error("expected errors.Is to match by kind and message")
	}
	if errors.Is(err, New(InvalidOperation, "something else")) {
		t.Error("expected different message not to match")
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("cause")
	err := Wrap(Internal, "x", cause)
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}
}
