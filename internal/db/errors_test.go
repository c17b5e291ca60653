package db

import (
	"context"
	"errors"
	"testing"
)

func TestError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"keyless", &Error{Op: OpSearch, Err: errors.New("timeout")}, "FT.SEARCH: timeout"},
		{"keyed", &Error{Op: OpHSet, Key: "tweetdex:tweet:1", Err: errors.New("OOM")}, "HSET tweetdex:tweet:1: OOM"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	err := error(&Error{Op: OpGet, Key: "k", Err: context.DeadlineExceeded})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("expected errors.Is to see the wrapped cause")
	}
}
