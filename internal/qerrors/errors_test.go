package qerrors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		err := New(ConfigInvalid, "author is required", nil)
		got := err.Error()
		if !strings.Contains(got, "CONFIG_INVALID") {
			t.Errorf("expected code in message, got %q", got)
		}
		if !strings.Contains(got, "author is required") {
			t.Errorf("expected message, got %q", got)
		}
	})

	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("permission denied")
		err := New(CacheUnavailable, "cannot open stats database", cause)
		if !strings.Contains(err.Error(), "permission denied") {
			t.Errorf("expected cause in message, got %q", err.Error())
		}
	})
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("exit status 128")
	err := New(RepoUnreadable, "git log failed", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}

	wrapped := fmt.Errorf("aggregation: %w", err)
	var qerr *Error
	if !errors.As(wrapped, &qerr) {
		t.Fatal("errors.As should find *Error through wrapping")
	}
	if qerr.Code != RepoUnreadable {
		t.Errorf("expected RepoUnreadable, got %s", qerr.Code)
	}
}

func TestSuggestedFixes(t *testing.T) {
	err := New(GitNotFound, "git is not installed", nil)
	if len(err.SuggestedFixes) == 0 {
		t.Fatal("expected suggested fixes for GitNotFound")
	}
	if err.SuggestedFixes[0].Command == "" {
		t.Error("fix action should carry a command")
	}

	err = New(Timeout, "git log timed out", nil)
	if len(err.SuggestedFixes) != 0 {
		t.Error("expected no fixes for Timeout")
	}
}

func TestWithDetails(t *testing.T) {
	err := New(RepoUnreadable, "git log failed", nil).
		WithDetails(map[string]interface{}{"repo": "/tmp/broken"})
	details, ok := err.Details.(map[string]interface{})
	if !ok {
		t.Fatal("expected details map")
	}
	if details["repo"] != "/tmp/broken" {
		t.Errorf("unexpected details: %v", details)
	}
}
