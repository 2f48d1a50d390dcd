package testutils

import (
	"io"
	"log"
	"os"
	"testing"
)

// TempDir creates a temporary directory and returns its name. If an error
// occurs, it fails the test via t.Fatal.
func TempDir(t *testing.T) string {
	dir, err := os.MkdirTemp("", "evictiond")
	if err != nil {
		t.Fatal(err)
	}
	return dir
}

// NewSilentLogger returns a cheap logger that doesn't print anything, useful
// for tests.
func NewSilentLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// AssertEquals fails the test if expected and actual values are not equal.
// It works with any comparable type.
func AssertEquals[T comparable](t *testing.T, expected T, actual T) {
	t.Helper()
	if expected != actual {
		t.Fatalf("Expected %v, but got %v.", expected, actual)
	}
}

// AssertSuccess asserts that the provided result represents a successful outcome.
//
// The success criteria are:
// - nil value (e.g., no error)
// - true boolean
//
// The failure criteria are:
// - non-nil error
// - false boolean
func AssertSuccess(t *testing.T, result interface{}) {
	t.Helper()
	switch v := result.(type) {
	case nil:
		return // Success as expected
	case error:
		if v != nil {
			t.Fatalf("Expected success, but got error: %v", v)
		}
	case bool:
		if !v {
			t.Fatalf("Expected success, but got false value")
		}
	default:
		t.Fatalf("Unsupported type: %T", v)
	}
}
