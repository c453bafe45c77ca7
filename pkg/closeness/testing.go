package closeness

import (
	"testing"
)

// RequireClose fails the test immediately if actual and expected are not close.
func RequireClose(t testing.TB, actual, expected any, opts ...Option) {
	t.Helper()
	if err := AssertClose(actual, expected, opts...); err != nil {
		t.Fatalf("%v", err)
	}
}

// RequireEqual fails the test immediately if actual and expected are not equal.
func RequireEqual(t testing.TB, actual, expected any, opts ...Option) {
	t.Helper()
	if err := AssertEqual(actual, expected, opts...); err != nil {
		t.Fatalf("%v", err)
	}
}
