package closeness

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// FailureKind classifies a comparison failure.
type FailureKind int

const (
	// KindConfiguration means the caller supplied invalid options.
	KindConfiguration FailureKind = iota + 1
	// KindUnsupportedKind means no comparator could handle a leaf pair.
	KindUnsupportedKind
	// KindStructuralMismatch means sequence lengths or mapping keys differ.
	KindStructuralMismatch
	// KindAttributeMismatch means tensor attributes such as shape or dtype differ.
	KindAttributeMismatch
	// KindValueMismatch means leaf values are not equal or not close.
	KindValueMismatch
	// KindUnsupportedBackingStore means data was requested from a meta tensor.
	KindUnsupportedBackingStore
	// KindInternalInvariant means a comparator failed in an unexpected way.
	KindInternalInvariant
)

func (k FailureKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration error"
	case KindUnsupportedKind:
		return "unsupported kind"
	case KindStructuralMismatch:
		return "structural mismatch"
	case KindAttributeMismatch:
		return "attribute mismatch"
	case KindValueMismatch:
		return "value mismatch"
	case KindUnsupportedBackingStore:
		return "unsupported backing store"
	case KindInternalInvariant:
		return "internal invariant violation"
	}
	return fmt.Sprintf("FailureKind(%d)", int(k))
}

// overridable reports whether a user supplied message replaces the
// generated one for failures of this kind.
func (k FailureKind) overridable() bool {
	return k == KindValueMismatch || k == KindAttributeMismatch
}

// Error is a comparison failure. Every failure carries the path of the leaf
// it was found at.
type Error struct {
	Kind    FailureKind
	Message string
	Path    Path
	Cause   error
}

func (e *Error) Error() string {
	if len(e.Path) == 0 {
		return e.Message
	}
	return e.Message + "\n\nThe failure occurred for item " + e.Path.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel of the same kind, so errors.Is(err, ErrValueMismatch)
// holds for every value mismatch.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Path == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrConfiguration           = &Error{Kind: KindConfiguration}
	ErrUnsupportedKind         = &Error{Kind: KindUnsupportedKind}
	ErrStructuralMismatch      = &Error{Kind: KindStructuralMismatch}
	ErrAttributeMismatch       = &Error{Kind: KindAttributeMismatch}
	ErrValueMismatch           = &Error{Kind: KindValueMismatch}
	ErrUnsupportedBackingStore = &Error{Kind: KindUnsupportedBackingStore}
	ErrInternalInvariant       = &Error{Kind: KindInternalInvariant}
)

// KindOf returns the failure kind of err, or 0 if err is not a comparison failure.
func KindOf(err error) FailureKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func newError(kind FailureKind, path Path, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Path: path}
}

// Path locates a leaf inside nested actual and expected values. Elements are
// sequence indices (int) or mapping keys.
type Path []any

// Append returns a new path extended by elem. The receiver is not modified.
func (p Path) Append(elem any) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, elem)
}

// String renders the path as a chain of subscripts: [1]["a"][0].
func (p Path) String() string {
	var b strings.Builder
	for _, elem := range p {
		b.WriteByte('[')
		b.WriteString(formatKey(elem))
		b.WriteByte(']')
	}
	return b.String()
}

func formatKey(k any) string {
	switch v := k.(type) {
	case string:
		return strconv.Quote(v)
	case fmt.Stringer:
		return strconv.Quote(v.String())
	}
	return fmt.Sprint(k)
}

func formatKeys(keys []any) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = formatKey(k)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
