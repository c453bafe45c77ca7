package closeness

import (
	"fmt"
	"strings"

	"github.com/google/go-cmp/cmp"
)

// objectComparator accepts any pair and compares it with go-cmp. It backs
// AssertEqual, where no tolerance applies.
type objectComparator struct {
	base
}

func matchObject(actual, expected any, path Path, cfg *Config) (Comparator, bool, error) {
	return &objectComparator{base: newBase(objectName, actual, expected, path, cfg)}, true, nil
}

func (c *objectComparator) Compare() error {
	equal, diff, err := c.equal()
	if err != nil {
		return err
	}
	if equal {
		return nil
	}
	msg := fmt.Sprintf("%s != %s", formatValue(c.actual), formatValue(c.expected))
	if diff = strings.TrimSpace(diff); diff != "" {
		msg += "\n\n" + diff
	}
	return c.fail(KindValueMismatch, "%s", msg)
}

// equal runs cmp.Equal. cmp panics on values it cannot compare, such as
// structs with unexported fields; that panic is reported as an unsupported
// pair.
func (c *objectComparator) equal() (equal bool, diff string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &Error{
				Kind: KindUnsupportedKind,
				Message: fmt.Sprintf("%s == %s failed with:\n%v.",
					formatValue(c.actual), formatValue(c.expected), r),
				Path: c.path,
			}
		}
	}()
	if cmp.Equal(c.actual, c.expected) {
		return true, "", nil
	}
	return false, cmp.Diff(c.expected, c.actual), nil
}

func (c *objectComparator) String() string { return c.describe() }
