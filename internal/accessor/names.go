package accessor

import (
	"fmt"
	"strings"
)

// IsBlank reports whether s is empty or whitespace only.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// ValidateName checks that s can be used as a single path element. what is
// used in the error message ("datastore", "user", "scenario").
//
// Names are joined into filesystem paths without escaping, so anything that
// could climb out of the root or address backend metadata is rejected.
func ValidateName(what, s string) error {
	switch {
	case IsBlank(s):
		return fmt.Errorf("%w: %s name is blank", ErrInvalidName, what)
	case s == "." || s == "..":
		return fmt.Errorf("%w: %s name %q is reserved", ErrInvalidName, what, s)
	case strings.HasPrefix(s, "."):
		return fmt.Errorf("%w: %s name %q starts with a dot", ErrInvalidName, what, s)
	case strings.ContainsAny(s, "/\\\x00"):
		return fmt.Errorf("%w: %s name %q contains a path separator", ErrInvalidName, what, s)
	case s != strings.TrimSpace(s):
		return fmt.Errorf("%w: %s name %q has surrounding whitespace", ErrInvalidName, what, s)
	}
	return nil
}
