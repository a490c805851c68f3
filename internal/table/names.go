package table

import (
	"unicode/utf8"
)

// validateName checks a topic name against the table's naming rules: names
// must be non-empty, valid UTF-8, and free of control characters, which the
// surrounding transport cannot represent. Any byte-wise distinct printable
// name is otherwise accepted; hierarchy is a caller convention, not a rule.
func validateName(name string) error {
	if name == "" {
		return errInvalidName(name, "name cannot be empty")
	}
	if !utf8.ValidString(name) {
		return errInvalidName(name, "name must be valid UTF-8")
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return errInvalidName(name, "name cannot contain control characters")
		}
	}
	return nil
}
