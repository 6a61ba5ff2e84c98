package validate

import (
	"errors"
	"unicode"
)

// Username may contain letters, digits and '.', '_', '-', '@'
// Spaces and control characters are not allowed, so username looks the same in logs and UI
func Username(username string) error {
	if username == "" {
		return errors.New("username is empty")
	}

	for _, r := range username {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
		case r == '.', r == '_', r == '-', r == '@':
		default:
			return errors.New("username contains invalid characters")
		}
	}

	return nil
}
