// Package validation holds the signup input rules. Handlers translate the
// returned errors into 400 responses; the rules themselves know nothing
// about HTTP.
package validation

import (
	"fmt"
	"regexp"
	"unicode"
)

const (
	passwordMinLength = 12
	passwordMaxLength = 128
	usernameMinLength = 3
	usernameMaxLength = 30
	emailMaxLength    = 254
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9_-]*[a-zA-Z0-9])?$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9\-]+(\.[a-zA-Z0-9\-]+)+$`)
)

// ValidatePassword enforces length bounds and character class coverage.
// Unicode letters count toward the upper/lower requirements.
func ValidatePassword(password string) error {
	runes := []rune(password)
	if len(runes) < passwordMinLength {
		return fmt.Errorf("password must be at least %d characters", passwordMinLength)
	}
	if len(runes) > passwordMaxLength {
		return fmt.Errorf("password must be at most %d characters", passwordMaxLength)
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range runes {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit || !hasSpecial {
		return fmt.Errorf("password must contain an uppercase letter, a lowercase letter, a digit, and a special character")
	}

	return nil
}

// ValidateUsername allows letters, digits, underscores, and hyphens, with
// an alphanumeric first and last character.
func ValidateUsername(username string) error {
	if len(username) < usernameMinLength || len(username) > usernameMaxLength {
		return fmt.Errorf("username must be %d-%d characters", usernameMinLength, usernameMaxLength)
	}
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username may only contain letters, numbers, underscores, and hyphens, and must start and end with a letter or number")
	}
	return nil
}

// ValidateEmail checks the address shape. Deliverability is not checked;
// this is a format gate, not a mailbox probe.
func ValidateEmail(email string) error {
	if len(email) > emailMaxLength {
		return fmt.Errorf("email must be at most %d characters", emailMaxLength)
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("email address is not valid")
	}
	return nil
}
