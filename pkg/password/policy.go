// Package password checks candidate passwords against the registration policy.
package password

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MinLength = 8
	MaxLength = 30
)

// Character classes are ASCII only. Other letters and symbols count toward the
// length but satisfy no class.
const specialCharacters = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Validate returns one message per violated rule, in rule order. An empty
// result means the password is acceptable.
func Validate(password string) []string {
	var violations []string

	length := utf8.RuneCountInString(password)
	if length < MinLength {
		violations = append(violations, fmt.Sprintf("Password must be %d or more characters in length.", MinLength))
	}
	if length > MaxLength {
		violations = append(violations, fmt.Sprintf("Password must be no more than %d characters in length.", MaxLength))
	}

	var hasWhitespace, hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsSpace(r):
			hasWhitespace = true
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case 'a' <= r && r <= 'z':
			hasLower = true
		case '0' <= r && r <= '9':
			hasDigit = true
		case strings.ContainsRune(specialCharacters, r):
			hasSpecial = true
		}
	}

	if hasWhitespace {
		violations = append(violations, "Password contains a whitespace character.")
	}
	if !hasUpper {
		violations = append(violations, "Password must contain 1 or more uppercase characters.")
	}
	if !hasLower {
		violations = append(violations, "Password must contain 1 or more lowercase characters.")
	}
	if !hasDigit {
		violations = append(violations, "Password must contain 1 or more digit characters.")
	}
	if !hasSpecial {
		violations = append(violations, "Password must contain 1 or more special characters.")
	}

	return violations
}

// Message joins violations the way they are reported to clients.
func Message(violations []string) string {
	return strings.Join(violations, ",")
}
