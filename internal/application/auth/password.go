package auth

import (
	"strings"
	"unicode"

	domerrors "github.com/jbrucker/home-log/internal/domain/errors"
)

const (
	MinPasswordLength = 7
	MaxPasswordLength = 255
)

// CheckPasswordStrength enforces the rules for new passwords: length 7..255,
// at least one uppercase letter, one lowercase letter and one digit, no
// leading/trailing whitespace, and no character repeated three times in a
// row. Special characters are allowed but not required.
func CheckPasswordStrength(password string) error {
	if len(password) < MinPasswordLength || len(password) > MaxPasswordLength {
		return domerrors.ErrWeakPassword
	}
	if strings.TrimSpace(password) != password {
		return domerrors.ErrWeakPassword
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return domerrors.ErrWeakPassword
	}
	if hasTripleRepeat(password) {
		return domerrors.ErrWeakPassword
	}
	return nil
}

// hasTripleRepeat reports whether any rune occurs three times in a row.
func hasTripleRepeat(password string) bool {
	var prev rune
	run := 0
	for _, r := range password {
		if r == prev {
			run++
			if run == 3 {
				return true
			}
		} else {
			prev = r
			run = 1
		}
	}
	return false
}
