package password

import (
	"fmt"
	"unicode"
)

// Policy is the password strength policy applied at registration and reset.
type Policy struct {
	MinLength int
}

// DefaultPolicy requires 8 characters with upper, lower, digit and special.
func DefaultPolicy() Policy {
	return Policy{MinLength: 8}
}

// Check returns the rules the password violates. An empty result means the
// password is acceptable.
func (p Policy) Check(pw string) []string {
	var upper, lower, digit, special bool
	length := 0
	for _, r := range pw {
		length++
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}

	var violations []string
	if length < p.MinLength {
		violations = append(violations, fmt.Sprintf("must be at least %d characters", p.MinLength))
	}
	if !upper {
		violations = append(violations, "must contain an uppercase letter")
	}
	if !lower {
		violations = append(violations, "must contain a lowercase letter")
	}
	if !digit {
		violations = append(violations, "must contain a digit")
	}
	if !special {
		violations = append(violations, "must contain a special character")
	}
	return violations
}
