package account

import (
	"sync"

	"github.com/kbukum/careerauth/validation"
)

// SecurityQuestions is the fixed set of recovery questions an account may use.
var SecurityQuestions = []string{
	"Favorite movie",
	"Name of your first pet",
	"City you were born in",
	"Name of your elementary school",
	"Mother's maiden name",
	"Make of your first car",
}

// IsSecurityQuestion reports whether q is one of SecurityQuestions.
func IsSecurityQuestion(q string) bool {
	for _, s := range SecurityQuestions {
		if s == q {
			return true
		}
	}
	return false
}

var registerRules sync.Once

// RegisterValidationRules installs the "securityquestion" struct tag.
// NewService calls it; it is safe to call more than once.
func RegisterValidationRules() {
	registerRules.Do(func() {
		_ = validation.RegisterRule("securityquestion", IsSecurityQuestion,
			"must be one of the supported security questions")
	})
}
