package ratelimit

import (
	"fmt"
	"time"
)

// Names of the built-in policies.
const (
	PolicyLogin         = "login"
	PolicyRegister      = "register"
	PolicyPasswordReset = "passwordReset"
	PolicyAPI           = "api"
)

// Policy is an attempt budget: at most MaxAttempts hits per Window.
type Policy struct {
	Name        string
	MaxAttempts int
	Window      time.Duration
}

// Validate checks that the policy is usable.
func (p Policy) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("ratelimit: policy name is required")
	}
	if p.MaxAttempts <= 0 {
		return fmt.Errorf("ratelimit: %s: max_attempts must be > 0", p.Name)
	}
	if p.Window <= 0 {
		return fmt.Errorf("ratelimit: %s: window must be > 0", p.Name)
	}
	return nil
}

// DefaultPolicies returns the built-in budgets keyed by name.
func DefaultPolicies() map[string]Policy {
	return map[string]Policy{
		PolicyLogin:         {Name: PolicyLogin, MaxAttempts: 5, Window: 15 * time.Minute},
		PolicyRegister:      {Name: PolicyRegister, MaxAttempts: 3, Window: time.Hour},
		PolicyPasswordReset: {Name: PolicyPasswordReset, MaxAttempts: 3, Window: time.Hour},
		PolicyAPI:           {Name: PolicyAPI, MaxAttempts: 100, Window: 15 * time.Minute},
	}
}
