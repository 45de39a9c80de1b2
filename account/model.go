package account

import "time"

// Account is a credential record with its profile attributes in plaintext.
// The repository encrypts Name and Phone at rest.
type Account struct {
	ID                 string
	Email              string
	PasswordHash       string
	SecurityQuestion   string
	SecurityAnswerHash string
	Name               string
	Phone              string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	PasswordChangedAt  *time.Time
}

// View is the public representation of an account. It never carries the
// password or answer hashes.
type View struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name,omitempty"`
	Phone            string    `json:"phone,omitempty"`
	SecurityQuestion string    `json:"securityQuestion"`
	CreatedAt        time.Time `json:"createdAt"`
}

// View returns the public representation of a.
func (a *Account) View() View {
	return View{
		ID:               a.ID,
		Email:            a.Email,
		Name:             a.Name,
		Phone:            a.Phone,
		SecurityQuestion: a.SecurityQuestion,
		CreatedAt:        a.CreatedAt,
	}
}

// RegisterInput is the registration request.
type RegisterInput struct {
	Email            string `json:"email" validate:"required,email,max=255"`
	Password         string `json:"password" validate:"required,max=128"`
	SecurityQuestion string `json:"securityQuestion" validate:"required,securityquestion"`
	SecurityAnswer   string `json:"securityAnswer" validate:"required,max=255"`
	Name             string `json:"name,omitempty" validate:"omitempty,max=100"`
	Phone            string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

// AuthResult is returned by flows that authenticate the caller.
// SessionCookie is empty when no session was established.
type AuthResult struct {
	Account       View
	Token         string
	SessionCookie string
}

// Recovery is the public half of an account returned by FindAccount.
type Recovery struct {
	Email            string `json:"email"`
	SecurityQuestion string `json:"securityQuestion"`
}

// ResetGrant is issued when a security answer is verified.
type ResetGrant struct {
	ResetToken string `json:"resetToken"`
	// ExpiresIn is the token lifetime in seconds.
	ExpiresIn int `json:"expiresIn"`
}
