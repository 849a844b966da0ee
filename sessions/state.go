package sessions

import (
	"net/mail"
	"strings"

	apperrors "github.com/jrsteele09/go-storefront/internal/errors"
	"github.com/jrsteele09/go-storefront/users"
)

// State is an immutable snapshot of the client's authentication state.
// Authenticated is true exactly when User is non nil.
type State struct {
	User          *users.User `json:"user"`
	Authenticated bool        `json:"authenticated"`
	Loading       bool        `json:"loading"`
	Error         string      `json:"error,omitempty"`
}

func (s State) clone() State {
	s.User = s.User.Clone()
	return s
}

func anonymous(errMsg string) State {
	return State{Error: errMsg}
}

func authenticated(u *users.User) State {
	return State{User: u.Clone(), Authenticated: true}
}

// TokenPair is the opaque credential pair issued by the backend
type TokenPair struct {
	AccessToken  string `json:"access"`
	RefreshToken string `json:"refresh"`
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is a new customer account
type Registration struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

const minPasswordLength = 6

// Validate checks the fields the backend would reject, so obvious mistakes
// are reported without a round trip. The error is a validation BackendError.
func (r Registration) Validate() error {
	fields := map[string][]string{}
	if strings.TrimSpace(r.Username) == "" {
		fields["username"] = append(fields["username"], "username is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		fields["email"] = append(fields["email"], "enter a valid email address")
	}
	if len(r.Password) < minPasswordLength {
		fields["password"] = append(fields["password"], "password must be at least 6 characters")
	}
	if r.Password2 != "" && r.Password2 != r.Password {
		fields["password2"] = append(fields["password2"], "passwords do not match")
	}
	if len(fields) == 0 {
		return nil
	}
	return &apperrors.BackendError{Kind: apperrors.ErrValidation, Fields: fields}
}

// Result is what Login and Register report to their caller
type Result struct {
	Success bool
	User    *users.User
	Error   string
}
