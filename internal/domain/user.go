package domain

import (
	"errors"
	"strings"
)

var (
	// ErrUserAlreadyExists is returned when registering an email the backend already knows.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrInvalidCredentials is returned when the email/password combination is rejected.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidUser is returned when a user record lacks the fields a session needs.
	ErrInvalidUser = errors.New("invalid user record")
)

// UserType is the role classification the backend assigns to an account.
type UserType string

const (
	UserTypeEmployer  UserType = "Employer"
	UserTypeCandidate UserType = "Candidate"
	UserTypeTeacher   UserType = "Teacher"
)

// User is the record of the account that is logged in to a session.
// A copy is persisted in the session cache so a reload survives.
type User struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	UserType  UserType `json:"user_type"`
	AuthToken string   `json:"auth_token,omitempty"`
}

// Validate reports whether the record can back a session.
func (u *User) Validate() error {
	if u == nil {
		return ErrInvalidUser
	}

	if strings.TrimSpace(string(u.UserType)) == "" {
		return errors.Join(ErrInvalidUser, errors.New("missing user_type"))
	}

	return nil
}

// IsEmployer reports whether the user belongs to an institution.
// Everything else is treated as a job seeker by the sidebar menu.
func (u *User) IsEmployer() bool {
	return u != nil && u.UserType == UserTypeEmployer
}
