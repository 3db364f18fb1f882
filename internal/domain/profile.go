package domain

import (
	"errors"
	"net/mail"
	"strings"
)

// ErrInvalidProfile is returned when a profile update is missing required fields.
var ErrInvalidProfile = errors.New("invalid profile")

// ProfileUpdate carries the account fields a user may change from the profile page.
// Page specific fields travel in Fields and are passed through to the backend as is.
type ProfileUpdate struct {
	Name   string            `json:"name"`
	Email  string            `json:"email"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Validate checks the fields the session depends on.
func (p ProfileUpdate) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.Join(ErrInvalidProfile, errors.New("missing name"))
	}

	if _, err := mail.ParseAddress(p.Email); err != nil {
		return errors.Join(ErrInvalidProfile, err)
	}

	return nil
}
