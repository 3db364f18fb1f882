package authclient

import (
	"context"

	"github.com/teacherlink/webfront/internal/domain"
)

// AuthClient is the web front's view of the backend's auth endpoints.
type AuthClient interface {
	// Validate checks token with the backend.
	// Returns the user the token belongs to, whether the token is valid,
	// and any error encountered while asking.
	Validate(ctx context.Context, token string) (*domain.User, bool, error)

	// Login exchanges credentials for a user record and token.
	Login(ctx context.Context, creds domain.Credentials) (domain.AuthResponse, error)

	// Register creates an account and returns it logged in.
	Register(ctx context.Context, reg domain.Registration) (domain.AuthResponse, error)

	// RequestPasswordReset asks the backend to mail a reset link.
	RequestPasswordReset(ctx context.Context, req domain.PasswordReset) error
}
