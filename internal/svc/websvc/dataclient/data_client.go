package dataclient

import (
	"context"

	"github.com/teacherlink/webfront/internal/domain"
)

// DataClient fetches the data pages render and submits their forms.
type DataClient interface {
	// Fetch returns the decoded JSON document of a backend resource.
	Fetch(ctx context.Context, resource, token string) (any, error)

	// UpdateProfile stores a profile change and returns the updated user.
	UpdateProfile(ctx context.Context, token string, update domain.ProfileUpdate) (domain.User, error)
}
