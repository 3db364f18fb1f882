package dataclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/teacherlink/webfront/internal/domain"
	"github.com/teacherlink/webfront/internal/infra/logging"
	http_ "github.com/teacherlink/webfront/internal/infra/transport/http"
)

const profilePath = "/api/profile"

// HTTPClientConfig holds configuration for the backend data client.
type HTTPClientConfig struct {
	http_.JSONClientConfig
}

// HTTPClient implements DataClient against the backend's REST endpoints.
type HTTPClient struct {
	client *http_.JSONClient
	log    logging.Logger
}

var _ DataClient = (*HTTPClient)(nil)

// NewHTTPClient creates a new HTTPClient with the given configuration.
func NewHTTPClient(cfg HTTPClientConfig, httpClient *http.Client) (*HTTPClient, error) {
	client, err := http_.NewJSONClient(cfg.JSONClientConfig, httpClient)
	if err != nil {
		return nil, fmt.Errorf("new json client: %w", err)
	}

	return &HTTPClient{
		client: client,
		log:    logging.GetLogger("svc.websvc.dataclient.http_client"),
	}, nil
}

func classify(err error) error {
	switch status := http_.StatusCode(err); {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return errors.Join(domain.ErrUnauthorized, err)
	case status >= http.StatusInternalServerError || errors.Is(err, http_.ErrRequestFailed):
		return errors.Join(domain.ErrBackendUnavailable, err)
	}

	return err
}

// Fetch implements DataClient.Fetch.
func (c *HTTPClient) Fetch(ctx context.Context, resource, token string) (_ any, err error) {
	defer func() {
		if err != nil {
			c.log.WarnContext(ctx, "fetch failed", "resource", resource, "error", err)
		}
	}()

	var doc any

	if err := c.client.Do(ctx, http.MethodGet, resource, token, nil, &doc); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", resource, classify(err))
	}

	return doc, nil
}

// UpdateProfile implements DataClient.UpdateProfile.
func (c *HTTPClient) UpdateProfile(ctx context.Context, token string, update domain.ProfileUpdate) (domain.User, error) {
	if token == "" {
		return domain.User{}, domain.ErrNoAuthToken
	}

	if err := update.Validate(); err != nil {
		return domain.User{}, err
	}

	var resp domain.MeResponse

	if err := c.client.Do(ctx, http.MethodPut, profilePath, token, update, &resp); err != nil {
		return domain.User{}, fmt.Errorf("update profile: %w", classify(err))
	}

	if err := resp.User.Validate(); err != nil {
		return domain.User{}, fmt.Errorf("update profile: %w", err)
	}

	return resp.User, nil
}
