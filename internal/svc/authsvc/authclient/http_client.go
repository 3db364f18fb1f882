package authclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/teacherlink/webfront/internal/domain"
	"github.com/teacherlink/webfront/internal/infra/logging"
	http_ "github.com/teacherlink/webfront/internal/infra/transport/http"
)

const (
	loginPath         = "/api/auth/login"
	registerPath      = "/api/auth/register"
	mePath            = "/api/auth/me"
	passwordResetPath = "/api/auth/forget-password"
)

// HTTPClientConfig holds configuration for the HTTP auth client.
type HTTPClientConfig struct {
	http_.JSONClientConfig
}

// HTTPClient implements AuthClient against the backend's REST endpoints.
type HTTPClient struct {
	client *http_.JSONClient
	log    logging.Logger
}

var _ AuthClient = (*HTTPClient)(nil)

// NewHTTPClient creates a new HTTPClient with the given configuration.
// If httpClient is nil, a client with the configured timeout is used.
func NewHTTPClient(cfg HTTPClientConfig, httpClient *http.Client) (*HTTPClient, error) {
	client, err := http_.NewJSONClient(cfg.JSONClientConfig, httpClient)
	if err != nil {
		return nil, fmt.Errorf("new json client: %w", err)
	}

	return &HTTPClient{
		client: client,
		log:    logging.GetLogger("svc.authsvc.authclient.http_client"),
	}, nil
}

// unavailable marks transport failures and backend faults.
func unavailable(err error) error {
	if errors.Is(err, http_.ErrRequestFailed) || http_.StatusCode(err) >= http.StatusInternalServerError {
		return errors.Join(domain.ErrBackendUnavailable, err)
	}

	return err
}

// Validate implements AuthClient.Validate. A 401 or 403 means the token is not valid;
// anything else that is not a 200 is an error.
func (c *HTTPClient) Validate(ctx context.Context, token string) (*domain.User, bool, error) {
	if token == "" {
		return nil, false, domain.ErrNoAuthToken
	}

	var resp domain.MeResponse

	err := c.client.Do(ctx, http.MethodGet, mePath, token, nil, &resp)
	if err != nil {
		switch http_.StatusCode(err) {
		case http.StatusUnauthorized, http.StatusForbidden:
			c.log.DebugContext(ctx, "token rejected by backend")

			return nil, false, nil
		}

		return nil, false, fmt.Errorf("validate token: %w", unavailable(err))
	}

	if err := resp.User.Validate(); err != nil {
		return nil, false, fmt.Errorf("validate token: %w", err)
	}

	return &resp.User, true, nil
}

func (c *HTTPClient) authenticate(ctx context.Context, path string, in any) (domain.AuthResponse, error) {
	var resp domain.AuthResponse

	if err := c.client.Do(ctx, http.MethodPost, path, "", in, &resp); err != nil {
		switch http_.StatusCode(err) {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			return domain.AuthResponse{}, errors.Join(domain.ErrInvalidCredentials, err)
		case http.StatusConflict:
			return domain.AuthResponse{}, errors.Join(domain.ErrUserAlreadyExists, err)
		}

		return domain.AuthResponse{}, unavailable(err)
	}

	if resp.Token == "" {
		return domain.AuthResponse{}, domain.ErrNoAuthToken
	}

	if err := resp.User.Validate(); err != nil {
		return domain.AuthResponse{}, err
	}

	resp.User.AuthToken = resp.Token

	return resp, nil
}

// Login implements AuthClient.Login.
func (c *HTTPClient) Login(ctx context.Context, creds domain.Credentials) (domain.AuthResponse, error) {
	resp, err := c.authenticate(ctx, loginPath, creds)
	if err != nil {
		return domain.AuthResponse{}, fmt.Errorf("login: %w", err)
	}

	return resp, nil
}

// Register implements AuthClient.Register.
func (c *HTTPClient) Register(ctx context.Context, reg domain.Registration) (domain.AuthResponse, error) {
	resp, err := c.authenticate(ctx, registerPath, reg)
	if err != nil {
		return domain.AuthResponse{}, fmt.Errorf("register: %w", err)
	}

	return resp, nil
}

// RequestPasswordReset implements AuthClient.RequestPasswordReset.
func (c *HTTPClient) RequestPasswordReset(ctx context.Context, req domain.PasswordReset) error {
	if err := c.client.Do(ctx, http.MethodPost, passwordResetPath, "", req, nil); err != nil {
		return fmt.Errorf("request password reset: %w", unavailable(err))
	}

	return nil
}
