package authsvc

import "time"

// AuthConfig contains configuration parameters for session authentication.
type AuthConfig struct {
	// VerifyToken makes hydration confirm the cached token with the backend
	VerifyToken bool `env:"VERIFY_TOKEN" default:"false"`

	// HydrateWait is how long a request waits for a new session to settle
	// before it is answered with the loading placeholder
	HydrateWait time.Duration `env:"HYDRATE_WAIT" default:"2s"`

	// HydrateTimeout bounds the hydration itself, including the backend call
	HydrateTimeout time.Duration `env:"HYDRATE_TIMEOUT" default:"10s"`

	// IdleTTL is how long an untouched session context stays in memory
	IdleTTL time.Duration `env:"IDLE_TTL" default:"24h"`

	// SweepInterval is how often idle session contexts are dropped
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" default:"10m"`
}
