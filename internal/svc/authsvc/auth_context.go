package authsvc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/teacherlink/webfront/internal/domain"
	"github.com/teacherlink/webfront/internal/infra/logging"
	"github.com/teacherlink/webfront/internal/repo/session"
	"github.com/teacherlink/webfront/internal/svc/authsvc/authclient"
)

// Context is the single source of truth for who is logged in within one session.
// It starts out loading, settles exactly once, and afterwards changes only
// through Login, Refresh and Logout.
type Context struct {
	cache  *session.Cache
	client authclient.AuthClient
	cfg    AuthConfig
	log    logging.Logger
	now    func() time.Time

	mu      sync.RWMutex
	user    *domain.User
	loading bool
	// set by Login, Refresh and Logout; hydration stops writing the cache once set
	taken bool

	hydrateOnce sync.Once
	settleOnce  sync.Once
	settled     chan struct{}
}

// NewContext creates a Context bound to the session cache.
// client is only consulted when cfg.VerifyToken is set and may be nil otherwise.
func NewContext(cache *session.Cache, client authclient.AuthClient, cfg AuthConfig) *Context {
	return &Context{
		cache:   cache,
		client:  client,
		cfg:     cfg,
		log:     logging.GetLogger("svc.authsvc.auth_context"),
		now:     time.Now,
		loading: true,
		settled: make(chan struct{}),
	}
}

// SessionID returns the id of the session the context belongs to.
func (c *Context) SessionID() string {
	return c.cache.SessionID()
}

// State returns a snapshot of the current auth state.
func (c *Context) State() domain.AuthState {
	c.mu.RLock()
	defer c.mu.RUnlock()

	state := domain.AuthState{Loading: c.loading}

	if c.user != nil {
		user := *c.user
		state.User = &user
	}

	return state
}

// Token returns the bearer token of the current user, if any.
func (c *Context) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.user == nil {
		return ""
	}

	return c.user.AuthToken
}

// Wait blocks until the context has settled or ctx is done.
// Reports whether the context settled.
func (c *Context) Wait(ctx context.Context) bool {
	select {
	case <-c.settled:
		return true
	case <-ctx.Done():
		return false
	}
}

// settle ends the loading phase with user unless a login got there first.
func (c *Context) settle(user *domain.User) {
	c.mu.Lock()
	if c.loading {
		c.user = user
		c.loading = false
	}
	c.mu.Unlock()

	c.settleOnce.Do(func() { close(c.settled) })
}

// Hydrate restores the session from the cache. Only the first call does any work;
// later calls return immediately. Failures are logged and settle to logged out.
func (c *Context) Hydrate(ctx context.Context) {
	c.hydrateOnce.Do(func() {
		user := c.hydrate(ctx)
		c.settle(user)

		c.log.DebugContext(ctx, "session hydrated", "authenticated", user != nil)
	})
}

func (c *Context) hydrate(ctx context.Context) *domain.User {
	var user domain.User
	if !c.cache.Get(ctx, session.KeyUser, &user) {
		return nil
	}

	if err := user.Validate(); err != nil {
		c.log.WarnContext(ctx, "cached user rejected", "error", err)

		return nil
	}

	var token string
	if !c.cache.Get(ctx, session.KeyToken, &token) {
		token = ""
	}

	if token != "" && TokenExpired(token, c.now()) {
		c.log.InfoContext(ctx, "cached token expired")
		c.unlessTaken(ctx, func() { c.forget(ctx) })

		return nil
	}

	if !c.cfg.VerifyToken || c.client == nil {
		if token != "" {
			user.AuthToken = token
		}

		return &user
	}

	if token == "" {
		c.log.InfoContext(ctx, "cached user has no token")
		c.unlessTaken(ctx, func() { c.forget(ctx) })

		return nil
	}

	verified, ok, err := c.client.Validate(ctx, token)
	if err != nil {
		// keep the entries: the backend may be back on the next session
		c.log.WarnContext(ctx, "verify token failed", "error", err)

		return nil
	}

	if !ok {
		c.log.InfoContext(ctx, "cached token rejected")
		c.unlessTaken(ctx, func() { c.forget(ctx) })

		return nil
	}

	verified.AuthToken = token

	c.unlessTaken(ctx, func() {
		if err := c.cache.Set(ctx, session.KeyUser, verified); err != nil {
			c.log.WarnContext(ctx, "store verified user failed", "error", err)
		}
	})

	return verified
}

// unlessTaken runs fn under c.mu unless Login, Refresh or Logout already changed
// the session. Holding the lock orders fn before the cache writes of a later call.
func (c *Context) unlessTaken(ctx context.Context, fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.taken {
		c.log.DebugContext(ctx, "session changed during hydration, cache left alone")

		return
	}

	fn()
}

func (c *Context) forget(ctx context.Context) {
	for _, key := range []string{session.KeyUser, session.KeyToken} {
		if err := c.cache.Clear(ctx, key); err != nil {
			c.log.WarnContext(ctx, "clear session entry failed", "key", key, "error", err)
		}
	}
}

// Login makes user the current user and persists user and token.
// The in-memory state is updated even when persisting fails; the error is returned
// so the caller can tell the session will not survive a restart.
func (c *Context) Login(ctx context.Context, user domain.User, token string) (err error) {
	log := c.log.With(logging.Group("user", "id", user.ID, "user_type", user.UserType))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "login failed", "error", err)
		} else {
			log.DebugContext(ctx, "logged in")
		}
	}()

	if err := user.Validate(); err != nil {
		return err
	}

	if token == "" {
		token = user.AuthToken
	}

	user.AuthToken = token

	c.mu.Lock()
	c.user = &user
	c.loading = false
	c.taken = true
	c.mu.Unlock()

	c.settleOnce.Do(func() { close(c.settled) })

	var errs []error

	if err := c.cache.Set(ctx, session.KeyUser, user); err != nil {
		errs = append(errs, fmt.Errorf("store user: %w", err))
	}

	if err := c.cache.Set(ctx, session.KeyToken, token); err != nil {
		errs = append(errs, fmt.Errorf("store token: %w", err))
	}

	return errors.Join(errs...)
}

// Refresh replaces the current user after a profile change. The token is kept.
// Returns domain.ErrUnauthorized when nobody is logged in.
func (c *Context) Refresh(ctx context.Context, user domain.User) (err error) {
	defer func() {
		if err != nil {
			c.log.ErrorContext(ctx, "refresh user failed", "error", err)
		}
	}()

	if err := user.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	if c.user == nil {
		c.mu.Unlock()

		return domain.ErrUnauthorized
	}

	user.AuthToken = c.user.AuthToken
	c.user = &user
	c.taken = true
	c.mu.Unlock()

	if err := c.cache.Set(ctx, session.KeyUser, user); err != nil {
		return fmt.Errorf("store user: %w", err)
	}

	return nil
}

// Logout drops the current user and removes the persisted user and token.
func (c *Context) Logout(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			c.log.ErrorContext(ctx, "logout failed", "error", err)
		} else {
			c.log.DebugContext(ctx, "logged out")
		}
	}()

	c.mu.Lock()
	c.user = nil
	c.loading = false
	c.taken = true
	c.mu.Unlock()

	c.settleOnce.Do(func() { close(c.settled) })

	var errs []error

	for _, key := range []string{session.KeyUser, session.KeyToken} {
		if err := c.cache.Clear(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("clear %s: %w", key, err))
		}
	}

	return errors.Join(errs...)
}
