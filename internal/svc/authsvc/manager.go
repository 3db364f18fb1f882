package authsvc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/teacherlink/webfront/internal/infra/logging"
	"github.com/teacherlink/webfront/internal/repo/session"
	"github.com/teacherlink/webfront/internal/svc/authsvc/authclient"
)

type managedContext struct {
	auth     *Context
	lastSeen time.Time
}

// Manager owns one Context per session id.
type Manager struct {
	repo   session.Repository
	client authclient.AuthClient
	cfg    AuthConfig
	log    logging.Logger
	now    func() time.Time

	mu       sync.Mutex
	contexts map[string]*managedContext
}

// NewManager creates a Manager using the repository built by repoFactory.
func NewManager(repoFactory session.RepositoryFactory, client authclient.AuthClient, cfg AuthConfig) (*Manager, error) {
	repo, err := repoFactory()
	if err != nil {
		return nil, fmt.Errorf("new session repo: %w", err)
	}

	return &Manager{
		repo:     repo,
		client:   client,
		cfg:      cfg,
		log:      logging.GetLogger("svc.authsvc.manager"),
		now:      time.Now,
		contexts: make(map[string]*managedContext),
	}, nil
}

// Get returns the Context of session sid, creating it on first use.
// A new context is hydrated in the background; Get waits up to HydrateWait
// for it to settle, so the returned context may still be loading.
// A context that settles logged out is not retained.
func (m *Manager) Get(ctx context.Context, sid string) *Context {
	m.mu.Lock()

	entry, ok := m.contexts[sid]
	if !ok {
		entry = &managedContext{
			auth: NewContext(session.NewCache(m.repo, sid), m.client, m.cfg),
		}
		m.contexts[sid] = entry
	}

	entry.lastSeen = m.now()
	auth := entry.auth
	m.mu.Unlock()

	if !ok {
		hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.HydrateTimeout)

		go func() {
			defer cancel()

			auth.Hydrate(hctx)
		}()
	}

	if m.cfg.HydrateWait > 0 {
		wctx, cancel := context.WithTimeout(ctx, m.cfg.HydrateWait)
		defer cancel()

		auth.Wait(wctx)
	}

	if anonymous(auth) {
		m.release(sid, entry)
	}

	return auth
}

// Fresh returns a logged out Context for a session id nobody has used yet.
// Nothing is read from the repository and the context is not retained until Keep.
func (m *Manager) Fresh(sid string) *Context {
	auth := NewContext(session.NewCache(m.repo, sid), m.client, m.cfg)
	auth.hydrateOnce.Do(func() { auth.settle(nil) })

	return auth
}

// Keep retains auth under its session id, replacing whatever was held before.
func (m *Manager) Keep(auth *Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.contexts[auth.SessionID()] = &managedContext{auth: auth, lastSeen: m.now()}
}

// Forget drops the persisted entries and the in-memory context of session sid.
func (m *Manager) Forget(ctx context.Context, sid string) error {
	m.mu.Lock()
	delete(m.contexts, sid)
	m.mu.Unlock()

	if err := m.repo.Purge(ctx, sid); err != nil {
		return fmt.Errorf("purge session: %w", err)
	}

	return nil
}

func (m *Manager) release(sid string, entry *managedContext) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.contexts[sid] == entry {
		delete(m.contexts, sid)
	}
}

func anonymous(auth *Context) bool {
	state := auth.State()

	return !state.Loading && state.User == nil
}

// Len returns the number of sessions held in memory.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.contexts)
}

// Sweep drops contexts not used for IdleTTL and contexts that settled logged out.
// Contexts still loading are kept. Persisted entries stay, so a returning browser
// hydrates again.
func (m *Manager) Sweep() int {
	if m.cfg.IdleTTL <= 0 {
		return 0
	}

	cutoff := m.now().Add(-m.cfg.IdleTTL)
	swept := 0

	m.mu.Lock()
	defer m.mu.Unlock()

	for sid, entry := range m.contexts {
		state := entry.auth.State()
		if state.Loading || (entry.lastSeen.After(cutoff) && state.User != nil) {
			continue
		}

		delete(m.contexts, sid)
		swept++
	}

	return swept
}

// Run sweeps idle contexts every SweepInterval until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	if m.cfg.SweepInterval <= 0 {
		return
	}

	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if swept := m.Sweep(); swept > 0 {
				m.log.DebugContext(ctx, "idle sessions swept", "count", swept, "remaining", m.Len())
			}
		}
	}
}

// Close releases the session repository.
func (m *Manager) Close() error {
	if err := m.repo.Close(); err != nil {
		return fmt.Errorf("close session repo: %w", err)
	}

	return nil
}
