package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/teacherlink/webfront/internal/infra/logging"
)

// Cache is the key/value store of one browser session. Values are JSON encoded.
// Reads fail soft: a missing, unreadable or corrupt entry reads as absent.
// Freshness is the caller's business.
type Cache struct {
	repo Repository
	sid  string
	log  logging.Logger
}

// NewCache binds repo to session sid.
func NewCache(repo Repository, sid string) *Cache {
	return &Cache{
		repo: repo,
		sid:  sid,
		log:  logging.GetLogger("repo.session.cache"),
	}
}

// SessionID returns the session the cache is bound to.
func (c *Cache) SessionID() string {
	return c.sid
}

func (c *Cache) raw(ctx context.Context, key string) ([]byte, bool) {
	value, ok, err := c.repo.Get(ctx, c.sid, key)
	if err != nil {
		c.log.WarnContext(ctx, "read session entry failed", "key", key, "error", err)

		return nil, false
	}

	if !ok || len(value) == 0 || bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
		return nil, false
	}

	return value, true
}

// Get decodes the entry stored under key into v and reports whether it did.
// v is only written to when decoding succeeds.
func (c *Cache) Get(ctx context.Context, key string, v any) bool {
	value, ok := c.raw(ctx, key)
	if !ok {
		return false
	}

	target := reflect.ValueOf(v)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return false
	}

	// decode into a scratch value so a half-decoded v is never observed
	scratch := reflect.New(target.Elem().Type())
	if err := json.Unmarshal(value, scratch.Interface()); err != nil {
		c.log.WarnContext(ctx, "corrupt session entry", "key", key, "error", err)

		return false
	}

	target.Elem().Set(scratch.Elem())

	return true
}

// GetProperty returns one field of the object stored under key.
func (c *Cache) GetProperty(ctx context.Context, key, prop string) (any, bool) {
	var object map[string]any
	if !c.Get(ctx, key, &object) {
		return nil, false
	}

	value, ok := object[prop]
	if !ok || value == nil {
		return nil, false
	}

	return value, true
}

// Set stores v under key.
func (c *Cache) Set(ctx context.Context, key string, v any) error {
	value, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	if err := c.repo.Set(ctx, c.sid, key, value); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}

	return nil
}

// Clear removes the entry stored under key.
func (c *Cache) Clear(ctx context.Context, key string) error {
	if err := c.repo.Delete(ctx, c.sid, key); err != nil {
		return fmt.Errorf("clear %s: %w", key, err)
	}

	return nil
}
