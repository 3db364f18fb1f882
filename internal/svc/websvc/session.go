package websvc

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/teacherlink/webfront/internal/domain"
	context_ "github.com/teacherlink/webfront/internal/infra/context"
	"github.com/teacherlink/webfront/internal/svc/authsvc"
	"github.com/teacherlink/webfront/internal/util/encoding"
)

const sessionIDBytes = 16

// SessionStore hands out the auth context of a browser session.
type SessionStore interface {
	// Get returns the context of a session the browser already holds a cookie for.
	Get(ctx context.Context, sid string) *authsvc.Context
	// Fresh returns a logged out context for a new session id without retaining it.
	Fresh(sid string) *authsvc.Context
	// Keep retains a context obtained from Fresh.
	Keep(auth *authsvc.Context)
	// Forget drops a session and its persisted entries.
	Forget(ctx context.Context, sid string) error
}

var _ SessionStore = (*authsvc.Manager)(nil)

type authContextKey struct{}

func withAuth(ctx context.Context, auth *authsvc.Context) context.Context {
	return context.WithValue(ctx, authContextKey{}, auth)
}

func authFromContext(ctx context.Context) (*authsvc.Context, bool) {
	auth, ok := ctx.Value(authContextKey{}).(*authsvc.Context)

	return auth, ok && auth != nil
}

func newSessionID() string {
	id := uuid.New()

	return encoding.EncodeID(id[:])
}

func (ht *HTTPTransport) sessionCookie(sid string) *http.Cookie {
	return &http.Cookie{ //nolint:exhaustruct
		Name:     ht.cfg.CookieName,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   ht.cfg.CookieSecure,
		MaxAge:   int(ht.cfg.CookieMaxAge.Seconds()),
	}
}

// sessionMiddleware binds the request to its browser session, issuing a cookie
// for new browsers, and puts the session's auth context into the request context.
func (ht *HTTPTransport) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			sid  string
			auth *authsvc.Context
		)

		if cookie, err := r.Cookie(ht.cfg.CookieName); err == nil && encoding.ValidID(cookie.Value, sessionIDBytes) {
			sid = cookie.Value
			auth = ht.sessions.Get(context_.WithSessionID(r.Context(), sid), sid)
		} else {
			sid = newSessionID()
			auth = ht.sessions.Fresh(sid)
			http.SetCookie(w, ht.sessionCookie(sid))
		}

		ctx := withAuth(context_.WithSessionID(r.Context(), sid), auth)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// rotateSession drops the request's session and issues a new session id,
// so an id known before a login or logout is worthless after it.
// The returned context is logged out and not retained yet.
func (ht *HTTPTransport) rotateSession(w http.ResponseWriter, r *http.Request) *authsvc.Context {
	if old, ok := authFromContext(r.Context()); ok {
		if err := ht.sessions.Forget(r.Context(), old.SessionID()); err != nil {
			ht.requestLog(r).WarnContext(r.Context(), "forget session failed", "error", err)
		}
	}

	sid := newSessionID()
	http.SetCookie(w, ht.sessionCookie(sid))

	return ht.sessions.Fresh(sid)
}

// guard gates a route group on the session's auth state.
func (ht *HTTPTransport) guard(required domain.Category) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth, ok := authFromContext(r.Context())
			if !ok {
				ht.ServeFallback(w, r)

				return
			}

			decision := Evaluate(auth.State(), required, r.URL.RequestURI())

			switch decision.State {
			case GuardLoading:
				ht.renderLoading(w, r)
			case GuardUnauthenticated, GuardWrongRole:
				ht.log.DebugContext(r.Context(), "navigation redirected",
					"state", decision.State.String(),
					"required", string(required),
					"location", decision.Location,
				)
				http.Redirect(w, r, decision.Location, http.StatusFound)
			case GuardAuthorized:
				next.ServeHTTP(w, r)
			}
		})
	}
}
