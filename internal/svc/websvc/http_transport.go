package websvc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/teacherlink/webfront/internal/domain"
	"github.com/teacherlink/webfront/internal/infra/logging"
	http_ "github.com/teacherlink/webfront/internal/infra/transport/http"
	"github.com/teacherlink/webfront/internal/svc/authsvc/authclient"
	"github.com/teacherlink/webfront/internal/svc/websvc/dataclient"
	"github.com/teacherlink/webfront/internal/util/protect"
)

// HTTPTransportConfig contains configuration parameters for the web front.
type HTTPTransportConfig struct {
	http_.HTTPTransportConfig

	// CookieName is the name of the session cookie
	CookieName   string        `env:"COOKIE_NAME" default:"tl_sid"`
	CookieSecure bool          `env:"COOKIE_SECURE" default:"false"`
	CookieMaxAge time.Duration `env:"COOKIE_MAX_AGE" default:"720h"` // 30d

	// ProtectPages serves and references the copy deterrent script
	ProtectPages bool `env:"PROTECT_PAGES" default:"false"`

	// CORSOrigins may read /api/session from the browser
	CORSOrigins []string `env:"CORS_ORIGINS" default:""`

	// ChatURL is the backend's chat WebSocket, handed to the messages pages
	ChatURL string `env:"CHAT_URL" default:""`
}

// HTTPTransport serves the navigational surface of the web front.
type HTTPTransport struct {
	sessions SessionStore
	auth     authclient.AuthClient
	data     dataclient.DataClient
	cfg      HTTPTransportConfig
	log      logging.Logger
	router   chi.Router
	script   []byte
}

var (
	_ http_.HTTPTransport = (*HTTPTransport)(nil)
	_ http_.Fallback      = (*HTTPTransport)(nil)
)

// NewHTTPTransport creates the web front's HTTP transport and its route table.
func NewHTTPTransport(
	sessions SessionStore,
	auth authclient.AuthClient,
	data dataclient.DataClient,
	cfg HTTPTransportConfig,
) (*HTTPTransport, error) {
	ht := &HTTPTransport{
		sessions: sessions,
		auth:     auth,
		data:     data,
		cfg:      cfg,
		log:      logging.GetLogger("svc.websvc.http_transport"),
	}

	if cfg.ProtectPages {
		script, err := protect.Script()
		if err != nil {
			return nil, fmt.Errorf("render protect script: %w", err)
		}

		ht.script = script
	}

	ht.router = ht.routes()

	return ht, nil
}

// ServeHTTP implements http.Handler.
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ht.router.ServeHTTP(w, r)
}

func (ht *HTTPTransport) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(ht.sessionMiddleware)
	r.NotFound(ht.HandleNotFound)

	if ht.cfg.ProtectPages {
		r.Get("/assets/protect.js", ht.HandleProtectScript)
	}

	r.Group(func(r chi.Router) {
		r.Use(http_.CORSMiddleware(ht.cfg.CORSOrigins))
		r.Get("/api/session", ht.HandleSession)
		r.Options("/api/session", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	})

	r.Get(PathRoot, ht.HandleRoot)

	public, groups := Routes()
	for _, route := range public {
		r.Get(route.Path, ht.pageHandler(route, route.Path))
	}

	r.Post(PathLogin, ht.HandleLogin)
	r.Post("/register", ht.HandleRegister)
	r.Post("/forget-password", ht.HandleForgetPassword)
	r.Post("/logout", ht.HandleLogout)

	for _, group := range groups {
		r.Route(group.Prefix, func(r chi.Router) {
			r.Use(ht.guard(group.Category))

			for _, route := range group.Routes {
				path := group.Prefix + route.Path
				r.Get(route.Path, ht.pageHandler(route, path))

				if route.Page == pageProfile {
					r.Post(route.Path, ht.profileHandler(route, path))
				}
			}
		})
	}

	return r
}

func (ht *HTTPTransport) requestLog(r *http.Request) logging.Logger {
	return ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))
}

func (ht *HTTPTransport) pageData(r *http.Request, title, path string) PageData {
	data := PageData{
		Title:   title,
		Path:    path,
		Protect: ht.cfg.ProtectPages,
	}

	if auth, ok := authFromContext(r.Context()); ok {
		data.User = auth.State().User
		data.Menu = Menu(data.User)
	}

	return data
}

// render writes page with status. On failure nothing has been written yet,
// so the caller can still fall back.
func (ht *HTTPTransport) render(w http.ResponseWriter, status int, page *Page, data PageData) error {
	body, err := page.Execute(data)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)

	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("write page: %w", err)
	}

	return nil
}

func (ht *HTTPTransport) renderOrFallback(w http.ResponseWriter, r *http.Request, status int, page *Page, data PageData) {
	if err := ht.render(w, status, page, data); err != nil {
		ht.requestLog(r).ErrorContext(r.Context(), "render failed", "page", page.Name(), "error", err)
		ht.ServeFallback(w, r)
	}
}

func (ht *HTTPTransport) renderLoading(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Refresh", "1")
	ht.renderOrFallback(w, r, http.StatusOK, pageLoading, ht.pageData(r, "Loading", r.URL.Path))
}

// ServeFallback renders the recovery page. It implements http_.Fallback.
func (ht *HTTPTransport) ServeFallback(w http.ResponseWriter, r *http.Request) {
	data := PageData{Title: "Something went wrong", Path: r.URL.Path}

	if err := ht.render(w, http.StatusInternalServerError, pageFallback, data); err != nil {
		ht.log.ErrorContext(r.Context(), "render fallback failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// HandleNotFound renders the not-found page.
func (ht *HTTPTransport) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	ht.renderOrFallback(w, r, http.StatusNotFound, pageNotFound, ht.pageData(r, "Page not found", r.URL.Path))
}

// HandleRoot sends the browser to its landing page.
func (ht *HTTPTransport) HandleRoot(w http.ResponseWriter, r *http.Request) {
	auth, ok := authFromContext(r.Context())
	if !ok {
		ht.ServeFallback(w, r)

		return
	}

	state := auth.State()
	if state.Loading {
		ht.renderLoading(w, r)

		return
	}

	http.Redirect(w, r, Landing(state.User), http.StatusFound)
}

func (ht *HTTPTransport) pageHandler(route Route, path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = ht.handlePage(w, r, route, path)
	}
}

func (ht *HTTPTransport) handlePage(w http.ResponseWriter, r *http.Request, route Route, path string) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "page failed", "page", route.Page.Name(), "error", err)
			ht.ServeFallback(w, r)
		}
	}(r.Context())

	data := ht.pageData(r, route.Title, path)

	if next, ok := SafeNext(r.URL.Query().Get(NextParam)); ok {
		data.Next = next
	}

	if r.URL.Query().Has("saved") {
		data.Notice = "Your changes have been saved."
	}

	ht.loadPageData(r, route, &data)

	return ht.render(w, http.StatusOK, route.Page, data)
}

// loadPageData fetches the route's resource. A failure only affects this page.
func (ht *HTTPTransport) loadPageData(r *http.Request, route Route, data *PageData) {
	if route.Page == pageMessages {
		data.ChatURL = ht.cfg.ChatURL
	}

	if route.Resource == "" {
		return
	}

	var token string
	if auth, ok := authFromContext(r.Context()); ok {
		token = auth.Token()
	}

	doc, err := ht.data.Fetch(r.Context(), route.Resource, token)
	if err != nil {
		data.Error = errorMessage(err)

		return
	}

	data.Data = doc
}

// HandleSession returns the session's auth state as JSON for browser scripts.
// The bearer token is never included.
func (ht *HTTPTransport) HandleSession(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleSession(w, r)
}

func (ht *HTTPTransport) handleSession(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "session state failed", "error", err)
		}
	}(r.Context())

	auth, ok := authFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return domain.ErrUnauthorized
	}

	state := auth.State()
	if state.User != nil {
		state.User.AuthToken = ""
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	if err := json.NewEncoder(w).Encode(state); err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}

	return nil
}

// HandleProtectScript serves the copy deterrent.
func (ht *HTTPTransport) HandleProtectScript(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", protect.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(ht.script)
}
