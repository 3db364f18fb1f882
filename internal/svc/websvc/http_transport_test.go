package websvc_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teacherlink/webfront/internal/domain"
	"github.com/teacherlink/webfront/internal/infra/logging"
	http_ "github.com/teacherlink/webfront/internal/infra/transport/http"
	"github.com/teacherlink/webfront/internal/repo/session"
	"github.com/teacherlink/webfront/internal/svc/authsvc"
	"github.com/teacherlink/webfront/internal/svc/websvc"
	"github.com/teacherlink/webfront/internal/util/encoding"
)

const cookieName = "tl_sid"

//nolint:gochecknoglobals
var sid = encoding.EncodeID(bytes.Repeat([]byte{7}, 16))

type fakeAuth struct {
	users map[string]domain.User // by email
}

func (f *fakeAuth) Validate(context.Context, string) (*domain.User, bool, error) {
	return nil, false, nil
}

func (f *fakeAuth) Login(_ context.Context, creds domain.Credentials) (domain.AuthResponse, error) {
	u, ok := f.users[creds.Email]
	if !ok || creds.Password != "secret" {
		return domain.AuthResponse{}, domain.ErrInvalidCredentials
	}

	return domain.AuthResponse{User: u, Token: "tok-" + u.ID}, nil
}

func (f *fakeAuth) Register(_ context.Context, reg domain.Registration) (domain.AuthResponse, error) {
	if _, ok := f.users[reg.Email]; ok {
		return domain.AuthResponse{}, domain.ErrUserAlreadyExists
	}

	u := domain.User{ID: "new", Name: reg.Name, Email: reg.Email, UserType: reg.UserType}

	return domain.AuthResponse{User: u, Token: "tok-new"}, nil
}

func (f *fakeAuth) RequestPasswordReset(_ context.Context, req domain.PasswordReset) error {
	if req.Email == "down@mail.test" {
		return domain.ErrBackendUnavailable
	}

	return nil
}

type fakeData struct {
	mu      sync.Mutex
	tokens  []string
	docs    map[string]any
	failing map[string]error
	panics  map[string]bool
}

func (f *fakeData) Fetch(_ context.Context, resource, token string) (any, error) {
	f.mu.Lock()
	f.tokens = append(f.tokens, token)
	f.mu.Unlock()

	if f.panics[resource] {
		panic("boom: " + resource)
	}

	if err, ok := f.failing[resource]; ok {
		return nil, err
	}

	return f.docs[resource], nil
}

func (f *fakeData) UpdateProfile(_ context.Context, token string, update domain.ProfileUpdate) (domain.User, error) {
	if err := update.Validate(); err != nil {
		return domain.User{}, err
	}

	return domain.User{ID: "2", Name: update.Name, Email: update.Email, UserType: domain.UserTypeTeacher}, nil
}

type fixture struct {
	repo    *session.MemoryRepository
	manager *authsvc.Manager
	data    *fakeData
	handler http.Handler
	sid     string
}

func newFixture(t *testing.T, configure ...func(*websvc.HTTPTransportConfig)) *fixture {
	t.Helper()

	repo := session.NewMemoryRepository()

	manager, err := authsvc.NewManager(
		func() (session.Repository, error) { return repo, nil },
		nil,
		authsvc.AuthConfig{HydrateWait: time.Second, HydrateTimeout: time.Second},
	)
	require.NoError(t, err)

	data := &fakeData{
		docs: map[string]any{
			"/api/jobs":        []any{map[string]any{"title": "Maths teacher", "school": "Green Valley"}},
			"/api/public/jobs": []any{map[string]any{"title": "Art teacher"}},
		},
		failing: map[string]error{"/api/notifications": domain.ErrBackendUnavailable},
		panics:  map[string]bool{"/api/recruiter-actions": true},
	}

	cfg := websvc.HTTPTransportConfig{CookieName: cookieName, CookieMaxAge: time.Hour, ChatURL: "wss://chat.teacherlink.test/ws"}
	for _, c := range configure {
		c(&cfg)
	}

	transport, err := websvc.NewHTTPTransport(manager, &fakeAuth{users: map[string]domain.User{
		"school@mail.test":  {ID: "1", Name: "Green Valley", Email: "school@mail.test", UserType: domain.UserTypeEmployer},
		"teacher@mail.test": {ID: "2", Name: "Meera", Email: "teacher@mail.test", UserType: domain.UserTypeTeacher},
	}}, data, cfg)
	require.NoError(t, err)

	return &fixture{
		repo:    repo,
		manager: manager,
		data:    data,
		handler: http_.Wrap(transport, logging.NewNopLogger()),
		sid:     sid,
	}
}

func (f *fixture) seedUser(t *testing.T, raw string) {
	t.Helper()

	require.NoError(t, f.repo.Set(context.Background(), f.sid, session.KeyUser, []byte(raw)))
}

func (f *fixture) do(t *testing.T, method, target string, form url.Values) (*http.Response, string) {
	t.Helper()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req := httptest.NewRequest(method, target, body)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: f.sid})

	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	resp := rec.Result()
	t.Cleanup(func() { _ = resp.Body.Close() })

	// follow the browser: keep whatever session cookie the response issued last
	for _, cookie := range resp.Cookies() {
		if cookie.Name == cookieName {
			f.sid = cookie.Value
		}
	}

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, string(raw)
}

func (f *fixture) persisted(t *testing.T, sid, key string) bool {
	t.Helper()

	_, ok, err := f.repo.Get(context.Background(), sid, key)
	require.NoError(t, err)

	return ok
}

func TestHTTPTransport_CandidateOnProviderRouteGoesToSeekerDashboard(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedUser(t, `{"user_type":"Candidate"}`)

	resp, _ := f.do(t, http.MethodGet, "/provider/dashboard", nil)

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/seeker/dashboard", resp.Header.Get("Location"))
}

func TestHTTPTransport_EmptySessionGoesHomeRememberingLocation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	resp, _ := f.do(t, http.MethodGet, "/seeker/my-account", nil)

	assert.Equal(t, http.StatusFound, resp.StatusCode)

	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/home", location.Path)
	assert.Equal(t, "/seeker/my-account", location.Query().Get("next"))

	// the home page carries the location into the login form
	_, html := f.do(t, http.MethodGet, location.String(), nil)
	assert.Contains(t, html, `name="next" value="/seeker/my-account"`)
}

func TestHTTPTransport_NewBrowserGetsSessionCookie(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/home", nil))

	resp := rec.Result()
	defer resp.Body.Close()

	require.Len(t, resp.Cookies(), 1)
	cookie := resp.Cookies()[0]
	assert.Equal(t, cookieName, cookie.Name)
	assert.True(t, encoding.ValidID(cookie.Value, 16))
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHTTPTransport_CookielessRequestsHoldNoSession(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	seen := make(map[string]bool)

	for range 500 {
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/about-us", nil))

		require.Equal(t, http.StatusOK, rec.Code)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		seen[cookies[0].Value] = true
	}

	assert.Len(t, seen, 500)
	assert.Zero(t, f.manager.Len())
	assert.Zero(t, f.manager.Sweep())
}

func TestHTTPTransport_TeacherUsesSeekerPages(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedUser(t, `{"id":"2","name":"Meera","email":"teacher@mail.test","user_type":"Teacher"}`)
	require.NoError(t, f.repo.Set(context.Background(), sid, session.KeyToken, []byte(`"tok-2"`)))

	resp, html := f.do(t, http.MethodGet, "/seeker/all-jobs", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	assert.Contains(t, html, "Maths teacher")
	assert.Contains(t, html, `href="/seeker/recruiter-actions"`)
	assert.Contains(t, f.data.tokens, "tok-2")
}

func TestHTTPTransport_RootRedirect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		raw      string
		location string
	}{
		{name: "nobody", location: "/home"},
		{name: "employer", raw: `{"user_type":"Employer"}`, location: "/provider/dashboard"},
		{name: "teacher", raw: `{"user_type":"Teacher"}`, location: "/seeker/dashboard"},
		{name: "unknown", raw: `{"user_type":"Admin"}`, location: "/home"},
		{name: "corrupt", raw: `{"user_type":`, location: "/home"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			if tt.raw != "" {
				f.seedUser(t, tt.raw)
			}

			resp, _ := f.do(t, http.MethodGet, "/", nil)

			assert.Equal(t, http.StatusFound, resp.StatusCode)
			assert.Equal(t, tt.location, resp.Header.Get("Location"))
		})
	}
}

func TestHTTPTransport_LoginLogout(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedUser(t, `{"id":"9","user_type":"Employer"}`)
	planted := f.sid

	resp, _ := f.do(t, http.MethodPost, "/login", url.Values{
		"email":    {"teacher@mail.test"},
		"password": {"secret"},
		"next":     {"/seeker/messages"},
	})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/seeker/messages", resp.Header.Get("Location"))

	// the session id known before the login is dropped
	require.NotEqual(t, planted, f.sid)
	assert.False(t, f.persisted(t, planted, session.KeyUser))
	assert.Equal(t, 1, f.manager.Len())

	token, ok, err := f.repo.Get(context.Background(), f.sid, session.KeyToken)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `"tok-2"`, string(token))

	resp, html := f.do(t, http.MethodGet, "/seeker/messages", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, html, `data-chat="wss://chat.teacherlink.test/ws"`)

	resp, body := f.do(t, http.MethodGet, "/api/session", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var state domain.AuthState
	require.NoError(t, json.Unmarshal([]byte(body), &state))
	require.NotNil(t, state.User)
	assert.False(t, state.Loading)
	assert.Equal(t, domain.UserTypeTeacher, state.User.UserType)
	assert.Empty(t, state.User.AuthToken)
	assert.NotContains(t, body, "tok-2")

	loggedIn := f.sid

	resp, _ = f.do(t, http.MethodPost, "/logout", url.Values{})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/home", resp.Header.Get("Location"))

	require.NotEqual(t, loggedIn, f.sid)
	assert.False(t, f.persisted(t, loggedIn, session.KeyUser))
	assert.False(t, f.persisted(t, loggedIn, session.KeyToken))
	assert.Zero(t, f.manager.Len())

	resp, _ = f.do(t, http.MethodGet, "/seeker/messages", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

func TestHTTPTransport_OldSessionIDIsLoggedOutAfterLogin(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	planted := f.sid

	resp, _ := f.do(t, http.MethodPost, "/login", url.Values{
		"email":    {"school@mail.test"},
		"password": {"secret"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.NotEqual(t, planted, f.sid)

	// someone still holding the planted id gets no access
	f.sid = planted
	resp, _ = f.do(t, http.MethodGet, "/provider/dashboard", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "/home"))
}

func TestHTTPTransport_LoginWithoutNextUsesLanding(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	resp, _ := f.do(t, http.MethodPost, "/login", url.Values{
		"email":    {"school@mail.test"},
		"password": {"secret"},
		"next":     {"//evil.test/phish"},
	})

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/provider/dashboard", resp.Header.Get("Location"))
}

func TestHTTPTransport_LoginRejected(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	resp, html := f.do(t, http.MethodPost, "/login", url.Values{
		"email":    {"teacher@mail.test"},
		"password": {"wrong"},
		"next":     {"/seeker/dashboard"},
	})

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, html, "The email or password is not correct.")
	assert.Contains(t, html, `name="next" value="/seeker/dashboard"`)

	resp, _ = f.do(t, http.MethodPost, "/login", url.Values{"email": {"teacher@mail.test"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHTTPTransport_Register(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	resp, _ := f.do(t, http.MethodPost, "/register", url.Values{
		"name": {"Ravi"}, "email": {"ravi@mail.test"}, "password": {"pw"}, "user_type": {"Nobody"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, html := f.do(t, http.MethodPost, "/register", url.Values{
		"name": {"Dup"}, "email": {"school@mail.test"}, "password": {"pw"}, "user_type": {"Employer"},
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, html, "already exists")

	before := f.sid

	resp, _ = f.do(t, http.MethodPost, "/register", url.Values{
		"name": {"Ravi"}, "email": {"ravi@mail.test"}, "password": {"pw"}, "user_type": {"Candidate"},
	})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/seeker/dashboard", resp.Header.Get("Location"))
	assert.NotEqual(t, before, f.sid)
	assert.True(t, f.persisted(t, f.sid, session.KeyUser))
}

func TestHTTPTransport_ForgetPassword(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	resp, html := f.do(t, http.MethodPost, "/forget-password", url.Values{"email": {"who@mail.test"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, html, "reset link is on its way")

	resp, html = f.do(t, http.MethodPost, "/forget-password", url.Values{"email": {"down@mail.test"}})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, html, "not reachable")
}

func TestHTTPTransport_ProfileUpdateRefreshesUser(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedUser(t, `{"id":"2","name":"Meera","email":"teacher@mail.test","user_type":"Teacher"}`)

	resp, _ := f.do(t, http.MethodPost, "/seeker/my-profile", url.Values{
		"name": {"Meera Rao"}, "email": {"teacher@mail.test"}, "field.subject": {"Physics"},
	})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/seeker/my-profile?saved=1", resp.Header.Get("Location"))

	_, html := f.do(t, http.MethodGet, "/seeker/my-profile?saved=1", nil)
	assert.Contains(t, html, "Your changes have been saved.")
	assert.Contains(t, html, `value="Meera Rao"`)

	resp, html = f.do(t, http.MethodPost, "/seeker/my-profile", url.Values{"name": {""}, "email": {"x"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, html, "valid email")
}

func TestHTTPTransport_FetchErrorStaysOnPage(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedUser(t, `{"user_type":"Employer"}`)

	resp, html := f.do(t, http.MethodGet, "/provider/notifications", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, html, "not reachable right now")
	assert.Contains(t, html, `href="/provider/dashboard"`)
}

func TestHTTPTransport_PanicRendersFallback(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedUser(t, `{"user_type":"Candidate"}`)

	resp, html := f.do(t, http.MethodGet, "/seeker/recruiter-actions", nil)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, html, "Something went wrong")
	assert.Contains(t, html, `<a href="/">Go home</a>`)
}

func TestHTTPTransport_NotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedUser(t, `{"user_type":"Employer"}`)

	for _, target := range []string{"/no-such-page", "/provider/no-such-page"} {
		resp, html := f.do(t, http.MethodGet, target, nil)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode, target)
		assert.Contains(t, html, "Page not found", target)
	}
}

func TestHTTPTransport_PublicPages(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	public, _ := websvc.Routes()
	for _, route := range public {
		resp, html := f.do(t, http.MethodGet, route.Path, nil)

		assert.Equal(t, http.StatusOK, resp.StatusCode, route.Path)
		assert.Contains(t, html, "<h1>", route.Path)
	}

	_, html := f.do(t, http.MethodGet, "/available-jobs", nil)
	assert.Contains(t, html, "Art teacher")
}

type stuckSessions struct {
	auth *authsvc.Context
}

func (s stuckSessions) Get(context.Context, string) *authsvc.Context { return s.auth }
func (s stuckSessions) Fresh(string) *authsvc.Context                { return s.auth }
func (s stuckSessions) Keep(*authsvc.Context)                        {}
func (s stuckSessions) Forget(context.Context, string) error         { return nil }

func TestHTTPTransport_LoadingPlaceholder(t *testing.T) {
	t.Parallel()

	// never hydrated, so it stays loading
	auth := authsvc.NewContext(session.NewCache(session.NewMemoryRepository(), sid), nil, authsvc.AuthConfig{})

	transport, err := websvc.NewHTTPTransport(stuckSessions{auth: auth}, &fakeAuth{}, &fakeData{},
		websvc.HTTPTransportConfig{CookieName: cookieName})
	require.NoError(t, err)

	for _, target := range []string{"/", "/seeker/dashboard", "/provider/dashboard"} {
		rec := httptest.NewRecorder()
		transport.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

		assert.Equal(t, http.StatusOK, rec.Code, target)
		assert.Equal(t, "1", rec.Header().Get("Refresh"), target)
		assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"), target)
		assert.Contains(t, rec.Body.String(), "Restoring your session", target)
	}
}

func TestHTTPTransport_ProtectScript(t *testing.T) {
	t.Parallel()

	f := newFixture(t, func(cfg *websvc.HTTPTransportConfig) { cfg.ProtectPages = true })

	resp, js := f.do(t, http.MethodGet, "/assets/protect.js", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/javascript"))
	assert.Contains(t, js, "data-allow-contextmenu")

	_, html := f.do(t, http.MethodGet, "/home", nil)
	assert.Contains(t, html, `<script src="/assets/protect.js" defer></script>`)

	plain := newFixture(t)
	resp, _ = plain.do(t, http.MethodGet, "/assets/protect.js", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHTTPTransport_SessionCORS(t *testing.T) {
	t.Parallel()

	f := newFixture(t, func(cfg *websvc.HTTPTransportConfig) {
		cfg.CORSOrigins = []string{"https://app.teacherlink.test"}
	})

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.Header.Set("Origin", "https://app.teacherlink.test")

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://app.teacherlink.test", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.JSONEq(t, `{"user":null,"loading":false}`, rec.Body.String())
}
