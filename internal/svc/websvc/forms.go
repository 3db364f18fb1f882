package websvc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/teacherlink/webfront/internal/domain"
)

const maxFormBytes = 64 << 10

var (
	// ErrNoEmail is returned when a form lacks the email field.
	ErrNoEmail = errors.New("no email")
	// ErrNoPassword is returned when a form lacks the password field.
	ErrNoPassword = errors.New("no password")
	// ErrInvalidUserType is returned when registration names no known user type.
	ErrInvalidUserType = errors.New("invalid user type")
	// ErrNoSession is returned when a request reaches a handler without a session.
	ErrNoSession = errors.New("no session")
)

// errorMessage is the text shown to the user for err.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "The email or password is not correct."
	case errors.Is(err, domain.ErrUserAlreadyExists):
		return "An account with this email already exists."
	case errors.Is(err, ErrNoEmail), errors.Is(err, ErrNoPassword), errors.Is(err, ErrInvalidUserType):
		return "Please fill in all fields."
	case errors.Is(err, domain.ErrInvalidProfile):
		return "Please enter a name and a valid email address."
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrNoAuthToken):
		return "You are not allowed to see this. Try logging in again."
	case errors.Is(err, domain.ErrBackendUnavailable):
		return "TeacherLink is not reachable right now. Please try again shortly."
	default:
		return "Something went wrong. Please try again."
	}
}

// errorStatus is the response status for a failed form submission.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrNoAuthToken):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrUserAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrBackendUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, ErrNoEmail), errors.Is(err, ErrNoPassword), errors.Is(err, ErrInvalidUserType),
		errors.Is(err, domain.ErrInvalidProfile):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)

	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("parse form: %w", err)
	}

	return nil
}

// formError re-renders the form page with the error shown on it.
func (ht *HTTPTransport) formError(w http.ResponseWriter, r *http.Request, route Route, err error) {
	data := ht.pageData(r, route.Title, route.Path)
	data.Error = errorMessage(err)

	if next, ok := SafeNext(r.PostFormValue(NextParam)); ok {
		data.Next = next
	}

	ht.renderOrFallback(w, r, errorStatus(err), route.Page, data)
}

func publicRoute(path string) Route {
	for _, route := range publicRoutes {
		if route.Path == path {
			return route
		}
	}

	return Route{Path: path, Title: "Page not found", Page: pageNotFound}
}

// login starts a new session for the user the backend returned and redirects
// to next or the user's landing page.
func (ht *HTTPTransport) login(w http.ResponseWriter, r *http.Request, resp domain.AuthResponse) error {
	if _, ok := authFromContext(r.Context()); !ok {
		return ErrNoSession
	}

	if err := resp.User.Validate(); err != nil {
		return err
	}

	auth := ht.rotateSession(w, r)

	if err := auth.Login(r.Context(), resp.User, resp.Token); err != nil {
		// the session works until restart, so carry on
		ht.requestLog(r).WarnContext(r.Context(), "session not persisted", "error", err)
	}

	ht.sessions.Keep(auth)

	http.Redirect(w, r, AfterLogin(&resp.User, r.PostFormValue(NextParam)), http.StatusSeeOther)

	return nil
}

// HandleLogin processes the login form.
// Expects form parameters: email, password, and optionally next.
func (ht *HTTPTransport) HandleLogin(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleLogin(w, r)
}

func (ht *HTTPTransport) handleLogin(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.WarnContext(ctx, "login failed", "error", err)
			ht.formError(w, r, publicRoute(PathLogin), err)
		}
	}(r.Context())

	if err := parseForm(w, r); err != nil {
		return err
	}

	creds := domain.Credentials{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}

	if creds.Email == "" {
		return ErrNoEmail
	}

	if creds.Password == "" {
		return ErrNoPassword
	}

	resp, err := ht.auth.Login(r.Context(), creds)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	return ht.login(w, r, resp)
}

// HandleRegister processes the registration form.
// Expects form parameters: name, email, password, user_type, and optionally next.
func (ht *HTTPTransport) HandleRegister(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleRegister(w, r)
}

func (ht *HTTPTransport) handleRegister(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.WarnContext(ctx, "register failed", "error", err)
			ht.formError(w, r, publicRoute("/register"), err)
		}
	}(r.Context())

	if err := parseForm(w, r); err != nil {
		return err
	}

	reg := domain.Registration{
		Name:     strings.TrimSpace(r.PostFormValue("name")),
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
		UserType: domain.UserType(r.PostFormValue("user_type")),
	}

	if reg.Email == "" {
		return ErrNoEmail
	}

	if reg.Password == "" {
		return ErrNoPassword
	}

	if _, ok := domain.CategoryOf(reg.UserType); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidUserType, reg.UserType)
	}

	resp, err := ht.auth.Register(r.Context(), reg)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}

	return ht.login(w, r, resp)
}

// HandleForgetPassword asks the backend to send a password reset link.
// Expects form parameter: email.
func (ht *HTTPTransport) HandleForgetPassword(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleForgetPassword(w, r)
}

func (ht *HTTPTransport) handleForgetPassword(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)
	route := publicRoute("/forget-password")

	defer func(ctx context.Context) {
		if err != nil {
			log.WarnContext(ctx, "password reset failed", "error", err)
			ht.formError(w, r, route, err)
		}
	}(r.Context())

	if err := parseForm(w, r); err != nil {
		return err
	}

	req := domain.PasswordReset{Email: strings.TrimSpace(r.PostFormValue("email"))}
	if req.Email == "" {
		return ErrNoEmail
	}

	if err := ht.auth.RequestPasswordReset(r.Context(), req); err != nil && !errors.Is(err, domain.ErrInvalidCredentials) {
		return fmt.Errorf("request password reset: %w", err)
	}

	// unknown addresses get the same answer as known ones
	data := ht.pageData(r, route.Title, route.Path)
	data.Notice = "If an account exists for this email, a reset link is on its way."
	ht.renderOrFallback(w, r, http.StatusOK, route.Page, data)

	return nil
}

// HandleLogout ends the session's login, replaces the session id and returns
// to the home page.
func (ht *HTTPTransport) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if auth, ok := authFromContext(r.Context()); ok {
		if err := auth.Logout(r.Context()); err != nil {
			ht.requestLog(r).WarnContext(r.Context(), "logout incomplete", "error", err)
		}

		ht.rotateSession(w, r)
	}

	http.Redirect(w, r, PathHome, http.StatusSeeOther)
}

func (ht *HTTPTransport) profileHandler(route Route, path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = ht.handleProfileUpdate(w, r, route, path)
	}
}

// handleProfileUpdate stores a profile change and refreshes the session's user.
// Expects form parameters: name, email, and any number of field.<name>.
func (ht *HTTPTransport) handleProfileUpdate(w http.ResponseWriter, r *http.Request, route Route, path string) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.WarnContext(ctx, "profile update failed", "error", err)

			route.Path = path
			ht.formError(w, r, route, err)
		}
	}(r.Context())

	auth, ok := authFromContext(r.Context())
	if !ok {
		return ErrNoSession
	}

	if err := parseForm(w, r); err != nil {
		return err
	}

	update := domain.ProfileUpdate{
		Name:  strings.TrimSpace(r.PostFormValue("name")),
		Email: strings.TrimSpace(r.PostFormValue("email")),
	}

	for key, values := range r.PostForm {
		if name, ok := strings.CutPrefix(key, "field."); ok && name != "" && len(values) > 0 {
			if update.Fields == nil {
				update.Fields = make(map[string]string)
			}

			update.Fields[name] = values[0]
		}
	}

	user, err := ht.data.UpdateProfile(r.Context(), auth.Token(), update)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	if err := auth.Refresh(r.Context(), user); err != nil {
		return fmt.Errorf("refresh user: %w", err)
	}

	http.Redirect(w, r, path+"?"+url.Values{"saved": {"1"}}.Encode(), http.StatusSeeOther)

	return nil
}
