package websvc

import (
	"net/url"
	"strings"

	"github.com/teacherlink/webfront/internal/domain"
)

const (
	PathRoot              = "/"
	PathHome              = "/home"
	PathLogin             = "/login"
	PathProviderDashboard = "/provider/dashboard"
	PathSeekerDashboard   = "/seeker/dashboard"

	// NextParam carries the location to return to after logging in.
	NextParam = "next"
)

// Landing returns where a user starts: the dashboard of their category,
// or the public home page when there is no user or the type is unknown.
func Landing(user *domain.User) string {
	if user == nil {
		return PathHome
	}

	category, ok := domain.CategoryOf(user.UserType)
	if !ok {
		return PathHome
	}

	switch category {
	case domain.CategoryEmployer:
		return PathProviderDashboard
	case domain.CategoryCandidate:
		return PathSeekerDashboard
	default:
		return PathHome
	}
}

// LoginRedirect returns the public entry route remembering attempted.
func LoginRedirect(attempted string) string {
	if attempted == "" {
		return PathHome
	}

	return PathHome + "?" + url.Values{NextParam: {attempted}}.Encode()
}

// SafeNext reports whether next is a local path that may be redirected to.
func SafeNext(next string) (string, bool) {
	if next == "" || !strings.HasPrefix(next, "/") {
		return "", false
	}

	if strings.HasPrefix(next, "//") || strings.HasPrefix(next, `/\`) || strings.ContainsAny(next, "\r\n") {
		return "", false
	}

	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "", false
	}

	return next, true
}

// AfterLogin picks the location to send a freshly logged in user to.
// A safe next wins over the user's landing page.
func AfterLogin(user *domain.User, next string) string {
	if location, ok := SafeNext(next); ok {
		return location
	}

	return Landing(user)
}
