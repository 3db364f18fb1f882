package websvc

import "github.com/teacherlink/webfront/internal/domain"

// Route describes one navigable page.
// Path is relative to the route group for provider and seeker routes.
type Route struct {
	Path     string
	Category domain.Category
	Title    string
	// Resource is the backend path the page fetches its data from, if any
	Resource string
	Page     *Page
}

//nolint:gochecknoglobals
var (
	pageHome           = newPage("home.html")
	pageLogin          = newPage("login.html")
	pageRegister       = newPage("register.html")
	pageForgetPassword = newPage("forget_password.html")
	pageInfo           = newPage("info.html")
	pageListing        = newPage("listing.html")
	pageProfile        = newPage("profile.html")
	pageMessages       = newPage("messages.html")
	pageNotFound       = newPage("not_found.html")
	pageLoading        = newPage("loading.html")
	pageFallback       = newPage("fallback.html")
)

//nolint:gochecknoglobals
var publicRoutes = []Route{
	{Path: PathHome, Title: "Home", Page: pageHome},
	{Path: PathLogin, Title: "Log in", Page: pageLogin},
	{Path: "/register", Title: "Register", Page: pageRegister},
	{Path: "/forget-password", Title: "Forgot password", Page: pageForgetPassword},
	{Path: "/why-teacherlink", Title: "Why TeacherLink", Page: pageInfo},
	{Path: "/salient-features", Title: "Salient features", Page: pageInfo},
	{Path: "/subscription-plans", Title: "Subscription plans", Resource: "/api/public/plans", Page: pageListing},
	{Path: "/about-us", Title: "About us", Page: pageInfo},
	{Path: "/contact-us", Title: "Contact us", Page: pageInfo},
	{Path: "/terms-privacy", Title: "Terms & privacy", Page: pageInfo},
	{Path: "/available-jobs", Title: "Available jobs", Resource: "/api/public/jobs", Page: pageListing},
	{Path: "/available-candidates", Title: "Available candidates", Resource: "/api/public/candidates", Page: pageListing},
}

//nolint:gochecknoglobals
var providerRoutes = []Route{
	{Path: "/dashboard", Category: domain.CategoryEmployer, Title: "Dashboard", Resource: "/api/dashboard", Page: pageListing},
	{Path: "/post-jobs", Category: domain.CategoryEmployer, Title: "Post jobs", Resource: "/api/jobs", Page: pageListing},
	{Path: "/my-profile", Category: domain.CategoryEmployer, Title: "My profile", Resource: "/api/profile", Page: pageProfile},
	{Path: "/my-account", Category: domain.CategoryEmployer, Title: "My account", Resource: "/api/account", Page: pageListing},
	{Path: "/all-candidates", Category: domain.CategoryEmployer, Title: "All candidates", Resource: "/api/candidates", Page: pageListing},
	{Path: "/messages", Category: domain.CategoryEmployer, Title: "Messages", Resource: "/api/messages/threads", Page: pageMessages},
	{Path: "/notifications", Category: domain.CategoryEmployer, Title: "Notifications", Resource: "/api/notifications", Page: pageListing},
	{Path: "/premium-services", Category: domain.CategoryEmployer, Title: "Premium services", Resource: "/api/premium-services", Page: pageListing},
}

//nolint:gochecknoglobals
var seekerRoutes = []Route{
	{Path: "/dashboard", Category: domain.CategoryCandidate, Title: "Dashboard", Resource: "/api/dashboard", Page: pageListing},
	{Path: "/my-account", Category: domain.CategoryCandidate, Title: "My account", Resource: "/api/account", Page: pageListing},
	{Path: "/my-profile", Category: domain.CategoryCandidate, Title: "My profile", Resource: "/api/profile", Page: pageProfile},
	{Path: "/all-jobs", Category: domain.CategoryCandidate, Title: "All jobs", Resource: "/api/jobs", Page: pageListing},
	{Path: "/messages", Category: domain.CategoryCandidate, Title: "Messages", Resource: "/api/messages/threads", Page: pageMessages},
	{Path: "/notifications", Category: domain.CategoryCandidate, Title: "Notifications", Resource: "/api/notifications", Page: pageListing},
	{Path: "/recruiter-actions", Category: domain.CategoryCandidate, Title: "Recruiter actions", Resource: "/api/recruiter-actions", Page: pageListing},
}

// RouteGroup is a set of routes mounted under one prefix behind one guard.
type RouteGroup struct {
	Prefix   string
	Category domain.Category
	Routes   []Route
}

// Routes returns the navigational surface: public routes first, then the
// guarded provider and seeker groups.
func Routes() (public []Route, groups []RouteGroup) {
	return publicRoutes, []RouteGroup{
		{Prefix: "/provider", Category: domain.CategoryEmployer, Routes: providerRoutes},
		{Prefix: "/seeker", Category: domain.CategoryCandidate, Routes: seekerRoutes},
	}
}
