package websvc

import "github.com/teacherlink/webfront/internal/domain"

// MenuItem is one sidebar entry.
type MenuItem struct {
	Title string
	Path  string
}

// Menu returns the sidebar of user. Only Employer gets the provider menu;
// every other user type, known or not, gets the seeker menu.
func Menu(user *domain.User) []MenuItem {
	switch {
	case user == nil:
		return nil
	case user.IsEmployer():
		return menuItems(providerRoutes, "/provider")
	default:
		return menuItems(seekerRoutes, "/seeker")
	}
}

func menuItems(routes []Route, prefix string) []MenuItem {
	items := make([]MenuItem, 0, len(routes))

	for _, route := range routes {
		items = append(items, MenuItem{Title: route.Title, Path: prefix + route.Path})
	}

	return items
}
