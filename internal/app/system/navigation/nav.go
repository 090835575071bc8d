package navigation

import "strings"

// Item is one entry in the header menu.
type Item struct {
	Label  string
	Path   string
	Active bool
}

var mainMenu = []Item{
	{Label: "Home", Path: "/"},
	{Label: "Register", Path: "/register"},
	{Label: "Find Donors", Path: "/search"},
	{Label: "Emergency", Path: "/emergency"},
	{Label: "Dashboard", Path: "/dashboard"},
}

// Main returns the header menu with the entry for current marked active.
func Main(current string) []Item {
	out := make([]Item, len(mainMenu))
	for i, it := range mainMenu {
		it.Active = isActive(it.Path, current)
		out[i] = it
	}
	return out
}

func isActive(path, current string) bool {
	if path == "/" {
		return current == "/"
	}
	return current == path || strings.HasPrefix(current, path+"/")
}
