package components

import (
	"github.com/anonto42/snapfeed/internal/models"
	"github.com/anonto42/snapfeed/internal/navigation"
)

type navItem struct {
	route string
	icon  string
	label string
}

var bottomItems = []navItem{
	{navigation.RouteSearchUsers, "person_add", "Add Friend"},
	{navigation.RouteHome, "home", "Home"},
	{navigation.RouteCamera, "photo_camera", "Camera"},
	{navigation.RouteLiked, "favorite", "Liked Photos"},
	{navigation.RouteProfile, "person", "Profile"},
}

// TopBar renders the title bar with its menu and chat shortcuts
func TopBar(title string) Node {
	menu := Button("menu", "Menu", nil)
	menu.Props["opens"] = TypeDrawer
	return Node{Type: TypeTopBar, ID: "top_bar", Props: map[string]any{"title": title}, Children: []Node{
		menu,
		Button("chat", "Chat", NavigateTo(navigation.RouteChatList, navigation.NavOptions{})),
	}}
}

// BottomBar renders the five tab bottom navigation with current selected
func BottomBar(current string) Node {
	children := make([]Node, 0, len(bottomItems))
	for _, item := range bottomItems {
		b := Button("tab:"+item.route, item.label, NavigateTo(item.route, navigation.NavOptions{SingleTop: true}))
		b.Props["icon"] = item.icon
		b.Props["selected"] = item.route == current
		children = append(children, b)
	}
	return Node{Type: TypeBottom, ID: "bottom_bar", Children: children}
}

// Drawer renders the side menu with the signed-in profile header. profile is
// nil while it is still loading or missing.
func Drawer(profile *models.UserProfile) Node {
	header := []Node{}
	if profile != nil {
		header = append(header,
			Image("drawer_avatar", profile.ProfilePictureURL, string(models.ImageRemote), 64),
			Text("drawer_username", profile.Username),
		)
	}
	items := []Node{
		Button("dark_mode", "Switch dark mode", &Intent{Action: ActionUnsupported, Target: "dark_mode"}),
		Button("notifications", "Notification", NavigateTo(navigation.RouteNotifications, navigation.NavOptions{})),
		Button("settings", "Settings", &Intent{Action: ActionUnsupported, Target: "settings"}),
		Button("chat_list", "Chat", NavigateTo(navigation.RouteChatList, navigation.NavOptions{})),
		Button("logout", "Logout", &Intent{Action: ActionSignOut}),
	}
	return Node{Type: TypeDrawer, ID: "drawer", Children: append(header, items...)}
}

// Page assembles an authenticated screen: top bar, drawer, body and bottom bar
func Page(route, title string, profile *models.UserProfile, body ...Node) Node {
	return Node{
		Type:  TypeScreen,
		ID:    route,
		Props: map[string]any{"title": title},
		Children: []Node{
			TopBar(title),
			Drawer(profile),
			Column("body", body...),
			BottomBar(route),
		},
	}
}
