package screens

import (
	"context"

	"github.com/anonto42/snapfeed/internal/binder"
	"github.com/anonto42/snapfeed/internal/components"
	"github.com/anonto42/snapfeed/internal/models"
	"github.com/anonto42/snapfeed/internal/navigation"
)

var friendRequests = []models.NotificationItem{
	{ID: "n1", Username: "Rachel", ProfilePictureURL: "https://placehold.co/40x40/FF6347/FFFFFF?text=R", Type: models.NotificationFriendRequest},
	{ID: "n2", Username: "Michael", ProfilePictureURL: "https://placehold.co/40x40/4682B4/FFFFFF?text=M", Type: models.NotificationFriendRequest},
	{ID: "n3", Username: "Emma", ProfilePictureURL: "https://placehold.co/40x40/3CB371/FFFFFF?text=E", Type: models.NotificationFriendRequest},
}

// Notifications lists incoming friend requests
type Notifications struct {
	chrome *chrome
	state  *binder.Binder[[]models.NotificationItem]
}

// NewNotifications creates the notifications screen
func NewNotifications(d Deps) *Notifications {
	return &Notifications{
		chrome: newChrome(navigation.RouteNotifications, "Notification", d),
		state:  binder.New[[]models.NotificationItem]("notifications", d.Loop, d.Logger),
	}
}

func (n *Notifications) Route() string { return navigation.RouteNotifications }

func (n *Notifications) Mount(context.Context) {
	n.chrome.mount()
	_ = n.state.Mutate(func(s *binder.State[[]models.NotificationItem]) {
		s.Data = friendRequests
		s.Loaded = true
	})
}

func (n *Notifications) Observe(fn func()) func() {
	return binder.ObserveAll(fn, n.chrome.header, n.state)
}

func (n *Notifications) Unmount() {
	n.state.Unmount()
	n.chrome.unmount()
}

func (n *Notifications) View() components.Node {
	s := n.state.Snapshot()
	body := status("notification_status", s)
	for _, item := range s.Data {
		body = append(body, components.NotificationCard(item))
	}
	return n.chrome.page(body...)
}

// Handle answers accept and reject with a not implemented notice
func (n *Notifications) Handle(ctx context.Context, intent components.Intent) error {
	var msg string
	switch intent.Action {
	case components.ActionAccept:
		msg = "Accepting friend requests is not implemented yet."
	case components.ActionReject:
		msg = "Rejecting friend requests is not implemented yet."
	default:
		return ErrUnhandledIntent
	}
	return n.state.Mutate(func(s *binder.State[[]models.NotificationItem]) { s.Message = msg })
}
