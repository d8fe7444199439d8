// Package screens holds one binder per app screen. A screen fetches what it
// shows through the gateway, keeps it in observable state and turns shell
// intents into gateway calls or navigation.
package screens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/anonto42/snapfeed/internal/binder"
	"github.com/anonto42/snapfeed/internal/camera"
	"github.com/anonto42/snapfeed/internal/components"
	"github.com/anonto42/snapfeed/internal/gateway"
	"github.com/anonto42/snapfeed/internal/media"
	"github.com/anonto42/snapfeed/internal/models"
	"github.com/anonto42/snapfeed/internal/navigation"
	"github.com/anonto42/snapfeed/internal/social"
)

// ErrUnhandledIntent is returned for intents a screen does not understand
var ErrUnhandledIntent = errors.New("screens: unhandled intent")

// Screen is a mounted page of the app
type Screen interface {
	// Route returns the concrete route the screen was built for
	Route() string
	// Mount starts the screen's fetches. ctx lives until Unmount.
	Mount(ctx context.Context)
	// Observe registers fn to run after every state change and returns a
	// function removing it
	Observe(fn func()) func()
	// Unmount cancels in-flight work and drops late results
	Unmount()
	// View renders the current state
	View() components.Node
	// Handle applies a user intent
	Handle(ctx context.Context, intent components.Intent) error
}

// Host is the session a screen is mounted in
type Host interface {
	Navigate(route string, opts navigation.NavOptions) error
	Identity() (gateway.Identity, bool)
	SignIn(identity gateway.Identity)
}

// Deps are the collaborators handed to every screen
type Deps struct {
	Host        Host
	Auth        gateway.AuthService
	Graph       *social.Graph
	Media       media.Store
	Loop        *binder.Loop
	Worker      *binder.Loop
	Permissions *camera.Permissions
	Device      camera.Device
	Chats       *ChatStore
	Validate    *validator.Validate
	Logger      *zap.Logger
	Now         func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// New builds the screen for a back stack entry
func New(entry navigation.Entry, d Deps) (Screen, error) {
	switch entry.Pattern {
	case navigation.RouteLogin:
		return NewLogin(d), nil
	case navigation.RouteRegister:
		return NewRegister(d), nil
	case navigation.RouteHome:
		return NewHome(d), nil
	case navigation.RouteLiked:
		return NewLiked(d), nil
	case navigation.RouteProfile:
		return NewProfile(d), nil
	case navigation.RouteSearchUsers:
		return NewSearchUsers(d), nil
	case navigation.RouteCamera:
		return NewCamera(d), nil
	case navigation.RouteChatList:
		return NewChatList(d), nil
	case navigation.RouteChatRoom:
		return NewChatRoom(d, entry.Param(navigation.ParamPartnerName)), nil
	case navigation.RouteNotifications:
		return NewNotifications(d), nil
	}
	return nil, fmt.Errorf("%w: %q", navigation.ErrUnknownRoute, entry.Route)
}

// chrome is the top bar, drawer and bottom bar shared by signed-in screens.
// The drawer header profile is fetched on every mount.
type chrome struct {
	route  string
	title  string
	deps   Deps
	header *binder.Binder[*models.UserProfile]
}

func newChrome(route, title string, d Deps) *chrome {
	return &chrome{
		route:  route,
		title:  title,
		deps:   d,
		header: binder.New[*models.UserProfile](route+".header", d.Loop, d.Logger),
	}
}

func (c *chrome) mount() {
	c.header.Load(c.fetchProfile, nil)
}

func (c *chrome) unmount() {
	c.header.Unmount()
}

// fetchProfile never fails: a missing or unreadable profile leaves the
// header empty
func (c *chrome) fetchProfile(ctx context.Context) (*models.UserProfile, error) {
	identity, ok := c.deps.Host.Identity()
	if !ok {
		c.deps.Logger.Debug("no current user to fetch profile", zap.String("screen", c.route))
		return nil, nil
	}
	profile, err := c.deps.Graph.Profile(ctx, identity.UID)
	if err != nil {
		c.deps.Logger.Debug("header profile unavailable", zap.String("screen", c.route), zap.Error(err))
		return nil, nil
	}
	profile = profile.WithAvatar(60, "87CEEB")
	return &profile, nil
}

func (c *chrome) setProfile(p *models.UserProfile) {
	_ = c.header.Mutate(func(s *binder.State[*models.UserProfile]) {
		s.Data = p
		s.Loaded = true
	})
}

func (c *chrome) page(body ...components.Node) components.Node {
	return components.Page(c.route, c.title, c.header.Snapshot().Data, body...)
}

// authMessage is the text shown for a failed auth call
func authMessage(err error, fallback string) string {
	if msg := gateway.Message(err); msg != "" {
		return msg
	}
	return fallback
}

// status renders a state's error, or else its message
func status[T any](id string, s binder.State[T]) []components.Node {
	if s.Err != "" {
		return components.StatusText(id, s.Err, true)
	}
	return components.StatusText(id, s.Message, false)
}
