package screens

import (
	"context"
	"errors"
	"strconv"

	"github.com/anonto42/snapfeed/internal/binder"
	"github.com/anonto42/snapfeed/internal/components"
	"github.com/anonto42/snapfeed/internal/gateway"
	"github.com/anonto42/snapfeed/internal/models"
	"github.com/anonto42/snapfeed/internal/navigation"
)

var errNoUser = errors.New("no user logged in")

var profilePosts = []models.FeedItem{
	{ID: "post1", Username: "John Smith", ImageRef: "https://placehold.co/200x200/B88C4A/FFFFFF?text=My+Post+1", ImageKind: models.ImageRemote, Location: "Unknown", Date: "Jan 1, 2026", Description: "My first post!", LikesCount: 50},
	{ID: "post2", Username: "John Smith", ImageRef: "https://placehold.co/200x200/8B4513/FFFFFF?text=My+Post+2", ImageKind: models.ImageRemote, Location: "Unknown", Date: "Jan 5, 2026", Description: "Another great day!", LikesCount: 75},
	{ID: "post3", Username: "John Smith", ImageRef: "https://placehold.co/200x200/3CB371/FFFFFF?text=My+Post+3", ImageKind: models.ImageRemote, Location: "Unknown", Date: "Jan 10, 2026", Description: "Loving this view.", LikesCount: 90},
}

// Profile shows the signed-in user's profile and posts
type Profile struct {
	deps    Deps
	chrome  *chrome
	profile *binder.Binder[models.UserProfile]
}

// NewProfile creates the profile screen
func NewProfile(d Deps) *Profile {
	p := &Profile{
		deps:    d,
		chrome:  newChrome(navigation.RouteProfile, "Profile", d),
		profile: binder.New[models.UserProfile]("profile", d.Loop, d.Logger),
	}
	p.profile.WithErrorText(func(err error) string {
		switch {
		case errors.Is(err, errNoUser):
			return "No user logged in."
		case gateway.IsNotFound(err):
			return "User profile not found in Firestore."
		}
		return "Failed to load profile: " + gateway.Message(err)
	})
	return p
}

func (p *Profile) Route() string { return navigation.RouteProfile }

func (p *Profile) Mount(context.Context) {
	p.chrome.mount()
	p.profile.Load(func(ctx context.Context) (models.UserProfile, error) {
		identity, ok := p.deps.Host.Identity()
		if !ok {
			return models.UserProfile{}, errNoUser
		}
		profile, err := p.deps.Graph.Profile(ctx, identity.UID)
		if err != nil {
			return models.UserProfile{}, err
		}
		return profile.WithAvatar(80, "87CEEB"), nil
	}, nil)
}

func (p *Profile) Observe(fn func()) func() {
	return binder.ObserveAll(fn, p.chrome.header, p.profile)
}

func (p *Profile) Unmount() {
	p.profile.Unmount()
	p.chrome.unmount()
}

func (p *Profile) View() components.Node {
	s := p.profile.Snapshot()
	var body []components.Node
	switch {
	case s.Loading:
		body = append(body, components.Loading("profile_loading"))
	case s.Err != "":
		body = append(body, components.StatusText("profile_error", s.Err, true)...)
	case s.Loaded:
		u := s.Data
		body = append(body,
			components.Image("profile_avatar", u.ProfilePictureURL, string(models.ImageRemote), 80),
			components.Text("profile_username", u.Username),
			components.Text("profile_email", u.Email),
			components.Row("profile_counts",
				components.Text("posts_count", strconv.Itoa(len(profilePosts))),
				components.Text("followers_count", strconv.Itoa(len(u.Followers))),
				components.Text("following_count", strconv.Itoa(len(u.Following))),
			),
		)
		grid := make([]components.Node, 0, len(profilePosts))
		for _, post := range profilePosts {
			grid = append(grid, components.Image("post:"+post.ID, post.ImageRef, string(post.ImageKind), 0))
		}
		body = append(body, components.Row("profile_posts", grid...))
	}
	return p.chrome.page(body...)
}

func (p *Profile) Handle(ctx context.Context, intent components.Intent) error {
	return ErrUnhandledIntent
}
