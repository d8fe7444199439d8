package screens

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/anonto42/snapfeed/internal/binder"
	"github.com/anonto42/snapfeed/internal/camera"
	"github.com/anonto42/snapfeed/internal/components"
	"github.com/anonto42/snapfeed/internal/gateway"
	"github.com/anonto42/snapfeed/internal/media"
	"github.com/anonto42/snapfeed/internal/models"
	"github.com/anonto42/snapfeed/internal/navigation"
)

// FeedDateLayout formats feed item dates
const FeedDateLayout = "Jan 02,2006"

// Home shows the photos captured with the in-app camera
type Home struct {
	deps      Deps
	chrome    *chrome
	feed      *binder.Binder[[]models.FeedItem]
	likes     *components.LikeMirror
	stopWatch func()
}

// NewHome creates the home screen
func NewHome(d Deps) *Home {
	h := &Home{
		deps:   d,
		chrome: newChrome(navigation.RouteHome, "Home", d),
		feed:   binder.New[[]models.FeedItem]("home.feed", d.Loop, d.Logger),
		likes:  components.NewLikeMirror(),
	}
	h.feed.WithErrorText(func(err error) string { return "Failed to load local images: " + gateway.Message(err) })
	return h
}

func (h *Home) Route() string { return navigation.RouteHome }

func (h *Home) Mount(context.Context) {
	h.chrome.mount()
	h.stopWatch = h.deps.Permissions.Watch(func(p camera.Permission, granted bool) {
		if p != camera.PermissionMediaRead {
			return
		}
		if granted {
			h.deps.Logger.Debug("storage permission granted by user")
			h.load()
			return
		}
		h.deps.Logger.Debug("storage permission denied by user")
		_ = h.feed.Mutate(func(s *binder.State[[]models.FeedItem]) {
			s.Loading = false
			s.Err = "Storage permission denied. Cannot load local images."
		})
	})
	if h.deps.Permissions.Request(camera.PermissionMediaRead) {
		h.load()
		return
	}
	_ = h.feed.Mutate(func(s *binder.State[[]models.FeedItem]) { s.Loading = true })
}

func (h *Home) Observe(fn func()) func() {
	return binder.ObserveAll(fn, h.chrome.header, h.feed)
}

func (h *Home) Unmount() {
	if h.stopWatch != nil {
		h.stopWatch()
	}
	h.feed.Unmount()
	h.chrome.unmount()
}

func (h *Home) load() {
	h.feed.Load(h.fetchLocalImages, func(s *binder.State[[]models.FeedItem], err error) {
		if err != nil {
			return
		}
		// fresh items seed their cards again
		h.likes.Reset()
		if len(s.Data) == 0 {
			s.Data = dummyFeed(h.deps.now().Format(FeedDateLayout))
			s.Message = "No photos found in 'MyCamera' folder. Showing dummy resources."
			return
		}
		s.Message = ""
	})
}

func (h *Home) fetchLocalImages(ctx context.Context) ([]models.FeedItem, error) {
	items, err := h.deps.Media.Query(ctx, media.CameraFolder)
	if err != nil {
		return nil, err
	}
	feed := make([]models.FeedItem, 0, len(items))
	for _, item := range items {
		if !strings.HasPrefix(item.MimeType, "image/") {
			continue
		}
		feed = append(feed, models.FeedItem{
			ID:                item.URI,
			Username:          "You",
			ProfilePictureURL: "https://placehold.co/40x40/000000/FFFFFF?text=ME",
			ImageRef:          item.URI,
			ImageKind:         models.ImageLocal,
			Location:          "Local Photo",
			Date:              item.CreatedAt.Format(FeedDateLayout),
			Description:       "Captured with MyCamera: " + item.Name,
			Comments:          []models.Comment{},
		})
	}
	h.deps.Logger.Debug("loaded local photos", zap.Int("count", len(feed)))
	return feed, nil
}

func dummyFeed(date string) []models.FeedItem {
	return []models.FeedItem{
		{
			ID:                "local_dummy_1",
			Username:          "Local Dummy 1",
			ProfilePictureURL: "https://placehold.co/40x40/0000FF/FFFFFF?text=D1",
			ImageRef:          "dummy1",
			ImageKind:         models.ImageResource,
			Location:          "App Resources",
			Date:              date,
			Description:       "Placeholder from app resources.",
			LikesCount:        10,
			Comments:          []models.Comment{},
		},
		{
			ID:                "local_dummy_2",
			Username:          "Local Dummy 2",
			ProfilePictureURL: "https://placehold.co/40x40/FF5733/FFFFFF?text=D2",
			ImageRef:          "dummy2",
			ImageKind:         models.ImageResource,
			Location:          "App Resources",
			Date:              date,
			Description:       "Another placeholder.",
			LikesCount:        5,
			Comments:          []models.Comment{},
		},
	}
}

func (h *Home) View() components.Node {
	s := h.feed.Snapshot()
	body := []components.Node{components.Field("search", "Search...", "", false)}
	switch {
	case s.Loading:
		body = append(body, components.Loading("feed_loading"), components.Text("feed_status", "Loading local photos..."))
	case s.Err != "":
		body = append(body, components.StatusText("feed_status", "Error: "+s.Err, true)...)
	default:
		body = append(body, components.StatusText("feed_status", s.Message, false)...)
		body = append(body, feedCards(h.likes, s.Data)...)
	}
	return h.chrome.page(body...)
}

func (h *Home) Handle(ctx context.Context, intent components.Intent) error {
	switch intent.Action {
	case components.ActionToggleLike:
		return toggleLike(h.likes, intent.Target)
	case components.ActionInput:
		// the home search field has no behaviour yet
		return nil
	}
	return ErrUnhandledIntent
}

func feedCards(likes *components.LikeMirror, items []models.FeedItem) []components.Node {
	out := make([]components.Node, 0, len(items))
	for _, item := range items {
		out = append(out, components.FeedCard(likes.Apply(item)))
	}
	return out
}

func toggleLike(likes *components.LikeMirror, id string) error {
	if _, ok := likes.Toggle(id); !ok {
		return ErrUnhandledIntent
	}
	return nil
}
