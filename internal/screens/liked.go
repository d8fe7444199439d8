package screens

import (
	"context"

	"github.com/anonto42/snapfeed/internal/components"
	"github.com/anonto42/snapfeed/internal/models"
	"github.com/anonto42/snapfeed/internal/navigation"
)

var likedPhotos = []models.FeedItem{
	{
		ID:                "liked1",
		Username:          "John Smith",
		ProfilePictureURL: "https://placehold.co/40x40/87CEEB/FFFFFF?text=JS",
		ImageRef:          "https://placehold.co/200x200/B88C4A/FFFFFF?text=Liked+Photo+1",
		ImageKind:         models.ImageRemote,
		Location:          "Bali",
		Date:              "Mar 25, 2026",
		Description:       "Magical island worth discovering",
		LikesCount:        1,
		Comments:          []models.Comment{},
		IsLiked:           true,
	},
	{
		ID:                "liked2",
		Username:          "John Smith",
		ProfilePictureURL: "https://placehold.co/40x40/87CEEB/FFFFFF?text=JS",
		ImageRef:          "https://placehold.co/200x200/8B4513/FFFFFF?text=Liked+Photo+2",
		ImageKind:         models.ImageRemote,
		Location:          "Paris",
		Date:              "Feb 10, 2026",
		Description:       "City of love",
		LikesCount:        1,
		Comments:          []models.Comment{},
		IsLiked:           true,
	},
}

// Liked lists the photos the user liked
type Liked struct {
	chrome *chrome
	likes  *components.LikeMirror
}

// NewLiked creates the liked photos screen
func NewLiked(d Deps) *Liked {
	return &Liked{chrome: newChrome(navigation.RouteLiked, "Liked", d), likes: components.NewLikeMirror()}
}

func (l *Liked) Route() string { return navigation.RouteLiked }

func (l *Liked) Mount(context.Context) { l.chrome.mount() }

func (l *Liked) Observe(fn func()) func() { return l.chrome.header.OnChange(fn) }

func (l *Liked) Unmount() { l.chrome.unmount() }

func (l *Liked) View() components.Node {
	return l.chrome.page(feedCards(l.likes, likedPhotos)...)
}

func (l *Liked) Handle(ctx context.Context, intent components.Intent) error {
	if intent.Action == components.ActionToggleLike {
		return toggleLike(l.likes, intent.Target)
	}
	return ErrUnhandledIntent
}
