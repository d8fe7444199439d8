package models

// Comment is a single comment under a feed item
type Comment struct {
	Username string `json:"username"`
	Text     string `json:"text"`
}

// ImageKind tells a shell how to resolve FeedItem.ImageRef
type ImageKind string

const (
	ImageRemote   ImageKind = "remote"   // absolute URL
	ImageLocal    ImageKind = "local"    // handle into the device media store
	ImageResource ImageKind = "resource" // bundled placeholder resource
)

// FeedItem is one post shown in the home or liked feed.
// Items are sourced from the local media store or static placeholders, so
// like changes live only in memory.
type FeedItem struct {
	ID                string    `json:"id"`
	Username          string    `json:"username"`
	ProfilePictureURL string    `json:"profile_picture_url"`
	ImageRef          string    `json:"image_ref"`
	ImageKind         ImageKind `json:"image_kind"`
	Location          string    `json:"location"`
	Date              string    `json:"date"`
	Description       string    `json:"description"`
	LikesCount        int       `json:"likes_count"`
	Comments          []Comment `json:"comments"`
	IsLiked           bool      `json:"is_liked"`
}

// ToggleLike flips the liked flag and moves the count by exactly one
func (f *FeedItem) ToggleLike() {
	if f.IsLiked {
		f.IsLiked = false
		f.LikesCount--
		return
	}
	f.IsLiked = true
	f.LikesCount++
}
