package components

import (
	"sync"

	"github.com/anonto42/snapfeed/internal/models"
)

// LikeMirror keeps per-card like state. A card's first render seeds it from
// the item; later toggles change only the mirror.
type LikeMirror struct {
	mu    sync.Mutex
	items map[string]models.FeedItem
}

// NewLikeMirror creates an empty mirror
func NewLikeMirror() *LikeMirror {
	return &LikeMirror{items: make(map[string]models.FeedItem)}
}

// Apply returns item with the mirrored like flag and count
func (m *LikeMirror) Apply(item models.FeedItem) models.FeedItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	mirrored, ok := m.items[item.ID]
	if !ok {
		m.items[item.ID] = item
		return item
	}
	item.IsLiked = mirrored.IsLiked
	item.LikesCount = mirrored.LikesCount
	return item
}

// Toggle flips the like state of id and returns the new flag. Unknown ids
// report false, ok=false.
func (m *LikeMirror) Toggle(id string) (liked bool, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return false, false
	}
	item.ToggleLike()
	m.items[id] = item
	return item.IsLiked, true
}

// Reset forgets every card
func (m *LikeMirror) Reset() {
	m.mu.Lock()
	m.items = make(map[string]models.FeedItem)
	m.mu.Unlock()
}
