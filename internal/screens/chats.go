package screens

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/anonto42/snapfeed/internal/models"
)

// ChatStore keeps a session's chat threads in memory, keyed by the partner's
// display name. A thread is seeded with sample messages on first open.
type ChatStore struct {
	mu      sync.Mutex
	threads map[string]*models.ChatThread
	now     func() time.Time
}

// NewChatStore creates an empty ChatStore
func NewChatStore(now func() time.Time) *ChatStore {
	if now == nil {
		now = time.Now
	}
	return &ChatStore{threads: make(map[string]*models.ChatThread), now: now}
}

func (c *ChatStore) threadLocked(partner string) *models.ChatThread {
	t, ok := c.threads[partner]
	if ok {
		return t
	}
	at := c.now()
	t = &models.ChatThread{PartnerName: partner, Messages: []models.ChatMessage{
		{ID: "m1", SenderID: "other", SenderName: partner, Text: "tu kopi yang lagi viral gk sih?", Timestamp: at},
		{ID: "m2", SenderID: "me", SenderName: "Me", Text: "Iya, enak banget!", Timestamp: at, IsSentByMe: true},
		{ID: "m3", SenderID: "other", SenderName: partner, Text: "Kamu belinya dimana?", Timestamp: at},
		{ID: "m4", SenderID: "me", SenderName: "Me", Text: "Aku beli di demangan sih", Timestamp: at, IsSentByMe: true},
	}}
	c.threads[partner] = t
	return t
}

func copyThread(t *models.ChatThread) models.ChatThread {
	out := models.ChatThread{PartnerName: t.PartnerName, Messages: make([]models.ChatMessage, len(t.Messages))}
	copy(out.Messages, t.Messages)
	return out
}

// Thread returns the thread with partner, creating it if needed
func (c *ChatStore) Thread(partner string) models.ChatThread {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyThread(c.threadLocked(partner))
}

// Send appends a message from the signed-in user. Blank text is ignored.
func (c *ChatStore) Send(partner, text string) (models.ChatThread, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.threadLocked(partner)
	if strings.TrimSpace(text) == "" {
		return copyThread(t), false
	}
	t.Messages = append(t.Messages, models.ChatMessage{
		ID:         uuid.NewString(),
		SenderID:   "me",
		SenderName: "Me",
		Text:       text,
		Timestamp:  c.now(),
		IsSentByMe: true,
	})
	return copyThread(t), true
}

// Last returns the newest message of an opened thread
func (c *ChatStore) Last(partner string) (models.ChatMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.threads[partner]
	if !ok {
		return models.ChatMessage{}, false
	}
	return t.LastMessage()
}
