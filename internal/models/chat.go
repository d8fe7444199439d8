package models

import "time"

// ChatListItem is one conversation row in the chat list
type ChatListItem struct {
	UserID               string    `json:"user_id"`
	Username             string    `json:"username"`
	ProfilePictureURL    string    `json:"profile_picture_url"`
	LastMessage          string    `json:"last_message"`
	LastMessageTimestamp time.Time `json:"last_message_timestamp"`
}

// ChatMessage is a single message inside a chat thread
type ChatMessage struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
	IsSentByMe bool      `json:"is_sent_by_me"`
}

// ChatThread holds the ordered messages exchanged with one partner.
// Threads are keyed by the partner's display name, not a stable id.
type ChatThread struct {
	PartnerName string        `json:"partner_name"`
	Messages    []ChatMessage `json:"messages"`
}

// LastMessage returns the most recent message, if any
func (t ChatThread) LastMessage() (ChatMessage, bool) {
	if len(t.Messages) == 0 {
		return ChatMessage{}, false
	}
	return t.Messages[len(t.Messages)-1], true
}
