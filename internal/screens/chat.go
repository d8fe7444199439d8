package screens

import (
	"context"
	"time"

	"github.com/anonto42/snapfeed/internal/binder"
	"github.com/anonto42/snapfeed/internal/components"
	"github.com/anonto42/snapfeed/internal/models"
	"github.com/anonto42/snapfeed/internal/navigation"
)

// FieldMessage is the chat room draft field id
const FieldMessage = "message"

// ChatList lists conversations
type ChatList struct {
	deps  Deps
	items *binder.Binder[[]models.ChatListItem]
}

// NewChatList creates the chat list screen
func NewChatList(d Deps) *ChatList {
	return &ChatList{deps: d, items: binder.New[[]models.ChatListItem]("chat_list", d.Loop, d.Logger)}
}

func (c *ChatList) Route() string { return navigation.RouteChatList }

func (c *ChatList) Mount(context.Context) {
	c.items.Load(func(ctx context.Context) ([]models.ChatListItem, error) {
		now := c.deps.now()
		items := []models.ChatListItem{
			{UserID: "rachel", Username: "Rachel", ProfilePictureURL: "https://placehold.co/40x40/FF6347/FFFFFF?text=R", LastMessage: "Udah makan belum?", LastMessageTimestamp: now.Add(-time.Hour)},
			{UserID: "michael", Username: "Michael", ProfilePictureURL: "https://placehold.co/40x40/4682B4/FFFFFF?text=M", LastMessage: "Dimana tuh tempatnya?", LastMessageTimestamp: now.Add(-2 * time.Hour)},
			{UserID: "emma", Username: "Emma", ProfilePictureURL: "https://placehold.co/40x40/3CB371/FFFFFF?text=E", LastMessage: "Aku beli di demangan sih", LastMessageTimestamp: now.Add(-3 * time.Hour)},
		}
		for i, item := range items {
			if last, ok := c.deps.Chats.Last(item.Username); ok {
				items[i].LastMessage = last.Text
				items[i].LastMessageTimestamp = last.Timestamp
			}
		}
		return items, nil
	}, nil)
}

func (c *ChatList) Observe(fn func()) func() { return c.items.OnChange(fn) }

func (c *ChatList) Unmount() { c.items.Unmount() }

func (c *ChatList) View() components.Node {
	s := c.items.Snapshot()
	children := []components.Node{
		components.Button("back", "Back", &components.Intent{Action: components.ActionBack}),
		components.Text("title", "Chat"),
	}
	for _, item := range s.Data {
		children = append(children, components.ChatListItemCard(item))
	}
	return components.Node{Type: components.TypeScreen, ID: navigation.RouteChatList, Props: map[string]any{"title": "Chat"}, Children: children}
}

func (c *ChatList) Handle(ctx context.Context, intent components.Intent) error {
	return ErrUnhandledIntent
}

type chatRoomView struct {
	Thread models.ChatThread `json:"thread"`
	Draft  string            `json:"draft"`
}

// ChatRoom shows one conversation. The partner is identified by the display
// name carried in the route.
type ChatRoom struct {
	deps    Deps
	partner string
	state   *binder.Binder[chatRoomView]
}

// NewChatRoom creates the chat room screen for partner
func NewChatRoom(d Deps, partner string) *ChatRoom {
	return &ChatRoom{deps: d, partner: partner, state: binder.New[chatRoomView]("chat_room", d.Loop, d.Logger)}
}

func (c *ChatRoom) Route() string { return navigation.ChatRoom(c.partner) }

func (c *ChatRoom) Mount(context.Context) {
	thread := c.deps.Chats.Thread(c.partner)
	_ = c.state.Mutate(func(s *binder.State[chatRoomView]) {
		s.Data.Thread = thread
		s.Loaded = true
	})
}

func (c *ChatRoom) Observe(fn func()) func() { return c.state.OnChange(fn) }

func (c *ChatRoom) Unmount() { c.state.Unmount() }

func (c *ChatRoom) View() components.Node {
	s := c.state.Snapshot()
	header := components.Row("chat_header",
		components.Button("back", "Back", &components.Intent{Action: components.ActionBack}),
		components.Image("partner_avatar", models.PlaceholderAvatar(c.partner, 40, "3CB371"), string(models.ImageRemote), 40),
		components.Text("title", c.partner),
		components.Text("subtitle", "Today"),
	)
	messages := make([]components.Node, 0, len(s.Data.Thread.Messages))
	for _, msg := range s.Data.Thread.Messages {
		messages = append(messages, components.MessageBubble(msg))
	}
	return components.Node{
		Type:  components.TypeScreen,
		ID:    "chat_room",
		Props: map[string]any{"title": c.partner},
		Children: []components.Node{
			header,
			components.Column("messages", messages...),
			components.Row("composer",
				components.Field(FieldMessage, "Write a message...", s.Data.Draft, false),
				components.Button("send", "Send Message", &components.Intent{Action: components.ActionSend}),
			),
		},
	}
}

func (c *ChatRoom) Handle(ctx context.Context, intent components.Intent) error {
	switch intent.Action {
	case components.ActionInput:
		if intent.Target != FieldMessage {
			return ErrUnhandledIntent
		}
		return c.state.Mutate(func(s *binder.State[chatRoomView]) { s.Data.Draft = intent.Value })
	case components.ActionSend:
		text := intent.Value
		if text == "" {
			text = c.state.Snapshot().Data.Draft
		}
		thread, sent := c.deps.Chats.Send(c.partner, text)
		if !sent {
			return nil
		}
		return c.state.Mutate(func(s *binder.State[chatRoomView]) {
			s.Data.Thread = thread
			s.Data.Draft = ""
		})
	}
	return ErrUnhandledIntent
}
