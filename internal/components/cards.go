package components

import (
	"strconv"

	"github.com/anonto42/snapfeed/internal/models"
	"github.com/anonto42/snapfeed/internal/navigation"
)

// FeedCard renders a feed post with its like control and comments
func FeedCard(item models.FeedItem) Node {
	likeColor := "gray"
	if item.IsLiked {
		likeColor = "red"
	}
	like := Button("like:"+item.ID, strconv.Itoa(item.LikesCount),
		&Intent{Action: ActionToggleLike, Target: item.ID})
	like.Props["liked"] = item.IsLiked
	like.Props["tint"] = likeColor

	children := []Node{
		Row("header:"+item.ID,
			Image("avatar:"+item.ID, item.ProfilePictureURL, string(models.ImageRemote), 40),
			Text("username:"+item.ID, item.Username),
			Text("location:"+item.ID, item.Location),
		),
		Image("image:"+item.ID, item.ImageRef, string(item.ImageKind), 0),
		Row("actions:"+item.ID,
			like,
			Text("comments:"+item.ID, strconv.Itoa(len(item.Comments))),
		),
		Text("description:"+item.ID, item.Description),
	}
	for i, c := range item.Comments {
		id := item.ID + ":" + strconv.Itoa(i)
		children = append(children, Row("comment:"+id,
			Text("comment_user:"+id, c.Username),
			Text("comment_text:"+id, c.Text),
		))
	}
	children = append(children, Text("date:"+item.ID, item.Date))
	return Node{Type: TypeCard, ID: "feed:" + item.ID, Children: children}
}

// UserSearchCard renders a search result with its add or following button
func UserSearchCard(user models.UserProfile, following bool) Node {
	label := "Add"
	if following {
		label = "Following"
	}
	add := Button("add:"+user.ID, label, &Intent{Action: ActionAddFriend, Target: user.ID, Value: user.Username})
	add.Props["following"] = following
	return Node{Type: TypeCard, ID: "user:" + user.ID, Children: []Node{
		Image("avatar:"+user.ID, user.ProfilePictureURL, string(models.ImageRemote), 40),
		Text("username:"+user.ID, user.Username),
		add,
	}}
}

// MessageBubble renders one chat message aligned by sender
func MessageBubble(msg models.ChatMessage) Node {
	align := "start"
	if msg.IsSentByMe {
		align = "end"
	}
	n := Text("message:"+msg.ID, msg.Text)
	n.Props["align"] = align
	n.Props["sender"] = msg.SenderName
	n.Props["timestamp"] = msg.Timestamp
	return n
}

// ChatListItemCard renders a conversation row opening its chat room
func ChatListItemCard(item models.ChatListItem) Node {
	n := Node{Type: TypeCard, ID: "chat:" + item.UserID, Children: []Node{
		Image("avatar:"+item.UserID, item.ProfilePictureURL, string(models.ImageRemote), 48),
		Text("username:"+item.UserID, item.Username),
		Text("last:"+item.UserID, item.LastMessage),
		Text("time:"+item.UserID, item.LastMessageTimestamp.Format("15:04")),
	}}
	n.Intent = NavigateTo(navigation.ChatRoom(item.Username), navigation.NavOptions{})
	return n
}

// NotificationCard renders a friend request with accept and reject actions
func NotificationCard(item models.NotificationItem) Node {
	return Node{Type: TypeCard, ID: "notification:" + item.ID, Children: []Node{
		Image("avatar:"+item.ID, item.ProfilePictureURL, string(models.ImageRemote), 48),
		Text("text:"+item.ID, item.Username+" send a friend request"),
		Button("accept:"+item.ID, "Accept", &Intent{Action: ActionAccept, Target: item.ID}),
		Button("reject:"+item.ID, "Reject", &Intent{Action: ActionReject, Target: item.ID}),
	}}
}
