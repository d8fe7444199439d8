package models

// NotificationFriendRequest is the only notification type produced today
const NotificationFriendRequest = "friend_request"

// NotificationItem represents an entry on the notifications screen
type NotificationItem struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	ProfilePictureURL string `json:"profile_picture_url"`
	Type              string `json:"type"` // friend_request
}
