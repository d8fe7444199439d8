package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeUserProfile(t *testing.T) {
	profile, err := DecodeUserProfile("u1", map[string]interface{}{
		FieldUsername:  "alice",
		FieldEmail:     "alice@example.com",
		FieldFollowers: []interface{}{"u2", "u3"},
		FieldFollowing: []string{"u4"},
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", profile.ID)
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, []string{"u2", "u3"}, profile.Followers)
	assert.Equal(t, []string{"u4"}, profile.Following)
	assert.Empty(t, profile.ProfilePictureURL)
}

func TestDecodeUserProfileAbsentListsAreEmpty(t *testing.T) {
	profile, err := DecodeUserProfile("u1", map[string]interface{}{FieldUsername: "bob"})
	require.NoError(t, err)
	assert.NotNil(t, profile.Followers)
	assert.Empty(t, profile.Followers)
	assert.Empty(t, profile.Following)
}

func TestDecodeUserProfileRejectsShapeMismatch(t *testing.T) {
	cases := []struct {
		name  string
		data  map[string]interface{}
		field string
	}{
		{"missing username", map[string]interface{}{}, FieldUsername},
		{"username not string", map[string]interface{}{FieldUsername: 42}, FieldUsername},
		{"followers not array", map[string]interface{}{FieldUsername: "a", FieldFollowers: "u2"}, FieldFollowers},
		{"following member not string", map[string]interface{}{FieldUsername: "a", FieldFollowing: []interface{}{"u2", 7}}, FieldFollowing},
		{"email not string", map[string]interface{}{FieldUsername: "a", FieldEmail: []interface{}{"x"}}, FieldEmail},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeUserProfile("u1", tc.data)
			var decodeErr *DecodeError
			require.True(t, errors.As(err, &decodeErr), "got %v", err)
			assert.Equal(t, tc.field, decodeErr.Field)
		})
	}
}

func TestDecodeUserProfileDoesNotConvertTypes(t *testing.T) {
	_, err := DecodeUserProfile("u1", map[string]interface{}{FieldUsername: "a", FieldFollowers: []interface{}{1, 2}})
	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, "[]string", decodeErr.Want)
	assert.Equal(t, "[]interface {}", decodeErr.Got)
	assert.Error(t, decodeErr.Unwrap())

	profile, err := DecodeUserProfile("u1", map[string]interface{}{FieldUsername: "a", FieldEmail: nil, FieldFollowers: nil})
	require.NoError(t, err)
	assert.Empty(t, profile.Email)
	assert.Equal(t, []string{}, profile.Followers)
}

func TestPlaceholderAvatar(t *testing.T) {
	assert.Equal(t, "https://placehold.co/60x60/87CEEB/FFFFFF?text=A", PlaceholderAvatar("alice", 60, "87CEEB"))
	assert.Equal(t, "https://placehold.co/40x40/FFD700/FFFFFF?text=?", PlaceholderAvatar("", 40, "FFD700"))

	withAvatar := UserProfile{Username: "zed"}.WithAvatar(80, "87CEEB")
	assert.Equal(t, "https://placehold.co/80x80/87CEEB/FFFFFF?text=Z", withAvatar.ProfilePictureURL)

	kept := UserProfile{Username: "zed", ProfilePictureURL: "https://cdn/z.png"}.WithAvatar(80, "87CEEB")
	assert.Equal(t, "https://cdn/z.png", kept.ProfilePictureURL)
}

func TestToggleLike(t *testing.T) {
	item := FeedItem{ID: "p1", LikesCount: 10}

	item.ToggleLike()
	assert.True(t, item.IsLiked)
	assert.Equal(t, 11, item.LikesCount)

	item.ToggleLike()
	assert.False(t, item.IsLiked)
	assert.Equal(t, 10, item.LikesCount)
}

func TestToDocumentNeverEmitsNilLists(t *testing.T) {
	doc := UserProfile{ID: "u1", Username: "a"}.ToDocument()
	assert.Equal(t, []string{}, doc[FieldFollowers])
	assert.Equal(t, []string{}, doc[FieldFollowing])
	assert.Equal(t, "u1", doc[FieldUserID])
}
