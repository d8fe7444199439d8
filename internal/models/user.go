package models

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-viper/mapstructure/v2"
)

// UsersCollection is the document collection holding user profiles
const UsersCollection = "users"

// Field names of a users/{id} document
const (
	FieldUsername          = "username"
	FieldEmail             = "email"
	FieldUserID            = "userId"
	FieldProfilePictureURL = "profilePictureUrl"
	FieldFollowers         = "followers"
	FieldFollowing         = "following"
)

// UserProfile is the local copy of a users/{id} document
type UserProfile struct {
	ID                string   `json:"id"`
	Username          string   `json:"username"`
	Email             string   `json:"email"`
	ProfilePictureURL string   `json:"profile_picture_url"`
	Followers         []string `json:"followers"`
	Following         []string `json:"following"`
}

// IsFollowing reports whether the profile follows userID
func (u UserProfile) IsFollowing(userID string) bool {
	for _, id := range u.Following {
		if id == userID {
			return true
		}
	}
	return false
}

// WithAvatar returns a copy whose empty avatar is replaced by a generated placeholder
func (u UserProfile) WithAvatar(size int, background string) UserProfile {
	if u.ProfilePictureURL == "" {
		u.ProfilePictureURL = PlaceholderAvatar(u.Username, size, background)
	}
	return u
}

// ToDocument converts the profile into the field map stored under users/{id}
func (u UserProfile) ToDocument() map[string]interface{} {
	followers := u.Followers
	if followers == nil {
		followers = []string{}
	}
	following := u.Following
	if following == nil {
		following = []string{}
	}
	return map[string]interface{}{
		FieldUsername:          u.Username,
		FieldEmail:             u.Email,
		FieldUserID:            u.ID,
		FieldProfilePictureURL: u.ProfilePictureURL,
		FieldFollowers:         followers,
		FieldFollowing:         following,
	}
}

// DecodeError reports a document field whose shape does not match the schema
type DecodeError struct {
	Field string
	Want  string
	Got   string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode field %q: want %s, got %s: %v", e.Field, e.Want, e.Got, e.Err)
	}
	return fmt.Sprintf("decode field %q: want %s, got %s", e.Field, e.Want, e.Got)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// DecodeUserProfile maps raw document fields onto a UserProfile.
// Absent optional fields decode to their zero value; present fields of the
// wrong type are rejected.
func DecodeUserProfile(id string, data map[string]interface{}) (UserProfile, error) {
	if data[FieldUsername] == nil {
		return UserProfile{}, &DecodeError{Field: FieldUsername, Want: "string", Got: "missing"}
	}
	profile := UserProfile{ID: id, Followers: []string{}, Following: []string{}}
	fields := []struct {
		name string
		into interface{}
	}{
		{FieldUsername, &profile.Username},
		{FieldEmail, &profile.Email},
		{FieldProfilePictureURL, &profile.ProfilePictureURL},
		{FieldFollowers, &profile.Followers},
		{FieldFollowing, &profile.Following},
	}
	for _, f := range fields {
		if err := decodeField(data, f.name, f.into); err != nil {
			return UserProfile{}, err
		}
	}
	return profile, nil
}

// decodeField strictly decodes data[name] into the value into points to.
// Absent and null fields leave it untouched.
func decodeField(data map[string]interface{}, name string, into interface{}) error {
	raw, ok := data[name]
	if !ok || raw == nil {
		return nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           into,
		WeaklyTypedInput: false,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(raw); err != nil {
		return &DecodeError{
			Field: name,
			Want:  reflect.TypeOf(into).Elem().String(),
			Got:   fmt.Sprintf("%T", raw),
			Err:   err,
		}
	}
	return nil
}

// PlaceholderAvatar builds a generated avatar URL showing the name's initial
func PlaceholderAvatar(name string, size int, background string) string {
	initial := "?"
	if r, _ := utf8.DecodeRuneInString(strings.TrimSpace(name)); r != utf8.RuneError {
		initial = string(unicode.ToUpper(r))
	}
	return fmt.Sprintf("https://placehold.co/%dx%d/%s/FFFFFF?text=%s", size, size, background, initial)
}
