// Package gateway defines the remote document store and identity service the
// client core talks to, and provides Firestore, MongoDB and in-memory
// implementations of it.
package gateway

import "context"

// PrefixUpperBound is appended to a prefix to close the range of a prefix query
const PrefixUpperBound = "\uf8ff"

// Document is a single stored document
type Document struct {
	ID   string
	Data map[string]interface{}
}

// DocumentStore is a document database keyed by collection and document id.
// All failures are reported as *Error.
type DocumentStore interface {
	// Get returns the document or a KindNotFound error
	Get(ctx context.Context, collection, id string) (Document, error)
	// Set creates or replaces a document
	Set(ctx context.Context, collection, id string, data map[string]interface{}) error
	// Update merges fields into an existing document
	Update(ctx context.Context, collection, id string, fields map[string]interface{}) error
	// ArrayUnion appends values missing from an array field
	ArrayUnion(ctx context.Context, collection, id, field string, values ...string) error
	// ArrayRemove removes every occurrence of values from an array field
	ArrayRemove(ctx context.Context, collection, id, field string, values ...string) error
	// PrefixQuery returns documents whose field lies in [prefix, prefix+PrefixUpperBound]
	PrefixQuery(ctx context.Context, collection, field, prefix string) ([]Document, error)
}

// Identity is the signed-in user as reported by the auth service
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	PhotoURL    string `json:"photo_url,omitempty"`
	Provider    string `json:"provider"`
	Token       string `json:"token"`
}

// AuthService issues and verifies identities
type AuthService interface {
	SignUp(ctx context.Context, email, password string) (Identity, error)
	SignInWithPassword(ctx context.Context, email, password string) (Identity, error)
	SignInWithCredential(ctx context.Context, idToken string) (Identity, error)
	VerifyToken(ctx context.Context, token string) (Identity, error)
	SignOut(ctx context.Context, identity Identity) error
}
