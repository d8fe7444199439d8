// Package social maintains user profiles and the follow graph stored as two
// array fields on users/{id} documents.
package social

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anonto42/snapfeed/internal/gateway"
	"github.com/anonto42/snapfeed/internal/models"
	"go.uber.org/zap"
)

// Side names one of the two documents touched by a follow edge update
type Side string

const (
	SideActor  Side = "actor"
	SideTarget Side = "target"
)

// ErrSelfFollow is returned when a user tries to follow themselves
var ErrSelfFollow = errors.New("cannot follow yourself")

// PartialFollowError reports a follow edge update whose first write succeeded
// and whose second write failed, leaving the two documents out of sync.
type PartialFollowError struct {
	Actor  string
	Target string
	Failed Side
	Err    error
}

func (e *PartialFollowError) Error() string {
	return fmt.Sprintf("follow edge %s -> %s left asymmetric: %s write failed: %v", e.Actor, e.Target, e.Failed, e.Err)
}

func (e *PartialFollowError) Unwrap() error {
	return e.Err
}

// Graph reads profiles and updates follow edges.
//
// Edge updates are best-effort and eventually consistent: the actor's
// following array is written first, then the target's followers array, with
// no transaction and no compensating rollback.
type Graph struct {
	store  gateway.DocumentStore
	logger *zap.Logger
}

// NewGraph creates a new Graph
func NewGraph(store gateway.DocumentStore, logger *zap.Logger) *Graph {
	return &Graph{store: store, logger: logger.Named("social")}
}

// Profile fetches and decodes users/{id}
func (g *Graph) Profile(ctx context.Context, id string) (models.UserProfile, error) {
	doc, err := g.store.Get(ctx, models.UsersCollection, id)
	if err != nil {
		return models.UserProfile{}, err
	}
	return models.DecodeUserProfile(doc.ID, doc.Data)
}

// CreateProfile writes a fresh users/{id} document
func (g *Graph) CreateProfile(ctx context.Context, profile models.UserProfile) error {
	return g.store.Set(ctx, models.UsersCollection, profile.ID, profile.ToDocument())
}

// EnsureProfile creates users/{uid} for an identity that has none yet and
// reports whether a document was created.
func (g *Graph) EnsureProfile(ctx context.Context, identity gateway.Identity) (bool, error) {
	_, err := g.store.Get(ctx, models.UsersCollection, identity.UID)
	if err == nil {
		return false, nil
	}
	if !gateway.IsNotFound(err) {
		return false, err
	}
	username := identity.DisplayName
	if username == "" {
		username, _, _ = strings.Cut(identity.Email, "@")
	}
	if username == "" {
		username = "User"
	}
	profile := models.UserProfile{
		ID:                identity.UID,
		Username:          username,
		Email:             identity.Email,
		ProfilePictureURL: identity.PhotoURL,
	}
	if err := g.CreateProfile(ctx, profile); err != nil {
		return false, err
	}
	g.logger.Info("created profile for federated user", zap.String("uid", identity.UID))
	return true, nil
}

// FollowingIDs returns the ids actorID follows
func (g *Graph) FollowingIDs(ctx context.Context, actorID string) ([]string, error) {
	profile, err := g.Profile(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return profile.Following, nil
}

// Follow records actorID -> targetID on both documents
func (g *Graph) Follow(ctx context.Context, actorID, targetID string) error {
	return g.updateEdge(ctx, actorID, targetID, g.store.ArrayUnion)
}

// Unfollow removes actorID -> targetID from both documents
func (g *Graph) Unfollow(ctx context.Context, actorID, targetID string) error {
	return g.updateEdge(ctx, actorID, targetID, g.store.ArrayRemove)
}

type arrayOp func(ctx context.Context, collection, id, field string, values ...string) error

func (g *Graph) updateEdge(ctx context.Context, actorID, targetID string, op arrayOp) error {
	if actorID == "" || targetID == "" {
		return &gateway.Error{Kind: gateway.KindInvalidArgument, Op: "follow", Collection: models.UsersCollection, Err: errors.New("user id is required")}
	}
	if actorID == targetID {
		return &gateway.Error{Kind: gateway.KindInvalidArgument, Op: "follow", Collection: models.UsersCollection, ID: actorID, Err: ErrSelfFollow}
	}

	if err := op(ctx, models.UsersCollection, actorID, models.FieldFollowing, targetID); err != nil {
		return err
	}
	if err := op(ctx, models.UsersCollection, targetID, models.FieldFollowers, actorID); err != nil {
		g.logger.Warn("follow edge left asymmetric",
			zap.String("actor", actorID),
			zap.String("target", targetID),
			zap.Error(err),
		)
		return &PartialFollowError{Actor: actorID, Target: targetID, Failed: SideTarget, Err: err}
	}
	return nil
}

// Search returns profiles whose username starts with query, excluding excludeID.
// A blank query returns nothing without touching the store.
func (g *Graph) Search(ctx context.Context, query, excludeID string) ([]models.UserProfile, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	docs, err := g.store.PrefixQuery(ctx, models.UsersCollection, models.FieldUsername, query)
	if err != nil {
		return nil, err
	}
	results := make([]models.UserProfile, 0, len(docs))
	for _, doc := range docs {
		if doc.ID == excludeID {
			continue
		}
		username, ok := doc.Data[models.FieldUsername].(string)
		if !ok || username == "" {
			continue
		}
		results = append(results, models.UserProfile{
			ID:                doc.ID,
			Username:          username,
			ProfilePictureURL: models.PlaceholderAvatar(username, 40, "FFD700"),
		})
	}
	return results, nil
}
