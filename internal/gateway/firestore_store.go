package gateway

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore implements DocumentStore on Cloud Firestore
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore creates a new FirestoreStore
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) Get(ctx context.Context, collection, id string) (Document, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return Document{}, classifyGRPC(string(OpGet), collection, id, err)
	}
	if !snap.Exists() {
		return Document{}, newError(KindNotFound, string(OpGet), collection, id, nil)
	}
	return Document{ID: snap.Ref.ID, Data: snap.Data()}, nil
}

func (s *FirestoreStore) Set(ctx context.Context, collection, id string, data map[string]interface{}) error {
	if _, err := s.client.Collection(collection).Doc(id).Set(ctx, data); err != nil {
		return classifyGRPC(string(OpSet), collection, id, err)
	}
	return nil
}

func (s *FirestoreStore) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	updates := make([]firestore.Update, 0, len(fields))
	for path, value := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}
	if _, err := s.client.Collection(collection).Doc(id).Update(ctx, updates); err != nil {
		return classifyGRPC(string(OpUpdate), collection, id, err)
	}
	return nil
}

func (s *FirestoreStore) ArrayUnion(ctx context.Context, collection, id, field string, values ...string) error {
	update := firestore.Update{Path: field, Value: firestore.ArrayUnion(toInterfaces(values)...)}
	if _, err := s.client.Collection(collection).Doc(id).Update(ctx, []firestore.Update{update}); err != nil {
		return classifyGRPC(string(OpArrayUnion), collection, id, err)
	}
	return nil
}

func (s *FirestoreStore) ArrayRemove(ctx context.Context, collection, id, field string, values ...string) error {
	update := firestore.Update{Path: field, Value: firestore.ArrayRemove(toInterfaces(values)...)}
	if _, err := s.client.Collection(collection).Doc(id).Update(ctx, []firestore.Update{update}); err != nil {
		return classifyGRPC(string(OpArrayRemove), collection, id, err)
	}
	return nil
}

func (s *FirestoreStore) PrefixQuery(ctx context.Context, collection, field, prefix string) ([]Document, error) {
	snaps, err := s.client.Collection(collection).
		Where(field, ">=", prefix).
		Where(field, "<=", prefix+PrefixUpperBound).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, classifyGRPC(string(OpPrefixQuery), collection, "", err)
	}
	docs := make([]Document, 0, len(snaps))
	for _, snap := range snaps {
		docs = append(docs, Document{ID: snap.Ref.ID, Data: snap.Data()})
	}
	return docs, nil
}

// classifyGRPC maps a Firestore RPC status onto an ErrorKind
func classifyGRPC(op, collection, id string, err error) *Error {
	kind := KindInternal
	switch status.Code(err) {
	case codes.NotFound:
		kind = KindNotFound
	case codes.PermissionDenied:
		kind = KindPermissionDenied
	case codes.Unauthenticated:
		kind = KindUnauthenticated
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		kind = KindInvalidArgument
	case codes.AlreadyExists, codes.Aborted:
		kind = KindConflict
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled, codes.ResourceExhausted:
		kind = KindNetwork
	}
	return newError(kind, op, collection, id, err)
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
