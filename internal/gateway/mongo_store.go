package gateway

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements DocumentStore on MongoDB, one collection per document collection
type MongoStore struct {
	db *mongo.Database
}

// NewMongoStore creates a new MongoStore
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

func (s *MongoStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var raw bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if err != nil {
		return Document{}, classifyMongo(string(OpGet), collection, id, err)
	}
	return toDocument(raw), nil
}

func (s *MongoStore) Set(ctx context.Context, collection, id string, data map[string]interface{}) error {
	replacement := bson.M{}
	for k, v := range data {
		replacement[k] = v
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.db.Collection(collection).ReplaceOne(ctx, bson.M{"_id": id}, replacement, opts); err != nil {
		return classifyMongo(string(OpSet), collection, id, err)
	}
	return nil
}

func (s *MongoStore) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	return s.updateOne(ctx, OpUpdate, collection, id, bson.M{"$set": bson.M(fields)})
}

func (s *MongoStore) ArrayUnion(ctx context.Context, collection, id, field string, values ...string) error {
	update := bson.M{"$addToSet": bson.M{field: bson.M{"$each": values}}}
	return s.updateOne(ctx, OpArrayUnion, collection, id, update)
}

func (s *MongoStore) ArrayRemove(ctx context.Context, collection, id, field string, values ...string) error {
	update := bson.M{"$pull": bson.M{field: bson.M{"$in": values}}}
	return s.updateOne(ctx, OpArrayRemove, collection, id, update)
}

func (s *MongoStore) updateOne(ctx context.Context, op Op, collection, id string, update bson.M) error {
	res, err := s.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return classifyMongo(string(op), collection, id, err)
	}
	if res.MatchedCount == 0 {
		return newError(KindNotFound, string(op), collection, id, nil)
	}
	return nil
}

func (s *MongoStore) PrefixQuery(ctx context.Context, collection, field, prefix string) ([]Document, error) {
	filter := bson.M{field: bson.M{"$gte": prefix, "$lte": prefix + PrefixUpperBound}}
	findOptions := options.Find().SetSort(bson.D{{Key: field, Value: 1}})
	cursor, err := s.db.Collection(collection).Find(ctx, filter, findOptions)
	if err != nil {
		return nil, classifyMongo(string(OpPrefixQuery), collection, "", err)
	}
	defer cursor.Close(ctx)

	var raws []bson.M
	if err := cursor.All(ctx, &raws); err != nil {
		return nil, classifyMongo(string(OpPrefixQuery), collection, "", err)
	}
	docs := make([]Document, 0, len(raws))
	for _, raw := range raws {
		docs = append(docs, toDocument(raw))
	}
	return docs, nil
}

// toDocument strips _id and flattens BSON arrays into []interface{}
func toDocument(raw bson.M) Document {
	doc := Document{Data: make(map[string]interface{}, len(raw))}
	for k, v := range raw {
		if k == "_id" {
			doc.ID = fmt.Sprint(v)
			continue
		}
		if arr, ok := v.(primitive.A); ok {
			doc.Data[k] = []interface{}(arr)
			continue
		}
		doc.Data[k] = v
	}
	return doc
}

func classifyMongo(op, collection, id string, err error) *Error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return newError(KindNotFound, op, collection, id, nil)
	case mongo.IsDuplicateKeyError(err):
		return newError(KindConflict, op, collection, id, err)
	case mongo.IsNetworkError(err), mongo.IsTimeout(err), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return newError(KindNetwork, op, collection, id, err)
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && (cmdErr.Code == 13 || cmdErr.Code == 18) {
		return newError(KindPermissionDenied, op, collection, id, err)
	}
	return newError(KindInternal, op, collection, id, err)
}
