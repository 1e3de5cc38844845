// Package mongostore adapts a *mongo.Database to the store.Store
// boundary.
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/docmorph/docmorph.go/pkg/constants"
)

// Store implements store.Store on a MongoDB database.
type Store struct {
	db *mongo.Database
}

// New wraps a driver database handle.
func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

func (s *Store) InsertOne(ctx context.Context, collection string, doc []byte) error {
	_, err := s.db.Collection(collection).InsertOne(ctx, bson.Raw(doc))
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("insert into %s: %w", collection, constants.ErrDuplicateKey)
	}
	if err != nil {
		return fmt.Errorf("insert into %s: %w", collection, err)
	}
	return nil
}

func (s *Store) ReplaceOne(ctx context.Context, collection string, filter bson.D, doc []byte, upsert bool) (int64, error) {
	opts := options.Replace().SetUpsert(upsert)
	res, err := s.db.Collection(collection).ReplaceOne(ctx, filter, bson.Raw(doc), opts)
	if err != nil {
		return 0, fmt.Errorf("replace in %s: %w", collection, err)
	}
	if res.UpsertedCount > 0 {
		return res.UpsertedCount, nil
	}
	return res.MatchedCount, nil
}

func (s *Store) Find(ctx context.Context, collection string, filter bson.D) ([]bson.Raw, error) {
	cursor, err := s.db.Collection(collection).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", collection, err)
	}
	var docs []bson.Raw
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("find in %s: %w", collection, err)
	}
	return docs, nil
}

func (s *Store) FindOne(ctx context.Context, collection string, filter bson.D) (bson.Raw, error) {
	var doc bson.Raw
	err := s.db.Collection(collection).FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("find one in %s: %w", collection, constants.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find one in %s: %w", collection, err)
	}
	return doc, nil
}

func (s *Store) DeleteOne(ctx context.Context, collection string, filter bson.D) (int64, error) {
	res, err := s.db.Collection(collection).DeleteOne(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("delete in %s: %w", collection, err)
	}
	return res.DeletedCount, nil
}

func (s *Store) Aggregate(ctx context.Context, collection string, pipeline mongo.Pipeline) ([]bson.Raw, error) {
	cursor, err := s.db.Collection(collection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate over %s: %w", collection, err)
	}
	var docs []bson.Raw
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("aggregate over %s: %w", collection, err)
	}
	return docs, nil
}
