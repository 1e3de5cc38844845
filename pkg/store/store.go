// Package store defines the raw document storage boundary consumed by
// the datastore. Implementations move encoded documents in and out of
// named collections and know nothing about entity models.
package store

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Store is the raw document store. Documents cross the boundary as
// encoded BSON: callers marshal before writing and receive bson.Raw
// back from reads.
type Store interface {
	// InsertOne stores a new document.
	InsertOne(ctx context.Context, collection string, doc []byte) error

	// ReplaceOne replaces the first document matching filter and
	// reports how many matched. With upsert, a non-matching filter
	// inserts instead.
	ReplaceOne(ctx context.Context, collection string, filter bson.D, doc []byte, upsert bool) (matched int64, err error)

	// Find returns all documents matching filter.
	Find(ctx context.Context, collection string, filter bson.D) ([]bson.Raw, error)

	// FindOne returns the first document matching filter, or an error
	// wrapping constants.ErrNotFound.
	FindOne(ctx context.Context, collection string, filter bson.D) (bson.Raw, error)

	// DeleteOne removes the first document matching filter and
	// reports how many were deleted.
	DeleteOne(ctx context.Context, collection string, filter bson.D) (int64, error)

	// Aggregate runs an aggregation pipeline over a collection.
	Aggregate(ctx context.Context, collection string, pipeline mongo.Pipeline) ([]bson.Raw, error)
}
