// Package fakestore is an in-memory store.Store used by tests. It
// keeps encoded documents per collection, evaluates the filter subset
// the datastore emits (equality and the $eq/$ne/$in/$gt/$gte/$lt/$lte
// operators) and a small aggregation evaluator covering $match,
// $lookup, $sort, $skip, $limit and $count.
package fakestore

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/docmorph/docmorph.go/pkg/constants"
)

// Store implements store.Store in memory.
type Store struct {
	mu          sync.RWMutex
	collections map[string][]bson.Raw
	queries     int
}

func New() *Store {
	return &Store{collections: make(map[string][]bson.Raw)}
}

// Queries returns how many read operations ran, letting tests assert
// that a cached resolution performed no further I/O.
func (s *Store) Queries() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queries
}

// Count returns the number of documents in a collection.
func (s *Store) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}

func (s *Store) InsertOne(_ context.Context, collection string, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw := bson.Raw(doc)
	if id, err := raw.LookupErr("_id"); err == nil {
		for _, existing := range s.collections[collection] {
			if other, err := existing.LookupErr("_id"); err == nil && rawValueEqual(other, id) {
				return fmt.Errorf("insert into %s: %w", collection, constants.ErrDuplicateKey)
			}
		}
	}
	s.collections[collection] = append(s.collections[collection], append(bson.Raw{}, raw...))
	return nil
}

func (s *Store) ReplaceOne(_ context.Context, collection string, filter bson.D, doc []byte, upsert bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := s.collections[collection]
	for i, existing := range docs {
		if matches(existing, filter) {
			docs[i] = append(bson.Raw{}, doc...)
			return 1, nil
		}
	}
	if upsert {
		s.collections[collection] = append(docs, append(bson.Raw{}, doc...))
		return 1, nil
	}
	return 0, nil
}

func (s *Store) Find(_ context.Context, collection string, filter bson.D) ([]bson.Raw, error) {
	s.mu.Lock()
	s.queries++
	s.mu.Unlock()

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []bson.Raw
	for _, doc := range s.collections[collection] {
		if matches(doc, filter) {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (s *Store) FindOne(ctx context.Context, collection string, filter bson.D) (bson.Raw, error) {
	docs, err := s.Find(ctx, collection, filter)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("find one in %s: %w", collection, constants.ErrNotFound)
	}
	return docs[0], nil
}

func (s *Store) DeleteOne(_ context.Context, collection string, filter bson.D) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := s.collections[collection]
	for i, doc := range docs {
		if matches(doc, filter) {
			s.collections[collection] = append(docs[:i:i], docs[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (s *Store) Aggregate(_ context.Context, collection string, pipeline mongo.Pipeline) ([]bson.Raw, error) {
	s.mu.Lock()
	s.queries++
	s.mu.Unlock()

	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := append([]bson.Raw{}, s.collections[collection]...)
	return s.evaluate(docs, pipeline)
}
