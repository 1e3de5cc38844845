package refs_test

import (
	"context"
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type Author struct {
	ID   bson.ObjectID `bson:"_id,omitempty"`
	Name string        `bson:"name"`
}

// stubResolver serves canned documents and counts fetches so tests can
// assert that resolution is lazy and happens at most once.
type stubResolver struct {
	mu      sync.Mutex
	docs    []bson.Raw
	fetches int
	reverse bool
}

func newStubResolver(t *testing.T, authors ...*Author) *stubResolver {
	t.Helper()
	s := &stubResolver{}
	for _, a := range authors {
		raw, err := bson.Marshal(a)
		require.NoError(t, err)
		s.docs = append(s.docs, raw)
	}
	return s
}

func (s *stubResolver) Fetches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

func (s *stubResolver) FetchByIDs(_ context.Context, _ reflect.Type, ids []any) ([]bson.Raw, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	var out []bson.Raw
	for _, doc := range s.docs {
		id := doc.Lookup("_id")
		for _, want := range ids {
			if objID, ok := want.(bson.ObjectID); ok && objID == id.ObjectID() {
				out = append(out, doc)
				break
			}
		}
	}
	if s.reverse {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

func (s *stubResolver) Materialize(ctx context.Context, doc bson.Raw, declared reflect.Type) (any, error) {
	dst := reflect.New(declared).Interface()
	return dst, s.Decode(ctx, doc, dst)
}

func (s *stubResolver) Decode(_ context.Context, doc bson.Raw, dst any) error {
	return bson.Unmarshal(doc, dst)
}

type Asset struct {
	ID   bson.Binary `bson:"_id"`
	Name string      `bson:"name"`
}

// binaryStub serves every canned document regardless of the requested
// identifiers; matching the results back happens wrapper-side.
type binaryStub struct {
	docs []bson.Raw
}

func newBinaryStub(t *testing.T, assets ...*Asset) *binaryStub {
	t.Helper()
	s := &binaryStub{}
	for _, a := range assets {
		raw, err := bson.Marshal(a)
		require.NoError(t, err)
		s.docs = append(s.docs, raw)
	}
	return s
}

func (s *binaryStub) FetchByIDs(context.Context, reflect.Type, []any) ([]bson.Raw, error) {
	return s.docs, nil
}

func (s *binaryStub) Materialize(ctx context.Context, doc bson.Raw, declared reflect.Type) (any, error) {
	dst := reflect.New(declared).Interface()
	return dst, s.Decode(ctx, doc, dst)
}

func (s *binaryStub) Decode(_ context.Context, doc bson.Raw, dst any) error {
	return bson.Unmarshal(doc, dst)
}
