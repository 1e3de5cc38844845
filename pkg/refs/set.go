package refs

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ReferenceSet is a lazy handle to a unique collection of related
// entities: duplicate identifiers collapse to one membership at
// construction, so the resolved result holds one entity per unique
// identifier regardless of input iteration order. In storage a
// ReferenceSet is an array of bare identifier values.
type ReferenceSet[T any] struct {
	mu       sync.RWMutex
	resolver Resolver
	ids      []any
	entities []*T
	resolved bool
	partial  *PartialError
}

// NewSet returns an unresolved set reference over the identifiers read
// from storage, with duplicates collapsed.
func NewSet[T any](ids []any) *ReferenceSet[T] {
	return &ReferenceSet[T]{ids: uniqueIDs(ids)}
}

// WrapSet returns an already-resolved set reference over in-memory
// entities.
func WrapSet[T any](entities []*T) *ReferenceSet[T] {
	return &ReferenceSet[T]{entities: entities, resolved: true}
}

// Bind attaches the resolver used for resolution.
func (r *ReferenceSet[T]) Bind(res Resolver) {
	r.mu.Lock()
	r.resolver = res
	r.mu.Unlock()
}

// IsResolved reports the wrapper's state without triggering any I/O.
func (r *ReferenceSet[T]) IsResolved() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolved
}

// Get returns the referenced entities, one per unique identifier. The
// first call runs a single batched lookup; identifiers matching no
// document are omitted and reported through a *PartialError alongside
// the result. Later calls return the same result and error with no
// further I/O.
func (r *ReferenceSet[T]) Get(ctx context.Context) ([]*T, error) {
	r.mu.RLock()
	if r.resolved {
		defer r.mu.RUnlock()
		return r.entities, r.partialErr()
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.resolved {
		return r.entities, r.partialErr()
	}
	if r.resolver == nil {
		return nil, ErrUnboundReference
	}
	found, err := fetchByIDs[T](ctx, r.resolver, r.ids)
	if err != nil {
		return nil, err
	}
	entities := make([]*T, 0, len(r.ids))
	var missing []any
	for _, id := range r.ids {
		if entity, ok := found[idKey(id)]; ok {
			entities = append(entities, entity)
		} else {
			missing = append(missing, id)
		}
	}
	r.entities = entities
	r.resolved = true
	if len(missing) > 0 {
		r.partial = &PartialError{
			Entity:   typeName[T](),
			Expected: len(r.ids),
			Found:    len(entities),
			Missing:  missing,
		}
	}
	return r.entities, r.partialErr()
}

func (r *ReferenceSet[T]) partialErr() error {
	if r.partial != nil {
		return r.partial
	}
	return nil
}

// IDs returns the raw unique identifiers in either state.
func (r *ReferenceSet[T]) IDs() ([]any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.resolved {
		return r.ids, nil
	}
	ids := make([]any, 0, len(r.entities))
	for _, entity := range r.entities {
		id, err := entityID(entity)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return uniqueIDs(ids), nil
}

// MarshalBSONValue serializes the set as an array of bare identifiers.
func (r *ReferenceSet[T]) MarshalBSONValue() (byte, []byte, error) {
	ids, err := r.IDs()
	if err != nil {
		return 0, nil, err
	}
	arr := make(bson.A, len(ids))
	copy(arr, ids)
	t, data, err := bson.MarshalValue(arr)
	return byte(t), data, err
}

// UnmarshalBSONValue restores an unresolved set reference from a
// stored identifier array.
func (r *ReferenceSet[T]) UnmarshalBSONValue(t byte, data []byte) error {
	var raw bson.A
	if err := bson.UnmarshalValue(bson.Type(t), data, &raw); err != nil {
		return err
	}
	r.mu.Lock()
	r.ids = uniqueIDs(raw)
	r.entities = nil
	r.resolved = false
	r.partial = nil
	r.mu.Unlock()
	return nil
}

func uniqueIDs(ids []any) []any {
	seen := make(map[any]struct{}, len(ids))
	out := make([]any, 0, len(ids))
	for _, id := range ids {
		n := normalizeID(id)
		k := idKey(n)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, n)
	}
	return out
}
