package refs

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ReferenceList is a lazy handle to an ordered sequence of related
// entities. Resolution issues one batched lookup for all identifiers
// and reorders the result to match the original identifier order,
// whatever order the backend returned documents in. In storage a
// ReferenceList is an array of bare identifier values.
type ReferenceList[T any] struct {
	mu       sync.RWMutex
	resolver Resolver
	ids      []any
	entities []*T
	resolved bool
	partial  *PartialError
}

// NewList returns an unresolved list reference over the identifiers
// read from storage, preserving their order.
func NewList[T any](ids []any) *ReferenceList[T] {
	normalized := make([]any, len(ids))
	for i, id := range ids {
		normalized[i] = normalizeID(id)
	}
	return &ReferenceList[T]{ids: normalized}
}

// WrapList returns an already-resolved list reference over in-memory
// entities.
func WrapList[T any](entities []*T) *ReferenceList[T] {
	return &ReferenceList[T]{entities: entities, resolved: true}
}

// Bind attaches the resolver used for resolution.
func (r *ReferenceList[T]) Bind(res Resolver) {
	r.mu.Lock()
	r.resolver = res
	r.mu.Unlock()
}

// IsResolved reports the wrapper's state without triggering any I/O.
func (r *ReferenceList[T]) IsResolved() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolved
}

// Get returns the referenced entities in their original order. The
// first call runs a single batched lookup; identifiers matching no
// document are omitted from the result and reported through a
// *PartialError alongside it. Later calls return the same result and
// error with no further I/O.
func (r *ReferenceList[T]) Get(ctx context.Context) ([]*T, error) {
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

// partialErr returns the sticky partial-resolution outcome as an
// error, avoiding a non-nil interface around a nil pointer.
func (r *ReferenceList[T]) partialErr() error {
	if r.partial != nil {
		return r.partial
	}
	return nil
}

// IDs returns the raw identifiers in either state, in order.
func (r *ReferenceList[T]) IDs() ([]any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.resolved {
		return r.ids, nil
	}
	ids := make([]any, len(r.entities))
	for i, entity := range r.entities {
		id, err := entityID(entity)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

// MarshalBSONValue serializes the list as an array of bare
// identifiers, never resolved objects.
func (r *ReferenceList[T]) MarshalBSONValue() (byte, []byte, error) {
	ids, err := r.IDs()
	if err != nil {
		return 0, nil, err
	}
	arr := make(bson.A, len(ids))
	copy(arr, ids)
	t, data, err := bson.MarshalValue(arr)
	return byte(t), data, err
}

// UnmarshalBSONValue restores an unresolved list reference from a
// stored identifier array.
func (r *ReferenceList[T]) UnmarshalBSONValue(t byte, data []byte) error {
	var raw bson.A
	if err := bson.UnmarshalValue(bson.Type(t), data, &raw); err != nil {
		return err
	}
	ids := make([]any, len(raw))
	for i, v := range raw {
		ids[i] = normalizeID(v)
	}
	r.mu.Lock()
	r.ids = ids
	r.entities = nil
	r.resolved = false
	r.partial = nil
	r.mu.Unlock()
	return nil
}
