package refs

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ReferenceMap is a lazy handle to a key-to-entity mapping. The key set
// is fixed when the wrapper is constructed and survives resolution
// unchanged; only the values transform from raw identifier to resolved
// entity, in place per key. In storage a ReferenceMap is a document
// whose values are bare identifiers and whose keys are the original
// application keys, in their original order.
type ReferenceMap[T any] struct {
	mu       sync.RWMutex
	resolver Resolver
	keys     []string
	ids      map[string]any
	entities map[string]*T
	resolved bool
	partial  *PartialError
}

// NewMap returns an unresolved map reference from storage form: keys in
// their stored order, each associated with a raw identifier.
func NewMap[T any](ids bson.D) *ReferenceMap[T] {
	r := &ReferenceMap[T]{
		keys: make([]string, 0, len(ids)),
		ids:  make(map[string]any, len(ids)),
	}
	for _, elem := range ids {
		if _, ok := r.ids[elem.Key]; ok {
			continue
		}
		r.keys = append(r.keys, elem.Key)
		r.ids[elem.Key] = normalizeID(elem.Value)
	}
	return r
}

// WrapMap returns an already-resolved map reference over in-memory
// entities. Key order follows Go map iteration and is fixed from here
// on.
func WrapMap[T any](entities map[string]*T) *ReferenceMap[T] {
	r := &ReferenceMap[T]{
		keys:     make([]string, 0, len(entities)),
		entities: entities,
		resolved: true,
	}
	for key := range entities {
		r.keys = append(r.keys, key)
	}
	return r
}

// Bind attaches the resolver used for resolution.
func (r *ReferenceMap[T]) Bind(res Resolver) {
	r.mu.Lock()
	r.resolver = res
	r.mu.Unlock()
}

// IsResolved reports the wrapper's state without triggering any I/O.
func (r *ReferenceMap[T]) IsResolved() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolved
}

// Keys returns the fixed key set in its original order.
func (r *ReferenceMap[T]) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string{}, r.keys...)
}

// Get returns the entities re-associated with their original keys. The
// first call runs a single batched lookup over all identifiers; keys
// whose identifier matches no document are omitted and reported
// through a *PartialError alongside the result. Later calls return the
// same result and error with no further I/O.
func (r *ReferenceMap[T]) Get(ctx context.Context) (map[string]*T, error) {
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
	ids := make([]any, 0, len(r.keys))
	for _, key := range r.keys {
		ids = append(ids, r.ids[key])
	}
	found, err := fetchByIDs[T](ctx, r.resolver, ids)
	if err != nil {
		return nil, err
	}
	entities := make(map[string]*T, len(r.keys))
	var missing []any
	for _, key := range r.keys {
		if entity, ok := found[idKey(r.ids[key])]; ok {
			entities[key] = entity
		} else {
			missing = append(missing, r.ids[key])
		}
	}
	r.entities = entities
	r.resolved = true
	if len(missing) > 0 {
		r.partial = &PartialError{
			Entity:   typeName[T](),
			Expected: len(r.keys),
			Found:    len(entities),
			Missing:  missing,
		}
	}
	return r.entities, r.partialErr()
}

func (r *ReferenceMap[T]) partialErr() error {
	if r.partial != nil {
		return r.partial
	}
	return nil
}

// IDs returns the key-to-identifier form in key order, in either
// state.
func (r *ReferenceMap[T]) IDs() (bson.D, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(bson.D, 0, len(r.keys))
	for _, key := range r.keys {
		if !r.resolved {
			out = append(out, bson.E{Key: key, Value: r.ids[key]})
			continue
		}
		entity, ok := r.entities[key]
		if !ok {
			// A key whose identifier never resolved keeps its raw
			// identifier on re-serialization.
			out = append(out, bson.E{Key: key, Value: r.ids[key]})
			continue
		}
		id, err := entityID(entity)
		if err != nil {
			return nil, err
		}
		out = append(out, bson.E{Key: key, Value: id})
	}
	return out, nil
}

// MarshalBSONValue serializes the map as a document of bare
// identifiers keyed by the original keys.
func (r *ReferenceMap[T]) MarshalBSONValue() (byte, []byte, error) {
	ids, err := r.IDs()
	if err != nil {
		return 0, nil, err
	}
	t, data, err := bson.MarshalValue(ids)
	return byte(t), data, err
}

// UnmarshalBSONValue restores an unresolved map reference from a
// stored identifier document, preserving key order.
func (r *ReferenceMap[T]) UnmarshalBSONValue(t byte, data []byte) error {
	var raw bson.D
	if err := bson.UnmarshalValue(bson.Type(t), data, &raw); err != nil {
		return err
	}
	fresh := NewMap[T](raw)
	r.mu.Lock()
	r.keys = fresh.keys
	r.ids = fresh.ids
	r.entities = nil
	r.resolved = false
	r.partial = nil
	r.mu.Unlock()
	return nil
}
