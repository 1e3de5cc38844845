package refs

import (
	"context"
	"reflect"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Reference is a lazy handle to one related entity. It starts either
// UNRESOLVED, holding only the identifier read from storage, or
// RESOLVED, wrapping an in-memory entity; the transition is forward
// only. In storage a Reference is the bare identifier value.
type Reference[T any] struct {
	mu       sync.RWMutex
	resolver Resolver
	id       any
	entity   *T
	resolved bool
}

// New returns an unresolved reference to the entity stored under id.
func New[T any](id any) *Reference[T] {
	return &Reference[T]{id: normalizeID(id)}
}

// Wrap returns an already-resolved reference to an in-memory entity.
// The entity may be unsaved; its identifier is derived lazily when the
// reference serializes, not here.
func Wrap[T any](entity *T) *Reference[T] {
	return &Reference[T]{entity: entity, resolved: true}
}

// Bind attaches the resolver used for resolution. Called by the
// datastore after decode.
func (r *Reference[T]) Bind(res Resolver) {
	r.mu.Lock()
	r.resolver = res
	r.mu.Unlock()
}

// IsResolved reports the wrapper's state without triggering any I/O.
func (r *Reference[T]) IsResolved() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolved
}

// Get returns the referenced entity, fetching it on first call and
// answering from the wrapper afterwards. A failed fetch leaves the
// wrapper unresolved so a later call may retry.
func (r *Reference[T]) Get(ctx context.Context) (*T, error) {
	r.mu.RLock()
	if r.resolved {
		defer r.mu.RUnlock()
		return r.entity, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.resolved {
		return r.entity, nil
	}
	if r.resolver == nil {
		return nil, ErrUnboundReference
	}
	docs, err := r.resolver.FetchByIDs(ctx, reflect.TypeFor[T](), []any{r.id})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, &NotFoundError{Entity: typeName[T](), ID: r.id}
	}
	entity, err := materializeAs[T](ctx, r.resolver, docs[0])
	if err != nil {
		return nil, err
	}
	r.entity = entity
	r.resolved = true
	return r.entity, nil
}

// ID returns the raw identifier in either state: the stored value when
// unresolved, or the entity's own identifier when resolved.
func (r *Reference[T]) ID() (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.resolved {
		return entityID(r.entity)
	}
	return r.id, nil
}

// MarshalBSONValue serializes the reference as its bare identifier.
func (r *Reference[T]) MarshalBSONValue() (byte, []byte, error) {
	id, err := r.ID()
	if err != nil {
		return 0, nil, err
	}
	t, data, err := bson.MarshalValue(id)
	return byte(t), data, err
}

// UnmarshalBSONValue restores an unresolved reference from a stored
// identifier value.
func (r *Reference[T]) UnmarshalBSONValue(t byte, data []byte) error {
	id, err := decodeRawValue(bson.RawValue{Type: bson.Type(t), Value: data})
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.id = id
	r.entity = nil
	r.resolved = false
	r.mu.Unlock()
	return nil
}
