// Package refs implements lazy cross-document references: two-state
// wrappers holding either the raw identifiers read from storage or the
// resolved entities. A wrapper resolves at most once, through the
// Resolver it was bound to after decode, and always serializes back to
// bare identifier form.
package refs

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Resolver is the fetch-and-decode boundary a wrapper resolves
// through. *docmorph.Datastore implements it; tests substitute stubs.
type Resolver interface {
	// FetchByIDs returns the raw documents of the given entity type
	// whose identifiers are in ids. Result order is unspecified and
	// missing identifiers are simply absent.
	FetchByIDs(ctx context.Context, entityType reflect.Type, ids []any) ([]bson.Raw, error)

	// Materialize decodes a raw document into its concrete entity
	// type, chosen by discriminator when present, falling back to the
	// declared type. The returned entity is bound and post-load hooks
	// have run.
	Materialize(ctx context.Context, doc bson.Raw, declared reflect.Type) (any, error)

	// Decode decodes a raw document into dst, binding nested
	// references and running post-load hooks.
	Decode(ctx context.Context, doc bson.Raw, dst any) error
}

// Binder is implemented by every wrapper so a datastore can attach
// itself as resolver after decoding an entity.
type Binder interface {
	Bind(Resolver)
}

// materializeAs decodes doc into *T via the resolver. When the
// discriminator selects a concrete type that is not *T, the document is
// decoded into the declared type instead, keeping resolution total.
func materializeAs[T any](ctx context.Context, r Resolver, doc bson.Raw) (*T, error) {
	v, err := r.Materialize(ctx, doc, reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	if entity, ok := v.(*T); ok {
		return entity, nil
	}
	entity := new(T)
	if err := r.Decode(ctx, doc, entity); err != nil {
		return nil, err
	}
	return entity, nil
}

// fetchByIDs runs one batched lookup for ids and returns the resolved
// entities keyed by identifier, via idKey.
func fetchByIDs[T any](ctx context.Context, r Resolver, ids []any) (map[any]*T, error) {
	docs, err := r.FetchByIDs(ctx, reflect.TypeFor[T](), ids)
	if err != nil {
		return nil, err
	}
	found := make(map[any]*T, len(docs))
	for _, doc := range docs {
		rv, err := doc.LookupErr("_id")
		if err != nil {
			continue
		}
		id, err := decodeRawValue(rv)
		if err != nil {
			return nil, err
		}
		entity, err := materializeAs[T](ctx, r, doc)
		if err != nil {
			return nil, err
		}
		found[idKey(id)] = entity
	}
	return found, nil
}

// decodeRawValue decodes a BSON value into a comparable Go value
// usable as an identifier map key. Integer widths are normalized so an
// identifier compares equal regardless of how it was encoded.
func decodeRawValue(rv bson.RawValue) (any, error) {
	var v any
	if err := bson.UnmarshalValue(rv.Type, rv.Value, &v); err != nil {
		return nil, err
	}
	return normalizeID(v), nil
}

func normalizeID(v any) any {
	switch n := v.(type) {
	case int32:
		return int64(n)
	case int:
		return int64(n)
	}
	return v
}

// binaryKey stands in for a binary identifier in id-keyed maps; the
// raw bson.Binary has a slice field and cannot be a map key itself.
type binaryKey struct {
	subtype byte
	data    string
}

// idKey returns a comparable stand-in for an identifier, used only for
// matching fetched documents back to the identifiers that requested
// them. Identifiers of non-comparable types would otherwise panic on
// map insert, turning a merely-missing entity into a crash.
func idKey(v any) any {
	v = normalizeID(v)
	switch n := v.(type) {
	case bson.Binary:
		return binaryKey{subtype: n.Subtype, data: string(n.Data)}
	case []byte:
		return binaryKey{data: string(n)}
	}
	if t := reflect.TypeOf(v); t != nil && !t.Comparable() {
		return fmt.Sprintf("%T:%v", v, v)
	}
	return v
}

// entityID extracts the identifier of an in-memory entity: the value
// of its field tagged bson:"_id", searched through anonymous embedded
// structs. Wrapped entities may be unsaved at wrap time, so the
// identifier is derived here, at serialization time, and a zero value
// means the entity was never saved.
func entityID(entity any) (any, error) {
	v := reflect.ValueOf(entity)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, ErrUnsavedEntity
		}
		v = v.Elem()
	}
	id, ok := findIDField(v)
	if !ok || id.IsZero() {
		return nil, ErrUnsavedEntity
	}
	return normalizeID(id.Interface()), nil
}

func findIDField(v reflect.Value) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		if name, _, _ := strings.Cut(field.Tag.Get("bson"), ","); name == "_id" {
			return v.Field(i), true
		}
		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			if id, ok := findIDField(v.Field(i)); ok {
				return id, true
			}
		}
	}
	return reflect.Value{}, false
}

func typeName[T any]() string {
	return reflect.TypeFor[T]().Name()
}
