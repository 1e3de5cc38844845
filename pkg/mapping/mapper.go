package mapping

import (
	"reflect"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Mapper is the process-wide model registry: it caches one EntityModel
// per type, owns the discriminator lookup and the collection-name
// index, and applies the mapping policy configured through Options.
//
// Reads never block. A first-time registration builds the model outside
// the registration lock, then links and validates it under the lock;
// concurrent builders for the same type converge on one published model
// with the losers' work discarded. A type whose validation fails stays
// failed for every subsequent caller.
type Mapper struct {
	opts Options

	models         sync.Map // reflect.Type -> *modelEntry
	collections    sync.Map // string -> []*EntityModel
	discriminators discriminatorLookup

	// mu serializes the link+validate critical section of first-time
	// registration, never lookups.
	mu sync.Mutex
}

type modelEntry struct {
	model *EntityModel
	err   error
}

// NewMapper returns an empty registry. Tests construct independent
// mappers to avoid cross-test pollution.
func NewMapper(opts ...Option) *Mapper {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Mapper{opts: o}
}

// Options returns the mapper's configured policy.
func (m *Mapper) Options() Options { return m.opts }

// Register eagerly builds and caches the model for T.
func Register[T any](m *Mapper) (*EntityModel, error) {
	return m.ModelOfType(reflect.TypeFor[T]())
}

// ModelOf returns the cached model for the given entity instance,
// pointer, or reflect.Type, building and registering it on first use.
func (m *Mapper) ModelOf(v any) (*EntityModel, error) {
	if t, ok := v.(reflect.Type); ok {
		return m.ModelOfType(t)
	}
	return m.ModelOfType(reflect.TypeOf(v))
}

// ModelOfType returns the cached model for t, building and registering
// it on first use. A failed build is cached too: the type stays
// unusable until the mapping declaration is corrected.
func (m *Mapper) ModelOfType(t reflect.Type) (*EntityModel, error) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return nil, &NotMappableError{Type: nil}
	}
	if e, ok := m.models.Load(t); ok {
		entry := e.(*modelEntry)
		return entry.model, entry.err
	}

	// Build outside the lock; a concurrent duplicate build is
	// discarded below, never published.
	model, err := m.newBuilder(t).build()

	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.models.Load(t); ok {
		entry := e.(*modelEntry)
		return entry.model, entry.err
	}
	if err == nil {
		err = m.register(model)
	}
	if err != nil {
		m.models.Store(t, &modelEntry{err: err})
		m.opts.log.Error("entity model registration failed", "type", t.String(), "err", err)
		return nil, err
	}
	m.models.Store(t, &modelEntry{model: model})
	m.opts.log.Debug("registered entity model",
		"type", t.String(), "collection", model.collection, "discriminator", model.discriminator)
	return model, nil
}

// register links the model into the discriminator lookup, the
// collection index and its superclass's subtype set, then validates.
// Linking precedes validation so the validation pass sees the
// cross-references; on failure the lookup and index entries are rolled
// back. Callers hold m.mu.
func (m *Mapper) register(model *EntityModel) error {
	if err := m.discriminators.addModel(model); err != nil {
		m.discriminators.unbind(model)
		return err
	}
	var linked []*EntityModel
	if model.collection != "" {
		if existing, ok := m.collections.Load(model.collection); ok {
			linked = existing.([]*EntityModel)
		}
		m.collections.Store(model.collection, append(append([]*EntityModel{}, linked...), model))
	}
	if model.superclass != nil {
		model.superclass.addSubtype(model)
	}

	if err := m.validate(model, linked); err != nil {
		m.discriminators.unbind(model)
		if model.collection != "" {
			if len(linked) == 0 {
				m.collections.Delete(model.collection)
			} else {
				m.collections.Store(model.collection, linked)
			}
		}
		return err
	}
	return nil
}

// validate runs the registration-time checks: identifier presence for
// root types and read-time distinguishability of same-collection
// siblings. siblings is the collection index as it stood before this
// model linked in.
func (m *Mapper) validate(model *EntityModel, siblings []*EntityModel) error {
	if !model.embeddable && model.idProperty == nil {
		return &MissingIDError{Type: model.typ}
	}
	for _, other := range siblings {
		if model.useDiscriminator && other.useDiscriminator {
			continue
		}
		// Without discriminators on both sides, same-named properties
		// with different types make documents undecodable.
		for _, p := range model.properties {
			if q := other.Property(p.MappedName); q != nil && q.Type != p.Type {
				return &AmbiguousCollectionError{
					Collection: model.collection,
					Types:      []reflect.Type{other.typ, model.typ},
					Property:   p.MappedName,
				}
			}
		}
	}
	return nil
}

// IsMappable reports whether t or any type reachable through its
// anonymous-embedding chain carries an entity or embedded marker.
func (m *Mapper) IsMappable(t reflect.Type) bool {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.Anonymous {
			continue
		}
		if isMarker(field.Type) {
			return true
		}
		if field.Type.Kind() == reflect.Struct && m.IsMappable(field.Type) {
			return true
		}
	}
	return false
}

// ModelForDiscriminator returns the model registered under tag.
func (m *Mapper) ModelForDiscriminator(tag string) (*EntityModel, error) {
	model, err := m.discriminators.lookup(tag)
	if err != nil {
		return nil, &UnmappedDiscriminatorError{Tag: tag, Key: m.opts.discriminatorKey}
	}
	return model, nil
}

// ModelForDocument resolves the concrete model of a raw document from
// its discriminator field. It returns (nil, nil) when the document
// carries no discriminator, leaving the choice of type to the caller.
func (m *Mapper) ModelForDocument(doc bson.Raw) (*EntityModel, error) {
	rv, err := doc.LookupErr(m.opts.discriminatorKey)
	if err != nil {
		return nil, nil
	}
	tag, ok := rv.StringValueOK()
	if !ok {
		return nil, nil
	}
	return m.ModelForDiscriminator(tag)
}

// ModelsForCollection returns every model registered against the
// collection name. More than one model means the collection is
// polymorphic; the ambiguity is logged and the caller must
// disambiguate via discriminator.
func (m *Mapper) ModelsForCollection(name string) ([]*EntityModel, error) {
	e, ok := m.collections.Load(name)
	if !ok {
		return nil, &CollectionNotMappedError{Collection: name}
	}
	models := e.([]*EntityModel)
	if len(models) > 1 {
		types := make([]string, len(models))
		for i, model := range models {
			types[i] = model.typ.String()
		}
		m.opts.log.Warn("multiple types mapped to collection", "collection", name, "types", types)
	}
	return append([]*EntityModel{}, models...), nil
}

// CollectionOf returns the storage collection of the given entity
// instance, pointer, or type.
func (m *Mapper) CollectionOf(v any) (string, error) {
	model, err := m.ModelOf(v)
	if err != nil {
		return "", err
	}
	return model.Collection(), nil
}

// ID extracts the identifier of the given entity. The second return is
// false when the identifier holds its zero value.
func (m *Mapper) ID(entity any) (any, bool, error) {
	model, err := m.ModelOf(entity)
	if err != nil {
		return nil, false, err
	}
	id, ok := model.ID(entity)
	return id, ok, nil
}

// SetID assigns the identifier on the given entity pointer.
func (m *Mapper) SetID(entity any, id any) error {
	model, err := m.ModelOf(entity)
	if err != nil {
		return err
	}
	model.SetID(entity, id)
	return nil
}

// DiscriminatorFilter returns the filter clause matching documents of
// the model's type or any of its registered subtypes.
func (m *Mapper) DiscriminatorFilter(model *EntityModel) bson.D {
	if !model.useDiscriminator {
		return nil
	}
	tags := model.discriminatorTags()
	return bson.D{{Key: model.discriminatorKey, Value: bson.D{{Key: "$in", Value: tags}}}}
}

// RewriteFilter adds the model's discriminator clause to a query filter
// so that polymorphic collections only yield documents of the model's
// family. Filters already constraining the discriminator key pass
// through unchanged.
func (m *Mapper) RewriteFilter(model *EntityModel, filter bson.D) bson.D {
	if !model.useDiscriminator {
		return filter
	}
	for _, elem := range filter {
		if elem.Key == model.discriminatorKey {
			return filter
		}
	}
	return append(append(bson.D{}, filter...), m.DiscriminatorFilter(model)...)
}
