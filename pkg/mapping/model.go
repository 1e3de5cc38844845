package mapping

import (
	"reflect"
	"sync"
)

// EntityModel is the cached structural metadata of one mapped type:
// persisted properties, identifier, collection name, discriminator and
// inheritance links. Models are immutable once built, except for the
// subtype set, which only grows as related types register.
type EntityModel struct {
	typ        reflect.Type
	embeddable bool

	idProperty      *Property
	versionProperty *Property
	properties      []*Property

	collection       string
	discriminator    string
	discriminatorKey string
	useDiscriminator bool

	superclass *EntityModel

	mu       sync.Mutex
	subtypes []*EntityModel
}

// Type returns the mapped struct type.
func (m *EntityModel) Type() reflect.Type { return m.typ }

// Name returns the simple type name.
func (m *EntityModel) Name() string { return m.typ.Name() }

// Embeddable reports whether the type is an embeddable value rather
// than a root entity.
func (m *EntityModel) Embeddable() bool { return m.embeddable }

// IDProperty returns the identifier property, or nil for embeddable
// types.
func (m *EntityModel) IDProperty() *Property { return m.idProperty }

// VersionProperty returns the optimistic-lock counter property, or nil
// when the type declares none.
func (m *EntityModel) VersionProperty() *Property { return m.versionProperty }

// Properties returns the persisted properties in declaration order,
// flattened across anonymous embedded structs.
func (m *EntityModel) Properties() []*Property { return m.properties }

// Property returns the persisted property mapped to the given document
// key, or nil.
func (m *EntityModel) Property(mappedName string) *Property {
	for _, p := range m.properties {
		if p.MappedName == mappedName {
			return p
		}
	}
	return nil
}

// Collection returns the storage collection name, empty for embeddable
// types.
func (m *EntityModel) Collection() string { return m.collection }

// Discriminator returns the stored type tag.
func (m *EntityModel) Discriminator() string { return m.discriminator }

// DiscriminatorKey returns the document field holding the type tag.
func (m *EntityModel) DiscriminatorKey() string { return m.discriminatorKey }

// UseDiscriminator reports whether documents of this type carry a
// discriminator field.
func (m *EntityModel) UseDiscriminator() bool { return m.useDiscriminator }

// Superclass returns the model of the anonymously embedded mappable
// supertype, or nil.
func (m *EntityModel) Superclass() *EntityModel { return m.superclass }

// Subtypes returns a snapshot of the models registered so far that
// embed this model's type.
func (m *EntityModel) Subtypes() []*EntityModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*EntityModel, len(m.subtypes))
	copy(out, m.subtypes)
	return out
}

func (m *EntityModel) addSubtype(sub *EntityModel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subtypes {
		if s == sub {
			return
		}
	}
	m.subtypes = append(m.subtypes, sub)
}

// discriminatorTags returns this model's tag followed by the tags of
// all transitively registered subtypes.
func (m *EntityModel) discriminatorTags() []string {
	tags := []string{m.discriminator}
	for _, sub := range m.Subtypes() {
		tags = append(tags, sub.discriminatorTags()...)
	}
	return tags
}

// ID returns the identifier value of the given entity, which must be a
// value or pointer of the model's type. The second return is false when
// the identifier holds its zero value.
func (m *EntityModel) ID(entity any) (any, bool) {
	if m.idProperty == nil {
		return nil, false
	}
	v := reflect.ValueOf(entity)
	for v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	id := m.idProperty.ValueOf(v)
	return id.Interface(), !id.IsZero()
}

// SetID assigns the identifier on the given entity pointer.
func (m *EntityModel) SetID(entity any, id any) {
	if m.idProperty == nil {
		return
	}
	v := reflect.ValueOf(entity)
	for v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	m.idProperty.Set(v, reflect.ValueOf(id))
}
