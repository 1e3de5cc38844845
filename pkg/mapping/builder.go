package mapping

import (
	"fmt"
	"reflect"
)

// builder performs the one-time structural walk of a type. It collects
// persisted properties across anonymous embedded structs, locates the
// identifier and version properties, and resolves collection name and
// discriminator from marker tags and the mapper's naming policy.
type builder struct {
	mapper *Mapper
	typ    reflect.Type

	markerKind  reflect.Type
	markerTag   reflect.StructTag
	superclass  *EntityModel
	properties  []*Property
	idProps     []*Property
	versionProp *Property
}

func (m *Mapper) newBuilder(t reflect.Type) *builder {
	return &builder{mapper: m, typ: t}
}

func (b *builder) build() (*EntityModel, error) {
	if b.typ.Kind() != reflect.Struct {
		return nil, &NotMappableError{Type: b.typ}
	}
	if err := b.walk(b.typ, nil); err != nil {
		return nil, err
	}

	embeddable, err := b.kind()
	if err != nil {
		return nil, err
	}
	switch len(b.idProps) {
	case 0:
		// Checked against embeddability during validation.
	case 1:
		b.idProps[0].IsID = true
	default:
		names := make([]string, len(b.idProps))
		for i, p := range b.idProps {
			names[i] = p.FieldName
		}
		return nil, &MultipleIDsError{Type: b.typ, Fields: names}
	}

	model := &EntityModel{
		typ:             b.typ,
		embeddable:      embeddable,
		properties:      b.properties,
		versionProperty: b.versionProp,
		superclass:      b.superclass,
	}
	if len(b.idProps) == 1 {
		model.idProperty = b.idProps[0]
	}
	if err := b.applyNaming(model); err != nil {
		return nil, err
	}
	return model, nil
}

// walk visits every field of t, recursing into anonymous embedded
// structs, with index as the path prefix reaching t from the root type.
func (b *builder) walk(t reflect.Type, index []int) error {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		path := append(append([]int{}, index...), i)

		if field.Anonymous && isMarker(field.Type) {
			if b.markerKind != nil && len(index) == 0 {
				return &InvalidMappingError{Type: b.typ, Reason: "more than one entity marker"}
			}
			// A marker reached through an embedded supertype belongs
			// to the supertype, not to this type.
			if len(index) == 0 {
				b.markerKind = field.Type
				b.markerTag = field.Tag
			}
			continue
		}
		if !field.IsExported() {
			continue
		}
		if odm := field.Tag.Get("odm"); odm == "-" {
			continue
		}
		tag := parseBSONTag(&field)
		if tag.skip {
			continue
		}

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			if b.mapper.IsMappable(field.Type) {
				// The model flattens the embed's properties, so the
				// driver's decoder must flatten it too. Without the
				// inline tag it would nest, and flattened fields would
				// load back as zero values.
				if !tag.inline {
					return &InvalidMappingError{
						Type:   b.typ,
						Reason: fmt.Sprintf("embedded %s must be tagged bson:\",inline\"", field.Type),
					}
				}
				if len(index) == 0 {
					super, err := b.mapper.ModelOfType(field.Type)
					if err != nil {
						return fmt.Errorf("building supertype %s of %s: %w", field.Type, b.typ, err)
					}
					b.superclass = super
				}
				if err := b.walk(field.Type, path); err != nil {
					return err
				}
				continue
			}
			if tag.inline {
				if err := b.walk(field.Type, path); err != nil {
					return err
				}
				continue
			}
			// Untagged anonymous structs nest as a document under the
			// field's mapped name, matching the driver's decoder.
		}

		p := &Property{
			FieldName:  field.Name,
			MappedName: tag.name,
			Type:       field.Type,
			Index:      path,
			OmitEmpty:  tag.omitEmpty,
			IsVersion:  field.Tag.Get("odm") == "version",
		}
		if p.IsVersion {
			if b.versionProp != nil {
				return &InvalidMappingError{Type: b.typ, Reason: "more than one version field"}
			}
			b.versionProp = p
		}
		if p.MappedName == "_id" {
			b.idProps = append(b.idProps, p)
		}
		b.properties = append(b.properties, p)
	}
	return nil
}

// kind decides between root entity and embeddable from the direct
// marker or, failing that, the embedded supertype.
func (b *builder) kind() (embeddable bool, err error) {
	switch b.markerKind {
	case entityMarkerType:
		return false, nil
	case embeddedMarkerType:
		if _, ok := b.markerTag.Lookup("collection"); ok {
			return false, &InvalidMappingError{Type: b.typ, Reason: "embeddable types take no collection tag"}
		}
		return true, nil
	}
	if b.superclass != nil {
		return b.superclass.embeddable, nil
	}
	return false, &NotMappableError{Type: b.typ}
}

func (b *builder) applyNaming(model *EntityModel) error {
	opts := &b.mapper.opts

	if !model.embeddable {
		if name, ok := b.markerTag.Lookup("collection"); ok {
			model.collection = name
		} else if b.superclass != nil && !b.superclass.embeddable {
			// Subtypes persist into the family's collection.
			model.collection = b.superclass.collection
		} else {
			model.collection = opts.collectionNaming(b.typ.Name())
		}
	}

	model.discriminatorKey = opts.discriminatorKey
	if key, ok := b.markerTag.Lookup("discriminatorKey"); ok && key != "" {
		model.discriminatorKey = key
	} else if b.superclass != nil {
		model.discriminatorKey = b.superclass.discriminatorKey
	}

	tag, tagged := b.markerTag.Lookup("discriminator")
	switch {
	case tag == "-":
		model.useDiscriminator = false
	case tagged && tag != "":
		model.useDiscriminator = true
		model.discriminator = tag
	default:
		model.useDiscriminator = true
		model.discriminator = opts.discriminatorNaming(b.typ)
	}
	return nil
}
