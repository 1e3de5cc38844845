package mapping

import (
	"reflect"
	"strings"
)

// Property describes one persisted field of an entity model: its Go
// name, the document key it maps to, its declared type, and the index
// path reaching it through anonymous embedded structs.
type Property struct {
	FieldName  string
	MappedName string
	Type       reflect.Type
	Index      []int
	OmitEmpty  bool
	IsID       bool
	IsVersion  bool
}

// ValueOf returns the property's value on the given entity struct
// value.
func (p *Property) ValueOf(entity reflect.Value) reflect.Value {
	return entity.FieldByIndex(p.Index)
}

// IsZero reports whether the property holds its type's zero value on
// the given entity struct value.
func (p *Property) IsZero(entity reflect.Value) bool {
	return p.ValueOf(entity).IsZero()
}

// Set assigns v to the property on the given addressable entity struct
// value.
func (p *Property) Set(entity reflect.Value, v reflect.Value) {
	p.ValueOf(entity).Set(v)
}

// bsonTag holds the parsed form of a field's bson struct tag.
type bsonTag struct {
	name      string
	skip      bool
	omitEmpty bool
	inline    bool
}

func parseBSONTag(f *reflect.StructField) bsonTag {
	tag, ok := f.Tag.Lookup("bson")
	if !ok {
		return bsonTag{name: strings.ToLower(f.Name)}
	}
	parts := strings.Split(tag, ",")
	parsed := bsonTag{name: parts[0]}
	if parsed.name == "-" {
		parsed.skip = true
		parsed.name = ""
	}
	if parsed.name == "" {
		parsed.name = strings.ToLower(f.Name)
	}
	for _, opt := range parts[1:] {
		switch opt {
		case "omitempty":
			parsed.omitEmpty = true
		case "inline":
			parsed.inline = true
		}
	}
	return parsed
}
