package mapping

import (
	"reflect"
	"strings"
	"unicode"
)

// NamingStrategy derives a collection name from a simple type name when
// the entity declares no collection tag.
type NamingStrategy func(typeName string) string

// DiscriminatorStrategy derives a discriminator tag from a type when
// the entity declares no discriminator tag.
type DiscriminatorStrategy func(t reflect.Type) string

// Identity uses the simple type name unchanged.
var Identity NamingStrategy = func(typeName string) string {
	return typeName
}

// LowerCase lowercases the simple type name.
var LowerCase NamingStrategy = func(typeName string) string {
	return strings.ToLower(typeName)
}

// SnakeCase converts the simple type name to snake_case.
var SnakeCase NamingStrategy = func(typeName string) string {
	return splitWords(typeName, '_')
}

// KebabCase converts the simple type name to kebab-case.
var KebabCase NamingStrategy = func(typeName string) string {
	return splitWords(typeName, '-')
}

// SimpleTypeName tags a type with its simple name, e.g. "Book".
var SimpleTypeName DiscriminatorStrategy = func(t reflect.Type) string {
	return t.Name()
}

// QualifiedTypeName tags a type with its package-qualified name, e.g.
// "library.Book". Use it when identically named types from different
// packages share a collection.
var QualifiedTypeName DiscriminatorStrategy = func(t reflect.Type) string {
	return t.String()
}

func splitWords(name string, sep rune) string {
	var sb strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				sb.WriteRune(sep)
			}
			sb.WriteRune(unicode.ToLower(r))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
