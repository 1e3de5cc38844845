package mapping

import (
	"fmt"
	"reflect"
)

// NotMappableError reports a type with no entity marker anywhere in its
// anonymous-embedding chain.
type NotMappableError struct {
	Type reflect.Type
}

func (e *NotMappableError) Error() string {
	return fmt.Sprintf("type %s carries no docmorph entity or embedded marker", e.Type)
}

// MissingIDError reports a root entity type without a field mapped to
// the _id document key.
type MissingIDError struct {
	Type reflect.Type
}

func (e *MissingIDError) Error() string {
	return fmt.Sprintf("entity %s declares no identifier field (bson:\"_id\")", e.Type)
}

// MultipleIDsError reports a type declaring more than one field mapped
// to _id.
type MultipleIDsError struct {
	Type   reflect.Type
	Fields []string
}

func (e *MultipleIDsError) Error() string {
	return fmt.Sprintf("entity %s declares multiple identifier fields: %v", e.Type, e.Fields)
}

// UnknownDiscriminatorError reports a discriminator tag that was never
// registered.
type UnknownDiscriminatorError struct {
	Tag string
}

func (e *UnknownDiscriminatorError) Error() string {
	return fmt.Sprintf("no type registered under discriminator %q", e.Tag)
}

// UnmappedDiscriminatorError reports a stored document whose
// discriminator tag resolves to no registered type. It wraps
// [UnknownDiscriminatorError] so callers can match either.
type UnmappedDiscriminatorError struct {
	Tag string
	Key string
}

func (e *UnmappedDiscriminatorError) Error() string {
	return fmt.Sprintf("document field %q holds unmapped discriminator %q", e.Key, e.Tag)
}

func (e *UnmappedDiscriminatorError) Unwrap() error {
	return &UnknownDiscriminatorError{Tag: e.Tag}
}

// DuplicateDiscriminatorError reports two distinct types claiming the
// same discriminator tag.
type DuplicateDiscriminatorError struct {
	Tag      string
	Existing reflect.Type
	Claimant reflect.Type
}

func (e *DuplicateDiscriminatorError) Error() string {
	return fmt.Sprintf("discriminator %q already bound to %s, cannot rebind to %s", e.Tag, e.Existing, e.Claimant)
}

// CollectionNotMappedError reports a collection name no type was ever
// registered against.
type CollectionNotMappedError struct {
	Collection string
}

func (e *CollectionNotMappedError) Error() string {
	return fmt.Sprintf("no entity type mapped to collection %q", e.Collection)
}

// AmbiguousCollectionError reports two same-collection types whose
// document shapes cannot be told apart at read time.
type AmbiguousCollectionError struct {
	Collection string
	Types      []reflect.Type
	Property   string
}

func (e *AmbiguousCollectionError) Error() string {
	return fmt.Sprintf("collection %q is shared by %v with incompatible property %q and no discriminator to tell documents apart", e.Collection, e.Types, e.Property)
}

// InvalidMappingError reports a structural declaration the builder
// rejects, such as a collection tag on an embeddable type.
type InvalidMappingError struct {
	Type   reflect.Type
	Reason string
}

func (e *InvalidMappingError) Error() string {
	return fmt.Sprintf("invalid mapping for %s: %s", e.Type, e.Reason)
}
