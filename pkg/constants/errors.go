package constants

import "errors"

// Errors
var (
	ErrNotFound     = errors.New("document not found")
	ErrDuplicateKey = errors.New("duplicate key")
)
var (
	ErrNilEntity     = errors.New("entity is nil")
	ErrNotAPointer   = errors.New("entity must be a non-nil pointer")
	ErrNoStore       = errors.New("store is not set")
	ErrNoDatabase    = errors.New("database is not set")
	ErrNoMarshaler   = errors.New("marshaler is not set")
	ErrNoUnmarshaler = errors.New("unmarshaler is not set")
)

var (
	ErrUnboundReference = errors.New("reference is not bound to a datastore")
	ErrUnsavedEntity    = errors.New("referenced entity has no identifier assigned")
	ErrEmptyReference   = errors.New("reference holds no identifier")
)
