package docmorph

import (
	"fmt"
)

// DuplicateKeyError reports an insert whose identifier already exists
// in the collection.
type DuplicateKeyError struct {
	Collection string
	ID         any
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("document with id %v already exists in %s", e.ID, e.Collection)
}

// VersionMismatchError reports an optimistic-lock failure: the stored
// document no longer carries the version the entity was loaded with.
type VersionMismatchError struct {
	Collection string
	ID         any
	Version    int64
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("document %v in %s was modified concurrently, expected version %d", e.ID, e.Collection, e.Version)
}
