package refs

import (
	"fmt"

	"github.com/docmorph/docmorph.go/pkg/constants"
)

var (
	// ErrUnboundReference is returned by Get on a wrapper that was
	// never bound to a Resolver.
	ErrUnboundReference = constants.ErrUnboundReference

	// ErrUnsavedEntity is returned when serializing a wrapped entity
	// that has no identifier assigned yet.
	ErrUnsavedEntity = constants.ErrUnsavedEntity
)

// NotFoundError reports a single-entity reference whose identifier
// matches no stored document.
type NotFoundError struct {
	Entity string
	ID     any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("referenced %s with id %v not found", e.Entity, e.ID)
}

// PartialError reports a collection reference whose batched lookup
// resolved only some of its identifiers. The wrapper still transitions
// to resolved with the found entities; the missing identifiers are
// listed here so callers can tell a partial result from a complete one.
type PartialError struct {
	Entity   string
	Expected int
	Found    int
	Missing  []any
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("resolved %d of %d referenced %s documents, missing ids %v",
		e.Found, e.Expected, e.Entity, e.Missing)
}
