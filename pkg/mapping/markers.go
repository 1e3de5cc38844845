package mapping

import "reflect"

// Entity marks a struct as a root entity mapped to its own collection.
// Embed it anonymously and configure the mapping through its tag:
//
//	type Book struct {
//		mapping.Entity `collection:"books" discriminator:"Book"`
//		ID    bson.ObjectID `bson:"_id,omitempty"`
//		Title string        `bson:"title"`
//	}
//
// Recognized tag keys: collection (storage collection name),
// discriminator (stored type tag, "-" disables it for the type) and
// discriminatorKey (per-type override of the mapper-wide key).
type Entity struct{}

// Embedded marks a struct as an embeddable value: mapped properties,
// no identifier, no collection of its own.
type Embedded struct{}

var (
	entityMarkerType   = reflect.TypeOf(Entity{})
	embeddedMarkerType = reflect.TypeOf(Embedded{})
)

func isMarker(t reflect.Type) bool {
	return t == entityMarkerType || t == embeddedMarkerType
}
