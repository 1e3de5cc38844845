// The [docmorph] package maps plain Go structs onto MongoDB documents.
//
// # Entities
//
// A struct becomes a root entity by embedding [Entity] and declaring a
// field mapped to _id:
//
//	type Book struct {
//		docmorph.Entity `collection:"books"`
//		ID     bson.ObjectID           `bson:"_id,omitempty"`
//		Title  string                  `bson:"title"`
//		Author *refs.Reference[Author] `bson:"author"`
//	}
//
// The structure of a type is analyzed once and cached in a
// [github.com/docmorph/docmorph.go/pkg/mapping.Mapper]; the first
// operation needing a type's model is where mapping errors surface.
// Anonymously embedding another entity type (with bson:",inline")
// declares a subtype persisted into the family's collection and told
// apart by the discriminator field, _t by default.
//
// # References
//
// Related entities are stored as bare identifiers and loaded on
// demand through the wrappers in
// [github.com/docmorph/docmorph.go/pkg/refs]: a freshly loaded entity
// holds unresolved references, and the first Get fetches the target
// through the datastore the entity was loaded from. The list, set and
// map variants resolve all their identifiers in one batched lookup.
//
// # Datastore
//
// [New] wires a *mongo.Database to a [Datastore]; [FromStore] accepts
// any store implementation, which is how tests run against an
// in-memory store. [Datastore.Save] and the generic [Find], [FindOne],
// [FindByID] and [Aggregate] functions cover the operation surface.
// Find paths rewrite filters with the discriminator tags of the
// queried family, so querying a supertype yields its subtypes too.
package docmorph
