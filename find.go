package docmorph

import (
	"context"
	"reflect"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/docmorph/docmorph.go/pkg/aggregation"
)

// Find returns every entity of type T matching the filter. The filter
// is rewritten with the family's discriminator tags, so querying a
// supertype also yields its registered subtypes, each materialized as
// its concrete type when assignable and as T otherwise.
func Find[T any](ctx context.Context, ds *Datastore, filter bson.D) ([]*T, error) {
	model, err := ds.mapper.ModelOfType(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	docs, err := ds.store.Find(ctx, model.Collection(), ds.mapper.RewriteFilter(model, filter))
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(docs))
	for _, doc := range docs {
		entity, err := decodeAs[T](ctx, ds, doc)
		if err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	return out, nil
}

// FindOne returns the first entity of type T matching the filter, or
// an error wrapping constants.ErrNotFound.
func FindOne[T any](ctx context.Context, ds *Datastore, filter bson.D) (*T, error) {
	model, err := ds.mapper.ModelOfType(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	doc, err := ds.store.FindOne(ctx, model.Collection(), ds.mapper.RewriteFilter(model, filter))
	if err != nil {
		return nil, err
	}
	return decodeAs[T](ctx, ds, doc)
}

// FindByID returns the entity of type T stored under id.
func FindByID[T any](ctx context.Context, ds *Datastore, id any) (*T, error) {
	return FindOne[T](ctx, ds, bson.D{{Key: "_id", Value: id}})
}

// Aggregate runs the pipeline over entity type E's collection and
// decodes each result document into R, which need not be an entity
// type: joined or grouped results decode into any struct or bson.M.
func Aggregate[E any, R any](ctx context.Context, ds *Datastore, p *aggregation.Pipeline) ([]R, error) {
	model, err := ds.mapper.ModelOfType(reflect.TypeFor[E]())
	if err != nil {
		return nil, err
	}
	docs, err := ds.store.Aggregate(ctx, model.Collection(), p.Stages())
	if err != nil {
		return nil, err
	}
	out := make([]R, 0, len(docs))
	for _, doc := range docs {
		var result R
		if err := ds.Decode(ctx, doc, &result); err != nil {
			return nil, err
		}
		out = append(out, result)
	}
	return out, nil
}

// decodeAs materializes a raw document as *T, honoring the document's
// discriminator when it names a type assignable to *T and falling back
// to the declared type otherwise.
func decodeAs[T any](ctx context.Context, ds *Datastore, doc bson.Raw) (*T, error) {
	v, err := ds.Materialize(ctx, doc, reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	if entity, ok := v.(*T); ok {
		return entity, nil
	}
	entity := new(T)
	if err := ds.Decode(ctx, doc, entity); err != nil {
		return nil, err
	}
	return entity, nil
}
