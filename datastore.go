package docmorph

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/gofrs/uuid/v5"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/docmorph/docmorph.go/internal/codec"
	"github.com/docmorph/docmorph.go/pkg/constants"
	"github.com/docmorph/docmorph.go/pkg/logger"
	"github.com/docmorph/docmorph.go/pkg/mapping"
	"github.com/docmorph/docmorph.go/pkg/store"
	"github.com/docmorph/docmorph.go/pkg/store/mongostore"
)

// Datastore wires the model registry, the document store and the codec
// together. It is the refs.Resolver every loaded entity's references
// are bound to.
type Datastore struct {
	store       store.Store
	mapper      *mapping.Mapper
	marshaler   codec.Marshaler
	unmarshaler codec.Unmarshaler
	log         logger.Logger
}

// New returns a Datastore backed by a MongoDB database.
func New(db *mongo.Database, opts ...Option) *Datastore {
	return FromStore(mongostore.New(db), opts...)
}

// FromStore returns a Datastore backed by any document store, which is
// how tests run against an in-memory store.
func FromStore(s store.Store, opts ...Option) *Datastore {
	c := defaultConfig()
	for _, opt := range opts {
		opt(&c)
	}
	if c.mapper == nil {
		c.mapper = mapping.NewMapper(mapping.WithLogger(c.log))
	}
	return &Datastore{
		store:       s,
		mapper:      c.mapper,
		marshaler:   c.marshaler,
		unmarshaler: c.unmarshaler,
		log:         c.log,
	}
}

// Mapper returns the datastore's model registry.
func (ds *Datastore) Mapper() *mapping.Mapper { return ds.mapper }

// Save writes an entity: a first save inserts and assigns a missing
// identifier in place, a later save replaces the stored document. For
// versioned entities the replace is guarded by the loaded version and
// a concurrent modification surfaces as *VersionMismatchError.
func (ds *Datastore) Save(ctx context.Context, entity any) error {
	v, err := entityValue(entity)
	if err != nil {
		return err
	}
	model, err := ds.mapper.ModelOf(entity)
	if err != nil {
		return err
	}
	if model.Embeddable() {
		return &mapping.InvalidMappingError{Type: model.Type(), Reason: "embeddable types cannot be saved directly"}
	}
	if hook, ok := entity.(BeforeSaveHook); ok {
		if err := hook.BeforeSave(ctx); err != nil {
			return fmt.Errorf("before-save hook: %w", err)
		}
	}
	ds.bindValue(reflect.ValueOf(entity))

	id, hasID := model.ID(entity)
	isNew := !hasID
	if isNew {
		id, err = ds.generateID(model)
		if err != nil {
			return err
		}
		model.SetID(entity, id)
	}

	var oldVersion int64
	vp := model.VersionProperty()
	if vp != nil {
		oldVersion = vp.ValueOf(v).Int()
		if oldVersion == 0 {
			isNew = true
		}
		vp.ValueOf(v).SetInt(oldVersion + 1)
	}
	restore := func() {
		if vp != nil {
			vp.ValueOf(v).SetInt(oldVersion)
		}
	}

	doc, err := ds.encode(model, v)
	if err != nil {
		restore()
		return err
	}
	data, err := ds.marshaler.Marshal(doc)
	if err != nil {
		restore()
		return fmt.Errorf("encoding %s: %w", model.Type(), err)
	}

	if isNew {
		if err := ds.store.InsertOne(ctx, model.Collection(), data); err != nil {
			restore()
			if errors.Is(err, constants.ErrDuplicateKey) {
				return &DuplicateKeyError{Collection: model.Collection(), ID: id}
			}
			return err
		}
		ds.log.Debug("inserted entity", "collection", model.Collection(), "id", fmt.Sprint(id))
		return nil
	}

	filter := bson.D{{Key: "_id", Value: id}}
	upsert := vp == nil
	if vp != nil {
		filter = append(filter, bson.E{Key: vp.MappedName, Value: oldVersion})
	}
	matched, err := ds.store.ReplaceOne(ctx, model.Collection(), filter, data, upsert)
	if err != nil {
		restore()
		return err
	}
	if matched == 0 {
		restore()
		return &VersionMismatchError{Collection: model.Collection(), ID: id, Version: oldVersion}
	}
	ds.log.Debug("replaced entity", "collection", model.Collection(), "id", fmt.Sprint(id))
	return nil
}

// Delete removes the entity's document by identifier. Deleting an
// entity that was never saved, or is already gone, reports
// constants.ErrNotFound.
func (ds *Datastore) Delete(ctx context.Context, entity any) error {
	if _, err := entityValue(entity); err != nil {
		return err
	}
	model, err := ds.mapper.ModelOf(entity)
	if err != nil {
		return err
	}
	id, hasID := model.ID(entity)
	if !hasID {
		return fmt.Errorf("delete from %s: %w", model.Collection(), constants.ErrNotFound)
	}
	deleted, err := ds.store.DeleteOne(ctx, model.Collection(), bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return err
	}
	if deleted == 0 {
		return fmt.Errorf("delete from %s: %w", model.Collection(), constants.ErrNotFound)
	}
	ds.log.Debug("deleted entity", "collection", model.Collection(), "id", fmt.Sprint(id))
	return nil
}

// FetchByIDs implements refs.Resolver: one batched lookup of raw
// documents by identifier against the entity type's collection.
func (ds *Datastore) FetchByIDs(ctx context.Context, entityType reflect.Type, ids []any) ([]bson.Raw, error) {
	model, err := ds.mapper.ModelOfType(entityType)
	if err != nil {
		return nil, err
	}
	filter := bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}}
	return ds.store.Find(ctx, model.Collection(), filter)
}

// Materialize implements refs.Resolver: decode a raw document into the
// concrete type named by its discriminator, or the declared type when
// the document carries none.
func (ds *Datastore) Materialize(ctx context.Context, doc bson.Raw, declared reflect.Type) (any, error) {
	model, err := ds.mapper.ModelForDocument(doc)
	if err != nil {
		return nil, err
	}
	target := declared
	for target.Kind() == reflect.Pointer {
		target = target.Elem()
	}
	if model != nil {
		target = model.Type()
	}
	entity := reflect.New(target).Interface()
	if err := ds.Decode(ctx, doc, entity); err != nil {
		return nil, err
	}
	return entity, nil
}

// Decode implements refs.Resolver: decode a raw document into dst,
// bind every reference wrapper reachable from it, and run the
// after-load hook.
func (ds *Datastore) Decode(ctx context.Context, doc bson.Raw, dst any) error {
	if err := ds.unmarshaler.Unmarshal(doc, dst); err != nil {
		return fmt.Errorf("decoding into %T: %w", dst, err)
	}
	ds.bindValue(reflect.ValueOf(dst))
	if hook, ok := dst.(AfterLoadHook); ok {
		if err := hook.AfterLoad(ctx); err != nil {
			return fmt.Errorf("after-load hook: %w", err)
		}
	}
	return nil
}

func (ds *Datastore) generateID(model *mapping.EntityModel) (any, error) {
	idType := model.IDProperty().Type
	switch {
	case idType == reflect.TypeOf(bson.ObjectID{}):
		return bson.NewObjectID(), nil
	case idType.Kind() == reflect.String:
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("generating identifier: %w", err)
		}
		return id.String(), nil
	}
	return nil, fmt.Errorf("cannot generate an identifier of type %s for %s, assign one before saving", idType, model.Type())
}

func entityValue(entity any) (reflect.Value, error) {
	if entity == nil {
		return reflect.Value{}, constants.ErrNilEntity
	}
	v := reflect.ValueOf(entity)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return reflect.Value{}, constants.ErrNotAPointer
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, constants.ErrNotAPointer
	}
	return v, nil
}
