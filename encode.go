package docmorph

import (
	"reflect"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/docmorph/docmorph.go/pkg/mapping"
)

// encode renders an entity struct value to its document form, driven
// by the model: markers are skipped, the discriminator field is
// injected for discriminated types, and omitempty properties holding
// their zero value are left out. Reference wrappers serialize through
// their own ValueMarshaler into bare identifier form.
func (ds *Datastore) encode(model *mapping.EntityModel, v reflect.Value) (bson.D, error) {
	doc := make(bson.D, 0, len(model.Properties())+1)
	if model.UseDiscriminator() {
		doc = append(doc, bson.E{Key: model.DiscriminatorKey(), Value: model.Discriminator()})
	}
	for _, p := range model.Properties() {
		fv := p.ValueOf(v)
		if p.OmitEmpty && fv.IsZero() {
			continue
		}
		doc = append(doc, bson.E{Key: p.MappedName, Value: fv.Interface()})
	}
	return doc, nil
}
