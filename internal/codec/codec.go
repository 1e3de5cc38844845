// Package codec defines the document encoding boundary between the
// datastore and the driver. Implementations translate whole documents;
// streaming is intentionally absent because BSON documents are
// length-prefixed and handled as complete byte slices.
package codec

import "go.mongodb.org/mongo-driver/v2/bson"

type Marshaler interface {
	Marshal(v any) ([]byte, error)
}

type Unmarshaler interface {
	Unmarshal(data []byte, dst any) error
}

// BSON implements Marshaler and Unmarshaler using the driver's default
// registry.
type BSON struct{}

func NewBSON() *BSON {
	return &BSON{}
}

func (*BSON) Marshal(v any) ([]byte, error) {
	return bson.Marshal(v)
}

func (*BSON) Unmarshal(data []byte, dst any) error {
	return bson.Unmarshal(data, dst)
}
