package docmorph

import (
	"log/slog"
	"os"

	"github.com/docmorph/docmorph.go/internal/codec"
	"github.com/docmorph/docmorph.go/pkg/logger"
	"github.com/docmorph/docmorph.go/pkg/mapping"
)

// Entity marks a struct as a root entity. See [mapping.Entity] for the
// recognized marker tags.
type Entity = mapping.Entity

// Embedded marks a struct as an embeddable value nested inside another
// document, with no identifier or collection of its own.
type Embedded = mapping.Embedded

// Option configures a Datastore.
type Option func(*config)

type config struct {
	mapper      *mapping.Mapper
	marshaler   codec.Marshaler
	unmarshaler codec.Unmarshaler
	log         logger.Logger
}

func defaultConfig() config {
	bsonCodec := codec.NewBSON()
	return config{
		marshaler:   bsonCodec,
		unmarshaler: bsonCodec,
		log:         logger.New(slog.NewTextHandler(os.Stdout, nil)),
	}
}

// WithMapper substitutes a preconfigured model registry, for example
// one with a non-default naming strategy or discriminator key.
func WithMapper(m *mapping.Mapper) Option {
	return func(c *config) {
		if m != nil {
			c.mapper = m
		}
	}
}

// WithMarshaler replaces the BSON document encoder.
func WithMarshaler(m codec.Marshaler) Option {
	return func(c *config) {
		if m != nil {
			c.marshaler = m
		}
	}
}

// WithUnmarshaler replaces the BSON document decoder.
func WithUnmarshaler(u codec.Unmarshaler) Option {
	return func(c *config) {
		if u != nil {
			c.unmarshaler = u
		}
	}
}

// WithLogger replaces the default stdout text logger.
func WithLogger(l logger.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.log = l
		}
	}
}
