package mapping

import (
	"log/slog"
	"os"

	"github.com/docmorph/docmorph.go/pkg/logger"
)

// DefaultDiscriminatorKey is the document field that stores the
// concrete type tag of a polymorphic entity.
const DefaultDiscriminatorKey = "_t"

// Options hold the process-wide mapping policy of a Mapper.
type Options struct {
	collectionNaming    NamingStrategy
	discriminatorNaming DiscriminatorStrategy
	discriminatorKey    string
	log                 logger.Logger
}

// Option configures a Mapper.
type Option func(*Options)

func defaultOptions() Options {
	return Options{
		collectionNaming:    Identity,
		discriminatorNaming: SimpleTypeName,
		discriminatorKey:    DefaultDiscriminatorKey,
		log:                 logger.New(slog.NewTextHandler(os.Stdout, nil)),
	}
}

// WithCollectionNaming sets the strategy deriving a collection name
// from a type name when no collection tag is given.
func WithCollectionNaming(s NamingStrategy) Option {
	return func(o *Options) {
		o.collectionNaming = s
	}
}

// WithDiscriminatorNaming sets the strategy deriving a discriminator
// tag from a type when no discriminator tag is given.
func WithDiscriminatorNaming(s DiscriminatorStrategy) Option {
	return func(o *Options) {
		o.discriminatorNaming = s
	}
}

// WithDiscriminatorKey sets the document field holding discriminator
// tags. The default is [DefaultDiscriminatorKey].
func WithDiscriminatorKey(key string) Option {
	return func(o *Options) {
		if key != "" {
			o.discriminatorKey = key
		}
	}
}

// WithLogger replaces the default stdout text logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.log = l
		}
	}
}

// DiscriminatorKey returns the configured discriminator field name.
func (o Options) DiscriminatorKey() string {
	return o.discriminatorKey
}

// Logger returns the configured logger.
func (o Options) Logger() logger.Logger {
	return o.log
}
