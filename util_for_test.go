package docmorph_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	docmorph "github.com/docmorph/docmorph.go"
	"github.com/docmorph/docmorph.go/internal/fakestore"
	"github.com/docmorph/docmorph.go/pkg/refs"
)

type Author struct {
	docmorph.Entity `collection:"authors" discriminator:"-"`
	ID              bson.ObjectID `bson:"_id,omitempty"`
	Name            string        `bson:"name"`
}

type Book struct {
	docmorph.Entity `collection:"books" discriminator:"-"`
	ID              bson.ObjectID           `bson:"_id,omitempty"`
	Title           string                  `bson:"title"`
	Author          *refs.Reference[Author] `bson:"author"`
}

type Anthology struct {
	docmorph.Entity `collection:"anthologies" discriminator:"-"`
	ID              bson.ObjectID               `bson:"_id,omitempty"`
	Title           string                      `bson:"title"`
	Contributors    *refs.ReferenceList[Author] `bson:"contributors"`
}

type Media struct {
	docmorph.Entity `collection:"media"`
	ID              bson.ObjectID `bson:"_id,omitempty"`
	Title           string        `bson:"title"`
}

type Film struct {
	Media    `bson:",inline"`
	Director string `bson:"director"`
}

type Account struct {
	docmorph.Entity `collection:"accounts" discriminator:"-"`
	ID              string `bson:"_id,omitempty"`
	Balance         int64  `bson:"balance"`
	Version         int64  `bson:"version" odm:"version"`
}

// newTestDatastore pairs a datastore with its in-memory store so tests
// can both exercise the facade and count backend queries.
func newTestDatastore(t *testing.T) (*docmorph.Datastore, *fakestore.Store) {
	t.Helper()
	fake := fakestore.New()
	return docmorph.FromStore(fake), fake
}

func saveAuthor(t *testing.T, ds *docmorph.Datastore, name string) *Author {
	t.Helper()
	author := &Author{Name: name}
	require.NoError(t, ds.Save(context.Background(), author))
	require.False(t, author.ID.IsZero(), "save assigns the identifier in place")
	return author
}
