package benchmark_test

import (
	"context"
	"testing"

	docmorph "github.com/docmorph/docmorph.go"
	"github.com/docmorph/docmorph.go/internal/fakestore"
	"github.com/docmorph/docmorph.go/pkg/mapping"
	"github.com/docmorph/docmorph.go/pkg/refs"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type benchAuthor struct {
	docmorph.Entity `collection:"authors"`
	ID              bson.ObjectID `bson:"_id,omitempty"`
	Name            string
	Country         string
}

type benchBook struct {
	docmorph.Entity `collection:"books"`
	ID              bson.ObjectID `bson:"_id,omitempty"`
	Title           string
	Author          *refs.Reference[benchAuthor]
}

func BenchmarkModelOfCached(b *testing.B) {
	m := mapping.NewMapper()
	if _, err := mapping.Register[benchAuthor](m); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// error is ignored for benchmarking purposes.
		m.ModelOf(&benchAuthor{}) //nolint:errcheck
	}
}

func BenchmarkModelOfFirstBuild(b *testing.B) {
	for i := 0; i < b.N; i++ {
		m := mapping.NewMapper()
		// error is ignored for benchmarking purposes.
		mapping.Register[benchBook](m) //nolint:errcheck
	}
}

func BenchmarkSave(b *testing.B) {
	ctx := context.Background()
	ds := docmorph.FromStore(fakestore.New())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		author := &benchAuthor{Name: "tobi"}
		// error is ignored for benchmarking purposes.
		ds.Save(ctx, author) //nolint:errcheck
	}
}

// BenchmarkReferenceGetResolved measures repeated access to an already
// resolved reference, which should be a read-lock hit only.
func BenchmarkReferenceGetResolved(b *testing.B) {
	ctx := context.Background()
	ds := docmorph.FromStore(fakestore.New())
	author := &benchAuthor{Name: "tobi"}
	if err := ds.Save(ctx, author); err != nil {
		b.Fatal(err)
	}
	book := &benchBook{Title: "a", Author: refs.Wrap(author)}
	if err := ds.Save(ctx, book); err != nil {
		b.Fatal(err)
	}
	loaded, err := docmorph.FindByID[benchBook](ctx, ds, book.ID)
	if err != nil {
		b.Fatal(err)
	}
	if _, err := loaded.Author.Get(ctx); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// error is ignored for benchmarking purposes.
		loaded.Author.Get(ctx) //nolint:errcheck
	}
}
