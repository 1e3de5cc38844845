package docmorph_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	docmorph "github.com/docmorph/docmorph.go"
	"github.com/docmorph/docmorph.go/pkg/aggregation"
	"github.com/docmorph/docmorph.go/pkg/refs"
)

// joinedBook is the shape of a book after a $lookup joined its author:
// the joined documents land under a caller-chosen peer field while the
// reference field keeps its raw identifier form.
type joinedBook struct {
	Title      string                  `bson:"title"`
	Author     *refs.Reference[Author] `bson:"author"`
	AuthorDocs []Author                `bson:"author_docs"`
}

func TestAggregateLookupOverReference(t *testing.T) {
	ctx := context.Background()
	ds, _ := newTestDatastore(t)

	author := saveAuthor(t, ds, "Jane Austen")
	book := &Book{Title: "Pride and Prejudice", Author: refs.Wrap(author)}
	require.NoError(t, ds.Save(ctx, book))

	pipeline := aggregation.New().
		Match(bson.D{{Key: "_id", Value: book.ID}}).
		Lookup(aggregation.Lookup{
			From:         "authors",
			LocalField:   "author", // the stored reference field is already the bare id
			ForeignField: "_id",
			As:           "author_docs",
		})

	results, err := docmorph.Aggregate[Book, joinedBook](ctx, ds, pipeline)
	require.NoError(t, err)
	require.Len(t, results, 1)

	joined := results[0]
	require.Len(t, joined.AuthorDocs, 1, "the join output is a peer field")
	assert.Equal(t, "Jane Austen", joined.AuthorDocs[0].Name)

	// The reference field itself is untouched by the lookup: still an
	// unresolved identifier, not folded into the joined documents.
	require.NotNil(t, joined.Author)
	assert.False(t, joined.Author.IsResolved())
	id, err := joined.Author.ID()
	require.NoError(t, err)
	assert.Equal(t, author.ID, id)

	// And it resolves independently, because decode bound it.
	got, err := joined.Author.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Jane Austen", got.Name)
}

func TestAggregateCount(t *testing.T) {
	ctx := context.Background()
	ds, _ := newTestDatastore(t)

	saveAuthor(t, ds, "Jane Austen")
	saveAuthor(t, ds, "Mary Shelley")

	pipeline := aggregation.New().Count("n")
	results, err := docmorph.Aggregate[Author, bson.M](ctx, ds, pipeline)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.EqualValues(t, 2, results[0]["n"])
}
