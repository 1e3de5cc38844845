package refs_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/docmorph/docmorph.go/pkg/refs"
)

func threeAuthors(t *testing.T) []*Author {
	t.Helper()
	return []*Author{
		{ID: bson.NewObjectID(), Name: "Jane Austen"},
		{ID: bson.NewObjectID(), Name: "Mary Shelley"},
		{ID: bson.NewObjectID(), Name: "Emily Bronte"},
	}
}

func idsOf(authors []*Author) []any {
	ids := make([]any, len(authors))
	for i, a := range authors {
		ids[i] = a.ID
	}
	return ids
}

func TestListPreservesOrder(t *testing.T) {
	ctx := context.Background()
	authors := threeAuthors(t)
	resolver := newStubResolver(t, authors...)
	resolver.reverse = true // the backend need not preserve input order

	list := refs.NewList[Author](idsOf(authors))
	list.Bind(resolver)
	assert.False(t, list.IsResolved())

	got, err := list.Get(ctx)
	require.NoError(t, err)
	require.Len(t, got, len(authors))
	for i, a := range authors {
		assert.Equal(t, a.Name, got[i].Name, "element order matches the original identifier order")
	}
	assert.True(t, list.IsResolved())
	assert.Equal(t, 1, resolver.Fetches(), "one batched lookup for all elements")

	_, err = list.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, resolver.Fetches())
}

func TestListPartialResolution(t *testing.T) {
	ctx := context.Background()
	authors := threeAuthors(t)
	resolver := newStubResolver(t, authors[0], authors[2]) // authors[1] is gone

	list := refs.NewList[Author](idsOf(authors))
	list.Bind(resolver)

	got, err := list.Get(ctx)
	var partial *refs.PartialError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, 3, partial.Expected)
	assert.Equal(t, 2, partial.Found)
	assert.Equal(t, []any{authors[1].ID}, partial.Missing)

	require.Len(t, got, 2, "missing entries are omitted, not nil-padded")
	assert.Equal(t, "Jane Austen", got[0].Name)
	assert.Equal(t, "Emily Bronte", got[1].Name)
	assert.True(t, list.IsResolved())

	again, err := list.Get(ctx)
	require.ErrorAs(t, err, &partial, "the partial outcome is sticky")
	assert.Equal(t, got, again)
	assert.Equal(t, 1, resolver.Fetches())
}

func TestListZeroFound(t *testing.T) {
	ctx := context.Background()
	authors := threeAuthors(t)
	resolver := newStubResolver(t)

	list := refs.NewList[Author](idsOf(authors))
	list.Bind(resolver)

	got, err := list.Get(ctx)
	var partial *refs.PartialError
	require.ErrorAs(t, err, &partial, "finding nothing when entries were expected is not success")
	assert.Empty(t, got)
	assert.Equal(t, 3, partial.Expected)
	assert.Zero(t, partial.Found)
}

func TestListSerializesAsIdentifierArray(t *testing.T) {
	authors := threeAuthors(t)

	t.Run("unresolved", func(t *testing.T) {
		list := refs.NewList[Author](idsOf(authors))
		typ, data, err := list.MarshalBSONValue()
		require.NoError(t, err)

		var reloaded refs.ReferenceList[Author]
		require.NoError(t, reloaded.UnmarshalBSONValue(typ, data))
		ids, err := reloaded.IDs()
		require.NoError(t, err)
		assert.Equal(t, idsOf(authors), ids)
	})

	t.Run("wrapped", func(t *testing.T) {
		list := refs.WrapList(authors)
		ids, err := list.IDs()
		require.NoError(t, err)
		assert.Equal(t, idsOf(authors), ids, "identifiers derive from the entities themselves")
	})
}

func TestSetCollapsesDuplicates(t *testing.T) {
	ctx := context.Background()
	authors := threeAuthors(t)
	resolver := newStubResolver(t, authors...)

	ids := idsOf(authors)
	ids = append(ids, authors[0].ID, authors[1].ID) // duplicates
	set := refs.NewSet[Author](ids)
	set.Bind(resolver)

	got, err := set.Get(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 3, "duplicate identifiers collapse to one membership")
	assert.Equal(t, 1, resolver.Fetches())

	names := make([]string, len(got))
	for i, a := range got {
		names[i] = a.Name
	}
	assert.ElementsMatch(t, []string{"Jane Austen", "Mary Shelley", "Emily Bronte"}, names)
}

func TestSetPartialResolution(t *testing.T) {
	ctx := context.Background()
	authors := threeAuthors(t)
	resolver := newStubResolver(t, authors[0])

	set := refs.NewSet[Author](idsOf(authors))
	set.Bind(resolver)

	got, err := set.Get(ctx)
	var partial *refs.PartialError
	require.ErrorAs(t, err, &partial)
	assert.Len(t, got, 1)
	assert.ElementsMatch(t, []any{authors[1].ID, authors[2].ID}, partial.Missing)
}

func TestMapKeepsKeys(t *testing.T) {
	ctx := context.Background()
	authors := threeAuthors(t)
	resolver := newStubResolver(t, authors...)

	stored := bson.D{
		{Key: "classic", Value: authors[0].ID},
		{Key: "gothic", Value: authors[1].ID},
		{Key: "romantic", Value: authors[2].ID},
	}
	m := refs.NewMap[Author](stored)
	m.Bind(resolver)

	assert.Equal(t, []string{"classic", "gothic", "romantic"}, m.Keys())
	assert.False(t, m.IsResolved())

	got, err := m.Get(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Jane Austen", got["classic"].Name)
	assert.Equal(t, "Mary Shelley", got["gothic"].Name)
	assert.Equal(t, "Emily Bronte", got["romantic"].Name)
	assert.Equal(t, 1, resolver.Fetches(), "one batched lookup for all values")

	assert.Equal(t, []string{"classic", "gothic", "romantic"}, m.Keys(),
		"the key set is fixed at construction time")
}

func TestMapPartialResolution(t *testing.T) {
	ctx := context.Background()
	authors := threeAuthors(t)
	resolver := newStubResolver(t, authors[0], authors[2])

	m := refs.NewMap[Author](bson.D{
		{Key: "classic", Value: authors[0].ID},
		{Key: "gothic", Value: authors[1].ID},
		{Key: "romantic", Value: authors[2].ID},
	})
	m.Bind(resolver)

	got, err := m.Get(ctx)
	var partial *refs.PartialError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, []any{authors[1].ID}, partial.Missing)

	require.Len(t, got, 2)
	assert.Contains(t, got, "classic")
	assert.Contains(t, got, "romantic")
	assert.Equal(t, []string{"classic", "gothic", "romantic"}, m.Keys(),
		"even a missing value leaves its key in place")
}

// Binary identifiers are slice-backed and cannot key a map directly;
// resolution must still match them up, and a missing one must surface
// as a partial result rather than a panic.
func TestListBinaryIdentifiers(t *testing.T) {
	ctx := context.Background()
	stored := []*Asset{
		{ID: bson.Binary{Subtype: 0x04, Data: []byte{1, 2, 3, 4}}, Name: "cover"},
		{ID: bson.Binary{Subtype: 0x04, Data: []byte{5, 6, 7, 8}}, Name: "spine"},
	}
	resolver := newBinaryStub(t, stored...)
	missing := bson.Binary{Subtype: 0x04, Data: []byte{9, 9, 9, 9}}

	list := refs.NewList[Asset]([]any{stored[0].ID, missing, stored[1].ID})
	list.Bind(resolver)

	got, err := list.Get(ctx)
	var partial *refs.PartialError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, []any{missing}, partial.Missing)

	require.Len(t, got, 2)
	assert.Equal(t, "cover", got[0].Name)
	assert.Equal(t, "spine", got[1].Name)
}

func TestMapSerializesAsKeyedIdentifiers(t *testing.T) {
	authors := threeAuthors(t)
	stored := bson.D{
		{Key: "classic", Value: authors[0].ID},
		{Key: "gothic", Value: authors[1].ID},
	}

	m := refs.NewMap[Author](stored)
	typ, data, err := m.MarshalBSONValue()
	require.NoError(t, err)

	var reloaded refs.ReferenceMap[Author]
	require.NoError(t, reloaded.UnmarshalBSONValue(typ, data))
	ids, err := reloaded.IDs()
	require.NoError(t, err)
	assert.Equal(t, stored, ids, "keys and their order pass through storage unchanged")
}
