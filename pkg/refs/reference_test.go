package refs_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/docmorph/docmorph.go/pkg/refs"
)

func TestReferenceResolvesOnce(t *testing.T) {
	ctx := context.Background()
	author := &Author{ID: bson.NewObjectID(), Name: "Jane Austen"}
	resolver := newStubResolver(t, author)

	ref := refs.New[Author](author.ID)
	ref.Bind(resolver)

	assert.False(t, ref.IsResolved())
	assert.Zero(t, resolver.Fetches(), "IsResolved must not trigger resolution")

	got, err := ref.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, author.Name, got.Name)
	assert.True(t, ref.IsResolved())
	assert.Equal(t, 1, resolver.Fetches())

	again, err := ref.Get(ctx)
	require.NoError(t, err)
	assert.Same(t, got, again, "a resolved reference answers from its cache")
	assert.Equal(t, 1, resolver.Fetches(), "no second lookup")
}

func TestReferenceNotFound(t *testing.T) {
	ctx := context.Background()
	resolver := newStubResolver(t)
	missing := bson.NewObjectID()

	ref := refs.New[Author](missing)
	ref.Bind(resolver)

	_, err := ref.Get(ctx)
	var notFound *refs.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, missing, notFound.ID)
	assert.False(t, ref.IsResolved(), "a failed fetch leaves the wrapper unresolved")

	// The entity shows up later; a retry succeeds.
	author := &Author{ID: missing, Name: "Jane Austen"}
	raw, merr := bson.Marshal(author)
	require.NoError(t, merr)
	resolver.docs = append(resolver.docs, raw)

	got, err := ref.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Jane Austen", got.Name)
	assert.True(t, ref.IsResolved())
}

func TestReferenceUnbound(t *testing.T) {
	ref := refs.New[Author](bson.NewObjectID())
	_, err := ref.Get(context.Background())
	require.ErrorIs(t, err, refs.ErrUnboundReference)
}

func TestWrapIsResolved(t *testing.T) {
	author := &Author{ID: bson.NewObjectID(), Name: "Jane Austen"}
	ref := refs.Wrap(author)

	assert.True(t, ref.IsResolved())
	got, err := ref.Get(context.Background())
	require.NoError(t, err)
	assert.Same(t, author, got)
}

func TestReferenceSerializesAsIdentifier(t *testing.T) {
	author := &Author{ID: bson.NewObjectID(), Name: "Jane Austen"}

	wantType, wantData, err := bson.MarshalValue(author.ID)
	require.NoError(t, err)

	t.Run("unresolved", func(t *testing.T) {
		ref := refs.New[Author](author.ID)
		typ, data, err := ref.MarshalBSONValue()
		require.NoError(t, err)
		assert.Equal(t, byte(wantType), typ)
		assert.Equal(t, wantData, data)
	})

	t.Run("resolved", func(t *testing.T) {
		// Both states must produce byte-identical identifier forms.
		ref := refs.Wrap(author)
		typ, data, err := ref.MarshalBSONValue()
		require.NoError(t, err)
		assert.Equal(t, byte(wantType), typ)
		assert.Equal(t, wantData, data)
	})

	t.Run("wrapped unsaved entity", func(t *testing.T) {
		ref := refs.Wrap(&Author{Name: "No ID yet"})
		_, _, err := ref.MarshalBSONValue()
		require.ErrorIs(t, err, refs.ErrUnsavedEntity)
	})
}

func TestReferenceIdentifierRoundTrip(t *testing.T) {
	id := bson.NewObjectID()
	ref := refs.New[Author](id)

	typ, data, err := ref.MarshalBSONValue()
	require.NoError(t, err)

	var reloaded refs.Reference[Author]
	require.NoError(t, reloaded.UnmarshalBSONValue(typ, data))
	assert.False(t, reloaded.IsResolved())

	got, err := reloaded.ID()
	require.NoError(t, err)
	assert.Equal(t, id, got, "the identifier survives save and load losslessly")
}
