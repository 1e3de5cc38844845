package docmorph_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	docmorph "github.com/docmorph/docmorph.go"
)

// Tag normalizes itself before save and counts loads, exercising both
// lifecycle hooks.
type Tag struct {
	docmorph.Entity `collection:"tags" discriminator:"-"`
	ID              bson.ObjectID `bson:"_id,omitempty"`
	Name            string        `bson:"name"`
	Loads           int           `bson:"-"`
}

func (t *Tag) BeforeSave(context.Context) error {
	t.Name = strings.ToLower(strings.TrimSpace(t.Name))
	if t.Name == "" {
		return errors.New("tag name is empty")
	}
	return nil
}

func (t *Tag) AfterLoad(context.Context) error {
	t.Loads++
	return nil
}

func TestLifecycleHooks(t *testing.T) {
	ctx := context.Background()
	ds, _ := newTestDatastore(t)

	tag := &Tag{Name: "  Gothic "}
	require.NoError(t, ds.Save(ctx, tag))
	assert.Equal(t, "gothic", tag.Name, "before-save ran before encoding")

	loaded, err := docmorph.FindByID[Tag](ctx, ds, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, "gothic", loaded.Name)
	assert.Equal(t, 1, loaded.Loads, "after-load ran exactly once")
}

func TestBeforeSaveAborts(t *testing.T) {
	ctx := context.Background()
	ds, fake := newTestDatastore(t)

	err := ds.Save(ctx, &Tag{Name: "   "})
	require.Error(t, err)
	assert.Zero(t, fake.Count("tags"), "a failing hook prevents the write")
}
