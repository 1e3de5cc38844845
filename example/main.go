package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	docmorph "github.com/docmorph/docmorph.go"
	"github.com/docmorph/docmorph.go/pkg/logger"
	"github.com/docmorph/docmorph.go/pkg/refs"
)

type Author struct {
	docmorph.Entity `collection:"authors"`
	ID              bson.ObjectID `bson:"_id,omitempty"`
	Name            string        `bson:"name"`
	Country         string        `bson:"country,omitempty"`
}

type Book struct {
	docmorph.Entity `collection:"books"`
	ID              bson.ObjectID `bson:"_id,omitempty"`
	Title           string        `bson:"title"`
	Author          *refs.Reference[Author]
	Version         int64 `odm:"version"`
}

func main() {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		log.Fatal(err)
	}
	defer client.Disconnect(context.Background()) //nolint:errcheck

	zl, err := logger.NewZerolog().Make()
	if err != nil {
		log.Fatal(err)
	}
	ds := docmorph.New(client.Database("quickstart"), docmorph.WithLogger(zl))

	// Save the referenced entity first so it has an identifier.
	author := &Author{Name: "Jane Austen", Country: "England"}
	if err := ds.Save(ctx, author); err != nil {
		log.Fatal(err)
	}

	book := &Book{Title: "Pride and Prejudice", Author: refs.Wrap(author)}
	if err := ds.Save(ctx, book); err != nil {
		log.Fatal(err)
	}

	// Reload: the reference comes back as a bare identifier and is
	// only fetched when first accessed.
	loaded, err := docmorph.FindByID[Book](ctx, ds, book.ID)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("resolved:", loaded.Author.IsResolved())

	got, err := loaded.Author.Get(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%s by %s\n", loaded.Title, got.Name)

	// Optimistic locking: the version field guards concurrent updates.
	loaded.Title = "Pride and Prejudice (annotated)"
	if err := ds.Save(ctx, loaded); err != nil {
		log.Fatal(err)
	}
	fmt.Println("version:", loaded.Version)
}
