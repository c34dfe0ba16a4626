package mongostore

import (
	"context"
	"errors"

	"github.com/samber/oops"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/quillarb/mongo-userstore/identity"
	"github.com/quillarb/mongo-userstore/pkg/logger"
)

// Repository is a soft-delete-aware accessor over one document collection.
// Every finder restricts itself to active documents; a deleted document is
// indistinguishable from an absent one through this surface.
type Repository[T any] struct {
	coll *mongo.Collection
	log  *logger.Logger
}

// NewRepository creates a repository over the given collection.
func NewRepository[T any](coll *mongo.Collection, log *logger.Logger) *Repository[T] {
	return &Repository[T]{
		coll: coll,
		log:  log.WithComponent("repository"),
	}
}

// Collection exposes the underlying collection for operations the typed
// surface does not cover, such as targeted field updates.
func (r *Repository[T]) Collection() *mongo.Collection {
	return r.coll
}

// withActive restricts a filter to active documents.
func withActive(filter bson.D) bson.D {
	return append(bson.D{{Key: "status", Value: string(identity.StatusActive)}}, filter...)
}

// Insert stores a new document.
func (r *Repository[T]) Insert(ctx context.Context, doc *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return storageError(err, "failed to insert document")
	}
	return nil
}

// GetByID retrieves the active document with the given id. Ids are globally
// unique, so zero or multiple matches is an unexpected condition and
// surfaces as an error.
func (r *Repository[T]) GetByID(ctx context.Context, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cur, err := r.coll.Find(ctx, withActive(bson.D{{Key: "_id", Value: id}}), options.Find().SetLimit(2))
	if err != nil {
		return nil, storageError(err, "failed to query document by id")
	}

	var docs []T
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storageError(err, "failed to decode documents")
	}

	switch len(docs) {
	case 1:
		return &docs[0], nil
	case 0:
		return nil, oops.In("mongostore").With("id", id).Errorf("document not found")
	default:
		return nil, oops.In("mongostore").With("id", id).Errorf("id matched more than one document")
	}
}

// FindOne retrieves the first active document matching the filter, or
// (nil, nil) when nothing matches.
func (r *Repository[T]) FindOne(ctx context.Context, filter bson.D) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var doc T
	err := r.coll.FindOne(ctx, withActive(filter)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, storageError(err, "failed to query document")
	}
	return &doc, nil
}

// FindAll retrieves every active document matching the filter.
func (r *Repository[T]) FindAll(ctx context.Context, filter bson.D) ([]*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cur, err := r.coll.Find(ctx, withActive(filter))
	if err != nil {
		return nil, storageError(err, "failed to query documents")
	}

	docs := []*T{}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storageError(err, "failed to decode documents")
	}
	return docs, nil
}

// Replace performs a full-document replace filtered by id and active status,
// never upserting. It reports whether exactly one document was modified; a
// false return signals a stale or concurrently deleted document.
func (r *Repository[T]) Replace(ctx context.Context, id string, doc *T) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	res, err := r.coll.ReplaceOne(ctx,
		withActive(bson.D{{Key: "_id", Value: id}}),
		doc,
		options.Replace().SetUpsert(false),
	)
	if err != nil {
		return false, storageError(err, "failed to replace document")
	}
	return res.ModifiedCount == 1, nil
}

// Delete persists a soft delete as a full replace of the already-marked
// document. Physical removal is not supported.
func (r *Repository[T]) Delete(ctx context.Context, id string, doc *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := r.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: id}}, doc); err != nil {
		return storageError(err, "failed to persist soft delete")
	}
	return nil
}
