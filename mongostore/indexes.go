package mongostore

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/quillarb/mongo-userstore/identity"
)

var (
	indexOnce sync.Once
	indexErr  error
)

// EnsureIndexes provisions the uniqueness indexes backing the store: one on
// the normalized email value and a compound one on (login provider, provider
// key). Both are partial over active documents, so a soft-deleted user does
// not block reuse of its email or external logins.
//
// At most one provisioning attempt runs per process regardless of how many
// stores are constructed concurrently; racing callers share its outcome.
func EnsureIndexes(ctx context.Context, coll *mongo.Collection) error {
	indexOnce.Do(func() {
		indexErr = createIndexes(ctx, coll)
	})
	return indexErr
}

func createIndexes(ctx context.Context, coll *mongo.Collection) error {
	activeOnly := bson.E{Key: "status", Value: string(identity.StatusActive)}

	models := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "email.normalizedValue", Value: 1}},
			Options: options.Index().
				SetName("ux_email_normalized").
				SetUnique(true).
				SetPartialFilterExpression(bson.D{
					activeOnly,
					{Key: "email.normalizedValue", Value: bson.D{{Key: "$exists", Value: true}}},
				}),
		},
		{
			Keys: bson.D{
				{Key: "logins.provider", Value: 1},
				{Key: "logins.providerKey", Value: 1},
			},
			Options: options.Index().
				SetName("ux_login_provider_key").
				SetUnique(true).
				// Users without logins would all collide on a null entry,
				// so the index only covers documents that have at least one.
				SetPartialFilterExpression(bson.D{
					activeOnly,
					{Key: "logins.provider", Value: bson.D{{Key: "$exists", Value: true}}},
				}),
		},
	}

	if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
		return storageError(err, "failed to create indexes")
	}
	return nil
}
