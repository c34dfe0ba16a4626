package mongostore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/quillarb/mongo-userstore/identity"
	"github.com/quillarb/mongo-userstore/pkg/logger"
)

func TestRepository_GetByID(t *testing.T) {
	store, coll := setupTestStore(t)
	repo := NewRepository[identity.User](coll, logger.NewDefault())
	ctx := context.Background()

	t.Run("zero matches is an unexpected condition", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "missing-id")
		require.Error(t, err)
	})

	t.Run("returns the active document", func(t *testing.T) {
		user := createTestUser(t, ctx, store, "alice", "alice@example.com")

		found, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.UserName, found.UserName)
	})

	t.Run("a soft-deleted document counts as missing", func(t *testing.T) {
		user := createTestUser(t, ctx, store, "bob", "bob@example.com")
		require.NoError(t, user.Delete())
		require.NoError(t, repo.Delete(ctx, user.ID, user))

		_, err := repo.GetByID(ctx, user.ID)
		require.Error(t, err)
	})
}

func TestRepository_FindOne(t *testing.T) {
	store, coll := setupTestStore(t)
	repo := NewRepository[identity.User](coll, logger.NewDefault())
	ctx := context.Background()

	t.Run("miss is not an error", func(t *testing.T) {
		found, err := repo.FindOne(ctx, bson.D{{Key: "normalizedUserName", Value: "NOBODY"}})
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("hit decodes the document", func(t *testing.T) {
		user := createTestUser(t, ctx, store, "carol", "carol@example.com")

		found, err := repo.FindOne(ctx, bson.D{{Key: "normalizedUserName", Value: "CAROL"}})
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, user.ID, found.ID)
	})
}

func TestRepository_Delete_KeepsDocument(t *testing.T) {
	store, coll := setupTestStore(t)
	repo := NewRepository[identity.User](coll, logger.NewDefault())
	ctx := context.Background()

	user := createTestUser(t, ctx, store, "dave", "dave@example.com")
	require.NoError(t, user.Delete())
	require.NoError(t, repo.Delete(ctx, user.ID, user))

	count, err := coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: user.ID}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
