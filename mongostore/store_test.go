package mongostore

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/quillarb/mongo-userstore/identity"
	"github.com/quillarb/mongo-userstore/pkg/config"
	"github.com/quillarb/mongo-userstore/pkg/logger"
)

const testDatabase = "userstore_test"

// setupTestStore connects to the Mongo instance named by MONGO_URL and
// builds a store over a fresh collection. Provisioning through the
// process-wide once-guard is bypassed so every test gets its own indexes.
func setupTestStore(t *testing.T) (*UserStore, *mongo.Collection) {
	t.Helper()

	mongoURL := os.Getenv("MONGO_URL")
	if mongoURL == "" {
		t.Skip("MONGO_URL environment variable not set, skipping Mongo integration tests")
	}

	ctx := context.Background()
	log := logger.NewDefault()

	cfg := config.MongoConfig{
		URI:        mongoURL,
		Database:   testDatabase,
		Collection: "users_" + strings.ReplaceAll(uuid.New().String(), "-", ""),
	}

	client, err := Connect(ctx, cfg, log)
	require.NoError(t, err, "failed to connect to Mongo")

	store, err := NewUserStore(ctx, client, cfg, log)
	require.NoError(t, err)

	require.NoError(t, createIndexes(ctx, store.Collection()))

	t.Cleanup(func() {
		_ = store.Collection().Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	return store, store.Collection()
}

func createTestUser(t *testing.T, ctx context.Context, store *UserStore, name, email string) *identity.User {
	t.Helper()

	user, err := identity.NewUserWithEmail(name, email)
	require.NoError(t, err)
	require.NoError(t, user.SetNormalizedUserName(strings.ToUpper(name)))
	require.NoError(t, user.SetNormalizedEmail(strings.ToUpper(email)))

	result, err := store.Create(ctx, user)
	require.NoError(t, err)
	require.True(t, result.Succeeded)

	return user
}

func TestUserStore_CreateAndFind(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, ctx, store, "alice", "alice@example.com")

	t.Run("by id", func(t *testing.T) {
		found, err := store.FindByID(ctx, user.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, user.UserName, found.UserName)
	})

	t.Run("by normalized name", func(t *testing.T) {
		found, err := store.FindByName(ctx, "ALICE")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, user.UserName, found.UserName)
	})

	t.Run("by normalized email", func(t *testing.T) {
		found, err := store.FindByEmail(ctx, "ALICE@EXAMPLE.COM")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, user.UserName, found.UserName)
	})

	t.Run("miss returns nil without error", func(t *testing.T) {
		found, err := store.FindByID(ctx, uuid.New().String())
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestUserStore_SoftDelete(t *testing.T) {
	store, coll := setupTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, ctx, store, "alice", "alice@example.com")
	login, err := identity.NewLogin("github", "gh-123", "GitHub")
	require.NoError(t, err)
	require.NoError(t, store.AddLogin(ctx, user, login))
	result, err := store.Update(ctx, user)
	require.NoError(t, err)
	require.True(t, result.Succeeded)

	require.NoError(t, user.Delete())
	result, err = store.Delete(ctx, user)
	require.NoError(t, err)
	require.True(t, result.Succeeded)

	t.Run("invisible to every finder", func(t *testing.T) {
		byID, err := store.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Nil(t, byID)

		byName, err := store.FindByName(ctx, "ALICE")
		require.NoError(t, err)
		assert.Nil(t, byName)

		byEmail, err := store.FindByEmail(ctx, "ALICE@EXAMPLE.COM")
		require.NoError(t, err)
		assert.Nil(t, byEmail)

		byLogin, err := store.FindByLogin(ctx, "github", "gh-123")
		require.NoError(t, err)
		assert.Nil(t, byLogin)
	})

	t.Run("document still physically present", func(t *testing.T) {
		// Bypass the store's status filtering on purpose.
		var raw bson.M
		err := coll.FindOne(ctx, bson.D{{Key: "_id", Value: user.ID}}).Decode(&raw)
		require.NoError(t, err)
		assert.Equal(t, string(identity.StatusDeleted), raw["status"])
		assert.NotNil(t, raw["deletedOn"])
	})

	t.Run("second delete is a precondition violation", func(t *testing.T) {
		err := user.Delete()
		require.Error(t, err)
		assert.True(t, identity.HasCode(err, identity.CodeInvalidOperation))
	})

	t.Run("persisting a delete without the in-memory delete fails", func(t *testing.T) {
		fresh := createTestUser(t, ctx, store, "bob", "bob@example.com")
		_, err := store.Delete(ctx, fresh)
		require.Error(t, err)
		assert.True(t, identity.HasCode(err, identity.CodeInvalidOperation))
	})
}

func TestUserStore_Update(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	t.Run("replaces the document", func(t *testing.T) {
		user := createTestUser(t, ctx, store, "alice", "alice@example.com")
		user.SetPasswordHash("new-hash")

		result, err := store.Update(ctx, user)
		require.NoError(t, err)
		assert.True(t, result.Succeeded)

		found, err := store.FindByID(ctx, user.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "new-hash", found.PasswordHash)
	})

	t.Run("reports failure after a concurrent delete", func(t *testing.T) {
		user := createTestUser(t, ctx, store, "bob", "bob@example.com")

		// Another actor deletes the document under us.
		shadow := *user
		require.NoError(t, shadow.Delete())
		result, err := store.Delete(ctx, &shadow)
		require.NoError(t, err)
		require.True(t, result.Succeeded)

		user.SetPasswordHash("doomed")
		result, err = store.Update(ctx, user)
		require.NoError(t, err)
		assert.False(t, result.Succeeded)
		assert.NotEmpty(t, result.Reason)
	})

	t.Run("reports failure for a nonexistent document", func(t *testing.T) {
		ghost, err := identity.NewUser("ghost")
		require.NoError(t, err)

		result, err := store.Update(ctx, ghost)
		require.NoError(t, err)
		assert.False(t, result.Succeeded)
	})
}

func TestUserStore_Logins(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, ctx, store, "alice", "alice@example.com")
	login, err := identity.NewLogin("github", "gh-123", "GitHub")
	require.NoError(t, err)

	t.Run("add and find by login", func(t *testing.T) {
		require.NoError(t, store.AddLogin(ctx, user, login))
		result, err := store.Update(ctx, user)
		require.NoError(t, err)
		require.True(t, result.Succeeded)

		found, err := store.FindByLogin(ctx, "github", "gh-123")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, user.ID, found.ID)
	})

	t.Run("duplicate add fails", func(t *testing.T) {
		err := store.AddLogin(ctx, user, login)
		require.Error(t, err)
		assert.True(t, identity.HasCode(err, identity.CodeAlreadyExists))
	})

	t.Run("remove of absent login is a no-op", func(t *testing.T) {
		require.NoError(t, store.RemoveLogin(ctx, user, "google", "nope"))

		logins, err := store.GetLogins(ctx, user)
		require.NoError(t, err)
		assert.Len(t, logins, 1)
	})

	t.Run("remove detaches the login", func(t *testing.T) {
		require.NoError(t, store.RemoveLogin(ctx, user, "github", "gh-123"))
		result, err := store.Update(ctx, user)
		require.NoError(t, err)
		require.True(t, result.Succeeded)

		found, err := store.FindByLogin(ctx, "github", "gh-123")
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestUserStore_Claims(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	admin, err := identity.NewClaim("role", "admin")
	require.NoError(t, err)

	alice := createTestUser(t, ctx, store, "alice", "alice@example.com")
	bob := createTestUser(t, ctx, store, "bob", "bob@example.com")

	require.NoError(t, store.AddClaims(ctx, alice, []identity.Claim{admin}))
	require.NoError(t, store.AddClaims(ctx, bob, []identity.Claim{admin}))
	for _, u := range []*identity.User{alice, bob} {
		result, err := store.Update(ctx, u)
		require.NoError(t, err)
		require.True(t, result.Succeeded)
	}

	t.Run("finds every active holder", func(t *testing.T) {
		users, err := store.GetUsersForClaim(ctx, admin)
		require.NoError(t, err)
		assert.Len(t, users, 2)
	})

	t.Run("excludes soft-deleted holders", func(t *testing.T) {
		require.NoError(t, bob.Delete())
		result, err := store.Delete(ctx, bob)
		require.NoError(t, err)
		require.True(t, result.Succeeded)

		users, err := store.GetUsersForClaim(ctx, admin)
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, alice.ID, users[0].ID)
	})

	t.Run("no holders yields an empty list", func(t *testing.T) {
		nobody, err := identity.NewClaim("role", "nobody")
		require.NoError(t, err)

		users, err := store.GetUsersForClaim(ctx, nobody)
		require.NoError(t, err)
		assert.Empty(t, users)
	})
}

func TestUserStore_IncrementAccessFailedCount(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	t.Run("returns the new count and mirrors it onto the aggregate", func(t *testing.T) {
		user := createTestUser(t, ctx, store, "alice", "alice@example.com")

		count, err := store.IncrementAccessFailedCount(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
		assert.Equal(t, 1, user.AccessFailedCount)
	})

	t.Run("concurrent increments lose no updates", func(t *testing.T) {
		user := createTestUser(t, ctx, store, "bob", "bob@example.com")

		const workers = 10
		var wg sync.WaitGroup
		wg.Add(workers)
		for i := 0; i < workers; i++ {
			go func() {
				defer wg.Done()
				// Each goroutine works on its own aggregate copy, as two
				// racing requests in different processes would.
				clone := *user
				_, err := store.IncrementAccessFailedCount(ctx, &clone)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		found, err := store.FindByID(ctx, user.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, workers, found.AccessFailedCount)
	})
}

func TestUserStore_EmailConfirmation(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	t.Run("query without an email is a precondition violation", func(t *testing.T) {
		user, err := identity.NewUser("noemail")
		require.NoError(t, err)

		_, err = store.GetEmailConfirmed(ctx, user)
		require.Error(t, err)
		assert.True(t, identity.HasCode(err, identity.CodeMissingState))
	})

	t.Run("transitions false to true and back", func(t *testing.T) {
		user := createTestUser(t, ctx, store, "alice", "alice@example.com")

		confirmed, err := store.GetEmailConfirmed(ctx, user)
		require.NoError(t, err)
		assert.False(t, confirmed)

		require.NoError(t, store.SetEmailConfirmed(ctx, user, true))
		confirmed, err = store.GetEmailConfirmed(ctx, user)
		require.NoError(t, err)
		assert.True(t, confirmed)

		require.NoError(t, store.SetEmailConfirmed(ctx, user, false))
		confirmed, err = store.GetEmailConfirmed(ctx, user)
		require.NoError(t, err)
		assert.False(t, confirmed)
	})
}

func TestUserStore_SetUserName_NotSupported(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, ctx, store, "alice", "alice@example.com")

	err := store.SetUserName(ctx, user, "renamed")
	require.Error(t, err)
	assert.True(t, identity.HasCode(err, identity.CodeNotSupported))
}

func TestUserStore_ReuseAfterSoftDelete(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	first := createTestUser(t, ctx, store, "alice", "alice@example.com")
	login, err := identity.NewLogin("github", "gh-123", "GitHub")
	require.NoError(t, err)
	require.NoError(t, store.AddLogin(ctx, first, login))
	result, err := store.Update(ctx, first)
	require.NoError(t, err)
	require.True(t, result.Succeeded)

	require.NoError(t, first.Delete())
	result, err = store.Delete(ctx, first)
	require.NoError(t, err)
	require.True(t, result.Succeeded)

	// The indexes only cover active documents, so the soft-deleted user
	// must not block a new user reusing the same name, email and login.
	second := createTestUser(t, ctx, store, "alice", "alice@example.com")
	require.NoError(t, store.AddLogin(ctx, second, login))
	result, err = store.Update(ctx, second)
	require.NoError(t, err)
	require.True(t, result.Succeeded)

	found, err := store.FindByEmail(ctx, "ALICE@EXAMPLE.COM")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, second.ID, found.ID)
}

func TestUserStore_UniqueEmailIndex(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	createTestUser(t, ctx, store, "alice", "alice@example.com")

	duplicate, err := identity.NewUserWithEmail("alice2", "alice@example.com")
	require.NoError(t, err)
	require.NoError(t, duplicate.SetNormalizedUserName("ALICE2"))
	require.NoError(t, duplicate.SetNormalizedEmail("ALICE@EXAMPLE.COM"))

	_, err = store.Create(ctx, duplicate)
	require.Error(t, err, "the unique index must reject a second active user with the same normalized email")
}
