package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"github.com/quillarb/mongo-userstore/identity"
	"github.com/quillarb/mongo-userstore/pkg/config"
	"github.com/quillarb/mongo-userstore/pkg/logger"
)

// UserStore persists identity.User aggregates in a MongoDB collection. It
// implements every capability interface the authentication framework
// consumes; the compile-time checks below keep the list honest.
type UserStore struct {
	users *Repository[identity.User]
	log   *logger.Logger
}

var (
	_ identity.UserStore              = (*UserStore)(nil)
	_ identity.UserLoginStore         = (*UserStore)(nil)
	_ identity.UserClaimStore         = (*UserStore)(nil)
	_ identity.UserPasswordStore      = (*UserStore)(nil)
	_ identity.UserSecurityStampStore = (*UserStore)(nil)
	_ identity.UserTwoFactorStore     = (*UserStore)(nil)
	_ identity.UserEmailStore         = (*UserStore)(nil)
	_ identity.UserLockoutStore       = (*UserStore)(nil)
	_ identity.UserPhoneNumberStore   = (*UserStore)(nil)
)

// NewUserStore opens the users collection and, unless index provisioning is
// disabled, blocks until the uniqueness indexes exist.
func NewUserStore(ctx context.Context, client *mongo.Client, cfg config.MongoConfig, log *logger.Logger) (*UserStore, error) {
	if client == nil {
		return nil, identity.NewDomainError(identity.CodeInvalidInput, "mongo client cannot be nil")
	}
	if cfg.Database == "" {
		return nil, identity.NewDomainError(identity.CodeInvalidInput, "no database name specified")
	}

	collection := cfg.Collection
	if collection == "" {
		collection = DefaultCollection
	}
	coll := client.Database(cfg.Database).Collection(collection)

	store := &UserStore{
		users: NewRepository[identity.User](coll, log),
		log:   log.WithComponent("userstore"),
	}

	if cfg.EnableIndexes {
		if err := EnsureIndexes(ctx, coll); err != nil {
			return nil, err
		}
	}

	return store, nil
}

// Collection exposes the underlying user collection.
func (s *UserStore) Collection() *mongo.Collection {
	return s.users.Collection()
}

func requireUser(user *identity.User) error {
	if user == nil {
		return identity.NewDomainError(identity.CodeInvalidInput, "user cannot be nil")
	}
	return nil
}

// Create inserts a new user document. It reports success once the insert
// completes; duplicate keys surface as driver errors from the unique
// indexes, not as a Result failure.
func (s *UserStore) Create(ctx context.Context, user *identity.User) (identity.Result, error) {
	if err := requireUser(user); err != nil {
		return identity.Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return identity.Result{}, err
	}

	if err := s.users.Insert(ctx, user); err != nil {
		return identity.Result{}, err
	}

	s.log.Debug("user created", zap.String("user_id", user.ID))
	return identity.Success(), nil
}

// Delete persists a soft delete with a targeted update of the status and
// deletion fields. The aggregate's Delete must have been applied first.
func (s *UserStore) Delete(ctx context.Context, user *identity.User) (identity.Result, error) {
	if err := requireUser(user); err != nil {
		return identity.Result{}, err
	}
	if !user.IsDeleted() || user.DeletedOn == nil {
		return identity.Result{}, identity.NewDomainError(identity.CodeInvalidOperation,
			"user must be soft-deleted in memory before the delete is persisted")
	}
	if err := ctx.Err(); err != nil {
		return identity.Result{}, err
	}

	filter := bson.D{{Key: "_id", Value: user.ID}}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "status", Value: user.Status},
		{Key: "deletedOn", Value: user.DeletedOn},
	}}}

	if _, err := s.users.Collection().UpdateOne(ctx, filter, update); err != nil {
		return identity.Result{}, storageError(err, "failed to persist user delete")
	}

	s.log.Debug("user deleted", zap.String("user_id", user.ID))
	return identity.Success(), nil
}

// Update performs a full-document replace filtered by id and active status.
// A replace that modifies nothing signals a stale or concurrently deleted
// document and is reported as a failure, not an error.
func (s *UserStore) Update(ctx context.Context, user *identity.User) (identity.Result, error) {
	if err := requireUser(user); err != nil {
		return identity.Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return identity.Result{}, err
	}

	modified, err := s.users.Replace(ctx, user.ID, user)
	if err != nil {
		return identity.Result{}, err
	}
	if !modified {
		return identity.Failure("user document was modified or deleted concurrently"), nil
	}
	return identity.Success(), nil
}

// FindByID retrieves an active user by id, or (nil, nil) when absent.
func (s *UserStore) FindByID(ctx context.Context, userID string) (*identity.User, error) {
	if userID == "" {
		return nil, identity.NewDomainError(identity.CodeInvalidInput, "user id cannot be empty")
	}
	return s.users.FindOne(ctx, bson.D{{Key: "_id", Value: userID}})
}

// FindByName retrieves an active user by normalized username, or (nil, nil)
// when absent.
func (s *UserStore) FindByName(ctx context.Context, normalizedUserName string) (*identity.User, error) {
	if normalizedUserName == "" {
		return nil, identity.NewDomainError(identity.CodeInvalidInput, "normalized user name cannot be empty")
	}
	return s.users.FindOne(ctx, bson.D{{Key: "normalizedUserName", Value: normalizedUserName}})
}

// GetUserID returns the user's id.
func (s *UserStore) GetUserID(ctx context.Context, user *identity.User) (string, error) {
	if err := requireUser(user); err != nil {
		return "", err
	}
	return user.ID, nil
}

// GetUserName returns the username.
func (s *UserStore) GetUserName(ctx context.Context, user *identity.User) (string, error) {
	if err := requireUser(user); err != nil {
		return "", err
	}
	return user.UserName, nil
}

// SetUserName always fails: renaming is unsupported by design.
func (s *UserStore) SetUserName(ctx context.Context, user *identity.User, userName string) error {
	return identity.NewDomainError(identity.CodeNotSupported, "changing the username is not supported")
}

// GetNormalizedUserName returns the normalized username.
func (s *UserStore) GetNormalizedUserName(ctx context.Context, user *identity.User) (string, error) {
	if err := requireUser(user); err != nil {
		return "", err
	}
	return user.NormalizedUserName, nil
}

// SetNormalizedUserName sets the normalized username on the aggregate.
func (s *UserStore) SetNormalizedUserName(ctx context.Context, user *identity.User, normalizedName string) error {
	if err := requireUser(user); err != nil {
		return err
	}
	return user.SetNormalizedUserName(normalizedName)
}

// AddLogin attaches an external login. The duplicate check is process-local;
// the unique partial index rejects cross-process duplicates at write time.
func (s *UserStore) AddLogin(ctx context.Context, user *identity.User, login identity.Login) error {
	if err := requireUser(user); err != nil {
		return err
	}
	if login.Provider == "" || login.ProviderKey == "" {
		return identity.NewDomainError(identity.CodeInvalidInput, "login provider and key cannot be empty")
	}

	if user.HasLogin(login.Provider, login.ProviderKey) {
		return identity.NewDomainErrorf(identity.CodeAlreadyExists,
			"login %s:%s already exists", login.Provider, login.ProviderKey)
	}

	user.AddLogin(login)
	return nil
}

// RemoveLogin detaches the login matching (provider, key); absent is a no-op.
func (s *UserStore) RemoveLogin(ctx context.Context, user *identity.User, provider, providerKey string) error {
	if err := requireUser(user); err != nil {
		return err
	}
	if provider == "" {
		return identity.NewDomainError(identity.CodeInvalidInput, "login provider cannot be empty")
	}
	if providerKey == "" {
		return identity.NewDomainError(identity.CodeInvalidInput, "login provider key cannot be empty")
	}

	user.RemoveLogin(provider, providerKey)
	return nil
}

// GetLogins returns the user's logins.
func (s *UserStore) GetLogins(ctx context.Context, user *identity.User) ([]identity.Login, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	logins := make([]identity.Login, len(user.Logins))
	copy(logins, user.Logins)
	return logins, nil
}

// FindByLogin retrieves the active user holding the (provider, key) login,
// or (nil, nil) when absent.
func (s *UserStore) FindByLogin(ctx context.Context, provider, providerKey string) (*identity.User, error) {
	if provider == "" {
		return nil, identity.NewDomainError(identity.CodeInvalidInput, "login provider cannot be empty")
	}
	if providerKey == "" {
		return nil, identity.NewDomainError(identity.CodeInvalidInput, "login provider key cannot be empty")
	}

	filter := bson.D{{Key: "logins", Value: bson.D{{Key: "$elemMatch", Value: bson.D{
		{Key: "provider", Value: provider},
		{Key: "providerKey", Value: providerKey},
	}}}}}

	return s.users.FindOne(ctx, filter)
}

// GetClaims returns the user's claims.
func (s *UserStore) GetClaims(ctx context.Context, user *identity.User) ([]identity.Claim, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	claims := make([]identity.Claim, len(user.Claims))
	copy(claims, user.Claims)
	return claims, nil
}

// AddClaims appends claims to the aggregate.
func (s *UserStore) AddClaims(ctx context.Context, user *identity.User, claims []identity.Claim) error {
	if err := requireUser(user); err != nil {
		return err
	}
	for _, claim := range claims {
		if claim.Type == "" {
			return identity.NewDomainError(identity.CodeInvalidInput, "claim type cannot be empty")
		}
		user.AddClaim(claim)
	}
	return nil
}

// ReplaceClaim swaps one claim for another on the aggregate.
func (s *UserStore) ReplaceClaim(ctx context.Context, user *identity.User, old, updated identity.Claim) error {
	if err := requireUser(user); err != nil {
		return err
	}
	if old.Type == "" || updated.Type == "" {
		return identity.NewDomainError(identity.CodeInvalidInput, "claim type cannot be empty")
	}

	user.RemoveClaim(old)
	user.AddClaim(updated)
	return nil
}

// RemoveClaims removes claims from the aggregate; absent claims are no-ops.
func (s *UserStore) RemoveClaims(ctx context.Context, user *identity.User, claims []identity.Claim) error {
	if err := requireUser(user); err != nil {
		return err
	}
	for _, claim := range claims {
		user.RemoveClaim(claim)
	}
	return nil
}

// GetUsersForClaim retrieves every active user holding a claim equal to the
// given one. The list may be empty.
func (s *UserStore) GetUsersForClaim(ctx context.Context, claim identity.Claim) ([]*identity.User, error) {
	if claim.Type == "" {
		return nil, identity.NewDomainError(identity.CodeInvalidInput, "claim type cannot be empty")
	}

	filter := bson.D{{Key: "claims", Value: bson.D{{Key: "$elemMatch", Value: bson.D{
		{Key: "type", Value: claim.Type},
		{Key: "value", Value: claim.Value},
	}}}}}

	return s.users.FindAll(ctx, filter)
}

// SetPasswordHash sets the password hash on the aggregate.
func (s *UserStore) SetPasswordHash(ctx context.Context, user *identity.User, passwordHash string) error {
	if err := requireUser(user); err != nil {
		return err
	}
	if passwordHash == "" {
		return identity.NewDomainError(identity.CodeInvalidInput, "password hash cannot be empty")
	}
	user.SetPasswordHash(passwordHash)
	return nil
}

// GetPasswordHash returns the password hash.
func (s *UserStore) GetPasswordHash(ctx context.Context, user *identity.User) (string, error) {
	if err := requireUser(user); err != nil {
		return "", err
	}
	return user.PasswordHash, nil
}

// HasPassword reports whether a password hash is set.
func (s *UserStore) HasPassword(ctx context.Context, user *identity.User) (bool, error) {
	if err := requireUser(user); err != nil {
		return false, err
	}
	return user.HasPassword(), nil
}

// SetSecurityStamp sets the security stamp on the aggregate.
func (s *UserStore) SetSecurityStamp(ctx context.Context, user *identity.User, stamp string) error {
	if err := requireUser(user); err != nil {
		return err
	}
	if stamp == "" {
		return identity.NewDomainError(identity.CodeInvalidInput, "security stamp cannot be empty")
	}
	user.SetSecurityStamp(stamp)
	return nil
}

// GetSecurityStamp returns the security stamp.
func (s *UserStore) GetSecurityStamp(ctx context.Context, user *identity.User) (string, error) {
	if err := requireUser(user); err != nil {
		return "", err
	}
	return user.SecurityStamp, nil
}

// SetTwoFactorEnabled toggles two-factor authentication on the aggregate.
func (s *UserStore) SetTwoFactorEnabled(ctx context.Context, user *identity.User, enabled bool) error {
	if err := requireUser(user); err != nil {
		return err
	}
	if enabled {
		user.EnableTwoFactor()
	} else {
		user.DisableTwoFactor()
	}
	return nil
}

// GetTwoFactorEnabled reports whether two-factor authentication is enabled.
func (s *UserStore) GetTwoFactorEnabled(ctx context.Context, user *identity.User) (bool, error) {
	if err := requireUser(user); err != nil {
		return false, err
	}
	return user.TwoFactorEnabled, nil
}

// SetEmail replaces the user's email record.
func (s *UserStore) SetEmail(ctx context.Context, user *identity.User, email string) error {
	if err := requireUser(user); err != nil {
		return err
	}
	return user.SetEmail(email)
}

// GetEmail returns the email address, or the empty string when none is set.
func (s *UserStore) GetEmail(ctx context.Context, user *identity.User) (string, error) {
	if err := requireUser(user); err != nil {
		return "", err
	}
	if user.Email == nil {
		return "", nil
	}
	return user.Email.Value, nil
}

// GetEmailConfirmed reports the email confirmation state. Asking for it when
// the user has no email at all is a precondition violation.
func (s *UserStore) GetEmailConfirmed(ctx context.Context, user *identity.User) (bool, error) {
	if err := requireUser(user); err != nil {
		return false, err
	}
	if user.Email == nil {
		return false, identity.NewDomainError(identity.CodeMissingState,
			"cannot get the confirmation status of the email because the user doesn't have an email")
	}
	return user.Email.IsConfirmed(), nil
}

// SetEmailConfirmed sets or clears the email confirmation.
func (s *UserStore) SetEmailConfirmed(ctx context.Context, user *identity.User, confirmed bool) error {
	if err := requireUser(user); err != nil {
		return err
	}
	if user.Email == nil {
		return identity.NewDomainError(identity.CodeMissingState,
			"cannot set the confirmation status of the email because the user doesn't have an email")
	}
	if confirmed {
		return user.ConfirmEmail(identity.ConfirmationNow())
	}
	return user.UnconfirmEmail()
}

// FindByEmail retrieves an active user by normalized email, or (nil, nil)
// when absent.
func (s *UserStore) FindByEmail(ctx context.Context, normalizedEmail string) (*identity.User, error) {
	if normalizedEmail == "" {
		return nil, identity.NewDomainError(identity.CodeInvalidInput, "normalized email cannot be empty")
	}
	return s.users.FindOne(ctx, bson.D{{Key: "email.normalizedValue", Value: normalizedEmail}})
}

// GetNormalizedEmail returns the normalized email, or the empty string when
// no email is set.
func (s *UserStore) GetNormalizedEmail(ctx context.Context, user *identity.User) (string, error) {
	if err := requireUser(user); err != nil {
		return "", err
	}
	if user.Email == nil {
		return "", nil
	}
	return user.Email.NormalizedValue, nil
}

// SetNormalizedEmail sets the canonical email form. The framework calls this
// even for users without an email, so a missing record is tolerated.
func (s *UserStore) SetNormalizedEmail(ctx context.Context, user *identity.User, normalizedEmail string) error {
	if err := requireUser(user); err != nil {
		return err
	}
	if normalizedEmail == "" || user.Email == nil {
		return nil
	}
	return user.SetNormalizedEmail(normalizedEmail)
}

// GetLockoutEnd returns the lockout expiry, or nil when the account is not
// locked.
func (s *UserStore) GetLockoutEnd(ctx context.Context, user *identity.User) (*time.Time, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	if user.LockoutEnd == nil {
		return nil, nil
	}
	end := user.LockoutEnd.Instant
	return &end, nil
}

// SetLockoutEnd locks the account until the given instant. A nil instant is
// ignored.
func (s *UserStore) SetLockoutEnd(ctx context.Context, user *identity.User, lockoutEnd *time.Time) error {
	if err := requireUser(user); err != nil {
		return err
	}
	if lockoutEnd != nil {
		user.LockUntil(*lockoutEnd)
	}
	return nil
}

// IncrementAccessFailedCount increments the stored counter atomically so
// concurrent failed logins never lose updates, then mirrors the new value
// back onto the aggregate and returns it.
func (s *UserStore) IncrementAccessFailedCount(ctx context.Context, user *identity.User) (int, error) {
	if err := requireUser(user); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	filter := bson.D{{Key: "_id", Value: user.ID}}
	update := bson.D{{Key: "$inc", Value: bson.D{{Key: "accessFailedCount", Value: 1}}}}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.D{{Key: "accessFailedCount", Value: 1}})

	var doc struct {
		AccessFailedCount int `bson:"accessFailedCount"`
	}
	if err := s.users.Collection().FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return 0, storageError(err, "failed to increment access failed count")
	}

	user.SetAccessFailedCount(doc.AccessFailedCount)
	return doc.AccessFailedCount, nil
}

// ResetAccessFailedCount zeroes the counter on the aggregate.
func (s *UserStore) ResetAccessFailedCount(ctx context.Context, user *identity.User) error {
	if err := requireUser(user); err != nil {
		return err
	}
	user.ResetAccessFailedCount()
	return nil
}

// GetAccessFailedCount returns the counter.
func (s *UserStore) GetAccessFailedCount(ctx context.Context, user *identity.User) (int, error) {
	if err := requireUser(user); err != nil {
		return 0, err
	}
	return user.AccessFailedCount, nil
}

// GetLockoutEnabled reports whether lockout is enabled.
func (s *UserStore) GetLockoutEnabled(ctx context.Context, user *identity.User) (bool, error) {
	if err := requireUser(user); err != nil {
		return false, err
	}
	return user.LockoutEnabled, nil
}

// SetLockoutEnabled toggles lockout on the aggregate.
func (s *UserStore) SetLockoutEnabled(ctx context.Context, user *identity.User, enabled bool) error {
	if err := requireUser(user); err != nil {
		return err
	}
	if enabled {
		user.EnableLockout()
	} else {
		user.DisableLockout()
	}
	return nil
}

// SetPhoneNumber replaces the user's phone record.
func (s *UserStore) SetPhoneNumber(ctx context.Context, user *identity.User, phoneNumber string) error {
	if err := requireUser(user); err != nil {
		return err
	}
	return user.SetPhoneNumber(phoneNumber)
}

// GetPhoneNumber returns the phone number, or the empty string when none is
// set.
func (s *UserStore) GetPhoneNumber(ctx context.Context, user *identity.User) (string, error) {
	if err := requireUser(user); err != nil {
		return "", err
	}
	if user.Phone == nil {
		return "", nil
	}
	return user.Phone.Value, nil
}

// GetPhoneNumberConfirmed reports the phone confirmation state. Asking for
// it when the user has no phone number is a precondition violation.
func (s *UserStore) GetPhoneNumberConfirmed(ctx context.Context, user *identity.User) (bool, error) {
	if err := requireUser(user); err != nil {
		return false, err
	}
	if user.Phone == nil {
		return false, identity.NewDomainError(identity.CodeMissingState,
			"cannot get the confirmation status of the phone number because the user doesn't have a phone number")
	}
	return user.Phone.IsConfirmed(), nil
}

// SetPhoneNumberConfirmed sets or clears the phone confirmation.
func (s *UserStore) SetPhoneNumberConfirmed(ctx context.Context, user *identity.User, confirmed bool) error {
	if err := requireUser(user); err != nil {
		return err
	}
	if user.Phone == nil {
		return identity.NewDomainError(identity.CodeMissingState,
			"cannot set the confirmation status of the phone number because the user doesn't have a phone number")
	}
	if confirmed {
		return user.ConfirmPhoneNumber(identity.ConfirmationNow())
	}
	return user.UnconfirmPhoneNumber()
}
