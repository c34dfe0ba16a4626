package identity

import (
	"context"
	"time"
)

// Result reports the outcome of a persistence operation. Expected negative
// outcomes such as a stale replace travel through Result, not through errors.
type Result struct {
	Succeeded bool   `json:"succeeded"`
	Reason    string `json:"reason,omitempty"`
}

// Success returns a succeeded result.
func Success() Result {
	return Result{Succeeded: true}
}

// Failure returns a failed result with a reason.
func Failure(reason string) Result {
	return Result{Reason: reason}
}

// UserStore is the base capability: lifecycle and username storage.
// Finders return (nil, nil) when nothing matches; soft-deleted users are
// invisible to every finder.
type UserStore interface {
	Create(ctx context.Context, user *User) (Result, error)
	Delete(ctx context.Context, user *User) (Result, error)
	Update(ctx context.Context, user *User) (Result, error)
	FindByID(ctx context.Context, userID string) (*User, error)
	FindByName(ctx context.Context, normalizedUserName string) (*User, error)
	GetUserID(ctx context.Context, user *User) (string, error)
	GetUserName(ctx context.Context, user *User) (string, error)
	SetUserName(ctx context.Context, user *User, userName string) error
	GetNormalizedUserName(ctx context.Context, user *User) (string, error)
	SetNormalizedUserName(ctx context.Context, user *User, normalizedName string) error
}

// UserLoginStore stores external sign-ins.
type UserLoginStore interface {
	AddLogin(ctx context.Context, user *User, login Login) error
	RemoveLogin(ctx context.Context, user *User, provider, providerKey string) error
	GetLogins(ctx context.Context, user *User) ([]Login, error)
	FindByLogin(ctx context.Context, provider, providerKey string) (*User, error)
}

// UserClaimStore stores user claims.
type UserClaimStore interface {
	GetClaims(ctx context.Context, user *User) ([]Claim, error)
	AddClaims(ctx context.Context, user *User, claims []Claim) error
	ReplaceClaim(ctx context.Context, user *User, old, updated Claim) error
	RemoveClaims(ctx context.Context, user *User, claims []Claim) error
	GetUsersForClaim(ctx context.Context, claim Claim) ([]*User, error)
}

// UserPasswordStore stores password hashes.
type UserPasswordStore interface {
	SetPasswordHash(ctx context.Context, user *User, passwordHash string) error
	GetPasswordHash(ctx context.Context, user *User) (string, error)
	HasPassword(ctx context.Context, user *User) (bool, error)
}

// UserSecurityStampStore stores security stamps.
type UserSecurityStampStore interface {
	SetSecurityStamp(ctx context.Context, user *User, stamp string) error
	GetSecurityStamp(ctx context.Context, user *User) (string, error)
}

// UserTwoFactorStore stores the two-factor authentication flag.
type UserTwoFactorStore interface {
	SetTwoFactorEnabled(ctx context.Context, user *User, enabled bool) error
	GetTwoFactorEnabled(ctx context.Context, user *User) (bool, error)
}

// UserEmailStore stores email addresses and their confirmation state.
type UserEmailStore interface {
	SetEmail(ctx context.Context, user *User, email string) error
	GetEmail(ctx context.Context, user *User) (string, error)
	GetEmailConfirmed(ctx context.Context, user *User) (bool, error)
	SetEmailConfirmed(ctx context.Context, user *User, confirmed bool) error
	FindByEmail(ctx context.Context, normalizedEmail string) (*User, error)
	GetNormalizedEmail(ctx context.Context, user *User) (string, error)
	SetNormalizedEmail(ctx context.Context, user *User, normalizedEmail string) error
}

// UserLockoutStore stores lockout state and the failed-access counter.
type UserLockoutStore interface {
	GetLockoutEnd(ctx context.Context, user *User) (*time.Time, error)
	SetLockoutEnd(ctx context.Context, user *User, lockoutEnd *time.Time) error
	IncrementAccessFailedCount(ctx context.Context, user *User) (int, error)
	ResetAccessFailedCount(ctx context.Context, user *User) error
	GetAccessFailedCount(ctx context.Context, user *User) (int, error)
	GetLockoutEnabled(ctx context.Context, user *User) (bool, error)
	SetLockoutEnabled(ctx context.Context, user *User, enabled bool) error
}

// UserPhoneNumberStore stores phone numbers and their confirmation state.
type UserPhoneNumberStore interface {
	SetPhoneNumber(ctx context.Context, user *User, phoneNumber string) error
	GetPhoneNumber(ctx context.Context, user *User) (string, error)
	GetPhoneNumberConfirmed(ctx context.Context, user *User) (bool, error)
	SetPhoneNumberConfirmed(ctx context.Context, user *User, confirmed bool) error
}
