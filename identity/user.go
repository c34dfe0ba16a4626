package identity

import "time"

// User is the aggregate root for an identity record. All mutation flows
// through behavior methods; the store layer persists the aggregate as a
// single document with the claim, login and contact records embedded.
type User struct {
	Entity             `bson:",inline"`
	UserName           string            `bson:"userName" json:"user_name"`
	NormalizedUserName string            `bson:"normalizedUserName,omitempty" json:"normalized_user_name,omitempty"`
	PasswordHash       string            `bson:"passwordHash,omitempty" json:"password_hash,omitempty"`
	SecurityStamp      string            `bson:"securityStamp,omitempty" json:"security_stamp,omitempty"`
	TwoFactorEnabled   bool              `bson:"twoFactorEnabled" json:"two_factor_enabled"`
	Claims             []Claim           `bson:"claims" json:"claims"`
	Logins             []Login           `bson:"logins" json:"logins"`
	AccessFailedCount  int               `bson:"accessFailedCount" json:"access_failed_count"`
	LockoutEnabled     bool              `bson:"lockoutEnabled" json:"lockout_enabled"`
	LockoutEnd         *FutureOccurrence `bson:"lockoutEnd,omitempty" json:"lockout_end,omitempty"`
	Email              *EmailRecord      `bson:"email,omitempty" json:"email,omitempty"`
	Phone              *PhoneRecord      `bson:"phone,omitempty" json:"phone,omitempty"`
}

// NewUser creates a user with a generated id. The username cannot be empty
// and cannot change afterwards.
func NewUser(userName string) (*User, error) {
	if userName == "" {
		return nil, NewDomainError(CodeInvalidInput, "user name cannot be empty")
	}
	return &User{
		Entity:   newEntity(),
		UserName: userName,
		Claims:   []Claim{},
		Logins:   []Login{},
	}, nil
}

// NewUserWithEmail creates a user with an unconfirmed email record.
func NewUserWithEmail(userName, email string) (*User, error) {
	user, err := NewUser(userName)
	if err != nil {
		return nil, err
	}
	record, err := NewEmailRecord(email)
	if err != nil {
		return nil, err
	}
	user.Email = &record
	return user, nil
}

// SetNormalizedUserName sets the canonical username used for lookups.
func (u *User) SetNormalizedUserName(name string) error {
	if name == "" {
		return NewDomainError(CodeInvalidInput, "normalized user name cannot be empty")
	}
	u.NormalizedUserName = name
	return nil
}

// SetEmail replaces the email record wholesale. Confirmation state of the
// previous record is discarded.
func (u *User) SetEmail(email string) error {
	record, err := NewEmailRecord(email)
	if err != nil {
		return err
	}
	u.SetEmailRecord(record)
	return nil
}

// SetEmailRecord replaces the email record wholesale.
func (u *User) SetEmailRecord(record EmailRecord) {
	u.Email = &record
}

// ConfirmEmail marks the email confirmed at the given occurrence.
func (u *User) ConfirmEmail(at ConfirmationOccurrence) error {
	if u.Email == nil {
		return NewDomainError(CodeMissingState, "user has no email to confirm")
	}
	record := u.Email.WithConfirmation(at)
	u.Email = &record
	return nil
}

// UnconfirmEmail clears the email confirmation.
func (u *User) UnconfirmEmail() error {
	if u.Email == nil {
		return NewDomainError(CodeMissingState, "user has no email to unconfirm")
	}
	record := u.Email.WithoutConfirmation()
	u.Email = &record
	return nil
}

// SetNormalizedEmail sets the canonical form of the email address.
func (u *User) SetNormalizedEmail(value string) error {
	if u.Email == nil {
		return NewDomainError(CodeMissingState, "user has no email to normalize")
	}
	record := u.Email.WithNormalized(value)
	u.Email = &record
	return nil
}

// SetPhoneNumber replaces the phone record wholesale. Confirmation state of
// the previous record is discarded.
func (u *User) SetPhoneNumber(phoneNumber string) error {
	record, err := NewPhoneRecord(phoneNumber)
	if err != nil {
		return err
	}
	u.SetPhoneRecord(record)
	return nil
}

// SetPhoneRecord replaces the phone record wholesale.
func (u *User) SetPhoneRecord(record PhoneRecord) {
	u.Phone = &record
}

// ConfirmPhoneNumber marks the phone number confirmed at the given occurrence.
func (u *User) ConfirmPhoneNumber(at ConfirmationOccurrence) error {
	if u.Phone == nil {
		return NewDomainError(CodeMissingState, "user has no phone number to confirm")
	}
	record := u.Phone.WithConfirmation(at)
	u.Phone = &record
	return nil
}

// UnconfirmPhoneNumber clears the phone number confirmation.
func (u *User) UnconfirmPhoneNumber() error {
	if u.Phone == nil {
		return NewDomainError(CodeMissingState, "user has no phone number to unconfirm")
	}
	record := u.Phone.WithoutConfirmation()
	u.Phone = &record
	return nil
}

// SetPasswordHash sets the password hash.
func (u *User) SetPasswordHash(hash string) {
	u.PasswordHash = hash
}

// HasPassword reports whether a password hash is set.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// SetSecurityStamp sets the security stamp.
func (u *User) SetSecurityStamp(stamp string) {
	u.SecurityStamp = stamp
}

// EnableTwoFactor enables two-factor authentication.
func (u *User) EnableTwoFactor() {
	u.TwoFactorEnabled = true
}

// DisableTwoFactor disables two-factor authentication.
func (u *User) DisableTwoFactor() {
	u.TwoFactorEnabled = false
}

// AddClaim appends a claim. Duplicates are not rejected here; callers check
// presence first when they need uniqueness.
func (u *User) AddClaim(claim Claim) {
	u.Claims = append(u.Claims, claim)
}

// RemoveClaim removes the first claim equal to the given one. Removing an
// absent claim is a no-op.
func (u *User) RemoveClaim(claim Claim) {
	for i, c := range u.Claims {
		if c.Equals(claim) {
			u.Claims = append(u.Claims[:i], u.Claims[i+1:]...)
			return
		}
	}
}

// HasClaim reports whether an equal claim is present.
func (u *User) HasClaim(claim Claim) bool {
	for _, c := range u.Claims {
		if c.Equals(claim) {
			return true
		}
	}
	return false
}

// AddLogin appends a login.
func (u *User) AddLogin(login Login) {
	u.Logins = append(u.Logins, login)
}

// RemoveLogin removes the login matching (provider, key). Removing an absent
// login is a no-op.
func (u *User) RemoveLogin(provider, providerKey string) {
	for i, l := range u.Logins {
		if l.Matches(provider, providerKey) {
			u.Logins = append(u.Logins[:i], u.Logins[i+1:]...)
			return
		}
	}
}

// HasLogin reports whether a login matching (provider, key) is present.
func (u *User) HasLogin(provider, providerKey string) bool {
	for _, l := range u.Logins {
		if l.Matches(provider, providerKey) {
			return true
		}
	}
	return false
}

// EnableLockout enables lockout for the account.
func (u *User) EnableLockout() {
	u.LockoutEnabled = true
}

// DisableLockout disables lockout for the account.
func (u *User) DisableLockout() {
	u.LockoutEnabled = false
}

// LockUntil locks the account until the given instant. The instant is not
// validated to lie in the future.
func (u *User) LockUntil(t time.Time) {
	end := NewFutureOccurrence(t)
	u.LockoutEnd = &end
}

// SetAccessFailedCount sets the failed authentication counter.
func (u *User) SetAccessFailedCount(count int) {
	u.AccessFailedCount = count
}

// ResetAccessFailedCount zeroes the failed authentication counter.
func (u *User) ResetAccessFailedCount() {
	u.AccessFailedCount = 0
}

// Delete soft-deletes the user. Calling it on an already-deleted user is a
// precondition violation, not an idempotent no-op.
func (u *User) Delete() error {
	if u.IsDeleted() {
		return NewDomainErrorf(CodeInvalidOperation, "user %q has already been deleted", u.ID)
	}
	now := OccurrenceNow()
	u.Status = StatusDeleted
	u.DeletedOn = &now
	return nil
}
