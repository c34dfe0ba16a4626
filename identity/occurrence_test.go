package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOccurrence_NormalizesToUTC(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	local := time.Date(2026, 2, 1, 9, 30, 0, 0, loc)
	occ := NewOccurrence(local)

	assert.Equal(t, time.UTC, occ.Instant.Location())
	assert.True(t, occ.Instant.Equal(local))
}

func TestOccurrence_Variants(t *testing.T) {
	at := time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)

	confirmation := NewConfirmationOccurrence(at)
	assert.Equal(t, at, confirmation.Instant)

	future := NewFutureOccurrence(at)
	assert.Equal(t, at, future.Instant)
}

func TestNewClaim_Validation(t *testing.T) {
	_, err := NewClaim("", "value")
	require.Error(t, err)
	assert.True(t, HasCode(err, CodeInvalidInput))

	claim, err := NewClaim("role", "admin")
	require.NoError(t, err)
	assert.True(t, claim.Equals(Claim{Type: "role", Value: "admin"}))
	assert.False(t, claim.Equals(Claim{Type: "role", Value: "user"}))
}

func TestNewLogin_Validation(t *testing.T) {
	_, err := NewLogin("", "key", "")
	require.Error(t, err)
	assert.True(t, HasCode(err, CodeInvalidInput))

	_, err = NewLogin("github", "", "")
	require.Error(t, err)
	assert.True(t, HasCode(err, CodeInvalidInput))

	login, err := NewLogin("github", "gh-123", "GitHub")
	require.NoError(t, err)
	assert.True(t, login.Matches("github", "gh-123"))
	assert.False(t, login.Matches("google", "gh-123"))
}

func TestResult(t *testing.T) {
	assert.True(t, Success().Succeeded)

	failed := Failure("stale document")
	assert.False(t, failed.Succeeded)
	assert.Equal(t, "stale document", failed.Reason)
}
