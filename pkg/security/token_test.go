package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec(sessionTTL, verificationTTL time.Duration) *TokenCodec {
	return NewTokenCodec(
		TokenConfig{Secret: "session-secret", TTL: sessionTTL},
		TokenConfig{Secret: "verification-secret", TTL: verificationTTL},
	)
}

func TestSessionToken_RoundTrip(t *testing.T) {
	codec := newTestCodec(time.Hour, 15*time.Minute)

	token, err := codec.IssueSession("user-123", "a@x.com")
	require.NoError(t, err)

	claims, err := codec.DecodeSession(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "a@x.com", claims.Email)
}

func TestSessionToken_Expired(t *testing.T) {
	codec := newTestCodec(-time.Second, 15*time.Minute)

	token, err := codec.IssueSession("user-123", "a@x.com")
	require.NoError(t, err)

	_, err = codec.DecodeSession(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionToken_Malformed(t *testing.T) {
	codec := newTestCodec(time.Hour, 15*time.Minute)

	_, err := codec.DecodeSession("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerificationToken_RoundTrip(t *testing.T) {
	codec := newTestCodec(time.Hour, 15*time.Minute)

	token, err := codec.IssueVerification("a@x.com")
	require.NoError(t, err)

	email, err := codec.DecodeVerification(token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", email)
}

func TestVerificationToken_Expired(t *testing.T) {
	codec := newTestCodec(time.Hour, -time.Second)

	token, err := codec.IssueVerification("a@x.com")
	require.NoError(t, err)

	_, err = codec.DecodeVerification(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenKinds_SecretsAreIndependent(t *testing.T) {
	codec := newTestCodec(time.Hour, 15*time.Minute)

	// A session token must not pass verification decoding and vice versa.
	sessionToken, err := codec.IssueSession("user-123", "a@x.com")
	require.NoError(t, err)
	_, err = codec.DecodeVerification(sessionToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	verificationToken, err := codec.IssueVerification("a@x.com")
	require.NoError(t, err)
	_, err = codec.DecodeSession(verificationToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionToken_WrongSecret(t *testing.T) {
	codec := newTestCodec(time.Hour, 15*time.Minute)
	other := NewTokenCodec(
		TokenConfig{Secret: "different-secret", TTL: time.Hour},
		TokenConfig{Secret: "verification-secret", TTL: 15 * time.Minute},
	)

	token, err := codec.IssueSession("user-123", "a@x.com")
	require.NoError(t, err)

	_, err = other.DecodeSession(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
