package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// ErrInvalidToken covers every token failure mode: bad signature, malformed
// payload, wrong token kind, or expiry in the past. Callers never learn which.
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenConfig holds the signing parameters for one token kind.
type TokenConfig struct {
	Secret string
	TTL    time.Duration
}

// SessionClaims is what a decoded session token proves.
type SessionClaims struct {
	UserID string
	Email  string
}

type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type verificationClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies the two bearer token kinds. Session and
// verification tokens use independent secrets and TTLs so a leaked secret of
// one kind never extends the attack window of the other.
type TokenCodec struct {
	session      TokenConfig
	verification TokenConfig
}

func NewTokenCodec(session, verification TokenConfig) *TokenCodec {
	return &TokenCodec{
		session:      session,
		verification: verification,
	}
}

// IssueSession creates a signed session token with subject = user id.
func (c *TokenCodec) IssueSession(userID, email string) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.session.TTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(c.session.Secret))
}

// DecodeSession verifies a session token and returns its claims.
func (c *TokenCodec) DecodeSession(tokenString string) (*SessionClaims, error) {
	var claims sessionClaims
	if err := c.decode(tokenString, &claims, c.session.Secret); err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &SessionClaims{
		UserID: claims.Subject,
		Email:  claims.Email,
	}, nil
}

// IssueVerification creates a short-lived token proving control of an email
// address.
func (c *TokenCodec) IssueVerification(email string) (string, error) {
	now := time.Now()
	claims := verificationClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.verification.TTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(c.verification.Secret))
}

// DecodeVerification verifies a verification token and returns the embedded
// email address.
func (c *TokenCodec) DecodeVerification(tokenString string) (string, error) {
	var claims verificationClaims
	if err := c.decode(tokenString, &claims, c.verification.Secret); err != nil {
		return "", err
	}
	if claims.Email == "" {
		return "", ErrInvalidToken
	}
	return claims.Email, nil
}

func (c *TokenCodec) decode(tokenString string, claims jwt.Claims, secret string) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
