// Package auth implements JWT signing and verification for access and
// refresh tokens. Access and refresh tokens are signed with distinct
// secrets, so a leak of one cannot forge the other. The verifier only
// answers "is this a legitimately signed, unexpired token"; whether a given
// issuance is still live is the revocation store's question, checked
// separately at the HTTP boundary.
package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/openpasswd/openpasswd/internal/common"
)

// TransportType says over which channel a refresh token travels. The claim
// baked into the token must match the channel it is later presented on.
type TransportType string

const (
	TransportCookie TransportType = "cookie"
	TransportToken  TransportType = "token"
)

// Claims is the access-token claim set: a fresh jti per issuance (so tokens
// are individually revocable), the user id as subject, and an optional
// device name for audit.
type Claims struct {
	jwt.RegisteredClaims
	Device string `json:"device,omitempty"`
}

// UserID returns the numeric user id carried in the subject claim.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, common.ErrInvalidToken
	}
	return id, nil
}

// RefreshClaims is the refresh-token claim set. TokenType binds the token
// to the transport it was issued for (cookie vs body), rejecting
// token-transport confusion.
type RefreshClaims struct {
	Claims
	TokenType TransportType `json:"refresh_token_type"`
}

// TokenManager signs and verifies both token kinds.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenManager(accessSecret, refreshSecret []byte, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// AccessTTL is the configured access-token lifetime, also used as the
// revocation-store TTL for access keys.
func (m *TokenManager) AccessTTL() time.Duration { return m.accessTTL }

// RefreshTTL is the configured refresh-token lifetime.
func (m *TokenManager) RefreshTTL() time.Duration { return m.refreshTTL }

func newClaims(userID int64, device string, ttl time.Duration) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
		Device: device,
	}
}

// SignAccess mints a signed access token. The returned jti identifies this
// issuance in the revocation store.
func (m *TokenManager) SignAccess(userID int64, device string) (token string, jti string, err error) {
	claims := newClaims(userID, device, m.accessTTL)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(m.accessSecret)
	if err != nil {
		return "", "", common.ErrTokenCreation
	}
	return signed, claims.ID, nil
}

// SignRefresh mints a signed refresh token bound to the given transport.
func (m *TokenManager) SignRefresh(userID int64, device string, transport TransportType) (token string, jti string, err error) {
	claims := RefreshClaims{
		Claims:    newClaims(userID, device, m.refreshTTL),
		TokenType: transport,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(m.refreshSecret)
	if err != nil {
		return "", "", common.ErrTokenCreation
	}
	return signed, claims.ID, nil
}

// VerifyAccess checks signature and expiry of an access token. Any failure
// collapses to common.ErrInvalidToken; callers learn nothing about why.
func (m *TokenManager) VerifyAccess(token string) (*Claims, error) {
	claims := &Claims{}
	if err := m.verify(token, claims, m.accessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefresh checks signature and expiry of a refresh token.
func (m *TokenManager) VerifyRefresh(token string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := m.verify(token, claims, m.refreshSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (m *TokenManager) verify(token string, claims jwt.Claims, secret []byte) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}))
	if err != nil || !parsed.Valid {
		return common.ErrInvalidToken
	}
	return nil
}
