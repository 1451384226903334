package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/openpasswd/openpasswd/internal/common"
	"github.com/openpasswd/openpasswd/internal/server/auth"
	"github.com/openpasswd/openpasswd/internal/server/revocation"
)

type ctxKey int

const claimsKey ctxKey = iota

// requireBearer admits a request only when it carries a well-signed,
// unexpired access token whose issuance is still live in the revocation
// store. The verified claims are stashed in the request context.
func (a *API) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			a.writeError(w, r, common.ErrMissingCredentials)
			return
		}

		claims, err := a.tokens.VerifyAccess(raw)
		if err != nil {
			a.writeError(w, r, common.ErrInvalidToken)
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			a.writeError(w, r, common.ErrInvalidToken)
			return
		}

		live, err := revocation.IsLive(r.Context(), a.store, revocation.AccessKey(userID, claims.ID))
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		if !live {
			a.writeError(w, r, common.ErrInvalidToken)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get(common.AuthorizationHeaderName)
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}

// claimsFromContext returns the access claims stashed by requireBearer.
func claimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok
}

// extractRefreshToken locates a refresh token on the request: the
// REFRESH_TOKEN cookie wins, otherwise the refresh_token field of the JSON
// body. The returned transport names where it was found, so it can be
// matched against the transport baked into the token's claims.
func extractRefreshToken(r *http.Request) (raw string, transport auth.TransportType, ok bool) {
	if cookie, err := r.Cookie(common.RefreshTokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, auth.TransportCookie, true
	}

	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := decodeBody(r, &body); err == nil && body.RefreshToken != "" {
		return body.RefreshToken, auth.TransportToken, true
	}
	return "", "", false
}

// verifyAndConsumeRefresh validates a presented refresh token end to end:
// signature and expiry, transport binding, and allow-list liveness. On
// success the issuance is consumed, so a replay of the same token fails the
// liveness check.
func (a *API) verifyAndConsumeRefresh(r *http.Request) (*auth.RefreshClaims, error) {
	raw, transport, ok := extractRefreshToken(r)
	if !ok {
		return nil, common.ErrMissingCredentials
	}

	claims, err := a.tokens.VerifyRefresh(raw)
	if err != nil {
		return nil, common.ErrInvalidToken
	}
	if claims.TokenType != transport {
		return nil, common.ErrInvalidToken
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, common.ErrInvalidToken
	}

	key := revocation.RefreshKey(userID, claims.ID)
	live, err := revocation.IsLive(r.Context(), a.store, key)
	if err != nil {
		return nil, err
	}
	if !live {
		return nil, common.ErrInvalidToken
	}

	if err := a.store.ClearKeepTTL(r.Context(), key, revocation.RevokedValue); err != nil {
		return nil, err
	}
	return claims, nil
}

// setRefreshCookie installs the refresh token as a cross-site cookie scoped
// to the configured domain. SameSite=None requires Secure.
func (a *API) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.RefreshTokenCookieName,
		Value:    token,
		Path:     "/",
		Domain:   a.cookieDomain,
		MaxAge:   int(a.tokens.RefreshTTL().Seconds()),
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	})
}

func (a *API) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.RefreshTokenCookieName,
		Value:    "",
		Path:     "/",
		Domain:   a.cookieDomain,
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	})
}
