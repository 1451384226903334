package httpapi

import (
	"net/http"

	"github.com/openpasswd/openpasswd/internal/common"
	"github.com/openpasswd/openpasswd/internal/server/auth"
	"github.com/openpasswd/openpasswd/internal/server/services"
)

type registerUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	DeviceName string `json:"device_name"`
	// RefreshToken selects whether and how a refresh token is issued:
	// "cookie", "token", or omitted for none.
	RefreshToken auth.TransportType `json:"refresh_token,omitempty"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"type"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

type recoveryStartRequest struct {
	Email string `json:"email"`
}

type recoveryFinishRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (a *API) registerUser(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "email and password are required"})
		return
	}

	if err := a.auth.Register(r.Context(), req.Name, req.Email, req.Password); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, nil)
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if !a.loginLimiter.Allow(req.Email) {
		a.writeError(w, r, common.ErrTooManyRequests)
		return
	}

	switch req.RefreshToken {
	case "", auth.TransportCookie, auth.TransportToken:
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown refresh_token transport"})
		return
	}

	tokens, err := a.auth.Login(r.Context(), services.LoginParams{
		Email:            req.Email,
		Password:         req.Password,
		DeviceName:       req.DeviceName,
		RefreshTransport: req.RefreshToken,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeTokens(w, tokens, req.RefreshToken)
}

func (a *API) refreshToken(w http.ResponseWriter, r *http.Request) {
	claims, err := a.verifyAndConsumeRefresh(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	tokens, err := a.auth.Refresh(r.Context(), claims)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeTokens(w, tokens, claims.TokenType)
}

// writeTokens renders a freshly minted pair. A cookie-transport refresh
// token travels only in the Set-Cookie header, never in the body.
func (a *API) writeTokens(w http.ResponseWriter, tokens *services.Tokens, transport auth.TransportType) {
	resp := tokenResponse{AccessToken: tokens.AccessToken, TokenType: tokens.TokenType}

	switch transport {
	case auth.TransportCookie:
		a.setRefreshCookie(w, tokens.RefreshToken)
	case auth.TransportToken:
		resp.RefreshToken = tokens.RefreshToken
	}

	writeJSON(w, http.StatusOK, resp)
}

func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		a.writeError(w, r, common.ErrInvalidToken)
		return
	}

	// A refresh token accompanying the request is revoked too; absence or
	// an unverifiable token just means there is nothing extra to revoke.
	var refreshClaims *auth.RefreshClaims
	if raw, transport, found := extractRefreshToken(r); found {
		if parsed, err := a.tokens.VerifyRefresh(raw); err == nil && parsed.TokenType == transport {
			refreshClaims = parsed
		}
	}

	if err := a.auth.Logout(r.Context(), claims, refreshClaims); err != nil {
		a.writeError(w, r, err)
		return
	}

	a.clearRefreshCookie(w)
	writeJSON(w, http.StatusOK, nil)
}

func (a *API) getMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		a.writeError(w, r, common.ErrInvalidToken)
		return
	}
	userID, err := claims.UserID()
	if err != nil {
		a.writeError(w, r, common.ErrInvalidToken)
		return
	}

	view, err := a.auth.GetMe(r.Context(), userID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) passwordRecoveryStart(w http.ResponseWriter, r *http.Request) {
	var req recoveryStartRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if !a.loginLimiter.Allow(req.Email) {
		a.writeError(w, r, common.ErrTooManyRequests)
		return
	}

	if err := a.auth.PasswordRecoveryStart(r.Context(), req.Email); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (a *API) passwordRecoveryFinish(w http.ResponseWriter, r *http.Request) {
	var req recoveryFinishRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if req.Token == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "token and password are required"})
		return
	}

	if err := a.auth.PasswordRecoveryFinish(r.Context(), req.Token, req.Password); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}
