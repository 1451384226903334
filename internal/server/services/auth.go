// Package services contains the server-side business logic. This file
// implements AuthService: registration, login, token refresh, logout, and
// password recovery.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/openpasswd/openpasswd/internal/common"
	"github.com/openpasswd/openpasswd/internal/cryptox"
	"github.com/openpasswd/openpasswd/internal/dbx"
	"github.com/openpasswd/openpasswd/internal/logging"
	"github.com/openpasswd/openpasswd/internal/server/auth"
	"github.com/openpasswd/openpasswd/internal/server/config"
	"github.com/openpasswd/openpasswd/internal/server/mail"
	"github.com/openpasswd/openpasswd/internal/server/models"
	"github.com/openpasswd/openpasswd/internal/server/repositories/repomanager"
	"github.com/openpasswd/openpasswd/internal/server/revocation"
)

const recoveryTokenLength = 64

// Tokens bundles a short-lived access token with an optional refresh token.
// TokenType is always "Bearer".
type Tokens struct {
	AccessToken  string
	TokenType    string
	RefreshToken string
}

// UserView is the profile returned by GetMe. LastLogin is RFC 3339 or nil.
type UserView struct {
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	LastLogin *string `json:"last_login"`
}

// LoginParams carries one login attempt. RefreshTransport selects whether a
// refresh token is minted and for which channel; empty means none.
type LoginParams struct {
	Email            string
	Password         string
	DeviceName       string
	RefreshTransport auth.TransportType
}

// AuthService orchestrates the authentication flows over the user, device,
// and recovery repositories, the token manager, and the revocation store.
type AuthService struct {
	db               *sql.DB
	repomanager      repomanager.RepositoryManager
	tokens           *auth.TokenManager
	store            revocation.Store
	mailer           mail.Sender
	logger           logging.Logger
	recoveryValidity time.Duration
}

// NewAuthService constructs an AuthService using repositories and server
// config.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, tokens *auth.TokenManager,
	store revocation.Store, mailer mail.Sender, logger logging.Logger, cfg *config.Config) *AuthService {
	return &AuthService{
		db:               db,
		repomanager:      m,
		tokens:           tokens,
		store:            store,
		mailer:           mailer,
		logger:           logger,
		recoveryValidity: cfg.RecoveryTokenValidityDuration,
	}
}

// Register creates a new user: the password is hashed and a fresh 32-byte
// master key is minted. An existing email yields ErrEmailAlreadyTaken.
func (s *AuthService) Register(ctx context.Context, name, email, password string) error {
	repo := s.repomanager.Users(s.db)

	if _, err := repo.GetByEmail(ctx, email); err == nil {
		return common.ErrEmailAlreadyTaken
	} else if !errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("error searching user: %w", err)
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return common.ErrorInternal
	}

	masterKey, err := cryptox.GenerateMasterKey()
	if err != nil {
		return common.ErrorInternal
	}

	user := &models.User{Name: name, Email: email, PasswordHash: hash, MasterKey: masterKey}
	if _, err := repo.Create(ctx, user); err != nil {
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

// Login verifies the credentials and, on success, mints an access token
// (plus a refresh token when requested) and registers both in the
// revocation store. Unknown emails and wrong passwords are
// indistinguishable to the caller; a wrong password additionally bumps the
// user's fail_attempts counter.
func (s *AuthService) Login(ctx context.Context, params LoginParams) (*Tokens, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, params.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	ok, err := cryptox.VerifyPassword(user.PasswordHash, params.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		if err := repo.UpdateFailAttempts(ctx, user.ID, user.FailAttempts+1); err != nil {
			s.logger.Error(ctx, "error updating fail attempts", "error", err)
		}
		return nil, common.ErrInvalidCredentials
	}

	device := s.findDeviceName(ctx, user.ID, params.DeviceName)

	if err := repo.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Error(ctx, "error updating last login", "error", err)
	}

	return s.mintTokens(ctx, user.ID, device, params.RefreshTransport)
}

// Refresh re-mints an access/refresh pair for the user in the presented
// refresh claims, bound to the same device and transport. The old refresh
// token must already have been consumed at the boundary.
func (s *AuthService) Refresh(ctx context.Context, claims *auth.RefreshClaims) (*Tokens, error) {
	userID, err := claims.UserID()
	if err != nil {
		return nil, common.ErrInvalidToken
	}

	if _, err := s.repomanager.Users(s.db).GetByID(ctx, userID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	return s.mintTokens(ctx, userID, claims.Device, claims.TokenType)
}

// Logout revokes the presented access token, and the refresh token when one
// accompanied the request. Revoking an already-revoked or expired token is
// not an error.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims, refreshClaims *auth.RefreshClaims) error {
	userID, err := claims.UserID()
	if err != nil {
		return common.ErrInvalidToken
	}

	if err := s.store.ClearKeepTTL(ctx, revocation.AccessKey(userID, claims.ID), revocation.RevokedValue); err != nil {
		return fmt.Errorf("error revoking access token: %w", err)
	}

	if refreshClaims != nil {
		refreshUserID, err := refreshClaims.UserID()
		if err != nil {
			return common.ErrInvalidToken
		}
		if err := s.store.ClearKeepTTL(ctx, revocation.RefreshKey(refreshUserID, refreshClaims.ID), revocation.RevokedValue); err != nil {
			return fmt.Errorf("error revoking refresh token: %w", err)
		}
	}
	return nil
}

// GetMe returns the profile of the authenticated user.
func (s *AuthService) GetMe(ctx context.Context, userID int64) (*UserView, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	view := &UserView{Name: user.Name, Email: user.Email}
	if user.LastLogin != nil {
		formatted := user.LastLogin.Format(time.RFC3339)
		view.LastLogin = &formatted
	}
	return view, nil
}

// PasswordRecoveryStart issues a one-time recovery secret and mails it to
// the user. Only the SHA-256 digest of the secret is stored. An unknown
// email succeeds silently so the endpoint cannot be used to enumerate
// accounts; a mail delivery failure is logged but does not fail the
// operation, since the recovery record is already usable.
func (s *AuthService) PasswordRecoveryStart(ctx context.Context, email string) error {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "password recovery for unknown email")
			return nil
		}
		return fmt.Errorf("error searching user: %w", err)
	}

	token, err := cryptox.GenerateRecoveryToken(recoveryTokenLength)
	if err != nil {
		return common.ErrorInternal
	}

	recovery := &models.PasswordRecovery{
		Token:    cryptox.HashToken(token),
		UserID:   user.ID,
		IssuedAt: time.Now().UTC(),
		Valid:    true,
	}
	if err := s.repomanager.Recoveries(s.db).Create(ctx, recovery); err != nil {
		return fmt.Errorf("error creating recovery record: %w", err)
	}

	body := fmt.Sprintf("Password recovery: %s", token)
	if err := s.mailer.Send(ctx, user.Name, user.Email, "Password recovery", body); err != nil {
		s.logger.Error(ctx, "error sending recovery mail", "error", err)
	}
	return nil
}

// PasswordRecoveryFinish redeems a recovery secret. Unknown, already used,
// and expired tokens are all treated identically: the call succeeds and
// nothing changes, so a caller cannot distinguish the cases. A valid token
// inside the window invalidates the record and sets the new password hash
// in one transaction.
func (s *AuthService) PasswordRecoveryFinish(ctx context.Context, rawToken, newPassword string) error {
	token := cryptox.HashToken(rawToken)

	recovery, err := s.repomanager.Recoveries(s.db).FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "recovery token not found")
			return nil
		}
		return fmt.Errorf("error searching recovery record: %w", err)
	}

	if !recovery.Valid || !recovery.IssuedAt.Add(s.recoveryValidity).After(time.Now().UTC()) {
		s.logger.Warn(ctx, "invalid or expired recovery token")
		return nil
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return common.ErrorInternal
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Recoveries(tx).Invalidate(ctx, token); err != nil {
			return fmt.Errorf("error invalidating recovery record: %w", err)
		}
		if err := s.repomanager.Users(tx).UpdatePassword(ctx, recovery.UserID, hash); err != nil {
			return fmt.Errorf("error updating password: %w", err)
		}
		return nil
	})
}

// --- helpers below ---

// findDeviceName resolves the client-supplied device name against the
// user's known devices; unknown names are dropped rather than echoed into
// claims.
func (s *AuthService) findDeviceName(ctx context.Context, userID int64, name string) string {
	if name == "" {
		return ""
	}
	found, err := s.repomanager.Devices(s.db).FindName(ctx, userID, name)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.logger.Error(ctx, "error searching device", "error", err)
		}
		return ""
	}
	return found
}

func (s *AuthService) mintTokens(ctx context.Context, userID int64, device string, transport auth.TransportType) (*Tokens, error) {
	access, jti, err := s.tokens.SignAccess(userID, device)
	if err != nil {
		return nil, common.ErrTokenCreation
	}
	if err := s.store.SetWithTTL(ctx, revocation.AccessKey(userID, jti), revocation.LiveValue, s.tokens.AccessTTL()); err != nil {
		return nil, fmt.Errorf("error registering access token: %w", err)
	}

	tokens := &Tokens{AccessToken: access, TokenType: "Bearer"}

	if transport != "" {
		refresh, refreshJTI, err := s.tokens.SignRefresh(userID, device, transport)
		if err != nil {
			return nil, common.ErrTokenCreation
		}
		if err := s.store.SetWithTTL(ctx, revocation.RefreshKey(userID, refreshJTI), revocation.LiveValue, s.tokens.RefreshTTL()); err != nil {
			return nil, fmt.Errorf("error registering refresh token: %w", err)
		}
		tokens.RefreshToken = refresh
	}

	return tokens, nil
}
