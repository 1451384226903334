// Package httpapi exposes the authentication and account services over
// HTTP/JSON. The boundary owns everything transport-shaped: bearer
// extraction and liveness checks, the refresh-token cookie, single-use
// consumption of refresh tokens, per-email throttling, and the mapping of
// service errors to status codes. Services below this package never see an
// http.Request.
package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/openpasswd/openpasswd/internal/logging"
	"github.com/openpasswd/openpasswd/internal/ratelimit"
	"github.com/openpasswd/openpasswd/internal/server/auth"
	"github.com/openpasswd/openpasswd/internal/server/models"
	"github.com/openpasswd/openpasswd/internal/server/revocation"
	"github.com/openpasswd/openpasswd/internal/server/services"
)

// AuthService is the slice of the auth service the handlers consume.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) error
	Login(ctx context.Context, params services.LoginParams) (*services.Tokens, error)
	Refresh(ctx context.Context, claims *auth.RefreshClaims) (*services.Tokens, error)
	Logout(ctx context.Context, claims *auth.Claims, refreshClaims *auth.RefreshClaims) error
	GetMe(ctx context.Context, userID int64) (*services.UserView, error)
	PasswordRecoveryStart(ctx context.Context, email string) error
	PasswordRecoveryFinish(ctx context.Context, token, newPassword string) error
}

// AccountService is the slice of the account service the handlers consume.
type AccountService interface {
	RegisterGroup(ctx context.Context, userID int64, name string) (*models.AccountGroup, error)
	ListGroups(ctx context.Context, userID int64) ([]*models.AccountGroup, error)
	RegisterAccount(ctx context.Context, userID int64, params services.AccountParams) (*models.Account, error)
	ListAccounts(ctx context.Context, userID int64, groupID *int64) ([]*models.Account, error)
	GetAccount(ctx context.Context, userID, accountID int64) (*services.AccountCredentials, error)
}

// API wires the services to the router.
type API struct {
	auth         AuthService
	accounts     AccountService
	tokens       *auth.TokenManager
	store        revocation.Store
	loginLimiter *ratelimit.KeyedLimiter
	logger       logging.Logger
	cookieDomain string
}

func NewAPI(authSvc AuthService, accountSvc AccountService, tokens *auth.TokenManager,
	store revocation.Store, loginLimiter *ratelimit.KeyedLimiter, logger logging.Logger,
	cookieDomain string) *API {
	return &API{
		auth:         authSvc,
		accounts:     accountSvc,
		tokens:       tokens,
		store:        store,
		loginLimiter: loginLimiter,
		logger:       logger,
		cookieDomain: cookieDomain,
	}
}

// Router builds the HTTP routing table.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.Get("/", a.healthCheck)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/user", a.registerUser)
		r.Post("/token", a.login)
		r.Post("/refresh_token", a.refreshToken)
		r.Post("/password_recovery", a.passwordRecoveryStart)
		r.Put("/password_recovery", a.passwordRecoveryFinish)

		r.Group(func(r chi.Router) {
			r.Use(a.requireBearer)
			r.Get("/user", a.getMe)
			r.Post("/logout", a.logout)
		})
	})

	r.Route("/api/accounts", func(r chi.Router) {
		r.Use(a.requireBearer)
		r.Get("/", a.listAccounts)
		r.Post("/", a.registerAccount)
		r.Get("/groups", a.listGroups)
		r.Post("/groups", a.registerGroup)
		r.Get("/{id}", a.getAccount)
	})

	return r
}

func (a *API) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
