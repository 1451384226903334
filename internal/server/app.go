// Package server initializes and runs the OpenPasswd server: database and
// migrations, the token revocation store, mail delivery, the services, and
// the HTTP endpoint with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openpasswd/openpasswd/internal/logging"
	"github.com/openpasswd/openpasswd/internal/ratelimit"
	"github.com/openpasswd/openpasswd/internal/server/auth"
	"github.com/openpasswd/openpasswd/internal/server/config"
	"github.com/openpasswd/openpasswd/internal/server/httpapi"
	"github.com/openpasswd/openpasswd/internal/server/mail"
	"github.com/openpasswd/openpasswd/internal/server/repositories/repomanager"
	"github.com/openpasswd/openpasswd/internal/server/revocation"
	"github.com/openpasswd/openpasswd/internal/server/services"
)

const shutdownTimeout = 5 * time.Second

// limiterResetInterval bounds the keyed limiter's memory; dropping buckets
// this often still leaves the throttle effective against sustained guessing.
const limiterResetInterval = time.Hour

type App struct {
	config       *config.Config
	logger       logging.Logger
	db           *sql.DB
	api          *httpapi.API
	loginLimiter *ratelimit.KeyedLimiter
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	store, err := newRevocationStore(cfg)
	if err != nil {
		return nil, err
	}

	tokens := auth.NewTokenManager(
		[]byte(cfg.AccessTokenSecret), []byte(cfg.RefreshTokenSecret),
		cfg.AccessTokenValidityDuration, cfg.RefreshTokenValidityDuration,
	)

	var mailer mail.Sender = mail.NoopSender{}
	if cfg.SMTPHost != "" {
		mailer = mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername,
			cfg.SMTPPassword, cfg.MailFromName, cfg.MailFromAddr)
	}

	authService := services.NewAuthService(db, rm, tokens, store, mailer, logger, cfg)
	accountService := services.NewAccountService(db, rm, logger)

	limiter := ratelimit.NewKeyedLimiter(cfg.LoginRateRPS, cfg.LoginRateBurst)
	api := httpapi.NewAPI(authService, accountService, tokens, store, limiter, logger, cfg.CookieDomain)

	return &App{
		config:       cfg,
		logger:       logger,
		db:           db,
		api:          api,
		loginLimiter: limiter,
	}, nil
}

// newRevocationStore selects Redis when a URL is configured, otherwise the
// in-memory store. The in-memory store does not survive restarts and does
// not share state between replicas; it is for development.
func newRevocationStore(cfg *config.Config) (revocation.Store, error) {
	if cfg.RedisURL == "" {
		return revocation.NewMemoryStore(), nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis init error: %w", err)
	}
	return revocation.NewRedisStore(redis.NewClient(opts)), nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:    app.config.EndpointAddr,
		Handler: app.api.Router(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "http shutdown error", "error", err)
		}
	}()

	app.logger.Info(ctx, "http server listening", "addr", app.config.EndpointAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, "http server error", "error", err)
		cancelFunc()
	}
}

func (app *App) startLimiterJanitor(ctx context.Context) {
	ticker := time.NewTicker(limiterResetInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.loginLimiter.Reset()
		}
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startLimiterJanitor(ctx)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}
