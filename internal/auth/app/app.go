package app

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/lanternauth/lantern/internal/auth/http"
	"github.com/lanternauth/lantern/internal/auth/mail"
	"github.com/lanternauth/lantern/internal/auth/service"
	"github.com/lanternauth/lantern/internal/auth/store"
	"github.com/lanternauth/lantern/internal/auth/store/drivers/sqlite"
	"github.com/lanternauth/lantern/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application wires the credential exchange service together: store,
// grants, magic-link delivery, housekeeping, and the HTTP surface.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db store.Store

	authServer          *service.AuthorizationServer
	authCodeService     *service.AuthCodeService
	magicLinkService    *service.MagicLinkService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "lantern",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// AuthCodes exposes the authorization code minting seam. Embedders that
// run their own authorize/consent flow call IssueAuthorizationCode here
// once a user has approved a client.
func (app *Application) AuthCodes() *service.AuthCodeService {
	return app.authCodeService
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("lantern starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down lantern...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("lantern stopped")
	return nil
}

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initServices() error {
	issuer := &service.TokenIssuer{}

	app.authServer = service.NewAuthorizationServer(app.db)
	app.authServer.EnableGrant(&service.MagicLinkGrant{
		Store:     app.db,
		Issuer:    issuer,
		AccessTTL: app.cfg.MagicLinkAccessTTL,
	})
	app.authServer.EnableGrant(&service.RefreshTokenGrant{
		Store:      app.db,
		Issuer:     issuer,
		AccessTTL:  app.cfg.AccessTTL,
		RefreshTTL: app.cfg.RefreshTTL,
	})

	secret := []byte(app.cfg.AuthCodeSecret)
	if len(secret) == 0 {
		// Ephemeral secret: codes stop being redeemable across restarts,
		// which is tolerable for a 5 minute credential but wrong for
		// multi-instance deployments.
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return fmt.Errorf("failed to generate auth code secret: %w", err)
		}
		app.logger.Warn("LANTERN_AUTH_CODE_SECRET not set, using ephemeral secret")
	}
	codec := service.NewAuthCodeCodec(secret)
	app.authServer.EnableGrant(&service.AuthorizationCodeGrant{
		Store:      app.db,
		Issuer:     issuer,
		Codec:      codec,
		AccessTTL:  app.cfg.AccessTTL,
		RefreshTTL: app.cfg.RefreshTTL,
	})

	app.authCodeService = &service.AuthCodeService{
		Store:   app.db,
		Codec:   codec,
		CodeTTL: app.cfg.AuthCodeTTL,
	}

	mailer := mail.NewSMTPMailer(mail.SMTPConfig{
		Host:     app.cfg.SMTPHost,
		Port:     app.cfg.SMTPPort,
		Username: app.cfg.SMTPUsername,
		Password: app.cfg.SMTPPassword,
		From:     app.cfg.SMTPFrom,
	})

	app.magicLinkService = &service.MagicLinkService{
		Store:    app.db,
		Mailer:   mailer,
		AppURL:   app.cfg.AppURL,
		TokenTTL: app.cfg.MagicLinkTTL,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.TokenRetention,
	)

	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)

	router.AuthServer = app.authServer
	router.MagicLinkService = app.magicLinkService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
