// Package server initializes and runs the entry API server. It wires the
// region, the GitHub clients, the services and the HTTP router, and handles
// graceful shutdown on OS signals.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/categolj/entry-api-gemfire/internal/gemfire"
	"github.com/categolj/entry-api-gemfire/internal/github"
	"github.com/categolj/entry-api-gemfire/internal/logging"
	"github.com/categolj/entry-api-gemfire/internal/server/auth"
	"github.com/categolj/entry-api-gemfire/internal/server/config"
	"github.com/categolj/entry-api-gemfire/internal/server/repositories/entries"
	"github.com/categolj/entry-api-gemfire/internal/server/services"
	"github.com/categolj/entry-api-gemfire/internal/server/tenant"
	"github.com/categolj/entry-api-gemfire/internal/server/web"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	region gemfire.Region
	s3     *services.S3Service
	server *http.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	region, err := newRegion(cfg)
	if err != nil {
		return nil, err
	}

	registry := newRegistry(cfg)
	fetcher := entries.NewGitHubEntryFetcher(registry, logger)
	repository := entries.NewGemfireEntryRepository(region, fetcher, logger)

	users, err := auth.NewUserStore(auth.AdminUser{
		Name:     cfg.AdminName,
		Password: cfg.AdminPassword,
		Roles:    cfg.AdminRoles,
	}, cfg.TenantUsers)
	if err != nil {
		return nil, fmt.Errorf("user store init error: %w", err)
	}

	s3 := services.NewS3Service(services.S3Options{
		Bucket:            cfg.S3Bucket,
		Region:            cfg.S3Region,
		Endpoint:          cfg.S3BaseEndpoint,
		AccessKeyID:       cfg.S3AccessKeyID,
		SecretAccessKey:   cfg.S3SecretAccessKey,
		Expiration:        cfg.S3PresignExpiration,
		AllowedExtensions: cfg.S3AllowedExtensions,
		CreateBucket:      cfg.S3CreateBucket,
	}, logger)

	router := web.NewRouter(web.Options{
		Entries:       services.NewEntryService(repository, registry, cfg.DirectUpdate, logger),
		Webhook:       services.NewWebhookService(repository, fetcher, logger),
		AI:            services.NewAIService(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, logger),
		S3:            s3,
		Users:         users,
		WebhookSecret: []byte(cfg.WebhookSecret),
		JWTSecret:     []byte(cfg.SecretKey),
		TokenValidity: cfg.TokenValidityDuration,
		Readiness: func(ctx context.Context) error {
			_, err := region.ContainsKey(ctx, "00000")
			return err
		},
		Log: logger,
	})

	return &App{
		config: cfg,
		logger: logger,
		region: region,
		s3:     s3,
		server: &http.Server{Addr: cfg.Addr, Handler: router},
	}, nil
}

func newRegion(cfg *config.Config) (gemfire.Region, error) {
	switch cfg.StoreMode {
	case config.StoreModeLocal:
		return gemfire.NewLocalRegion(cfg.StoreRegion), nil
	case config.StoreModeREST:
		return gemfire.NewRESTRegion(gemfire.RESTOptions{
			BaseURL:  cfg.StoreBaseURL,
			Region:   cfg.StoreRegion,
			Username: cfg.StoreUsername,
			Password: cfg.StorePassword,
		}), nil
	default:
		return nil, fmt.Errorf("unknown store mode %q", cfg.StoreMode)
	}
}

func newRegistry(cfg *config.Config) *tenant.Registry {
	def := tenant.Source{
		Owner: cfg.ContentOwner,
		Repo:  cfg.ContentRepo,
		Client: github.NewClient(github.Options{
			BaseURL: cfg.GitHubAPIURL,
			Token:   cfg.AccessToken,
		}),
	}
	others := make(map[string]tenant.Source, len(cfg.Tenants))
	for id, t := range cfg.Tenants {
		owner, repo, token := t.ContentOwner, t.ContentRepo, t.AccessToken
		if owner == "" {
			owner = cfg.ContentOwner
		}
		if repo == "" {
			repo = cfg.ContentRepo
		}
		if token == "" {
			token = cfg.AccessToken
		}
		others[id] = tenant.Source{
			Owner: owner,
			Repo:  repo,
			Client: github.NewClient(github.Options{
				BaseURL: cfg.GitHubAPIURL,
				Token:   token,
			}),
		}
	}
	return tenant.NewRegistry(def, others)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "addr", app.config.Addr, "storeMode", app.config.StoreMode)

	app.initSignalHandler(cancelFunc)

	if err := app.s3.EnsureBucket(ctx); err != nil {
		app.logger.Error(ctx, "bucket init failed", "error", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error(ctx, "server error", "error", err)
		}
	case <-ctx.Done():
		app.logger.Info(ctx, "Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.server.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "shutdown error", "error", err)
		}
	}
}
