package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/CorrelAid/debtor_submission_uploader/config"
	"github.com/CorrelAid/debtor_submission_uploader/handlers"
	"github.com/CorrelAid/debtor_submission_uploader/inits"
	"github.com/CorrelAid/debtor_submission_uploader/middleware"
	"github.com/CorrelAid/debtor_submission_uploader/operations"
	"github.com/CorrelAid/debtor_submission_uploader/routines"
	"github.com/CorrelAid/debtor_submission_uploader/validators"
	"github.com/CorrelAid/debtor_submission_uploader/widget"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}
	logger := inits.NewLogger(cfg.Log.Level, cfg.Log.Format)
	gin.SetMode(cfg.Server.Mode)

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("Server stopped")
	}
}

func run(cfg *config.Config, logger *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := inits.NewDB()
	if err != nil {
		return fmt.Errorf("init session store: %w", err)
	}
	store := operations.NewStore(db, cfg.Session.TTL)
	go routines.StartCleanupRoutine(ctx, store, cfg.Session.CleanupInterval, logger)

	transport, err := newTransport(cfg)
	if err != nil {
		return err
	}
	uploads := widget.NewDispatcher(transport, cfg.Widget.UploadTimeout, logger)

	widgetCfg := widget.DefaultConfig(cfg.Widget.AccountID, cfg.Widget.UploadPresetID)
	widgetCfg.MaxFileSize = cfg.Widget.MaxFileSize
	widgetCfg.ClientAllowedFormats = cfg.Widget.AllowedFormats

	service := operations.NewFormService(store, uploads, widgetCfg, logger)
	turnstile := &validators.Turnstile{
		Secret:    cfg.Security.TurnstileSecret,
		TestToken: cfg.Security.TestToken,
		Release:   cfg.Release(),
		Logger:    logger,
	}

	router := handlers.NewRouter(handlers.RouterOptions{
		Forms:              handlers.NewFormHandler(service, turnstile, cfg.Widget.MaxFileSize, logger),
		Logger:             logger,
		MaxMultipartMemory: cfg.Server.MaxMultipartMemory,
		RateLimit:          middleware.RateLimitOptions{
			RequestsPerMinute: cfg.Security.RateLimitPerMinute,
			IPLookups:         cfg.Security.RateLimitIPLookups,
		},
		AllowedDomains:   cfg.Security.AllowedDomains,
		TurnstileSiteKey: cfg.Security.TurnstileSiteKey,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"addr":    srv.Addr,
			"backend": cfg.Widget.Backend,
		}).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("HTTP shutdown incomplete")
	}
	if err := uploads.Close(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Uploads still running at shutdown")
	}
	return nil
}

func newTransport(cfg *config.Config) (widget.Transport, error) {
	switch cfg.Widget.Backend {
	case config.BackendWebDAV:
		return &widget.WebDAV{
			BaseURL:  cfg.WebDAV.URL,
			Username: cfg.WebDAV.User,
			Password: cfg.WebDAV.Password,
			Client:   &http.Client{},
		}, nil
	default:
		return widget.NewCloudinary(widget.CloudinaryOptions{
			AccountID: cfg.Widget.AccountID,
			APIKey:    cfg.Widget.APIKey,
			APISecret: cfg.Widget.APISecret,
		})
	}
}
