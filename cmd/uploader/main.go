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
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rawen554/uploader/internal/app"
	"github.com/rawen554/uploader/internal/config"
	"github.com/rawen554/uploader/internal/logger"
	"github.com/rawen554/uploader/internal/logic"
	"github.com/rawen554/uploader/internal/metrics"
	"github.com/rawen554/uploader/internal/providers"
	"github.com/rawen554/uploader/internal/store"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.ParseFlags(os.Args[1:])
	if err != nil {
		return fmt.Errorf("error parsing config: %w", err)
	}

	logger, err := logger.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	storage := store.NewStore(cfg, logger.Named("store"))
	defer func() {
		if err := storage.Close(); err != nil {
			logger.Errorf("error closing history store: %v", err)
		}
	}()

	registry := providers.New(cfg, &http.Client{}, logger.Named("providers"))
	coreLogic := logic.NewCoreLogic(
		storage,
		registry,
		metrics.MustNewMetrics(prometheus.DefaultRegisterer),
		logger.Named("logic"),
	)

	newApp := app.NewApp(cfg, coreLogic, prometheus.DefaultGatherer, logger.Named("app"))
	r, err := newApp.SetupRouter()
	if err != nil {
		return fmt.Errorf("error setting up router: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.RunAddr,
		Handler:           r,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("serving %v on %s", registry.IDs(), cfg.RunAddr)
		if cfg.EnableHTTPS {
			if err := app.CreateCertificates(cfg.TLSCertPath, cfg.TLSKeyPath); err != nil {
				errCh <- err
				return
			}
			errCh <- srv.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
			return
		}
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Infof("received %s, shutting down", sig)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error serving http: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("error shutting down http server: %v", err)
	}

	// Uploads are detached from their requests and may outlive Shutdown.
	drainCtx, cancelDrain := context.WithTimeout(context.Background(),
		cfg.VoeDiscoveryTimeout+cfg.UploadTimeout+shutdownTimeout)
	defer cancelDrain()

	return coreLogic.Drain(drainCtx)
}
