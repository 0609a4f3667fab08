package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/anamnese"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/app"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/auth"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/catalog"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/config"
	internalhttp "github.com/integradaneuropsicologia/sistemadeavaliacao/internal/http"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/link"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/monitor"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/obs"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/patient"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("api encerrada com erro")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := app.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	metrics := obs.New()
	store := metrics.InstrumentStore(rt.Store)
	tables := cfg.Tables

	var loader *catalog.Loader
	if rt.Redis != nil {
		loader = catalog.NewLoader(store, tables.Tests, rt.Redis, cfg.CatalogCacheTTL, log.With().Str("component", "catalog").Logger())
	} else {
		loader = catalog.NewLoader(store, tables.Tests, nil, 0, log.With().Str("component", "catalog").Logger())
	}

	uploader, err := app.Uploader(cfg)
	if err != nil {
		return err
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL)
	authService := service.NewAuthService(store, tables.Auth, rt.Sessions(cfg), jwtManager)

	monitorService := monitor.NewService(store, tables.Tests, monitor.Config{
		Enabled:  cfg.Monitoring.Enabled,
		Interval: cfg.Monitoring.Interval,
	}, log.Logger, monitor.NewSlackNotifier(cfg.Monitoring.SlackWebhookURL))
	monitorService.Start(ctx)
	defer monitorService.Stop()

	handler := internalhttp.NewRouter(internalhttp.Deps{
		Config:      cfg,
		Auth:        authService,
		Patients:    patient.NewController(store, tables.Patients, loader, log.With().Str("component", "patient").Logger()),
		Catalog:     loader,
		Links:       link.NewService(store, tables.Tokens, cfg.PatientPortalURL, cfg.LinkTTL, log.Logger),
		Anamnese:    anamnese.New(anamnese.Config{ScriptURL: cfg.AnamneseScriptURL, Uploader: uploader}, log.Logger),
		Monitor:     monitorService,
		Metrics:     metrics,
		ReadyChecks: rt.ReadyChecks(),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("store", cfg.StoreProvider).Msgf("API ouvindo em :%d", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("encerrando...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
