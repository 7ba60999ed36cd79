package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/spf13/cobra"

	"github.com/drop-oss/dropd/internal/api"
	"github.com/drop-oss/dropd/internal/app"
	"github.com/drop-oss/dropd/internal/cache"
	"github.com/drop-oss/dropd/internal/download"
	"github.com/drop-oss/dropd/internal/events"
	"github.com/drop-oss/dropd/internal/infra/config"
	"github.com/drop-oss/dropd/internal/infra/logger"
	"github.com/drop-oss/dropd/internal/remote"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the download daemon and its control API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		log, err := logger.New(cfg.Log.Path, logger.ParseLevel(cfg.Log.Level), cfg.Log.IncludeStdout)
		if err != nil {
			return err
		}

		// Setup Signal Handling for Graceful Shutdown
		// We create a context that is cancelled when the user hits Ctrl+C
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		emitter := events.NewEmitter()

		appCtx := app.NewContext(cfg, log)
		appCtx.Store = st
		appCtx.Notifier = emitter

		rawURL, err := baseURLFromStore(st, cfg)
		if err != nil {
			return err
		}

		base, err := remote.ValidateEndpoint(ctx, rawURL)
		if err != nil {
			return err
		}
		log.Info("Using Drop server %s", base)

		var mcache remote.ManifestCache
		if cfg.Store.ManifestDir != "" {
			mcache = &cache.FileCache{Dir: cfg.Store.ManifestDir}
		}
		client := remote.NewClient(base, remote.BearerAuth(cfg.Remote.APIKey), mcache)

		manager := download.NewManager(appCtx, client)
		go manager.Run()

		e := echo.New()
		api.RegisterRoutes(e, appCtx, manager, emitter)

		srv := &http.Server{Addr: ":" + cfg.Port, Handler: e}
		go func() {
			log.Info("API listening on :%s", cfg.Port)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("API server failed: %v", err)
				stop()
			}
		}()

		<-ctx.Done()
		log.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)

		// Stops the active transfer at its next poll point and waits for
		// the manager loop to exit
		manager.Shutdown()

		return nil
	},
}
