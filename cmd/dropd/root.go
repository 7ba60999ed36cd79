package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/drop-oss/dropd/internal/app"
	"github.com/drop-oss/dropd/internal/infra/config"
	"github.com/drop-oss/dropd/internal/store"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "dropd",
	Short:         "Headless download daemon for Drop game servers",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config.yaml")
	rootCmd.AddCommand(serveCmd, useRemoteCmd, queueCmd)
}

// openStore picks the backend from config. Callers own Close.
func openStore(ctx context.Context, cfg *config.Config) (app.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgresStore(ctx, cfg.Store.PostgresDSN)
	default:
		return store.NewSQLiteStore(cfg.Store.SQLitePath)
	}
}

// baseURLFromStore prefers the URL persisted by `use-remote`, falling back
// to the config file.
func baseURLFromStore(st app.Store, cfg *config.Config) (string, error) {
	if url, err := st.Setting(store.SettingBaseURL); err == nil && url != "" {
		return url, nil
	}
	if cfg.Remote.BaseURL != "" {
		return cfg.Remote.BaseURL, nil
	}
	return "", fmt.Errorf("no remote configured: run 'dropd use-remote <url>' or set remote.base_url")
}
