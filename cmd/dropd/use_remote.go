package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/drop-oss/dropd/internal/infra/config"
	"github.com/drop-oss/dropd/internal/remote"
	"github.com/drop-oss/dropd/internal/store"
)

var useRemoteCmd = &cobra.Command{
	Use:   "use-remote <url>",
	Short: "Validate a Drop server URL and persist it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		// Only the validated, parsed URL is persisted
		base, err := remote.ValidateEndpoint(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		st, err := openStore(context.Background(), cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.SetSetting(store.SettingBaseURL, base.String()); err != nil {
			return fmt.Errorf("could not persist remote URL: %w", err)
		}

		fmt.Printf("Remote set to %s\n", base)
		return nil
	},
}
