package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
)

var (
	queueVersion string
	queueDir     string
	queueAddr    string
)

// queueCmd is a thin client against a running daemon's API, so games can be
// queued from scripts without touching the HTTP surface by hand.
var queueCmd = &cobra.Command{
	Use:   "queue <game-id>",
	Short: "Queue a game download on a running daemon",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := json.Marshal(map[string]string{
			"id":          args[0],
			"version":     queueVersion,
			"install_dir": queueDir,
		})
		if err != nil {
			return err
		}

		resp, err := http.Post(queueAddr+"/api/v1/downloads", "application/json", bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("could not reach daemon at %s: %w", queueAddr, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusAccepted {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return fmt.Errorf("daemon rejected the job (%d): %s", resp.StatusCode, bytes.TrimSpace(body))
		}

		fmt.Printf("Queued %s@%s\n", args[0], queueVersion)
		return nil
	},
}

func init() {
	queueCmd.Flags().StringVar(&queueVersion, "version", "", "game version to install")
	queueCmd.Flags().StringVar(&queueDir, "dir", "", "install directory (defaults to the daemon's configured one)")
	queueCmd.Flags().StringVar(&queueAddr, "addr", "http://127.0.0.1:8080", "daemon API address")
	_ = queueCmd.MarkFlagRequired("version")
}
