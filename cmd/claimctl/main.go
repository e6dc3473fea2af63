// Command claimctl inspects and moves the claim collection outside the HTTP
// server: listing, exporting a snapshot and importing one into any backend.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/novacarriers/claimdesk/internal/config"
	"github.com/novacarriers/claimdesk/internal/store"
)

var (
	backendName string
	dataDir     string
	verbose     bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "claimctl",
	Short: "Operate on the claimdesk claim collection",
	Long: `claimctl reads and writes the claim collection through the same
backends as the server (file, sqlite, postgres, s3, memory).

The backend comes from STORE_BACKEND and friends, or from --backend.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&backendName, "backend", "b", "", "Store backend (overrides STORE_BACKEND)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory for the file backend (overrides DATA_DIR)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	listCmd.Flags().StringVar(&listStatus, "status", "", "Only list claims with this status")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Write to file instead of stdout")
	importCmd.Flags().BoolVar(&importForce, "force", false, "Replace a non-empty collection")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(remindersCmd)
	rootCmd.AddCommand(financeCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openBackend resolves configuration plus flag overrides and opens the
// selected backend.
func openBackend(ctx context.Context) (store.Backend, func(), error) {
	cfg := config.Load()
	if backendName != "" {
		cfg.StoreBackend = backendName
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	return store.OpenBackend(ctx, cfg)
}
