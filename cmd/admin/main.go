package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/kevin07696/order-service/internal/app"
	"github.com/kevin07696/order-service/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var Version = "dev"

type rootOptions struct {
	dbURL   string
	verbose bool
}

func main() {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "order-admin",
		Short:         "Administer delivery orders outside the HTTP API",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.dbURL, "db", "", "database URL (overrides DATABASE_URL)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log service activity to stderr")

	rootCmd.AddCommand(orderCmd(opts))
	rootCmd.AddCommand(configCmd(opts))
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger(opts *rootOptions) *zap.Logger {
	if !opts.verbose {
		return zap.NewNop()
	}
	return zap.Must(zap.NewDevelopment())
}

// openApp loads configuration, resolves secrets and connects the services
func openApp(ctx context.Context, opts *rootOptions) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.dbURL != "" {
		cfg.Database.URL = opts.dbURL
	}
	cfg.Database.MaxConns = 2
	cfg.Database.MinConns = 0

	logger := newLogger(opts)
	if err := app.ResolveSecrets(ctx, cfg, logger); err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, logger)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
