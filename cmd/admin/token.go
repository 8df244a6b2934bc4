package main

import (
	"fmt"
	"time"

	"github.com/kevin07696/order-service/internal/app"
	"github.com/kevin07696/order-service/internal/auth"
	"github.com/kevin07696/order-service/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage admin API tokens",
	}
	cmd.AddCommand(tokenIssueCmd())
	return cmd
}

func tokenIssueCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue an admin JWT signed with ADMIN_JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := app.ResolveSecrets(cmd.Context(), cfg, zap.NewNop()); err != nil {
				return err
			}
			jm, err := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
			if err != nil {
				return err
			}
			token, err := jm.GenerateToken(subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "who the token identifies, e.g. an email")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
