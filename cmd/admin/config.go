package main

import (
	"fmt"
	"strings"

	"github.com/kevin07696/order-service/internal/domain"
	"github.com/spf13/cobra"
)

func configCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and edit the store configuration",
	}
	cmd.AddCommand(configShowCmd(opts))
	cmd.AddCommand(configSetCmd(opts))
	return cmd
}

func configShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print every store setting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			current, err := a.Settings.Get(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), current)
		},
	}
}

func configSetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key=value>...",
		Short: "Set one or more store settings",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changes, err := parseAssignments(args)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			updated, err := a.Settings.Update(cmd.Context(), changes)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), updated)
		},
	}
}

func parseAssignments(args []string) (domain.StoreSettings, error) {
	out := make(domain.StoreSettings, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q, want key=value", arg)
		}
		out[key] = value
	}
	return out, nil
}
