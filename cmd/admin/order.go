package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kevin07696/order-service/internal/domain"
	"github.com/kevin07696/order-service/internal/services/ports"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func orderCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Inspect and manage orders",
	}
	cmd.AddCommand(orderShowCmd(opts))
	cmd.AddCommand(orderStatusCmd(opts))
	cmd.AddCommand(orderRefundCmd(opts))
	cmd.AddCommand(orderDeleteCmd(opts))
	return cmd
}

func orderShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <code|id>",
		Short: "Print an order and its status history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			var result *domain.OrderWithHistory
			if id, ok := parseID(args[0]); ok {
				result, err = a.Orders.GetOrderByID(cmd.Context(), id)
			} else {
				result, err = a.Orders.GetOrder(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
}

func orderStatusCmd(opts *rootOptions) *cobra.Command {
	var note string
	cmd := &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Set an order's fulfillment status",
		Long: `Set an order's fulfillment status. Valid statuses:
new, under_review, confirmed, separation, ready, en_route, delivered,
cancelled, approved, rejected.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := requireID(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			o, err := a.Orders.TransitionStatus(cmd.Context(), &ports.TransitionStatusRequest{
				OrderID: id,
				Status:  args[1],
				Note:    note,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: status=%s payment_status=%s\n", o.Code, o.Status, o.PaymentStatus)
			return nil
		},
	}
	cmd.Flags().StringVar(&note, "note", "", "note recorded in the status log")
	return cmd
}

func orderRefundCmd(opts *rootOptions) *cobra.Command {
	var amount, reason string
	cmd := &cobra.Command{
		Use:   "refund <id>",
		Short: "Refund an order through its payment provider and cancel it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := requireID(args[0])
			if err != nil {
				return err
			}
			req := &ports.RefundOrderRequest{OrderID: id, Reason: reason}
			if amount != "" {
				d, err := decimal.NewFromString(amount)
				if err != nil {
					return fmt.Errorf("invalid amount %q: %w", amount, err)
				}
				req.Amount = &d
			}

			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			resp, err := a.Payments.Refund(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: refunded %s (refund %s, %s)\n",
				resp.Order.Code, resp.Amount.StringFixed(2), resp.RefundID, resp.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "partial amount, e.g. 25.90 (default: the order total)")
	cmd.Flags().StringVar(&reason, "reason", "", "reason recorded in the status log")
	return cmd
}

func orderDeleteCmd(opts *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Permanently delete an order and its status history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := requireID(args[0])
			if err != nil {
				return err
			}
			if !yes {
				return fmt.Errorf("refusing to delete order %d without --yes", id)
			}
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Orders.DeleteOrder(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "order %d deleted\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the deletion")
	return cmd
}

func parseID(s string) (int64, bool) {
	if strings.Contains(s, "-") {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	return id, err == nil && id > 0
}

func requireID(s string) (int64, error) {
	id, ok := parseID(s)
	if !ok {
		return 0, fmt.Errorf("invalid order id %q", s)
	}
	return id, nil
}
