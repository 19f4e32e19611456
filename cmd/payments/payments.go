package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"ridepay/internal/client"
	"ridepay/internal/config"
)

func newClient(cmd *cobra.Command) (*client.Client, error) {
	cfg := config.Load()

	baseURL, err := cmd.Flags().GetString("api")
	if err != nil {
		return nil, err
	}
	if baseURL == "" {
		baseURL = cfg.Client.BaseURL
	}

	return client.New(baseURL, cfg.Client.Timeout), nil
}

func addAPIFlag(cmd *cobra.Command) {
	cmd.Flags().String("api", "", "payments API base URL (default $PAYMENTS_API_URL)")
}

func authorizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authorize",
		Short: "Authorize a payment for a ride",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rideID, _ := cmd.Flags().GetString("ride")
			rawAmount, _ := cmd.Flags().GetString("amount")

			amount, err := decimal.NewFromString(rawAmount)
			if err != nil {
				return fmt.Errorf("amount %q is not a number", rawAmount)
			}

			c, err := newClient(cmd)
			if err != nil {
				return err
			}

			res, err := c.Authorize(cmd.Context(), rideID, amount)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringP("ride", "r", "", "ride ID")
	cmd.Flags().StringP("amount", "a", "", "amount to authorize")
	_ = cmd.MarkFlagRequired("ride")
	_ = cmd.MarkFlagRequired("amount")
	addAPIFlag(cmd)

	return cmd
}

func captureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture [payment-id]",
		Short: "Capture an authorized payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}

			res, err := c.Capture(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}

	addAPIFlag(cmd)
	return cmd
}

func getCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get [payment-id]",
		Short: "Show a payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}

			res, err := c.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}

	addAPIFlag(cmd)
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
