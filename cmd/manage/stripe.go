// cmd/manage/stripe.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javajoker/storefront-backend/internal/services"
)

func newStripeCommand() *cobra.Command {
	stripe := &cobra.Command{
		Use:   "stripe",
		Short: "Payment provider setup",
	}

	stripe.AddCommand(&cobra.Command{
		Use:   "setup",
		Short: "Create the standard, express and complimentary shipping rates",
		RunE: func(cmd *cobra.Command, args []string) error {
			gateway, err := services.NewStripeGateway(cfg.Payment.StripeSecretKey)
			if err != nil {
				return err
			}

			rates, err := services.SetupShippingRates(cmd.Context(), gateway, cfg.Payment.Currency)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "STRIPE_SHIPPING_RATE_STANDARD=%s\n", rates.Standard)
			fmt.Fprintf(out, "STRIPE_SHIPPING_RATE_EXPRESS=%s\n", rates.Express)
			fmt.Fprintf(out, "STRIPE_SHIPPING_RATE_COMPLIMENTARY=%s\n", rates.Complimentary)
			return nil
		},
	})

	return stripe
}
