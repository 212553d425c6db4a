package commands

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/oktotech/okto-go/internal/output"
)

// NewPortfolioCmd creates the portfolio command.
func NewPortfolioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "portfolio",
		Short: "Show token holdings",
		Long:  "Show the tokens held across all wallets of the current user.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			if err := requireLogin(app); err != nil {
				return err
			}

			data, err := app.Okto.GetPortfolio(cmd.Context())
			if err != nil {
				return err
			}

			summary := fmt.Sprintf("%d holdings", data.Total)
			total := decimal.Zero
			priced := false
			for _, t := range data.Tokens {
				if v, err := decimal.NewFromString(t.AmountInInr); err == nil {
					total = total.Add(v)
					priced = true
				}
			}
			if priced {
				summary += fmt.Sprintf(", ₹%s total", total.StringFixed(2))
			}

			return app.OK(data,
				output.WithSummary(summary),
				output.WithBreadcrumbs(output.Breadcrumb{
					Action:      "transfer",
					Cmd:         "okto transfer tokens --network <network> --token <address> --quantity <n> --to <address>",
					Description: "Send tokens",
				}),
			)
		},
	}
}

// NewTokensCmd creates the supported tokens command.
func NewTokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens",
		Short: "List supported tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			if err := requireLogin(app); err != nil {
				return err
			}

			data, err := app.Okto.GetSupportedTokens(cmd.Context())
			if err != nil {
				return err
			}
			return app.OK(data, output.WithSummary(fmt.Sprintf("%d supported tokens", len(data.Tokens))))
		},
	}
}

// NewNetworksCmd creates the supported networks command.
func NewNetworksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "networks",
		Short: "List supported networks",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			if err := requireLogin(app); err != nil {
				return err
			}

			data, err := app.Okto.GetSupportedNetworks(cmd.Context())
			if err != nil {
				return err
			}
			return app.OK(data, output.WithSummary(fmt.Sprintf("%d supported networks", len(data.Network))))
		},
	}
}

// NewMeCmd creates the me command for showing the current user.
func NewMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show current user profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			if err := requireLogin(app); err != nil {
				return err
			}

			user, err := app.Okto.GetUserDetails(cmd.Context())
			if err != nil {
				return err
			}

			summary := user.Email
			if user.Freezed {
				summary += " (frozen: " + user.FreezeReason + ")"
			}
			return app.OK(user, output.WithSummary(summary))
		},
	}
}

// NewWalletsCmd creates the wallets command group.
func NewWalletsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallets",
		Short: "List wallets",
		Long:  "List the wallet address of the current user on every network.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			if err := requireLogin(app); err != nil {
				return err
			}

			data, err := app.Okto.GetWallets(cmd.Context())
			if err != nil {
				return err
			}

			opts := []output.ResponseOption{output.WithSummary(fmt.Sprintf("%d wallets", len(data.Wallets)))}
			if len(data.Wallets) == 0 {
				opts = append(opts, output.WithBreadcrumbs(output.Breadcrumb{
					Action:      "create",
					Cmd:         "okto wallets create",
					Description: "Create wallets",
				}))
			}
			return app.OK(data, opts...)
		},
	}

	cmd.AddCommand(newWalletsCreateCmd())
	return cmd
}

func newWalletsCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create wallets",
		Long:  "Create wallets on every supported network. Existing wallets are returned unchanged.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			if err := requireLogin(app); err != nil {
				return err
			}

			data, err := app.Okto.CreateWallet(cmd.Context())
			if err != nil {
				return err
			}
			return app.OK(data, output.WithSummary(fmt.Sprintf("%d wallets", len(data.Wallets))))
		},
	}
}
