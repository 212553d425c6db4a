package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oktotech/okto-go/internal/okto"
	"github.com/oktotech/okto-go/internal/output"
)

// NewOrdersCmd creates the order history command.
func NewOrdersCmd() *cobra.Command {
	var q okto.OrderQuery

	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Show order history",
		Long:  "List token transfer orders, optionally filtered by id or state.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			if err := requireLogin(app); err != nil {
				return err
			}
			if q.Offset < 0 || q.Limit < 0 {
				return output.ErrUsage("--offset and --limit must not be negative")
			}
			q.OrderState = strings.ToUpper(q.OrderState)

			data, err := app.Okto.OrderHistory(cmd.Context(), q)
			if err != nil {
				return err
			}
			if q.OrderID != "" && len(data.Jobs) == 0 {
				return output.ErrNotFound("order", q.OrderID)
			}
			return app.OK(data, output.WithSummary(fmt.Sprintf("%d of %d orders", len(data.Jobs), data.Total)))
		},
	}

	cmd.Flags().StringVar(&q.OrderID, "order-id", "", "Only this order")
	cmd.Flags().IntVar(&q.Offset, "offset", 0, "Skip this many orders")
	cmd.Flags().IntVar(&q.Limit, "limit", 0, "Return at most this many orders")
	cmd.Flags().StringVar(&q.OrderState, "state", "", "Filter by state (PENDING, SUCCESS, FAILED)")

	return cmd
}

// NewNftCmd creates the nft command group.
func NewNftCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nft",
		Short: "Inspect NFT orders",
	}
	cmd.AddCommand(newNftOrdersCmd())
	return cmd
}

func newNftOrdersCmd() *cobra.Command {
	var q okto.NftOrderDetailsQuery

	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Show NFT order details",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			if err := requireLogin(app); err != nil {
				return err
			}
			if q.Page < 0 || q.Size < 0 {
				return output.ErrUsage("--page and --size must not be negative")
			}

			data, err := app.Okto.GetNftOrderDetails(cmd.Context(), q)
			if err != nil {
				return err
			}
			if q.OrderID != "" && len(data.Nfts) == 0 {
				return output.ErrNotFound("NFT order", q.OrderID)
			}
			return app.OK(data, output.WithSummary(fmt.Sprintf("%d NFTs", data.Count)))
		},
	}

	cmd.Flags().StringVar(&q.OrderID, "order-id", "", "Only this order")
	cmd.Flags().IntVar(&q.Page, "page", 0, "Page number")
	cmd.Flags().IntVar(&q.Size, "size", 0, "Page size")

	return cmd
}
