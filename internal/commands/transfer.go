package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oktotech/okto-go/internal/okto"
	"github.com/oktotech/okto-go/internal/output"
)

// NewTransferCmd creates the transfer command group.
func NewTransferCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Send tokens or NFTs",
		Long: `Submit a transfer. The command returns the order id as soon as the
order is accepted; --wait polls until it succeeds or fails.`,
	}
	cmd.AddCommand(newTransferTokensCmd(), newTransferNftCmd())
	return cmd
}

func newTransferTokensCmd() *cobra.Command {
	var req okto.TransferTokens
	var wait, yes bool

	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "Send tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			if err := requireLogin(app); err != nil {
				return err
			}

			token := req.TokenAddress
			if token == "" {
				token = "native token"
			}
			if err := confirmSubmit(app, yes,
				fmt.Sprintf("Send %s of %s on %s?", req.Quantity, token, req.NetworkName),
				"Recipient: "+req.RecipientAddress,
			); err != nil {
				return err
			}

			handle, err := app.Okto.TransferTokens(cmd.Context(), req)
			if err != nil {
				return err
			}
			if !wait {
				return app.OK(handle,
					output.WithSummary("Transfer submitted as order "+handle.OrderID),
					output.WithBreadcrumbs(orderBreadcrumbs("orders", handle.OrderID)...),
				)
			}

			order, err := waitWithSpinner(cmd.Context(), app, handle.OrderID, app.Okto.WaitForOrder)
			if err != nil {
				return err
			}
			return app.OK(order, output.WithSummary(statusSummary("Order", order.OrderID, order.Status)))
		},
	}

	cmd.Flags().StringVar(&req.NetworkName, "network", "", "Network name (e.g. POLYGON)")
	cmd.Flags().StringVar(&req.TokenAddress, "token", "", "Token contract address (empty for the native token)")
	cmd.Flags().StringVar(&req.Quantity, "quantity", "", "Amount to send")
	cmd.Flags().StringVar(&req.RecipientAddress, "to", "", "Recipient address")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait until the order succeeds or fails")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	_ = cmd.MarkFlagRequired("network")
	_ = cmd.MarkFlagRequired("quantity")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func newTransferNftCmd() *cobra.Command {
	var req okto.TransferNft
	var wait, yes bool

	cmd := &cobra.Command{
		Use:   "nft",
		Short: "Send an NFT",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			if err := requireLogin(app); err != nil {
				return err
			}

			name := req.CollectionName
			if name == "" {
				name = req.CollectionAddress
			}
			if err := confirmSubmit(app, yes,
				fmt.Sprintf("Send %s of %s on %s?", req.Quantity, name, req.NetworkName),
				"Recipient: "+req.RecipientAddress,
			); err != nil {
				return err
			}

			handle, err := app.Okto.TransferNft(cmd.Context(), req)
			if err != nil {
				return err
			}
			if !wait {
				return app.OK(handle,
					output.WithSummary("NFT transfer submitted as order "+handle.OrderID),
					output.WithBreadcrumbs(orderBreadcrumbs("nft orders", handle.OrderID)...),
				)
			}

			nft, err := waitWithSpinner(cmd.Context(), app, handle.OrderID, app.Okto.WaitForNftOrder)
			if err != nil {
				return err
			}
			return app.OK(nft, output.WithSummary(statusSummary("NFT order", handle.OrderID, nft.Status)))
		},
	}

	cmd.Flags().StringVar(&req.NetworkName, "network", "", "Network name")
	cmd.Flags().StringVar(&req.CollectionAddress, "collection-address", "", "Collection contract address")
	cmd.Flags().StringVar(&req.CollectionName, "collection-name", "", "Collection name")
	cmd.Flags().StringVar(&req.Quantity, "quantity", "1", "Number of tokens to send")
	cmd.Flags().StringVar(&req.RecipientAddress, "to", "", "Recipient address")
	cmd.Flags().StringVar(&req.NftAddress, "nft-address", "", "NFT token id or address")
	cmd.Flags().StringVar(&req.OperationType, "operation-type", "", "Operation type passed through to the API")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait until the order shows up")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	_ = cmd.MarkFlagRequired("network")
	_ = cmd.MarkFlagRequired("collection-address")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

// NewRawTxCmd creates the rawtx command group.
func NewRawTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rawtx",
		Short: "Execute raw transactions",
	}
	cmd.AddCommand(newRawTxExecuteCmd(), newRawTxStatusCmd())
	return cmd
}

func newRawTxExecuteCmd() *cobra.Command {
	var network, tx string
	var wait, yes bool

	cmd := &cobra.Command{
		Use:   "execute",
		Short: "Submit a raw transaction",
		Long: `Submit a chain-specific transaction object.

--tx takes the JSON object, or - to read it from stdin.`,
		Example: `  okto rawtx execute --network POLYGON --tx '{"from":"0x..","to":"0x..","data":"0x","value":"0x1"}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			if err := requireLogin(app); err != nil {
				return err
			}

			raw := []byte(tx)
			if tx == "-" {
				if raw, err = readAll(app.Stdin); err != nil {
					return err
				}
			}
			raw = []byte(strings.TrimSpace(string(raw)))
			if !json.Valid(raw) {
				return output.ErrUsageHint("--tx is not valid JSON", "Pass the transaction object, or - to read stdin")
			}

			if err := confirmSubmit(app, yes, "Execute raw transaction on "+network+"?", string(raw)); err != nil {
				return err
			}

			req := okto.ExecuteRawTransaction{NetworkName: network, Transaction: raw}
			handle, err := app.Okto.ExecuteRawTransaction(cmd.Context(), req)
			if err != nil {
				return err
			}
			if !wait {
				return app.OK(handle,
					output.WithSummary("Transaction submitted as job "+handle.JobID),
					output.WithBreadcrumbs(orderBreadcrumbs("rawtx status", handle.JobID)...),
				)
			}

			status, err := waitWithSpinner(cmd.Context(), app, handle.JobID, app.Okto.WaitForRawTransaction)
			if err != nil {
				return err
			}
			return app.OK(status, output.WithSummary(statusSummary("Transaction", handle.JobID, status.Status)))
		},
	}

	cmd.Flags().StringVar(&network, "network", "", "Network name")
	cmd.Flags().StringVar(&tx, "tx", "", "Transaction JSON, or - for stdin")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait until the transaction succeeds or fails")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	_ = cmd.MarkFlagRequired("network")
	_ = cmd.MarkFlagRequired("tx")

	return cmd
}

func newRawTxStatusCmd() *cobra.Command {
	var orderID string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show raw transaction status",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			if err := requireLogin(app); err != nil {
				return err
			}

			data, err := app.Okto.GetRawTransactionStatus(cmd.Context(), okto.RawTransactionStatusQuery{OrderID: orderID})
			if err != nil {
				return err
			}
			if len(data.Jobs) == 0 {
				return output.ErrNotFound("transaction", orderID)
			}
			job := data.Jobs[0]
			return app.OK(data, output.WithSummary(statusSummary("Transaction", orderID, job.Status)))
		},
	}

	cmd.Flags().StringVar(&orderID, "order-id", "", "Job id returned by rawtx execute")
	_ = cmd.MarkFlagRequired("order-id")

	return cmd
}
