package okto

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/oktotech/okto-go/internal/api"
	"github.com/oktotech/okto-go/internal/jobs"
	sdkerrors "github.com/oktotech/okto-go/internal/sdk/errors"
)

// TransferTokens submits a token transfer and returns its order handle.
func (c *Client) TransferTokens(ctx context.Context, req TransferTokens) (data *TransferTokensData, err error) {
	ctx, done := c.operation(ctx, "TransferTokens", true)
	defer func() { done(err) }()

	if err := requireFields(map[string]string{
		"network_name":      req.NetworkName,
		"recipient_address": req.RecipientAddress,
	}); err != nil {
		return nil, err
	}
	if err := validateQuantity(req.Quantity); err != nil {
		return nil, err
	}

	out, err := api.PostJSON[TransferTokensData](ctx, c.gateway, PathTransferTokens, req)
	if err != nil {
		return nil, err
	}
	if out.OrderID == "" {
		return nil, missingHandle("order id")
	}
	return &out, nil
}

// TransferNft submits an NFT transfer and returns its order handle.
func (c *Client) TransferNft(ctx context.Context, req TransferNft) (data *TransferNftData, err error) {
	ctx, done := c.operation(ctx, "TransferNft", true)
	defer func() { done(err) }()

	if err := requireFields(map[string]string{
		"network_name":       req.NetworkName,
		"collection_address": req.CollectionAddress,
		"recipient_address":  req.RecipientAddress,
	}); err != nil {
		return nil, err
	}
	if err := validateQuantity(req.Quantity); err != nil {
		return nil, err
	}

	out, err := api.PostJSON[TransferNftData](ctx, c.gateway, PathTransferNft, req)
	if err != nil {
		return nil, err
	}
	if out.OrderID == "" {
		return nil, missingHandle("order id")
	}
	return &out, nil
}

// ExecuteRawTransaction submits a raw transaction and returns its job handle.
func (c *Client) ExecuteRawTransaction(ctx context.Context, req ExecuteRawTransaction) (data *ExecuteRawTransactionData, err error) {
	ctx, done := c.operation(ctx, "ExecuteRawTransaction", true)
	defer func() { done(err) }()

	if err := requireFields(map[string]string{"network_name": req.NetworkName}); err != nil {
		return nil, err
	}
	if len(req.Transaction) == 0 || !json.Valid(req.Transaction) {
		return nil, sdkerrors.ErrUsage("transaction must be a JSON object")
	}

	out, err := api.PostJSON[ExecuteRawTransactionData](ctx, c.gateway, PathRawTxExecute, req)
	if err != nil {
		return nil, err
	}
	if out.JobID == "" {
		return nil, missingHandle("job id")
	}
	return &out, nil
}

// TransferTokensWithJobStatus submits a token transfer and waits until its
// order reaches SUCCESS or FAILED. The terminal order is returned either way;
// callers inspect Status.
func (c *Client) TransferTokensWithJobStatus(ctx context.Context, req TransferTokens) (*Order, error) {
	handle, err := c.TransferTokens(ctx, req)
	if err != nil {
		return nil, err
	}
	return jobs.WaitFor(ctx, c.poller, handle.OrderID, c.lookupOrder)
}

// TransferNftWithJobStatus submits an NFT transfer and waits until the order
// shows up in the NFT order details.
func (c *Client) TransferNftWithJobStatus(ctx context.Context, req TransferNft) (*NftOrderDetails, error) {
	handle, err := c.TransferNft(ctx, req)
	if err != nil {
		return nil, err
	}
	return jobs.WaitFor(ctx, c.poller, handle.OrderID, c.lookupNftOrder)
}

// ExecuteRawTransactionWithJobStatus submits a raw transaction and waits
// until it reaches SUCCESS or FAILED.
func (c *Client) ExecuteRawTransactionWithJobStatus(ctx context.Context, req ExecuteRawTransaction) (*RawTransactionStatus, error) {
	handle, err := c.ExecuteRawTransaction(ctx, req)
	if err != nil {
		return nil, err
	}
	return jobs.WaitFor(ctx, c.poller, handle.JobID, c.lookupRawTransaction)
}

// WaitForOrder waits for an already submitted token order.
func (c *Client) WaitForOrder(ctx context.Context, orderID string) (*Order, error) {
	return jobs.WaitFor(ctx, c.poller, orderID, c.lookupOrder)
}

// WaitForNftOrder waits for an already submitted NFT order.
func (c *Client) WaitForNftOrder(ctx context.Context, orderID string) (*NftOrderDetails, error) {
	return jobs.WaitFor(ctx, c.poller, orderID, c.lookupNftOrder)
}

// WaitForRawTransaction waits for an already submitted raw transaction.
func (c *Client) WaitForRawTransaction(ctx context.Context, jobID string) (*RawTransactionStatus, error) {
	return jobs.WaitFor(ctx, c.poller, jobID, c.lookupRawTransaction)
}

func (c *Client) lookupOrder(ctx context.Context, id string) (*Order, error) {
	data, err := c.OrderHistory(ctx, OrderQuery{OrderID: id})
	if err != nil {
		return nil, err
	}
	for i := range data.Jobs {
		o := &data.Jobs[i]
		if o.OrderID != id {
			continue
		}
		if !IsTerminal(o.Status) {
			return nil, jobs.NotReady("order %s is %s", id, o.Status)
		}
		return o, nil
	}
	return nil, jobs.NotReady("order %s not found", id)
}

// NFT order records carry no status today; a record is treated as terminal
// unless the server marks it otherwise.
func (c *Client) lookupNftOrder(ctx context.Context, id string) (*NftOrderDetails, error) {
	data, err := c.GetNftOrderDetails(ctx, NftOrderDetailsQuery{OrderID: id})
	if err != nil {
		return nil, err
	}
	for i := range data.Nfts {
		n := &data.Nfts[i]
		if n.ID != id {
			continue
		}
		if n.Status != "" && !IsTerminal(n.Status) {
			return nil, jobs.NotReady("nft order %s is %s", id, n.Status)
		}
		return n, nil
	}
	return nil, jobs.NotReady("nft order %s not found", id)
}

func (c *Client) lookupRawTransaction(ctx context.Context, id string) (*RawTransactionStatus, error) {
	data, err := c.GetRawTransactionStatus(ctx, RawTransactionStatusQuery{OrderID: id})
	if err != nil {
		return nil, err
	}
	for i := range data.Jobs {
		tx := &data.Jobs[i]
		if tx.OrderID != id {
			continue
		}
		if !IsTerminal(tx.Status) {
			return nil, jobs.NotReady("transaction %s is %s", id, tx.Status)
		}
		return tx, nil
	}
	return nil, jobs.NotReady("transaction %s not found", id)
}

// missingHandle reports a success envelope that carries nothing to poll.
func missingHandle(kind string) error {
	return sdkerrors.ErrDecode(errors.New("response has no " + kind))
}

func requireFields(fields map[string]string) error {
	var missing []string
	for name, v := range fields {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	slices.Sort(missing)
	return sdkerrors.ErrUsage("missing required field(s): " + strings.Join(missing, ", "))
}

func validateQuantity(q string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(q))
	if err != nil {
		return sdkerrors.ErrUsage("quantity must be a decimal number, got " + quoteOrEmpty(q))
	}
	if !d.IsPositive() {
		return sdkerrors.ErrUsage("quantity must be greater than zero")
	}
	return nil
}

func quoteOrEmpty(s string) string {
	if s == "" {
		return "nothing"
	}
	return `"` + s + `"`
}
