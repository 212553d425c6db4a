package okto

import (
	"context"

	"github.com/oktotech/okto-go/internal/api"
)

// GetPortfolio returns the holdings of the logged-in user.
func (c *Client) GetPortfolio(ctx context.Context) (data *PortfolioData, err error) {
	ctx, done := c.operation(ctx, "GetPortfolio", false)
	defer func() { done(err) }()
	out, err := api.GetJSON[PortfolioData](ctx, c.gateway, PathPortfolio, nil)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSupportedTokens returns the token catalog.
func (c *Client) GetSupportedTokens(ctx context.Context) (data *TokensData, err error) {
	ctx, done := c.operation(ctx, "GetSupportedTokens", false)
	defer func() { done(err) }()
	out, err := api.GetJSON[TokensData](ctx, c.gateway, PathSupportedTokens, nil)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSupportedNetworks returns the network catalog.
func (c *Client) GetSupportedNetworks(ctx context.Context) (data *NetworkData, err error) {
	ctx, done := c.operation(ctx, "GetSupportedNetworks", false)
	defer func() { done(err) }()
	out, err := api.GetJSON[NetworkData](ctx, c.gateway, PathSupportedNetworks, nil)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetUserDetails returns the profile of the logged-in user.
func (c *Client) GetUserDetails(ctx context.Context) (user *User, err error) {
	ctx, done := c.operation(ctx, "GetUserDetails", false)
	defer func() { done(err) }()
	out, err := api.GetJSON[User](ctx, c.gateway, PathUserFromToken, nil)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetWallets returns the wallets of the logged-in user.
func (c *Client) GetWallets(ctx context.Context) (data *WalletData, err error) {
	ctx, done := c.operation(ctx, "GetWallets", false)
	defer func() { done(err) }()
	out, err := api.GetJSON[WalletData](ctx, c.gateway, PathWidgetWallet, nil)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateWallet provisions wallets on every supported network.
func (c *Client) CreateWallet(ctx context.Context) (data *WalletData, err error) {
	ctx, done := c.operation(ctx, "CreateWallet", true)
	defer func() { done(err) }()
	out, err := api.PostJSON[WalletData](ctx, c.gateway, PathWallet, nil)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// OrderHistory lists token orders.
func (c *Client) OrderHistory(ctx context.Context, q OrderQuery) (data *OrderData, err error) {
	ctx, done := c.operation(ctx, "OrderHistory", false)
	defer func() { done(err) }()
	out, err := api.GetJSON[OrderData](ctx, c.gateway, PathOrders, q.values())
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetNftOrderDetails lists NFT orders.
func (c *Client) GetNftOrderDetails(ctx context.Context, q NftOrderDetailsQuery) (data *NftOrderDetailsData, err error) {
	ctx, done := c.operation(ctx, "GetNftOrderDetails", false)
	defer func() { done(err) }()
	out, err := api.GetJSON[NftOrderDetailsData](ctx, c.gateway, PathNftOrderDetails, q.values())
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetRawTransactionStatus reports the state of a raw transaction.
func (c *Client) GetRawTransactionStatus(ctx context.Context, q RawTransactionStatusQuery) (data *RawTransactionStatusData, err error) {
	ctx, done := c.operation(ctx, "GetRawTransactionStatus", false)
	defer func() { done(err) }()
	out, err := api.GetJSON[RawTransactionStatusData](ctx, c.gateway, PathRawTxStatus, q.values())
	if err != nil {
		return nil, err
	}
	return &out, nil
}
