package okto

import (
	"encoding/json"
	"net/url"
	"strconv"
)

// Order states reported by the job endpoints.
const (
	StatusPending = "PENDING"
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// IsTerminal reports whether an order status will no longer change.
func IsTerminal(status string) bool {
	return status == StatusSuccess || status == StatusFailed
}

// Portfolio is one holding.
type Portfolio struct {
	TokenName    string `json:"token_name"`
	TokenImage   string `json:"token_image"`
	TokenAddress string `json:"token_address"`
	NetworkName  string `json:"network_name"`
	Quantity     string `json:"quantity"`
	AmountInInr  string `json:"amount_in_inr"`
}

// PortfolioData is the portfolio endpoint payload.
type PortfolioData struct {
	Total  int         `json:"total"`
	Tokens []Portfolio `json:"tokens"`
}

// Token is a supported token.
type Token struct {
	TokenName    string `json:"token_name"`
	TokenAddress string `json:"token_address"`
	NetworkName  string `json:"network_name"`
}

// TokensData is the supported tokens payload.
type TokensData struct {
	Tokens []Token `json:"tokens"`
}

// Network is a supported chain.
type Network struct {
	NetworkName string `json:"network_name"`
	ChainID     string `json:"chain_id"`
}

// NetworkData is the supported networks payload.
type NetworkData struct {
	Network []Network `json:"network"`
}

// User is the profile behind the current access token.
type User struct {
	Email        string `json:"email"`
	UserID       string `json:"user_id"`
	CreatedAt    string `json:"created_at"`
	Freezed      bool   `json:"freezed"`
	FreezeReason string `json:"freeze_reason"`
}

// Wallet is a per-network wallet address.
type Wallet struct {
	NetworkName string `json:"network_name"`
	Address     string `json:"address"`
	Success     bool   `json:"success"`
}

// WalletData is the wallets payload.
type WalletData struct {
	Wallets []Wallet `json:"wallets"`
}

// Order is one entry of the order history.
type Order struct {
	OrderID         string `json:"order_id"`
	NetworkName     string `json:"network_name"`
	OrderType       string `json:"order_type"`
	Status          string `json:"status"`
	TransactionHash string `json:"transaction_hash"`
}

// OrderData is the order history payload.
type OrderData struct {
	Total int     `json:"total"`
	Jobs  []Order `json:"jobs"`
}

// OrderQuery filters the order history. Zero fields are not sent.
type OrderQuery struct {
	Offset     int
	Limit      int
	OrderID    string
	OrderState string
}

func (q OrderQuery) values() url.Values {
	v := url.Values{}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	v.Set("order_id", q.OrderID)
	v.Set("order_state", q.OrderState)
	return v
}

// NftOrderDetails is one NFT order.
type NftOrderDetails struct {
	ID                       string `json:"id"`
	ExplorerSmartContractURL string `json:"explorer_smart_contract_url"`
	Description              string `json:"description"`
	Type                     string `json:"type"`
	CollectionID             string `json:"collection_id"`
	CollectionName           string `json:"collection_name"`
	NftTokenID               string `json:"nft_token_id"`
	TokenURI                 string `json:"token_uri"`
	Image                    string `json:"image"`
	CollectionAddress        string `json:"collection_address"`
	CollectionImage          string `json:"collection_image"`
	NetworkName              string `json:"network_name"`
	NetworkID                string `json:"network_id"`
	NftName                  string `json:"nft_name"`
	Status                   string `json:"status,omitempty"`
}

// NftOrderDetailsData is the NFT order details payload.
type NftOrderDetailsData struct {
	Count int               `json:"count"`
	Nfts  []NftOrderDetails `json:"nfts"`
}

// NftOrderDetailsQuery filters NFT orders. Zero fields are not sent.
type NftOrderDetailsQuery struct {
	Page    int
	Size    int
	OrderID string
}

func (q NftOrderDetailsQuery) values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Size > 0 {
		v.Set("size", strconv.Itoa(q.Size))
	}
	v.Set("order_id", q.OrderID)
	return v
}

// RawTransactionStatus is the state of a submitted raw transaction.
type RawTransactionStatus struct {
	OrderID         string `json:"order_id"`
	NetworkName     string `json:"network_name"`
	Status          string `json:"status"`
	TransactionHash string `json:"transaction_hash"`
}

// RawTransactionStatusData is the raw transaction status payload.
type RawTransactionStatusData struct {
	Total int                    `json:"total"`
	Jobs  []RawTransactionStatus `json:"jobs"`
}

// RawTransactionStatusQuery selects a raw transaction.
type RawTransactionStatusQuery struct {
	OrderID string
}

func (q RawTransactionStatusQuery) values() url.Values {
	v := url.Values{}
	v.Set("order_id", q.OrderID)
	return v
}

// TransferTokens is a token transfer request.
type TransferTokens struct {
	NetworkName      string `json:"network_name"`
	TokenAddress     string `json:"token_address"`
	Quantity         string `json:"quantity"`
	RecipientAddress string `json:"recipient_address"`
}

// TransferTokensData is the job handle of a submitted token transfer.
type TransferTokensData struct {
	OrderID string `json:"orderId"`
}

// TransferNft is an NFT transfer request.
type TransferNft struct {
	OperationType     string `json:"operation_type"`
	NetworkName       string `json:"network_name"`
	CollectionAddress string `json:"collection_address"`
	CollectionName    string `json:"collection_name"`
	Quantity          string `json:"quantity"`
	RecipientAddress  string `json:"recipient_address"`
	NftAddress        string `json:"nft_address"`
}

// TransferNftData is the job handle of a submitted NFT transfer.
type TransferNftData struct {
	OrderID string `json:"order_id"`
}

// ExecuteRawTransaction submits a chain-specific transaction object as is.
type ExecuteRawTransaction struct {
	NetworkName string          `json:"network_name"`
	Transaction json.RawMessage `json:"transaction"`
}

// ExecuteRawTransactionData is the job handle of a submitted raw transaction.
type ExecuteRawTransactionData struct {
	JobID string `json:"jobId"`
}
