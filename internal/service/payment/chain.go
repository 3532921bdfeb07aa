package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/aegatekeeper/backend/internal/apperr"
)

// SpendTxType is the value-transfer transaction type on the chain.
const SpendTxType = "SpendTx"

// ErrTxNotFound marks a hash the node does not know. Per the error policy
// this is a chain-query failure, not a validation failure: the caller could
// not check the payment.
var ErrTxNotFound = errors.New("transaction not found on chain")

// Transaction is the slice of chain data the verifier needs.
type Transaction struct {
	Hash        string
	Type        string
	SenderID    string
	RecipientID string
	Amount      *big.Int
}

// ChainClient fetches transactions by hash.
type ChainClient interface {
	TransactionByHash(ctx context.Context, txHash string) (*Transaction, error)
}

// NodeClient talks to an æternity node's HTTP API.
type NodeClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewNodeClient builds a client for the given node base URL.
func NewNodeClient(nodeURL string) *NodeClient {
	return &NodeClient{
		baseURL: strings.TrimRight(nodeURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// nodeTxEnvelope mirrors GET /v3/transactions/{hash}. Amounts arrive as JSON
// numbers larger than int64, so they are decoded via json.Number.
type nodeTxEnvelope struct {
	Hash string `json:"hash"`
	Tx   struct {
		Type        string      `json:"type"`
		SenderID    string      `json:"sender_id"`
		RecipientID string      `json:"recipient_id"`
		Amount      json.Number `json:"amount"`
	} `json:"tx"`
}

// TransactionByHash fetches one transaction from the node.
func (c *NodeClient) TransactionByHash(ctx context.Context, txHash string) (*Transaction, error) {
	url := fmt.Sprintf("%s/v3/transactions/%s", c.baseURL, txHash)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build node request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.ClassifyTransport(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrTxNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, apperr.Upstreamf("chain query", fmt.Errorf("node returned status %d", resp.StatusCode))
	}

	var envelope nodeTxEnvelope
	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&envelope); err != nil {
		return nil, apperr.Upstreamf("chain query", fmt.Errorf("decode node response: %w", err))
	}

	amount := new(big.Int)
	if raw := envelope.Tx.Amount.String(); raw != "" {
		if _, ok := amount.SetString(raw, 10); !ok {
			return nil, apperr.Upstreamf("chain query", fmt.Errorf("unparseable amount %q", raw))
		}
	}

	return &Transaction{
		Hash:        envelope.Hash,
		Type:        envelope.Tx.Type,
		SenderID:    envelope.Tx.SenderID,
		RecipientID: envelope.Tx.RecipientID,
		Amount:      amount,
	}, nil
}
