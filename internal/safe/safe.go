// Package safe implements a client for the Safe Transaction Service, which
// is the only source for the owners who confirmed a multisig transaction.
package safe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"
)

// ErrExternalService is returned when the transaction service cannot be
// reached or returns an unexpected response.
var ErrExternalService = errors.New("the safe transaction service is unavailable")

// MultisigTransaction is one executed multisig transaction with the owners
// who confirmed it, sorted for a stable representation.
type MultisigTransaction struct {
	TransactionHash string
	Signers         []string
}

// Client is a Safe Transaction Service API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	pageSize   int
}

// NewClient returns a Client for a Safe Transaction Service instance.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		pageSize: 100,
	}
}

type listResponse struct {
	Results []struct {
		TransactionHash string `json:"transactionHash"`
		Confirmations   []struct {
			Owner string `json:"owner"`
		} `json:"confirmations"`
	} `json:"results"`
}

// ExecutedTransactions fetches the most recently executed multisig
// transactions of a Safe with the owners who confirmed each of them.
func (c *Client) ExecutedTransactions(ctx context.Context, address string) ([]MultisigTransaction, error) {
	url := fmt.Sprintf("%s/api/v1/safes/%s/multisig-transactions/?executed=true&limit=%d&ordering=-executionDate", c.baseURL, address, c.pageSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrExternalService, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrExternalService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrExternalService, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrExternalService, err)
	}

	var response listResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrExternalService, err)
	}

	transactions := make([]MultisigTransaction, 0, len(response.Results))
	for _, result := range response.Results {
		if result.TransactionHash == "" {
			continue
		}

		signers := make([]string, 0, len(result.Confirmations))
		for _, confirmation := range result.Confirmations {
			signers = append(signers, confirmation.Owner)
		}
		sort.Strings(signers)

		transactions = append(transactions, MultisigTransaction{
			TransactionHash: result.TransactionHash,
			Signers:         signers,
		})
	}

	return transactions, nil
}
