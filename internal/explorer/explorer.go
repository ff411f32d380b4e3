// Package explorer implements a client for Etherscan V2 compatible
// block-explorer APIs.
package explorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrExternalService is returned when the explorer cannot be reached or
// returns a response that cannot be parsed, after all retries are exhausted.
var ErrExternalService = errors.New("the chain explorer is unavailable")

// Kind selects which transaction list of an address is fetched.
type Kind string

const (
	KindNormal   Kind = "txlist"         // native token transactions
	KindToken    Kind = "tokentx"        // token transfer events
	KindInternal Kind = "txlistinternal" // internal value transfers
)

// Kinds lists all transaction kinds an ingestion run fetches.
var Kinds = []Kind{KindNormal, KindToken, KindInternal}

// RawTransaction is one transaction as the explorer reports it. All fields
// are strings on the wire.
type RawTransaction struct {
	Hash            string `json:"hash"`
	BlockNumber     string `json:"blockNumber"`
	TimeStamp       string `json:"timeStamp"`
	From            string `json:"from"`
	To              string `json:"to"`
	Value           string `json:"value"`
	ContractAddress string `json:"contractAddress"`
	TokenSymbol     string `json:"tokenSymbol"`
	TokenName       string `json:"tokenName"`
	TokenDecimal    string `json:"tokenDecimal"`
	GasUsed         string `json:"gasUsed"`
	GasPrice        string `json:"gasPrice"`
	IsError         string `json:"isError"`
}

// Block returns the block number, 0 if it cannot be parsed.
func (r RawTransaction) Block() uint64 {
	block, _ := strconv.ParseUint(r.BlockNumber, 10, 64)
	return block
}

// Time returns the block timestamp in UTC.
func (r RawTransaction) Time() time.Time {
	seconds, _ := strconv.ParseInt(r.TimeStamp, 10, 64)
	return time.Unix(seconds, 0).In(time.UTC)
}

// Decimals returns the reported token decimals, or the fallback when the
// explorer did not report any.
func (r RawTransaction) Decimals(fallback int32) int32 {
	if r.TokenDecimal == "" {
		return fallback
	}

	parsed, err := strconv.ParseInt(r.TokenDecimal, 10, 32)
	if err != nil {
		return fallback
	}

	return int32(parsed)
}

// Failed reports whether the transaction reverted on chain.
func (r RawTransaction) Failed() bool {
	return r.IsError == "1"
}

// Client is a chain-explorer API client with a bounded retry budget.
type Client struct {
	baseURL string
	apiKey  string
	chainID int

	httpClient *http.Client
	attempts   int
	backoff    time.Duration
}

// NewClient returns a Client for an Etherscan V2 compatible API.
func NewClient(baseURL, apiKey string, chainID int) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		chainID: chainID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		attempts: 3,
		backoff:  500 * time.Millisecond,
	}
}

// envelope is the explorer's response wrapper. Result is a list on success
// and a plain string on errors, so it is decoded in a second step.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// List fetches one page of an address' transactions, oldest first, starting
// at the given block. A page shorter than pageSize means the end of the
// history is reached.
func (c *Client) List(ctx context.Context, address string, kind Kind, startBlock uint64, page, pageSize int) ([]RawTransaction, error) {
	params := url.Values{}
	params.Set("module", "account")
	params.Set("action", string(kind))
	params.Set("address", address)
	params.Set("startblock", strconv.FormatUint(startBlock, 10))
	params.Set("endblock", "99999999")
	params.Set("sort", "asc")
	params.Set("page", strconv.Itoa(page))
	params.Set("offset", strconv.Itoa(pageSize))
	params.Set("chainid", strconv.Itoa(c.chainID))

	if c.apiKey != "" {
		params.Set("apikey", c.apiKey)
	}

	body, err := c.get(ctx, fmt.Sprintf("%s?%s", c.baseURL, params.Encode()))
	if err != nil {
		return nil, err
	}

	var response envelope
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrExternalService, err)
	}

	var transactions []RawTransaction
	if err := json.Unmarshal(response.Result, &transactions); err != nil {
		// Status 0 with the "No transactions found" message is the end of
		// the history, not an error. Everything else is.
		if response.Status == "0" && strings.Contains(response.Message, "No transactions found") {
			return nil, nil
		}

		return nil, fmt.Errorf("%w: unexpected result %q", ErrExternalService, response.Result)
	}

	return transactions, nil
}

// get performs a GET request with the client's retry budget. Responses with
// server error status codes are retried with exponential backoff.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	backoff := c.backoff

	for attempt := 0; attempt < c.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %s", ErrExternalService, ctx.Err())
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		body, retryable, err := c.tryGet(ctx, url)
		if err == nil {
			return body, nil
		}

		lastErr = err
		if !retryable {
			break
		}

		log.Debug().Err(err).Int("attempt", attempt+1).Msg("explorer request failed")
	}

	return nil, fmt.Errorf("%w: %s", ErrExternalService, lastErr)
}

func (c *Client) tryGet(ctx context.Context, url string) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Rate limits and server errors are worth retrying, everything
		// else is not going to get better.
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retry, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}

	return body, false, nil
}
