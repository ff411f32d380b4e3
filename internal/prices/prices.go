// Package prices implements a client for DefiLlama compatible price APIs.
package prices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ErrUnavailable is returned when no price can be quoted for a token, either
// because the token is unknown or because the price service has no quote.
var ErrUnavailable = errors.New("no price is available for this token")

// cacheTTL is how long a current price quote is served from memory.
const cacheTTL = 5 * time.Minute

type cachedQuote struct {
	price   decimal.Decimal
	fetched time.Time
}

// Client quotes current and historical USD prices for tokens.
type Client struct {
	baseURL string
	coins   map[string]string // token symbol -> coingecko id

	httpClient *http.Client
	attempts   int
	backoff    time.Duration

	mu    sync.Mutex
	cache map[string]cachedQuote
}

// NewClient returns a Client. The coins map translates token symbols to the
// coingecko identifiers the price service understands; symbols missing from
// it are unavailable by definition.
func NewClient(baseURL string, coins map[string]string) *Client {
	return &Client{
		baseURL: baseURL,
		coins:   coins,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		attempts: 3,
		backoff:  250 * time.Millisecond,
		cache:    make(map[string]cachedQuote),
	}
}

// Current returns the current USD price for a token symbol. Quotes are
// cached for a few minutes since dashboard reads request the same handful
// of symbols over and over.
func (c *Client) Current(ctx context.Context, symbol string) (decimal.Decimal, error) {
	c.mu.Lock()
	if quote, ok := c.cache[symbol]; ok && time.Since(quote.fetched) < cacheTTL {
		c.mu.Unlock()
		return quote.price, nil
	}
	c.mu.Unlock()

	coin, ok := c.coins[symbol]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: unknown symbol %q", ErrUnavailable, symbol)
	}

	price, err := c.quote(ctx, fmt.Sprintf("%s/prices/current/coingecko:%s?searchWidth=4h", c.baseURL, coin), coin)
	if err != nil {
		return decimal.Zero, err
	}

	c.mu.Lock()
	c.cache[symbol] = cachedQuote{price: price, fetched: time.Now()}
	c.mu.Unlock()

	return price, nil
}

// Historical returns the USD price for a token symbol on a given day,
// quoted at noon UTC of that day.
func (c *Client) Historical(ctx context.Context, symbol string, day time.Time) (decimal.Decimal, error) {
	coin, ok := c.coins[symbol]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: unknown symbol %q", ErrUnavailable, symbol)
	}

	u := day.In(time.UTC)
	noon := time.Date(u.Year(), u.Month(), u.Day(), 12, 0, 0, 0, time.UTC)

	return c.quote(ctx, fmt.Sprintf("%s/prices/historical/%d/coingecko:%s?searchWidth=12h", c.baseURL, noon.Unix(), coin), coin)
}

type quoteResponse struct {
	Coins map[string]struct {
		Price float64 `json:"price"`
	} `json:"coins"`
}

func (c *Client) quote(ctx context.Context, url, coin string) (decimal.Decimal, error) {
	body, err := c.get(ctx, url)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnavailable, err)
	}

	var response quoteResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnavailable, err)
	}

	quoted, ok := response.Coins["coingecko:"+coin]
	if !ok || quoted.Price <= 0 {
		return decimal.Zero, ErrUnavailable
	}

	return decimal.NewFromFloat(quoted.Price), nil
}

// get performs a GET request with the client's retry budget.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	backoff := c.backoff

	for attempt := 0; attempt < c.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			log.Debug().Err(err).Int("attempt", attempt+1).Msg("price request failed")
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d", resp.StatusCode)
			continue
		}

		if err != nil {
			lastErr = err
			continue
		}

		return body, nil
	}

	return nil, lastErr
}
