package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"paper-trading-go/internal/config"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrSymbolNotFound is returned when the provider does not know the symbol.
// Callers treat it as a validation failure, not an outage.
var ErrSymbolNotFound = errors.New("symbol not found")

// Quote is the provider's answer for a single symbol.
type Quote struct {
	Symbol string
	Name   string
	Price  decimal.Decimal
}

// LookupClient defines the interface for the market quote provider.
type LookupClient interface {
	Lookup(ctx context.Context, symbol string) (*Quote, error)
}

// Client is a client for the HTTP quote provider.
// It implements LookupClient.
type Client struct {
	client  *resty.Client
	token   string
	logger  *zap.Logger
	limiter *rate.Limiter
	backoff time.Duration // base for exponential retry backoff
}

// ensure Client implements the interface
var _ LookupClient = (*Client)(nil)

// NewClient creates a new quote provider client.
func NewClient(cfg *config.Quote, logger *zap.Logger) *Client {
	client := resty.New().SetBaseURL(cfg.BaseURL)

	// rate.Limit is requests per second.
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &Client{
		client:  client,
		token:   cfg.Token,
		logger:  logger,
		limiter: limiter,
		backoff: time.Second,
	}
}

// quoteResponse mirrors the provider's JSON payload.
type quoteResponse struct {
	Symbol      string      `json:"symbol"`
	CompanyName string      `json:"companyName"`
	LatestPrice json.Number `json:"latestPrice"`
}

// Lookup fetches the current quote for a symbol. An unknown symbol maps to
// ErrSymbolNotFound; transport and server failures surface as plain errors.
func (c *Client) Lookup(ctx context.Context, symbol string) (*Quote, error) {
	req := c.client.R().
		SetContext(ctx).
		SetQueryParam("symbol", symbol).
		SetQueryParam("token", c.token).
		SetResult(&quoteResponse{})

	resp, err := c.doRequest(ctx, "GET", "/quote", req)
	if err != nil {
		if resp != nil && resp.StatusCode() == http.StatusNotFound {
			return nil, ErrSymbolNotFound
		}
		c.logger.Error("Failed to look up quote", zap.String("symbol", symbol), zap.Error(err))
		return nil, fmt.Errorf("failed to look up quote for %s: %w", symbol, err)
	}

	result := resp.Result().(*quoteResponse)
	price, err := decimal.NewFromString(result.LatestPrice.String())
	if err != nil {
		return nil, fmt.Errorf("provider returned unparsable price %q for %s: %w", result.LatestPrice, symbol, err)
	}

	return &Quote{
		Symbol: result.Symbol,
		Name:   result.CompanyName,
		Price:  price,
	}, nil
}

// doRequest handles the actual request execution with rate limiting and retry logic.
// The last response is returned alongside any error so callers can inspect the status.
func (c *Client) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		// Wait for the rate limiter
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("url", c.client.BaseURL+url))
		resp, err = req.Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil // Success
		}

		// Analyze error and decide whether to retry
		shouldRetry := false
		var retryAfter time.Duration

		if resp != nil && resp.StatusCode() != 0 {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests {
				shouldRetry = true
				retryAfterHeader := resp.Header().Get("Retry-After")
				if seconds, err := strconv.Atoi(retryAfterHeader); err == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 { // Server errors
				shouldRetry = true
			}
		} else { // Network or other client-side errors
			shouldRetry = true
		}

		if !shouldRetry {
			return resp, fmt.Errorf("request failed with status %s: %s", resp.Status(), resp.String())
		}

		// If we should retry, calculate wait time
		if retryAfter == 0 {
			// Exponential backoff: 1x, 2x, 4x the base
			retryAfter = time.Duration(math.Pow(2, float64(i))) * c.backoff
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return resp, ctx.Err()
		}
	}

	return resp, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
}
