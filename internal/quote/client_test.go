package quote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// setupTestServer creates a new test server and a Client configured to use it.
func setupTestServer(handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)

	client := resty.New().SetBaseURL(server.URL)
	logger := zap.NewNop() // Use a no-op logger for tests

	c := &Client{
		client:  client,
		token:   "test_token",
		logger:  logger,
		limiter: rate.NewLimiter(rate.Inf, 1), // Allow all requests in tests
		backoff: time.Millisecond,             // Keep retry tests fast
	}

	return c, server
}

func TestLookup(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/quote", r.URL.Path)
			assert.Equal(t, "NFLX", r.URL.Query().Get("symbol"))
			assert.Equal(t, "test_token", r.URL.Query().Get("token"))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"symbol": "NFLX", "companyName": "Netflix, Inc.", "latestPrice": 500.25}`))
		})

		c, server := setupTestServer(handler)
		defer server.Close()

		// Act
		q, err := c.Lookup(context.Background(), "NFLX")

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, "NFLX", q.Symbol)
		assert.Equal(t, "Netflix, Inc.", q.Name)
		assert.Equal(t, "500.25", q.Price.String())
	})

	t.Run("UnknownSymbol", func(t *testing.T) {
		// Arrange
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`Unknown symbol`))
		})

		c, server := setupTestServer(handler)
		defer server.Close()

		// Act
		q, err := c.Lookup(context.Background(), "NOPE")

		// Assert
		assert.ErrorIs(t, err, ErrSymbolNotFound)
		assert.Nil(t, q)
	})

	t.Run("ServerError", func(t *testing.T) {
		// Arrange
		var calls int
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error": "upstream down"}`))
		})

		c, server := setupTestServer(handler)
		defer server.Close()

		// Act
		q, err := c.Lookup(context.Background(), "NFLX")

		// Assert
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to look up quote")
		assert.Nil(t, q)
		assert.Equal(t, 3, calls) // retried, then gave up
	})

	t.Run("UnparsablePrice", func(t *testing.T) {
		// Arrange
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"symbol": "NFLX", "companyName": "Netflix, Inc.", "latestPrice": "n/a"}`))
		})

		c, server := setupTestServer(handler)
		defer server.Close()

		// Act
		q, err := c.Lookup(context.Background(), "NFLX")

		// Assert
		assert.Error(t, err)
		assert.Nil(t, q)
	})
}
