package gold

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultFetchTimeout = 5 * time.Second
	maxErrorBody        = 4 << 10
	apiKeyHeader        = "x-access-token"
)

// Client talks to a GoldAPI-compatible endpoint. The API key is looked up on
// every call so a key provisioned after startup is picked up without a restart.
type Client struct {
	URL     string
	HTTP    *http.Client
	APIKey  func() string
	Limiter *rate.Limiter
	Now     func() time.Time
}

// EnvAPIKey reads the named environment variable at call time.
func EnvAPIKey(name string) func() string {
	return func() string { return strings.TrimSpace(os.Getenv(name)) }
}

func NewClient(url string, timeout time.Duration, apiKey func() string) *Client {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &Client{
		URL: strings.TrimRight(url, "/"),
		HTTP: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     30 * time.Second,
			},
		},
		APIKey: apiKey,
		Now:    time.Now,
	}
}

// WithRateLimit caps upstream calls at rps; zero or negative leaves the client unlimited.
func (c *Client) WithRateLimit(rps float64) *Client {
	if rps > 0 {
		c.Limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return c
}

func (c *Client) CheckCredentials() error {
	if c.APIKey == nil || c.APIKey() == "" {
		return &Error{Kind: KindMissingCredentials, Err: fmt.Errorf("gold api key is not configured")}
	}
	return nil
}

type spotResponse struct {
	PriceGram24k *float64 `json:"price_gram_24k"`
}

func (c *Client) FetchSpot(ctx context.Context) (Price, error) {
	if err := c.CheckCredentials(); err != nil {
		return Price{}, err
	}
	key := c.APIKey()

	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return Price{}, &Error{Kind: KindUnreachable, Err: fmt.Errorf("rate limit wait: %w", err)}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return Price{}, &Error{Kind: KindUnreachable, Err: err}
	}
	req.Header.Set(apiKeyHeader, key)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Price{}, &Error{Kind: KindUnreachable, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		kind := KindUpstreamHTTP
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			kind = KindUnauthorized
		}
		return Price{}, &Error{
			Kind:   kind,
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(body)),
		}
	}

	var sr spotResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return Price{}, &Error{Kind: KindMalformed, Err: fmt.Errorf("decode response: %w", err)}
	}
	if sr.PriceGram24k == nil {
		return Price{}, &Error{Kind: KindMalformed, Err: fmt.Errorf("response has no price_gram_24k")}
	}
	v := *sr.PriceGram24k
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return Price{}, &Error{Kind: KindMalformed, Err: fmt.Errorf("price_gram_24k=%v is not a positive number", v)}
	}

	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return Price{PerGram: v, ObservedAt: now()}, nil
}
