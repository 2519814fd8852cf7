package gold_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"GoldCatalog/internal/gold"
)

func staticKey(k string) func() string { return func() string { return k } }

func newUpstream(t *testing.T, status int, body string, calls *int32) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		if got := r.Header.Get("x-access-token"); got != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"No API Key provided"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestClient_FetchSpot_OK(t *testing.T) {
	ts := newUpstream(t, http.StatusOK, `{"metal":"XAU","currency":"USD","price":2400.5,"price_gram_24k":77.18}`, nil)

	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c := gold.NewClient(ts.URL, time.Second, staticKey("secret"))
	c.Now = func() time.Time { return fixed }

	p, err := c.FetchSpot(context.Background())
	if err != nil {
		t.Fatalf("FetchSpot: %v", err)
	}
	if p.PerGram != 77.18 {
		t.Fatalf("per_gram=%v want=77.18", p.PerGram)
	}
	if !p.ObservedAt.Equal(fixed) {
		t.Fatalf("observed_at=%v want=%v", p.ObservedAt, fixed)
	}
}

func TestClient_MissingKey_NoUpstreamCall(t *testing.T) {
	var calls int32
	ts := newUpstream(t, http.StatusOK, `{"price_gram_24k":1}`, &calls)

	c := gold.NewClient(ts.URL, time.Second, staticKey(""))
	_, err := c.FetchSpot(context.Background())
	if !errors.Is(err, gold.ErrMissingCredentials) {
		t.Fatalf("err=%v want MissingCredentials", err)
	}
	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Fatalf("upstream calls=%d want=0", n)
	}
}

func TestClient_KeyIsReadPerCall(t *testing.T) {
	ts := newUpstream(t, http.StatusOK, `{"price_gram_24k":10}`, nil)

	key := ""
	c := gold.NewClient(ts.URL, time.Second, func() string { return key })

	if _, err := c.FetchSpot(context.Background()); !errors.Is(err, gold.ErrMissingCredentials) {
		t.Fatalf("err=%v want MissingCredentials", err)
	}

	key = "secret"
	if _, err := c.FetchSpot(context.Background()); err != nil {
		t.Fatalf("after key set: %v", err)
	}
}

func TestClient_Unauthorized_CarriesStatusAndBody(t *testing.T) {
	ts := newUpstream(t, http.StatusOK, `{}`, nil)

	c := gold.NewClient(ts.URL, time.Second, staticKey("wrong"))
	_, err := c.FetchSpot(context.Background())
	if !errors.Is(err, gold.ErrUnauthorized) {
		t.Fatalf("err=%v want Unauthorized", err)
	}
	ge, ok := gold.AsError(err)
	if !ok {
		t.Fatalf("not a *gold.Error: %T", err)
	}
	if ge.Status != http.StatusUnauthorized {
		t.Fatalf("status=%d want=401", ge.Status)
	}
	if ge.Body != `{"error":"No API Key provided"}` {
		t.Fatalf("body=%q", ge.Body)
	}
}

func TestClient_UpstreamHTTPError(t *testing.T) {
	ts := newUpstream(t, http.StatusTooManyRequests, `{"error":"quota"}`, nil)

	c := gold.NewClient(ts.URL, time.Second, staticKey("secret"))
	_, err := c.FetchSpot(context.Background())
	if !errors.Is(err, gold.ErrUpstreamHTTP) {
		t.Fatalf("err=%v want UpstreamHTTPError", err)
	}
	ge, _ := gold.AsError(err)
	if ge.Status != http.StatusTooManyRequests {
		t.Fatalf("status=%d want=429", ge.Status)
	}
}

func TestClient_Malformed(t *testing.T) {
	cases := map[string]string{
		"missing field": `{"price":2400}`,
		"wrong type":    `{"price_gram_24k":"77.1"}`,
		"not json":      `<html>`,
		"zero":          `{"price_gram_24k":0}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			ts := newUpstream(t, http.StatusOK, body, nil)
			c := gold.NewClient(ts.URL, time.Second, staticKey("secret"))

			_, err := c.FetchSpot(context.Background())
			if !errors.Is(err, gold.ErrMalformed) {
				t.Fatalf("err=%v want MalformedUpstreamResponse", err)
			}
		})
	}
}

func TestClient_Timeout_IsUnreachable(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(ts.Close)
	t.Cleanup(func() { close(release) })

	c := gold.NewClient(ts.URL, 50*time.Millisecond, staticKey("secret"))
	_, err := c.FetchSpot(context.Background())
	if !errors.Is(err, gold.ErrUnreachable) {
		t.Fatalf("err=%v want UpstreamUnreachable", err)
	}
}

func TestClient_ConnectionRefused_IsUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c := gold.NewClient(url, time.Second, staticKey("secret"))
	_, err := c.FetchSpot(context.Background())
	if !errors.Is(err, gold.ErrUnreachable) {
		t.Fatalf("err=%v want UpstreamUnreachable", err)
	}
}

func TestClient_RateLimitWaitHonoursContext(t *testing.T) {
	var calls int32
	ts := newUpstream(t, http.StatusOK, `{"price_gram_24k":10}`, &calls)

	c := gold.NewClient(ts.URL, time.Second, staticKey("secret")).WithRateLimit(0.001)

	if _, err := c.FetchSpot(context.Background()); err != nil {
		t.Fatalf("first fetch: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.FetchSpot(ctx)
	if !errors.Is(err, gold.ErrUnreachable) {
		t.Fatalf("err=%v want UpstreamUnreachable", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("upstream calls=%d want=1", n)
	}
}
