// Package shopify implements the outbound dispatch contract against the
// Shopify Admin REST API: product tag updates and collection
// reconciliation, behind a rate limiter, retry policy, and circuit
// breaker.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/fitmentworks/fitment-engine/engine/domain"
	"github.com/fitmentworks/fitment-engine/pkg/fn"
	"github.com/fitmentworks/fitment-engine/pkg/resilience"
)

// apiVersion pins the Admin API version all paths are built against.
const apiVersion = "2023-10"

// Config for the Shopify client. Domain is the shop host
// ("example.myshopify.com"); a full URL is accepted as-is, which is what
// tests use.
type Config struct {
	Domain string
	Token  string
	// RPS throttles outbound calls; Shopify's REST bucket refills at 2/s.
	RPS   float64
	Burst int
	// HTTPClient overrides the default traced client.
	HTTPClient *http.Client
	Retry      fn.RetryOpts
	Breaker    resilience.BreakerOpts
	Log        *slog.Logger
}

// Client talks to one shop. Implements the pipeline's Dispatcher contract.
type Client struct {
	base    string
	token   string
	http    *http.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	retry   fn.RetryOpts
	log     *slog.Logger
}

// New validates cfg and builds a Client.
func New(cfg Config) (*Client, error) {
	if cfg.Domain == "" {
		return nil, fmt.Errorf("shopify: domain is required")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("shopify: access token is required")
	}
	base := cfg.Domain
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 4
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = fn.DefaultRetry
	}
	cfg.Retry.RetryIf = retryable
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	return &Client{
		base:    strings.TrimRight(base, "/") + "/admin/api/" + apiVersion,
		token:   cfg.Token,
		http:    cfg.HTTPClient,
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		breaker: resilience.NewBreaker(cfg.Breaker),
		retry:   cfg.Retry,
		log:     cfg.Log,
	}, nil
}

// apiError is a non-2xx response. 422 is surfaced as a distinct value
// because "collect already exists" is a success for our purposes.
type apiError struct {
	status int
	body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("shopify: status %d: %s", e.status, e.body)
}

// retryable: 429 and 5xx responses plus transport errors. Other API
// statuses are permanent for a given request.
func retryable(err error) bool {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae.status == http.StatusTooManyRequests || ae.status >= 500
	}
	return true
}

func statusOf(err error) int {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae.status
	}
	return 0
}

// do runs one JSON request through limiter, breaker, and retry. out may be
// nil when the response body is irrelevant.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("shopify: encode %s %s: %w", method, path, err)
		}
	}

	return c.breaker.Call(ctx, func(ctx context.Context) error {
		_, err := fn.Retry(ctx, c.retry, func(ctx context.Context) fn.Result[struct{}] {
			if err := c.limiter.Wait(ctx); err != nil {
				return fn.Err[struct{}](err)
			}
			if err := c.once(ctx, method, path, payload, out); err != nil {
				return fn.Err[struct{}](err)
			}
			return fn.Ok(struct{}{})
		}).Unwrap()
		return err
	})
}

func (c *Client) once(ctx context.Context, method, path string, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("X-Shopify-Access-Token", c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &apiError{status: resp.StatusCode, body: strings.TrimSpace(string(b))}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("shopify: decode %s %s: %w", method, path, err)
		}
	}
	return nil
}

// idValue renders a product ID the way the platform sent it: numeric IDs
// stay numbers in the JSON body, anything else stays a string.
func idValue(p domain.ProductID) any {
	if n, err := strconv.ParseInt(string(p), 10, 64); err == nil {
		return n
	}
	return string(p)
}

// ApplyTags replaces the product's tag field with the given set, joined
// with ", " as the Admin API expects.
func (c *Client) ApplyTags(ctx context.Context, productID domain.ProductID, tags []string) error {
	body := map[string]any{
		"product": map[string]any{
			"id":   idValue(productID),
			"tags": strings.Join(tags, ", "),
		},
	}
	return c.do(ctx, http.MethodPut, "/products/"+url.PathEscape(string(productID))+".json", body, nil)
}

type collection struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// EnsureCollection finds the custom collection titled tag, creating it if
// absent, and returns its identifier. Title matching is case-insensitive
// because the API lookup is.
func (c *Client) EnsureCollection(ctx context.Context, tag string) (string, error) {
	var listing struct {
		Collections []collection `json:"custom_collections"`
	}
	q := "/custom_collections.json?title=" + url.QueryEscape(tag)
	if err := c.do(ctx, http.MethodGet, q, nil, &listing); err != nil {
		return "", err
	}
	for _, coll := range listing.Collections {
		if strings.EqualFold(coll.Title, tag) {
			return strconv.FormatInt(coll.ID, 10), nil
		}
	}

	var created struct {
		Collection collection `json:"custom_collection"`
	}
	body := map[string]any{"custom_collection": map[string]any{"title": tag}}
	if err := c.do(ctx, http.MethodPost, "/custom_collections.json", body, &created); err != nil {
		return "", err
	}
	c.log.Info("collection created", "title", tag, "id", created.Collection.ID)
	return strconv.FormatInt(created.Collection.ID, 10), nil
}

// AddProductToCollection links the product into a collection via a
// collect. A 422 means the collect already exists, which is the desired
// end state.
func (c *Client) AddProductToCollection(ctx context.Context, collectionID string, productID domain.ProductID) error {
	collID, err := strconv.ParseInt(collectionID, 10, 64)
	if err != nil {
		return fmt.Errorf("shopify: bad collection id %q: %w", collectionID, err)
	}
	body := map[string]any{
		"collect": map[string]any{
			"collection_id": collID,
			"product_id":    idValue(productID),
		},
	}
	err = c.do(ctx, http.MethodPost, "/collects.json", body, nil)
	if statusOf(err) == http.StatusUnprocessableEntity {
		return nil
	}
	return err
}
