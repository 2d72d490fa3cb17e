package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hwbot/partswatch/internal/core/domain"
	"github.com/hwbot/partswatch/internal/infra/storage"
	"github.com/hwbot/partswatch/internal/ingest/metrics"
)

// Config holds fetch client configuration. PageSizes and Delays are the two
// externally supplied escalation axes: the endpoint's rate limiting shows up
// either as a transport error or as a non-success status, so the client
// escalates request pacing and batch size independently.
type Config struct {
	BaseURL string
	APIKey  string
	APIHost string

	PageSizes []int
	Delays    []time.Duration

	BaseTimeout    time.Duration
	TimeoutStep    time.Duration
	TimeoutCeiling time.Duration
	MaxRequests    int
}

func (c Config) withDefaults() Config {
	if len(c.PageSizes) == 0 {
		c.PageSizes = []int{10, 20, 40}
	}
	if len(c.Delays) == 0 {
		c.Delays = []time.Duration{time.Second, 5 * time.Second, 15 * time.Second}
	}
	if c.BaseTimeout == 0 {
		c.BaseTimeout = 5 * time.Second
	}
	if c.TimeoutStep == 0 {
		c.TimeoutStep = 5 * time.Second
	}
	if c.TimeoutCeiling == 0 {
		c.TimeoutCeiling = 15 * time.Second
	}
	if c.MaxRequests == 0 {
		c.MaxRequests = 50
	}
	return c
}

// Client retrieves a category's listings from the product search endpoint
// page by page and stores them through the component repository.
type Client struct {
	cfg        Config
	httpClient *http.Client
	components storage.ComponentRepository
	log        *slog.Logger

	// sleep is swapped out in tests
	sleep func(ctx context.Context, d time.Duration)
}

// NewClient creates a fetch client. The timeout escalates per request, so
// the underlying http.Client carries no timeout of its own.
func NewClient(cfg Config, components storage.ComponentRepository) *Client {
	return &Client{
		cfg: cfg.withDefaults(),
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		components: components,
		log:        slog.Default().With("component", "fetcher"),
		sleep:      sleepCtx,
	}
}

// WithTransport replaces the HTTP transport. Tests use this to install a
// mock transport.
func (c *Client) WithTransport(rt http.RoundTripper) *Client {
	c.httpClient.Transport = rt
	return c
}

// Refresh runs one fetch session for a category starting at the given
// offset. It returns true iff at least one page was successfully stored.
// The stored set is replaced wholesale: existing records are deleted before
// the first page of the session is inserted.
func (c *Client) Refresh(ctx context.Context, category domain.Category, offset int) bool {
	s := newSession(c.cfg, offset)

	for {
		page, status, err := c.getPage(ctx, category, s.pageSize(c.cfg), s.offset, s.timeout)
		switch {
		case err != nil:
			// Transient transport failure: escalate timeout and pacing.
			c.log.Warn("request to product endpoint failed",
				"category", category,
				"offset", s.offset,
				"limit", s.pageSize(c.cfg),
				"timeout", s.timeout,
				"error", err)
			metrics.FetchRequestsTotal.WithLabelValues(string(category), "error").Inc()
			if s.onTransient(c.cfg) {
				return s.stored
			}

		case status != http.StatusOK:
			// Endpoint-reported failure: treated as exhaustion of this
			// offset under the current parameters, not as an outage.
			metrics.FetchRequestsTotal.WithLabelValues(string(category), "status").Inc()
			if s.onEndpointFailure(c.cfg) {
				return s.stored
			}
			if s.countRequest(c.cfg) {
				return s.stored
			}

		default:
			metrics.FetchRequestsTotal.WithLabelValues(string(category), "ok").Inc()
			c.storePage(ctx, category, s, page)
			if s.countRequest(c.cfg) {
				return s.stored
			}
		}

		// Every iteration pauses, whatever the outcome.
		c.sleep(ctx, s.delay(c.cfg))
		if ctx.Err() != nil {
			return s.stored
		}
	}
}

// storePage normalizes and persists one fetched page. On the first stored
// page of the session every existing record of the category is deleted
// first, so no stale generation survives. An insertion failure is logged
// with the payload and skipped; the session continues.
func (c *Client) storePage(ctx context.Context, category domain.Category, s *session, page []rawItem) {
	records := make([]domain.Component, 0, len(page))
	for _, item := range page {
		records = append(records, item.toComponent(category))
	}

	if !s.stored {
		if err := c.components.DeleteCategory(ctx, category); err != nil {
			c.log.Error("failed to clear category before reload",
				"category", category, "error", err)
		}
	}

	if err := c.components.InsertBatch(ctx, records); err != nil {
		c.log.Error("fetched page was not stored",
			"category", category,
			"offset", s.offset,
			"records", records,
			"error", err)
	}

	count, err := c.components.Count(ctx, category)
	if err != nil {
		c.log.Error("failed to count stored records", "category", category, "error", err)
		count = s.offset + len(records)
	}
	metrics.StoredRecords.WithLabelValues(string(category)).Set(float64(count))

	s.onSuccess(count)
}

// rawItem is one listing as returned by the endpoint. Prices arrive in
// major currency units as decimals.
type rawItem map[string]any

func (it rawItem) str(key string) string {
	if v, ok := it[key].(string); ok {
		return v
	}
	return ""
}

func (it rawItem) toComponent(category domain.Category) domain.Component {
	c := domain.Component{
		ID:       it.str("id"),
		Category: category,
		Title:    it.str("title"),
		Link:     it.str("link"),
		Image:    it.str("img"),
		Brand:    it.str("brand"),
		Model:    it.str("model"),
	}
	if price, ok := it["price"].(float64); ok {
		c.Price = domain.MinorUnits(price)
	}

	shape := domain.ShapeOf(category)
	for _, attr := range shape.Attributes {
		if v := it.str(attr); v != "" {
			if c.Attrs == nil {
				c.Attrs = make(map[string]string, len(shape.Attributes))
			}
			c.Attrs[attr] = v
		}
	}
	return c
}

// getPage issues one GET against host/category with limit/offset and the
// per-session timeout.
func (c *Client) getPage(
	ctx context.Context,
	category domain.Category,
	limit, offset int,
	timeout time.Duration,
) ([]rawItem, int, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := fmt.Sprintf("%s/%s?limit=%d&offset=%d", c.cfg.BaseURL, category, limit, offset)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-RapidAPI-Key", c.cfg.APIKey)
	req.Header.Set("X-RapidAPI-Host", c.cfg.APIHost)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()
	metrics.FetchLatency.WithLabelValues(string(category)).Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode, nil
	}

	var page []rawItem
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, 0, fmt.Errorf("decode page: %w", err)
	}
	return page, http.StatusOK, nil
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
