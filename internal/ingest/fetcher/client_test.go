package fetcher

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"

	"github.com/hwbot/partswatch/internal/core/domain"
	"github.com/hwbot/partswatch/internal/infra/storage/memory"
)

func testConfig() Config {
	return Config{
		BaseURL:        "https://api.test",
		APIKey:         "key",
		APIHost:        "api.test",
		PageSizes:      []int{2},
		Delays:         []time.Duration{time.Millisecond},
		BaseTimeout:    5 * time.Second,
		TimeoutStep:    5 * time.Second,
		TimeoutCeiling: 15 * time.Second,
		MaxRequests:    50,
	}
}

func newTestClient(cfg Config, repo *memory.ComponentRepo) (*Client, *httpmock.MockTransport) {
	transport := httpmock.NewMockTransport()
	c := NewClient(cfg, repo).WithTransport(transport)
	c.sleep = func(ctx context.Context, d time.Duration) {}
	return c, transport
}

func item(id string, price float64) map[string]any {
	return map[string]any{
		"id":    id,
		"title": "Kingston Fury 16GB",
		"link":  "https://shop.test/" + id,
		"img":   "https://img.test/" + id,
		"price": price,
		"brand": "Kingston",
		"model": "Fury",
		"size":  "16GB",
	}
}

func TestRefreshReplacesCategoryAcrossPages(t *testing.T) {
	store := memory.NewMemoryStorage()
	repo := memory.NewComponentRepo(store)

	// A record from the previous generation must not survive.
	stale := domain.Component{ID: "stale", Category: domain.CategoryRAM, Price: 1}
	if err := repo.InsertBatch(context.Background(), []domain.Component{stale}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	client, transport := newTestClient(testConfig(), repo)

	pages := map[string][]map[string]any{
		"0": {item("a", 19.99), item("b", 50)},
		"2": {item("c", 7.5)},
	}
	transport.RegisterResponder("GET", `=~^https://api\.test/ram`,
		func(req *http.Request) (*http.Response, error) {
			offset := req.URL.Query().Get("offset")
			page, ok := pages[offset]
			if !ok {
				return httpmock.NewStringResponse(404, ""), nil
			}
			return httpmock.NewJsonResponse(200, page)
		})

	if !client.Refresh(context.Background(), domain.CategoryRAM, 0) {
		t.Fatalf("Refresh = false, want true")
	}

	count, _ := repo.Count(context.Background(), domain.CategoryRAM)
	if count != 3 {
		t.Fatalf("stored count = %d, want 3", count)
	}

	records, err := repo.PriceRange(context.Background(), domain.CategoryRAM, 0, 1_000_000)
	if err != nil {
		t.Fatalf("PriceRange: %v", err)
	}
	for _, r := range records {
		if r.ID == "stale" {
			t.Fatalf("stale record survived the refresh")
		}
	}

	// Price normalization: 19.99 major units -> 1999 minor units.
	var got int64
	for _, r := range records {
		if r.ID == "a" {
			got = r.Price
		}
	}
	if got != 1999 {
		t.Fatalf("price for item a = %d, want 1999", got)
	}
}

func TestRefreshAbortsAfterTimeoutCeiling(t *testing.T) {
	store := memory.NewMemoryStorage()
	client, transport := newTestClient(testConfig(), memory.NewComponentRepo(store))

	calls := 0
	transport.RegisterResponder("GET", `=~^https://api\.test/gpu`,
		func(req *http.Request) (*http.Response, error) {
			calls++
			return nil, errors.New("read timeout")
		})

	if client.Refresh(context.Background(), domain.CategoryGPU, 0) {
		t.Fatalf("Refresh = true, want false")
	}

	// Timeout sequence 10s -> 15s -> 20s; the session aborts once the
	// ceiling is exceeded, without issuing a 4th request.
	if calls != 3 {
		t.Fatalf("requests issued = %d, want 3", calls)
	}
}

func TestRefreshEscalatesPageSizeOnEndpointFailure(t *testing.T) {
	cfg := testConfig()
	cfg.PageSizes = []int{10, 20, 40}

	store := memory.NewMemoryStorage()
	client, transport := newTestClient(cfg, memory.NewComponentRepo(store))

	var limits []string
	transport.RegisterResponder("GET", `=~^https://api\.test/mouse`,
		func(req *http.Request) (*http.Response, error) {
			limits = append(limits, req.URL.Query().Get("limit"))
			return httpmock.NewStringResponse(500, "nope"), nil
		})

	if client.Refresh(context.Background(), domain.CategoryMouse, 0) {
		t.Fatalf("Refresh = true, want false")
	}

	want := []string{"10", "20", "40"}
	if len(limits) != len(want) {
		t.Fatalf("limits = %v, want %v", limits, want)
	}
	for i := range want {
		if limits[i] != want[i] {
			t.Fatalf("limits = %v, want %v", limits, want)
		}
	}
}

func TestRefreshStopsAtRequestCeiling(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRequests = 2

	store := memory.NewMemoryStorage()
	repo := memory.NewComponentRepo(store)
	client, transport := newTestClient(cfg, repo)

	calls := 0
	transport.RegisterResponder("GET", `=~^https://api\.test/cpu_fan`,
		func(req *http.Request) (*http.Response, error) {
			calls++
			return httpmock.NewJsonResponse(200, []map[string]any{
				item("fan-"+strconv.Itoa(calls), 9.99),
			})
		})

	if !client.Refresh(context.Background(), domain.CategoryCPUFan, 0) {
		t.Fatalf("Refresh = false, want true")
	}
	if calls != 3 {
		t.Fatalf("requests issued = %d, want 3 (ceiling exceeded on the 3rd)", calls)
	}
}

func TestRefreshSkipsBadPage(t *testing.T) {
	store := memory.NewMemoryStorage()
	repo := memory.NewComponentRepo(store)
	client, transport := newTestClient(testConfig(), repo)

	served := 0
	transport.RegisterResponder("GET", `=~^https://api\.test/keyboard`,
		func(req *http.Request) (*http.Response, error) {
			served++
			switch served {
			case 1:
				return httpmock.NewJsonResponse(200, []map[string]any{item("k1", 10)})
			case 2:
				// Duplicate primary key: the page is rejected by storage,
				// logged, and the session carries on.
				return httpmock.NewJsonResponse(200, []map[string]any{item("k1", 10)})
			default:
				return httpmock.NewStringResponse(404, ""), nil
			}
		})

	if !client.Refresh(context.Background(), domain.CategoryKeyboard, 0) {
		t.Fatalf("Refresh = false, want true")
	}

	count, _ := repo.Count(context.Background(), domain.CategoryKeyboard)
	if count != 1 {
		t.Fatalf("stored count = %d, want 1", count)
	}
}
