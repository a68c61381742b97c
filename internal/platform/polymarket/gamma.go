// Package polymarket implements the market ingestion layer against the two
// public Polymarket APIs: Gamma for event and market metadata, CLOB for live
// order-book prices.
package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/alanyoungcy/polyscan/internal/domain"
)

const defaultRequestTimeout = 30 * time.Second

// Feed reads event and market snapshots from the Gamma API. It implements
// domain.MarketFeed.
type Feed struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewFeed creates a Gamma API feed. A zero timeout falls back to 30 seconds.
func NewFeed(baseURL string, timeout time.Duration, logger *slog.Logger) *Feed {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Feed{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With(slog.String("component", "gamma_feed")),
	}
}

// Events fetches the most actively traded open events, ordered by 24h volume.
// Member markets that cannot be reduced to a priced outcome are skipped with a
// warning rather than failing the snapshot.
func (f *Feed) Events(ctx context.Context, limit int) ([]domain.Event, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("active", "true")
	params.Set("closed", "false")
	params.Set("order", "volume24hr")
	params.Set("ascending", "false")

	var raw []APIEvent
	if err := f.doGet(ctx, "/events", params, &raw); err != nil {
		return nil, err
	}

	events := make([]domain.Event, 0, len(raw))
	for _, e := range raw {
		if !bool(e.Active) || e.Closed {
			continue
		}
		ev := domain.Event{ID: e.ID, Title: e.Title}
		for i := range e.Markets {
			outcome, ok := e.Markets[i].ToDomainOutcome()
			if !ok {
				f.logger.Warn("skipping market with no usable outcome",
					slog.String("event_id", e.ID),
					slog.String("market_id", e.Markets[i].ID))
				continue
			}
			ev.Outcomes = append(ev.Outcomes, outcome)
		}
		events = append(events, ev)
	}
	return events, nil
}

// Markets fetches the most actively traded open binary markets, ordered by
// 24h volume.
func (f *Feed) Markets(ctx context.Context, limit int) ([]domain.Market, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("active", "true")
	params.Set("closed", "false")
	params.Set("order", "volume24hr")
	params.Set("ascending", "false")

	var raw []APIMarket
	if err := f.doGet(ctx, "/markets", params, &raw); err != nil {
		return nil, err
	}

	markets := make([]domain.Market, 0, len(raw))
	for i := range raw {
		markets = append(markets, raw[i].ToDomainMarket())
	}
	return markets, nil
}

// doGet performs a GET request against the Gamma API and decodes the JSON
// response into out.
func (f *Feed) doGet(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := f.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("polymarket/gamma: build request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("polymarket/gamma: get %s: %w", path, err)
	}
	defer resp.Body.Close()

	if err := checkHTTPStatus(resp); err != nil {
		return fmt.Errorf("polymarket/gamma: get %s: %w", path, err)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("polymarket/gamma: decode %s response: %w", path, err)
	}
	return nil
}

// checkHTTPStatus returns an error carrying the status code and a truncated
// response body for any non-2xx response.
func checkHTTPStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
}

// Compile-time interface check.
var _ domain.MarketFeed = (*Feed)(nil)
