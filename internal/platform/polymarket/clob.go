package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/alanyoungcy/polyscan/internal/domain"
)

// PriceClient reads live order books from the public CLOB API. Only read-only
// endpoints are used, so no API credentials are required. It implements
// domain.PriceSource.
type PriceClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewPriceClient creates a CLOB price client. A zero timeout falls back to 30
// seconds.
func NewPriceClient(baseURL string, timeout time.Duration) *PriceClient {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &PriceClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Price fetches the order book for one outcome token and reduces it to a
// quote: the bid-ask midpoint as the price and the total resting notional on
// both sides as the liquidity. A one-sided book falls back to the side that
// exists; an empty book is an error.
func (c *PriceClient) Price(ctx context.Context, outcomeID string) (domain.PriceQuote, error) {
	params := url.Values{}
	params.Set("token_id", outcomeID)

	endpoint := c.baseURL + "/book?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("polymarket/clob: build book request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("polymarket/clob: get book for %s: %w", outcomeID, err)
	}
	defer resp.Body.Close()

	if err := checkHTTPStatus(resp); err != nil {
		return domain.PriceQuote{}, fmt.Errorf("polymarket/clob: get book for %s: %w", outcomeID, err)
	}

	var book APIBook
	if err := json.NewDecoder(resp.Body).Decode(&book); err != nil {
		return domain.PriceQuote{}, fmt.Errorf("polymarket/clob: decode book for %s: %w", outcomeID, err)
	}

	quote, err := quoteFromBook(book)
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("polymarket/clob: book for %s: %w", outcomeID, err)
	}
	return quote, nil
}

// quoteFromBook reduces an order book to a single price and liquidity figure.
func quoteFromBook(book APIBook) (domain.PriceQuote, error) {
	bestBid, bidNotional := bestAndNotional(book.Bids, true)
	bestAsk, askNotional := bestAndNotional(book.Asks, false)

	var price float64
	switch {
	case bestBid > 0 && bestAsk > 0:
		price = (bestBid + bestAsk) / 2
	case bestBid > 0:
		price = bestBid
	case bestAsk > 0:
		price = bestAsk
	default:
		return domain.PriceQuote{}, fmt.Errorf("empty order book")
	}

	return domain.PriceQuote{
		Price:     price,
		Liquidity: bidNotional + askNotional,
	}, nil
}

// bestAndNotional returns the best price on one side of the book and the
// total dollar notional resting there. Levels with unparseable numbers are
// skipped. The CLOB API does not guarantee level ordering, so the best price
// is found by scanning.
func bestAndNotional(levels []APILevel, wantMax bool) (best, notional float64) {
	for _, lvl := range levels {
		price, err := strconv.ParseFloat(lvl.Price, 64)
		if err != nil || price <= 0 {
			continue
		}
		size, err := strconv.ParseFloat(lvl.Size, 64)
		if err != nil || size < 0 {
			continue
		}
		notional += price * size
		if best == 0 || (wantMax && price > best) || (!wantMax && price < best) {
			best = price
		}
	}
	return best, notional
}

// Compile-time interface check.
var _ domain.PriceSource = (*PriceClient)(nil)
