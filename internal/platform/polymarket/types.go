package polymarket

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/polyscan/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether "active" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// flexFloat unmarshals from a JSON number or a numeric string, both of which
// the Gamma API produces depending on the field.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		*f = flexFloat(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// --------------------------------------------------------------------------
// Gamma API DTOs
// --------------------------------------------------------------------------

// APIEvent represents an event as returned by the Polymarket Gamma API.
// An event groups one or more related markets; in a multi-outcome event each
// member market is one candidate outcome.
type APIEvent struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Slug        string      `json:"slug"`
	Description string      `json:"description"`
	Active      flexBool    `json:"active"`
	Closed      bool        `json:"closed"`
	Markets     []APIMarket `json:"markets"`
}

// APIMarket represents a market as returned by the Polymarket Gamma API.
type APIMarket struct {
	ID                 string    `json:"id"`
	Question           string    `json:"question"`
	GroupItemTitle     string    `json:"groupItemTitle"`
	Outcomes           string    `json:"outcomes"`      // JSON-encoded: e.g. "[\"Yes\",\"No\"]"
	OutcomePrices      string    `json:"outcomePrices"` // JSON-encoded: e.g. "[\"0.5\",\"0.5\"]"
	ClobTokenIDs       string    `json:"clobTokenIds"`  // JSON-encoded: e.g. "[\"123\",\"456\"]"
	Liquidity          flexFloat `json:"liquidity"`
	Volume24hr         flexFloat `json:"volume24hr"`
	Volume1wk          flexFloat `json:"volume1wk"`
	LastTradePrice     flexFloat `json:"lastTradePrice"`
	BestBid            flexFloat `json:"bestBid"`
	BestAsk            flexFloat `json:"bestAsk"`
	OneHourPriceChange flexFloat `json:"oneHourPriceChange"`
	OneDayPriceChange  flexFloat `json:"oneDayPriceChange"`
	EndDateISO         string    `json:"endDate"`
	UpdatedAt          string    `json:"updatedAt"`
	Active             flexBool  `json:"active"`
	Closed             bool      `json:"closed"`
	UMAResolutionSet   bool      `json:"umaResolutionStatus"`
}

// ToDomainOutcome reduces a member market of a multi-outcome event to one
// candidate outcome: the market's YES token, priced at its first outcome
// price. It returns false when the market is missing a token or a price.
func (m *APIMarket) ToDomainOutcome() (domain.Outcome, bool) {
	tokens := decodeStringArray(m.ClobTokenIDs)
	prices := decodeStringArray(m.OutcomePrices)
	if len(tokens) == 0 || len(prices) == 0 {
		return domain.Outcome{}, false
	}
	price, err := strconv.ParseFloat(prices[0], 64)
	if err != nil || price < 0 || price > 1 {
		return domain.Outcome{}, false
	}

	label := m.GroupItemTitle
	if label == "" {
		label = m.Question
	}
	return domain.Outcome{
		ID:        tokens[0],
		Label:     label,
		Price:     price,
		Liquidity: float64(m.Liquidity),
	}, true
}

// ToDomainMarket converts a standalone binary market snapshot. The reported
// price is the last trade price, falling back to the first outcome price.
func (m *APIMarket) ToDomainMarket() domain.Market {
	price := float64(m.LastTradePrice)
	if price == 0 {
		if prices := decodeStringArray(m.OutcomePrices); len(prices) > 0 {
			price, _ = strconv.ParseFloat(prices[0], 64)
		}
	}

	change := float64(m.OneDayPriceChange)
	if change < 0 {
		change = -change
	}

	out := domain.Market{
		ID:             m.ID,
		Question:       m.Question,
		Price:          price,
		BestBid:        float64(m.BestBid),
		BestAsk:        float64(m.BestAsk),
		Liquidity:      float64(m.Liquidity),
		Volume24h:      float64(m.Volume24hr),
		Volume7dAvg:    float64(m.Volume1wk) / 7,
		PriceChange24h: change,
		Velocity1h:     float64(m.OneHourPriceChange),
		Active:         bool(m.Active),
		Closed:         m.Closed,
		Settled:        m.UMAResolutionSet,
	}
	if t, err := time.Parse(time.RFC3339, m.EndDateISO); err == nil {
		out.EndDate = t
	}
	// Gamma does not expose a last-trade timestamp; the update time is the
	// closest available staleness proxy.
	if t, err := time.Parse(time.RFC3339, m.UpdatedAt); err == nil {
		out.LastTradeAt = t
	}
	return out
}

// decodeStringArray parses the Gamma API's JSON-encoded string arrays
// ("[\"a\",\"b\"]"). Malformed input yields nil.
func decodeStringArray(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

// --------------------------------------------------------------------------
// CLOB API DTOs
// --------------------------------------------------------------------------

// APIBook is the order book snapshot returned by the CLOB /book endpoint.
type APIBook struct {
	Market string     `json:"market"`
	Bids   []APILevel `json:"bids"`
	Asks   []APILevel `json:"asks"`
}

// APILevel is one price level of the order book.
type APILevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}
