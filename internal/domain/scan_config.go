package domain

import (
	"fmt"
	"strings"
	"time"
)

// ScanConfig holds the tunables shared by all three detectors. A copy is
// taken at the start of each cycle, so updates never affect an in-flight
// scan.
type ScanConfig struct {
	// FeeRate is the flat fee charged against the $1 settlement leg.
	FeeRate float64
	// ExtractionRate discounts the Bregman bound into a practical profit.
	ExtractionRate float64
	// AlphaExtraction is the Frank-Wolfe early-stop fraction.
	AlphaExtraction float64
	// MinMispricing is the dead zone around a price sum of 1.
	MinMispricing float64
	// MinLiquidity is the per-outcome liquidity floor for qualification.
	MinLiquidity float64
	// MaxEvents caps how many events a single cycle evaluates.
	MaxEvents int
	// LookupTimeout bounds each upstream price lookup.
	LookupTimeout time.Duration
	// LookupDelay is the fixed pause between batched upstream lookups,
	// required to stay under the exchange's throttling limits.
	LookupDelay time.Duration
	// WaitTimeout bounds how long a concurrent trigger polls for an
	// in-flight scan of the same type before giving up.
	WaitTimeout time.Duration
}

// DefaultScanConfig returns the standard detector tunables.
func DefaultScanConfig() ScanConfig {
	return ScanConfig{
		FeeRate:         0.02,
		ExtractionRate:  0.90,
		AlphaExtraction: 0.90,
		MinMispricing:   0.05,
		MinLiquidity:    100.0,
		MaxEvents:       50,
		LookupTimeout:   5 * time.Second,
		LookupDelay:     200 * time.Millisecond,
		WaitTimeout:     60 * time.Second,
	}
}

// Validate checks every field and returns a combined error listing all
// problems, wrapped around ErrInvalidConfig.
func (c ScanConfig) Validate() error {
	var errs []string
	if c.FeeRate < 0 || c.FeeRate >= 1 {
		errs = append(errs, fmt.Sprintf("fee_rate must be in [0,1), got %v", c.FeeRate))
	}
	if c.ExtractionRate <= 0 || c.ExtractionRate > 1 {
		errs = append(errs, fmt.Sprintf("extraction_rate must be in (0,1], got %v", c.ExtractionRate))
	}
	if c.AlphaExtraction <= 0 || c.AlphaExtraction > 1 {
		errs = append(errs, fmt.Sprintf("alpha_extraction must be in (0,1], got %v", c.AlphaExtraction))
	}
	if c.MinMispricing < 0 || c.MinMispricing >= 1 {
		errs = append(errs, fmt.Sprintf("min_mispricing must be in [0,1), got %v", c.MinMispricing))
	}
	if c.MinLiquidity < 0 {
		errs = append(errs, fmt.Sprintf("min_liquidity must be >= 0, got %v", c.MinLiquidity))
	}
	if c.MaxEvents < 1 {
		errs = append(errs, fmt.Sprintf("max_events must be >= 1, got %d", c.MaxEvents))
	}
	if c.LookupTimeout <= 0 {
		errs = append(errs, "lookup_timeout must be > 0")
	}
	if c.LookupDelay < 0 {
		errs = append(errs, "lookup_delay must be >= 0")
	}
	if c.WaitTimeout <= 0 {
		errs = append(errs, "wait_timeout must be > 0")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}

// ScanConfigPatch is a partial ScanConfig update; nil fields are left
// untouched by Apply.
type ScanConfigPatch struct {
	FeeRate         *float64 `json:"fee_rate"`
	ExtractionRate  *float64 `json:"extraction_rate"`
	AlphaExtraction *float64 `json:"alpha_extraction"`
	MinMispricing   *float64 `json:"min_mispricing"`
	MinLiquidity    *float64 `json:"min_liquidity"`
	MaxEvents       *int     `json:"max_events"`
	LookupTimeoutMs *int64   `json:"lookup_timeout_ms"`
	LookupDelayMs   *int64   `json:"lookup_delay_ms"`
	WaitTimeoutMs   *int64   `json:"wait_timeout_ms"`
}

// Apply returns a copy of base with the patch's non-nil fields overlaid.
func (p ScanConfigPatch) Apply(base ScanConfig) ScanConfig {
	out := base
	if p.FeeRate != nil {
		out.FeeRate = *p.FeeRate
	}
	if p.ExtractionRate != nil {
		out.ExtractionRate = *p.ExtractionRate
	}
	if p.AlphaExtraction != nil {
		out.AlphaExtraction = *p.AlphaExtraction
	}
	if p.MinMispricing != nil {
		out.MinMispricing = *p.MinMispricing
	}
	if p.MinLiquidity != nil {
		out.MinLiquidity = *p.MinLiquidity
	}
	if p.MaxEvents != nil {
		out.MaxEvents = *p.MaxEvents
	}
	if p.LookupTimeoutMs != nil {
		out.LookupTimeout = time.Duration(*p.LookupTimeoutMs) * time.Millisecond
	}
	if p.LookupDelayMs != nil {
		out.LookupDelay = time.Duration(*p.LookupDelayMs) * time.Millisecond
	}
	if p.WaitTimeoutMs != nil {
		out.WaitTimeout = time.Duration(*p.WaitTimeoutMs) * time.Millisecond
	}
	return out
}
