// Package optimizer computes the extractable profit bound for a mispriced
// outcome distribution. The closed-form simplex path is the one exercised on
// live data; the iterative Frank-Wolfe solver generalizes the same argument
// to arbitrary polytopes and is kept as an extension point.
package optimizer

import (
	"fmt"
	"math"

	"github.com/alanyoungcy/polyscan/internal/domain"
)

// Analysis is the closed-form result for one price vector on the probability
// simplex.
type Analysis struct {
	Mispricing       float64 // sum(theta) - 1
	MuStar           []float64
	Divergence       float64 // D(mu*, theta), the theoretical profit bound
	GuaranteedProfit float64 // equals Divergence: duality gap is 0 at the simplex optimum
	PracticalProfit  float64 // Divergence discounted by the extraction rate
	HasArbitrage     bool
	Direction        domain.OpportunityType
}

// Divergence computes the Bregman divergence of negative entropy between an
// unnormalized price vector q and the distribution p:
//
//	D(p,q) = sum_i [ p_i*ln(p_i/q_i) - p_i + q_i ]
//
// The linear correction terms make D well defined (and non-negative) even
// when q does not sum to 1, which is exactly the mispriced case. Indices
// where p_i = 0 contribute q_i; indices where q_i <= 0 are skipped.
func Divergence(p, q []float64) float64 {
	var d float64
	for i := range p {
		if q[i] <= 0 {
			continue
		}
		if p[i] <= 0 {
			d += q[i]
			continue
		}
		d += p[i]*math.Log(p[i]/q[i]) - p[i] + q[i]
	}
	return d
}

// AnalyzeSimplex runs the closed-form path: renormalize theta onto the
// simplex, measure the divergence, and decide the trade direction from the
// sign of the mispricing. epsilonD is the dead zone around a price sum of 1;
// extractionRate discounts the bound into a practical profit figure.
func AnalyzeSimplex(theta []float64, epsilonD, extractionRate float64) (Analysis, error) {
	if len(theta) < 2 {
		return Analysis{}, fmt.Errorf("optimizer: need at least 2 prices, got %d", len(theta))
	}
	var sum float64
	for i, p := range theta {
		if p < 0 || p > 1 {
			return Analysis{}, fmt.Errorf("optimizer: price %d out of [0,1]: %v", i, p)
		}
		sum += p
	}
	if sum <= 0 {
		return Analysis{}, fmt.Errorf("optimizer: price sum must be positive, got %v", sum)
	}

	muStar := make([]float64, len(theta))
	for i := range theta {
		muStar[i] = theta[i] / sum
	}

	a := Analysis{
		Mispricing: sum - 1,
		MuStar:     muStar,
		Divergence: Divergence(muStar, theta),
	}
	a.GuaranteedProfit = a.Divergence
	a.PracticalProfit = a.Divergence * extractionRate

	if math.Abs(a.Mispricing) < epsilonD {
		a.Direction = domain.OpportunityNone
		return a, nil
	}
	a.HasArbitrage = true
	if a.Mispricing < 0 {
		// Pay less than $1 for a guaranteed $1 redemption.
		a.Direction = domain.OpportunityBuyAll
	} else {
		// Collect more than $1 against a maximum $1 liability.
		a.Direction = domain.OpportunitySellAll
	}
	return a, nil
}
