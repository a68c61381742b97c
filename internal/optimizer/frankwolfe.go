package optimizer

import (
	"fmt"
	"math"
)

// Stop reasons reported by the Frank-Wolfe solver.
const (
	StopAlphaExtraction = "alpha_extraction"
	StopSmallDivergence = "small_divergence"
	StopSmallGap        = "small_gap"
	StopEpsilonFloor    = "epsilon_floor"
	StopMaxIterations   = "max_iterations"
)

// FrankWolfeConfig holds the solver tunables.
type FrankWolfeConfig struct {
	Alpha          float64 // stop once the gap drops to (1-Alpha)*D
	EpsilonD       float64 // divergence below this is noise
	InitialEpsilon float64 // initial contraction toward the interior point
	MinEpsilon     float64 // contraction floor
	GapTolerance   float64
	MaxIterations  int
}

// DefaultFrankWolfeConfig mirrors the tunables used by the closed-form path.
func DefaultFrankWolfeConfig() FrankWolfeConfig {
	return FrankWolfeConfig{
		Alpha:          0.90,
		EpsilonD:       0.05,
		InitialEpsilon: 0.1,
		MinEpsilon:     1e-4,
		GapTolerance:   1e-8,
		MaxIterations:  150,
	}
}

// FrankWolfeResult is the best iterate found together with its diagnostics.
type FrankWolfeResult struct {
	Mu         []float64
	Divergence float64
	Gap        float64
	Iterations int
	StopReason string
}

// SimplexVertices returns the standard basis vertices of the n-simplex.
func SimplexVertices(n int) [][]float64 {
	vertices := make([][]float64, n)
	for i := range vertices {
		v := make([]float64, n)
		v[i] = 1
		vertices[i] = v
	}
	return vertices
}

// SolveFrankWolfe runs the contracted Frank-Wolfe iteration over the polytope
// spanned by the given vertices, minimizing the entropic objective against
// theta. The contraction toward the uniform interior point keeps iterates
// strictly positive so the gradient stays finite; epsilon shrinks adaptively
// as the gap closes. The best iterate seen (maximum D minus gap) is returned
// even when the loop exits on the iteration cap.
func SolveFrankWolfe(theta []float64, vertices [][]float64, cfg FrankWolfeConfig) (FrankWolfeResult, error) {
	n := len(theta)
	if n < 2 {
		return FrankWolfeResult{}, fmt.Errorf("optimizer: need at least 2 prices, got %d", n)
	}
	if len(vertices) == 0 {
		vertices = SimplexVertices(n)
	}
	for i, v := range vertices {
		if len(v) != n {
			return FrankWolfeResult{}, fmt.Errorf("optimizer: vertex %d has dimension %d, want %d", i, len(v), n)
		}
	}

	// Interior point and initial iterate: uniform distribution.
	u := make([]float64, n)
	for i := range u {
		u[i] = 1.0 / float64(n)
	}
	mu := make([]float64, n)
	copy(mu, u)

	eps := cfg.InitialEpsilon
	gapAtU := gap(u, vertices)

	best := FrankWolfeResult{Mu: append([]float64(nil), mu...)}
	bestScore := math.Inf(-1)
	record := func(d, g float64, t int, reason string) FrankWolfeResult {
		if score := d - g; score > bestScore {
			bestScore = score
			best.Divergence = d
			best.Gap = g
			copy(best.Mu, mu)
		}
		best.Iterations = t
		best.StopReason = reason
		return best
	}

	for t := 0; t < cfg.MaxIterations; t++ {
		d := Divergence(mu, theta)
		g := gap(mu, vertices)

		switch {
		case d < cfg.EpsilonD:
			return record(d, g, t, StopSmallDivergence), nil
		case g <= (1-cfg.Alpha)*d:
			return record(d, g, t, StopAlphaExtraction), nil
		case g < cfg.GapTolerance:
			return record(d, g, t, StopSmallGap), nil
		}
		record(d, g, t, "")

		// Shrink the contraction once the remaining gap justifies it.
		if gapAtU < 0 {
			if ratio := g / (-4 * gapAtU); ratio < eps {
				eps = math.Max(math.Min(ratio, eps/2), cfg.MinEpsilon)
			}
		}
		if eps <= cfg.MinEpsilon {
			return record(d, g, t, StopEpsilonFloor), nil
		}

		grad := gradient(mu)
		v := vertices[descentVertex(grad, vertices)]

		gamma := 2.0 / float64(t+2)
		for i := range mu {
			contracted := (1-eps)*v[i] + eps*u[i]
			mu[i] = (1-gamma)*mu[i] + gamma*contracted
		}
	}

	d := Divergence(mu, theta)
	g := gap(mu, vertices)
	return record(d, g, cfg.MaxIterations, StopMaxIterations), nil
}

// gradient of the entropic objective: ln(mu_j) + 1.
func gradient(mu []float64) []float64 {
	grad := make([]float64, len(mu))
	for i, m := range mu {
		if m <= 0 {
			grad[i] = math.Inf(-1)
			continue
		}
		grad[i] = math.Log(m) + 1
	}
	return grad
}

// gap is the Frank-Wolfe suboptimality measure: the largest decrease any
// single vertex still offers, max_i grad(mu).(mu - e_i). Zero only at the
// constrained optimum.
func gap(mu []float64, vertices [][]float64) float64 {
	grad := gradient(mu)
	var gradDotMu float64
	for i := range mu {
		if !math.IsInf(grad[i], -1) {
			gradDotMu += grad[i] * mu[i]
		}
	}
	maxGap := math.Inf(-1)
	for _, v := range vertices {
		var gradDotV float64
		for i := range v {
			if v[i] != 0 && !math.IsInf(grad[i], -1) {
				gradDotV += grad[i] * v[i]
			}
		}
		if g := gradDotMu - gradDotV; g > maxGap {
			maxGap = g
		}
	}
	return maxGap
}

// descentVertex picks the vertex minimizing grad . v.
func descentVertex(grad []float64, vertices [][]float64) int {
	bestIdx := 0
	bestVal := math.Inf(1)
	for idx, v := range vertices {
		var dot float64
		for i := range v {
			if v[i] == 0 {
				continue
			}
			if math.IsInf(grad[i], -1) {
				dot = math.Inf(-1)
				break
			}
			dot += grad[i] * v[i]
		}
		if dot < bestVal {
			bestVal = dot
			bestIdx = idx
		}
	}
	return bestIdx
}
