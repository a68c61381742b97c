package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimplexVertices(t *testing.T) {
	vertices := SimplexVertices(3)
	require.Len(t, vertices, 3)
	for i, v := range vertices {
		var sum float64
		for j, x := range v {
			sum += x
			if j == i {
				assert.Equal(t, 1.0, x)
			} else {
				assert.Equal(t, 0.0, x)
			}
		}
		assert.Equal(t, 1.0, sum)
	}
}

func TestSolveFrankWolfeTerminates(t *testing.T) {
	cfg := DefaultFrankWolfeConfig()
	thetas := [][]float64{
		{0.55, 0.55},
		{0.2, 0.2, 0.2},
		{0.3, 0.3, 0.3, 0.3, 0.3},
	}
	for _, theta := range thetas {
		res, err := SolveFrankWolfe(theta, nil, cfg)
		require.NoError(t, err)
		assert.NotEmpty(t, res.StopReason)
		assert.LessOrEqual(t, res.Iterations, cfg.MaxIterations)
		require.Len(t, res.Mu, len(theta))

		var sum float64
		for _, m := range res.Mu {
			assert.GreaterOrEqual(t, m, 0.0)
			sum += m
		}
		assert.InDelta(t, 1.0, sum, 1e-6, "iterates stay on the simplex")
	}
}

func TestSolveFrankWolfeFairPricesStopEarly(t *testing.T) {
	// A fairly priced vector has divergence below the dead zone at the
	// uniform starting iterate, so the solver stops immediately.
	res, err := SolveFrankWolfe([]float64{0.25, 0.25, 0.25, 0.25}, nil, DefaultFrankWolfeConfig())
	require.NoError(t, err)
	assert.Equal(t, StopSmallDivergence, res.StopReason)
	assert.Equal(t, 0, res.Iterations)
}

func TestSolveFrankWolfeRejectsBadVertices(t *testing.T) {
	_, err := SolveFrankWolfe([]float64{0.5, 0.5}, [][]float64{{1, 0, 0}}, DefaultFrankWolfeConfig())
	assert.Error(t, err)

	_, err = SolveFrankWolfe([]float64{0.9}, nil, DefaultFrankWolfeConfig())
	assert.Error(t, err)
}

func TestSolveFrankWolfeBestIterateReported(t *testing.T) {
	res, err := SolveFrankWolfe([]float64{0.6, 0.6, 0.6}, nil, DefaultFrankWolfeConfig())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Divergence, 0.0)
	// The reported gap never exceeds what a fresh evaluation of the
	// returned iterate produces plus tolerance.
	fresh := Divergence(res.Mu, []float64{0.6, 0.6, 0.6})
	assert.InDelta(t, fresh, res.Divergence, 1e-9)
}
