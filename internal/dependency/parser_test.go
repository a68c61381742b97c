package dependency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/polyscan/internal/domain"
)

var parserNow = time.Date(2026, time.May, 10, 12, 0, 0, 0, time.UTC)

func TestParseDeadline(t *testing.T) {
	tests := []struct {
		name     string
		question string
		want     *domain.Deadline
	}{
		{
			"month day year",
			"Will the bill pass by March 15, 2027?",
			&domain.Deadline{Year: 2027, Month: 3, Day: 15},
		},
		{
			"month and year only",
			"Will SpaceX launch by September 2026?",
			&domain.Deadline{Year: 2026, Month: 9, Day: 30},
		},
		{
			"bare future month",
			"Will the album drop by August?",
			&domain.Deadline{Year: 2026, Month: 8, Day: 31},
		},
		{
			"bare past month rolls forward",
			"Will the album drop by February?",
			&domain.Deadline{Year: 2027, Month: 2, Day: 28},
		},
		{
			"quarter with year",
			"Will the merger close by Q3 2026?",
			&domain.Deadline{Year: 2026, Month: 9, Day: 30},
		},
		{
			"end of year",
			"Will Bitcoin double by end of 2026?",
			&domain.Deadline{Year: 2026, Month: 12, Day: 31},
		},
		{
			"no deadline",
			"Will the Lakers win the title?",
			nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDeadline(tt.question, parserNow)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestParseThreshold(t *testing.T) {
	tests := []struct {
		name     string
		question string
		want     *domain.Threshold
	}{
		{
			"reach with k suffix",
			"Will Bitcoin reach $150k this cycle?",
			&domain.Threshold{Value: 150_000, Direction: domain.ThresholdAbove},
		},
		{
			"above with commas",
			"Will ETH trade above $4,500?",
			&domain.Threshold{Value: 4500, Direction: domain.ThresholdAbove},
		},
		{
			"reach with m suffix",
			"Will the token hit $2m market cap?",
			&domain.Threshold{Value: 2_000_000, Direction: domain.ThresholdAbove},
		},
		{
			"exceed with b suffix",
			"Will the fund exceed $1b under management?",
			&domain.Threshold{Value: 1_000_000_000, Direction: domain.ThresholdAbove},
		},
		{
			"below",
			"Will Bitcoin stay below $60k?",
			&domain.Threshold{Value: 60_000, Direction: domain.ThresholdBelow},
		},
		{
			"less than",
			"Will unemployment be less than 4?",
			&domain.Threshold{Value: 4, Direction: domain.ThresholdBelow},
		},
		{
			"no threshold",
			"Will it rain tomorrow?",
			nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseThreshold(tt.question)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestParseSubjectStripsFeatures(t *testing.T) {
	subject := ParseSubject("Will Bitcoin reach $150k by March 2027?")
	assert.NotContains(t, subject, "150")
	assert.NotContains(t, subject, "march")
	assert.NotContains(t, subject, "will ")
	assert.Contains(t, subject, "bitcoin")
}

func TestSimilarity(t *testing.T) {
	a := ParseSubject("Will Bitcoin reach $150k by March?")
	b := ParseSubject("Will Bitcoin reach $100k by June?")
	assert.GreaterOrEqual(t, Similarity(a, b), 0.4)

	c := ParseSubject("Will the Lakers win the championship?")
	assert.Less(t, Similarity(a, c), 0.4)

	assert.Equal(t, 0.0, Similarity("", "bitcoin"))
}

func TestParseNodeCarriesPrice(t *testing.T) {
	node := ParseNode(domain.Market{
		ID:       "m1",
		Question: "Will Bitcoin reach $150k by end of 2026?",
		Price:    0.42,
	}, parserNow)
	assert.Equal(t, "m1", node.ID)
	assert.Equal(t, 0.42, node.Price)
	require.NotNil(t, node.Deadline)
	require.NotNil(t, node.Threshold)
	assert.Equal(t, 150_000.0, node.Threshold.Value)
	assert.Equal(t, 2026, node.Deadline.Year)
}
