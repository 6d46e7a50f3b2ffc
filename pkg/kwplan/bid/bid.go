package bid

import (
	"fmt"
	"math"

	"github.com/cognicore/kwplan/pkg/kwplan/keyword"
)

// MinCPC is the floor applied to the low end of a historical bid range.
const MinCPC = 1.0

// Recommendation is a CPC bid window with its midpoint
type Recommendation struct {
	Min       float64
	Max       float64
	Suggested float64
}

// Tier is a fixed recommendation used when a keyword has no bid history
type Tier struct {
	AboveVolume int64
	Recommendation
}

// FallbackTiers are checked top to bottom; the last tier catches everything.
var FallbackTiers = []Tier{
	{AboveVolume: 5000, Recommendation: Recommendation{Min: 10, Max: 25, Suggested: 15}},
	{AboveVolume: 1000, Recommendation: Recommendation{Min: 5, Max: 15, Suggested: 10}},
	{AboveVolume: math.MinInt64, Recommendation: Recommendation{Min: 2, Max: 8, Suggested: 5}},
}

// Multipliers scale historical bids by competition level
var Multipliers = map[string]float64{
	"high":   1.2,
	"medium": 1.0,
	"low":    0.8,
}

// Multiplier returns the bid multiplier for a competition level, 1.0 if unknown
func Multiplier(c keyword.Competition) float64 {
	if m, ok := Multipliers[c.Normalized()]; ok {
		return m
	}
	return 1.0
}

// Recommend computes the CPC window for a keyword. Both bids at zero means
// there is no history and the volume tiers apply. A recorded high bid that
// scales below the floor yields Max < Min; callers clamp.
func Recommend(bidLow, bidHigh float64, competition keyword.Competition, volume int64) Recommendation {
	if bidLow == 0 && bidHigh == 0 {
		for _, tier := range FallbackTiers {
			if volume > tier.AboveVolume {
				return tier.Recommendation
			}
		}
	}

	m := Multiplier(competition)
	lo := math.Max(MinCPC, bidLow*m)
	hi := lo * 2
	if bidHigh > 0 {
		hi = bidHigh * m
	}

	return Recommendation{
		Min:       Round2(lo),
		Max:       Round2(hi),
		Suggested: Round2((lo + hi) / 2),
	}
}

// Range formats the window as "<sym>min - <sym>max"
func (r Recommendation) Range(symbol string) string {
	return fmt.Sprintf("%s%.2f - %s%.2f", symbol, r.Min, symbol, r.Max)
}

// Round2 rounds half away from zero to two decimals
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
