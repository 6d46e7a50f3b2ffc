package bid

import (
	"math/rand"
	"testing"

	"github.com/cognicore/kwplan/pkg/kwplan/keyword"
)

func TestRecommendFallbackTiers(t *testing.T) {
	tests := []struct {
		volume int64
		want   Recommendation
	}{
		{6000, Recommendation{10, 25, 15}},
		{5001, Recommendation{10, 25, 15}},
		{5000, Recommendation{5, 15, 10}},
		{1001, Recommendation{5, 15, 10}},
		{1000, Recommendation{2, 8, 5}},
		{0, Recommendation{2, 8, 5}},
	}
	for _, tt := range tests {
		got := Recommend(0, 0, keyword.CompetitionHigh, tt.volume)
		if got != tt.want {
			t.Errorf("volume %d: got %+v, want %+v", tt.volume, got, tt.want)
		}
	}
}

func TestRecommendHistorical(t *testing.T) {
	tests := []struct {
		name        string
		low, high   float64
		competition keyword.Competition
		want        Recommendation
	}{
		{"low competition", 2.0, 6.0, "Low", Recommendation{1.6, 4.8, 3.2}},
		{"high competition", 2.0, 6.0, "High", Recommendation{2.4, 7.2, 4.8}},
		{"medium competition", 2.0, 6.0, "medium", Recommendation{2, 6, 4}},
		{"unknown competition", 2.0, 6.0, "n/a", Recommendation{2, 6, 4}},
		{"case insensitive", 2.0, 6.0, " HIGH ", Recommendation{2.4, 7.2, 4.8}},
		{"floor applies", 0.5, 6.0, "Medium", Recommendation{1, 6, 3.5}},
		{"no high bid doubles min", 3.0, 0, "Medium", Recommendation{3, 6, 4.5}},
		{"only high bid", 0, 4.0, "Medium", Recommendation{1, 4, 2.5}},
		{"rounding", 1.333, 3.347, "Medium", Recommendation{1.33, 3.35, 2.34}},
		{"high below floor", 0, 0.5, "Low", Recommendation{1, 0.4, 0.7}},
		{"inverted history", 5.0, 2.0, "Medium", Recommendation{5, 2, 3.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Recommend(tt.low, tt.high, tt.competition, 100)
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

// Ordering holds whenever the history is consistent: the high bid is absent,
// or it is at least the low bid and scales to at least the floor.
func TestRecommendOrderingHolds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	levels := []keyword.Competition{"Low", "Medium", "High", "", "weird"}

	for i := 0; i < 5000; i++ {
		comp := levels[i%len(levels)]
		low := rng.Float64() * 50
		high := low + rng.Float64()*50
		if i%5 == 0 {
			low = 0
		}
		if i%7 == 0 {
			high = 0
		}
		if high > 0 && high*Multiplier(comp) < MinCPC {
			continue
		}
		r := Recommend(low, high, comp, rng.Int63n(20000))
		if r.Min < 0 || r.Min > r.Suggested || r.Suggested > r.Max {
			t.Fatalf("ordering violated for low=%v high=%v: %+v", low, high, r)
		}
	}
}

func TestRange(t *testing.T) {
	r := Recommendation{Min: 1.6, Max: 4.8, Suggested: 3.2}
	if got := r.Range("₹"); got != "₹1.60 - ₹4.80" {
		t.Errorf("unexpected range %q", got)
	}
	if got := r.Range("$"); got != "$1.60 - $4.80" {
		t.Errorf("unexpected range %q", got)
	}
}
