package shopping

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/cognicore/kwplan/pkg/kwplan/keyword"
)

// Priority is the shopping campaign priority of a keyword
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// CompetitionFactors scale the base bid by competition. Lookup is
// case-sensitive; other values use 1.0.
var CompetitionFactors = map[keyword.Competition]float64{
	keyword.CompetitionLow:    1.2,
	keyword.CompetitionMedium: 1.0,
	keyword.CompetitionHigh:   0.8,
}

// Options carries the campaign economics
type Options struct {
	TargetCPA      float64
	ConversionRate float64
	CurrencySymbol string
}

// Bid is one keyword's shopping bid line
type Bid struct {
	Keyword            string
	AdGroup            string
	AvgMonthlySearches int64
	Competition        keyword.Competition
	SuggestedCPCRange  string
	BaseTargetCPC      float64
	AdjustmentFactor   float64
	SuggestedBid       float64
	Priority           Priority
}

// Columns is the output column order
var Columns = []string{
	"keyword",
	"ad_group",
	"avg_monthly_searches",
	"competition",
	"suggested_cpc_range",
	"base_target_cpc",
	"bid_adjustment_factor",
	"suggested_bid",
	"priority",
}

// Calculate derives a shopping bid for every row:
//
//	base   = target_cpa * conversion_rate
//	volume = log1p(v)/log1p(max v) * 0.4 + 0.8   (0.5 before scaling when undefined)
//	bid    = base * competition * volume, clipped to the row's CPC range
func Calculate(rows []keyword.Row, opts Options) []Bid {
	base := opts.TargetCPA * opts.ConversionRate

	var maxVolume int64
	for _, r := range rows {
		if r.AvgMonthlySearches > maxVolume {
			maxVolume = r.AvgMonthlySearches
		}
	}

	bids := make([]Bid, 0, len(rows))
	for _, r := range rows {
		factor := competitionFactor(r.Competition) * volumeFactor(r.AvgMonthlySearches, maxVolume)
		bid := base * factor
		if lo, hi, ok := ParseRange(r.SuggestedCPCRange, opts.CurrencySymbol); ok {
			bid = math.Min(math.Max(bid, lo), hi)
		}
		bids = append(bids, Bid{
			Keyword:            r.Keyword,
			AdGroup:            r.AdGroup,
			AvgMonthlySearches: r.AvgMonthlySearches,
			Competition:        r.Competition,
			SuggestedCPCRange:  r.SuggestedCPCRange,
			BaseTargetCPC:      base,
			AdjustmentFactor:   factor,
			SuggestedBid:       bid,
			Priority:           Prioritize(r.AvgMonthlySearches, r.Competition),
		})
	}
	return bids
}

func competitionFactor(c keyword.Competition) float64 {
	if f, ok := CompetitionFactors[c]; ok {
		return f
	}
	return 1.0
}

func volumeFactor(v, maxVolume int64) float64 {
	f := math.Log1p(float64(v)) / math.Log1p(float64(maxVolume))
	if math.IsNaN(f) {
		f = 0.5
	}
	return f*0.4 + 0.8
}

// Prioritize ranks a keyword by volume, holding back high-competition terms.
func Prioritize(volume int64, c keyword.Competition) Priority {
	switch {
	case volume > 100000 && (c == keyword.CompetitionLow || c == keyword.CompetitionMedium):
		return PriorityHigh
	case volume > 10000 && c != keyword.CompetitionHigh:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// ParseRange reads "<sym>lo - <sym>hi" back into numbers.
func ParseRange(s, symbol string) (lo, hi float64, ok bool) {
	if symbol != "" {
		s = strings.ReplaceAll(s, symbol, "")
	}
	a, b, found := strings.Cut(strings.TrimSpace(s), " - ")
	if !found {
		return 0, 0, false
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(a), 64)
	if err != nil {
		return 0, 0, false
	}
	hi, err = strconv.ParseFloat(strings.TrimSpace(b), 64)
	if err != nil {
		return 0, 0, false
	}
	return lo, hi, true
}

// WriteCSV writes bids in Columns order
func WriteCSV(w io.Writer, bids []Bid) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, b := range bids {
		rec := []string{
			b.Keyword,
			b.AdGroup,
			strconv.FormatInt(b.AvgMonthlySearches, 10),
			string(b.Competition),
			b.SuggestedCPCRange,
			keyword.FormatAmount(b.BaseTargetCPC),
			keyword.FormatAmount(b.AdjustmentFactor),
			keyword.FormatAmount(b.SuggestedBid),
			string(b.Priority),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
