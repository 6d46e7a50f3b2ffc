package keyword

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cognicore/kwplan/pkg/kwplan/internalerr"
)

// Competition is the bidding competition level reported by the source.
// Values outside Low/Medium/High are carried through unchanged.
type Competition string

const (
	CompetitionLow    Competition = "Low"
	CompetitionMedium Competition = "Medium"
	CompetitionHigh   Competition = "High"
)

// Normalized returns the lowercase, trimmed competition text.
func (c Competition) Normalized() string {
	return strings.ToLower(strings.TrimSpace(string(c)))
}

// MatchType is the search-query matching strictness of an ad keyword.
type MatchType string

const (
	MatchExact  MatchType = "Exact"
	MatchPhrase MatchType = "Phrase"
	MatchBroad  MatchType = "Broad"
)

// Record is one harvested keyword
type Record struct {
	Keyword            string      `json:"keyword"`
	Source             string      `json:"source,omitempty"`
	AvgMonthlySearches int64       `json:"avg_monthly_searches"`
	Competition        Competition `json:"competition"`
	TopPageBidLow      float64     `json:"top_page_bid_low"`
	TopPageBidHigh     float64     `json:"top_page_bid_high"`
}

// Validate checks the record has the fields the engine needs
func (r *Record) Validate() error {
	if strings.TrimSpace(r.Keyword) == "" {
		return fmt.Errorf("%w: keyword is required", internalerr.ErrMalformedRecord)
	}
	if r.AvgMonthlySearches < 0 {
		return fmt.Errorf("%w: %q has negative search volume", internalerr.ErrMalformedRecord, r.Keyword)
	}
	if r.TopPageBidLow < 0 || r.TopPageBidHigh < 0 {
		return fmt.Errorf("%w: %q has negative bid", internalerr.ErrMalformedRecord, r.Keyword)
	}
	return nil
}

// Classified is a record after ad-group, priority and CPC assignment.
type Classified struct {
	Record
	AdGroup         string
	HighPriority    bool
	SuggestedCPCMin float64
	SuggestedCPCMax float64
	SuggestedCPC    float64
	CPCRange        string
	MatchTypes      []MatchType
}

// Row is one (keyword, match type) line of the result table.
type Row struct {
	Keyword            string
	AdGroup            string
	MatchType          MatchType
	AvgMonthlySearches int64
	Competition        Competition
	SuggestedCPC       float64
	SuggestedCPCRange  string
	HighPriority       bool
	Source             string
}

// Columns is the fixed column order of the result table.
var Columns = []string{
	"keyword",
	"ad_group",
	"match_type",
	"avg_monthly_searches",
	"competition",
	"suggested_cpc",
	"suggested_cpc_range",
	"high_priority",
	"source",
}

// Values renders the row in Columns order.
func (r Row) Values() []string {
	return []string{
		r.Keyword,
		r.AdGroup,
		string(r.MatchType),
		strconv.FormatInt(r.AvgMonthlySearches, 10),
		string(r.Competition),
		FormatAmount(r.SuggestedCPC),
		r.SuggestedCPCRange,
		strconv.FormatBool(r.HighPriority),
		r.Source,
	}
}

// FormatAmount renders an amount in shortest form, always with a decimal point.
func FormatAmount(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
