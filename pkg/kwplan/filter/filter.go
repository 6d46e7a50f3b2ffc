package filter

import (
	"strings"

	"github.com/cognicore/kwplan/pkg/kwplan/config"
	"github.com/cognicore/kwplan/pkg/kwplan/internalerr"
	"github.com/cognicore/kwplan/pkg/kwplan/keyword"
)

// Filter drops keywords that fail the volume, CPC or exclusion predicates
type Filter struct {
	minVolume int64
	maxCPC    *float64
	exclude   []string
}

// Stats counts how many records each step removed
type Stats struct {
	Input          int
	BelowVolume    int
	AboveCPC       int
	ExcludedByTerm map[string]int
	Output         int
}

// New builds a filter from configuration. min_search_volume is required.
func New(f config.Filters, excludeTerms []string) (*Filter, error) {
	if f.MinSearchVolume == nil {
		return nil, internalerr.Configf("filters.min_search_volume is required")
	}
	exclude := make([]string, 0, len(excludeTerms))
	for _, term := range excludeTerms {
		exclude = append(exclude, strings.ToLower(term))
	}
	return &Filter{
		minVolume: *f.MinSearchVolume,
		maxCPC:    f.MaxCPCThreshold,
		exclude:   exclude,
	}, nil
}

// Apply runs the predicate chain and keeps input order. The result may be
// empty; the caller decides whether that is an error.
func (f *Filter) Apply(records []keyword.Record) ([]keyword.Record, Stats) {
	stats := Stats{Input: len(records), ExcludedByTerm: make(map[string]int)}
	out := make([]keyword.Record, 0, len(records))

	for _, r := range records {
		switch reason, term := f.reject(r); reason {
		case rejectVolume:
			stats.BelowVolume++
		case rejectCPC:
			stats.AboveCPC++
		case rejectTerm:
			stats.ExcludedByTerm[term]++
		default:
			out = append(out, r)
		}
	}

	stats.Output = len(out)
	return out, stats
}

// Keep reports whether a single record passes every predicate
func (f *Filter) Keep(r keyword.Record) bool {
	reason, _ := f.reject(r)
	return reason == rejectNone
}

type rejection int

const (
	rejectNone rejection = iota
	rejectVolume
	rejectCPC
	rejectTerm
)

func (f *Filter) reject(r keyword.Record) (rejection, string) {
	if r.AvgMonthlySearches < f.minVolume {
		return rejectVolume, ""
	}
	if f.maxCPC != nil && r.TopPageBidHigh > *f.maxCPC {
		return rejectCPC, ""
	}
	if term, hit := f.excludedBy(r.Keyword); hit {
		return rejectTerm, term
	}
	return rejectNone, ""
}

func (f *Filter) excludedBy(kw string) (string, bool) {
	lower := strings.ToLower(kw)
	for _, term := range f.exclude {
		if strings.Contains(lower, term) {
			return term, true
		}
	}
	return "", false
}
