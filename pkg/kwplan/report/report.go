package report

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/cognicore/kwplan/pkg/kwplan/keyword"
)

// Summary aggregates statistics over a result table.
type Summary struct {
	UniqueKeywords    int              `json:"unique_keywords"`
	TotalRows         int              `json:"total_rows"`
	AdGroups          int              `json:"ad_groups"`
	AvgSearchVolume   float64          `json:"avg_search_volume"`
	TotalSearchVolume int64            `json:"total_search_volume"`
	AvgSuggestedCPC   float64          `json:"avg_suggested_cpc"`
	HighPriority      int              `json:"high_priority"`
	Groups            []GroupStats     `json:"groups"`
	MatchTypes        []MatchTypeCount `json:"match_types"`
}

// GroupStats counts unique keywords and their volume in one ad group
type GroupStats struct {
	Name     string `json:"name"`
	Keywords int    `json:"keywords"`
	Volume   int64  `json:"volume"`
}

// MatchTypeCount is the number of rows per match type
type MatchTypeCount struct {
	MatchType keyword.MatchType `json:"match_type"`
	Count     int               `json:"count"`
}

// Summarize computes statistics over rows. Keyword-level figures (volume,
// priority) count each keyword once; CPC is averaged over all rows. Groups
// are sorted by name, match types by descending count.
func Summarize(rows []keyword.Row) Summary {
	s := Summary{TotalRows: len(rows)}
	if len(rows) == 0 {
		return s
	}

	seen := make(map[string]struct{})
	groupIndex := make(map[string]int)
	groupSeen := make(map[string]map[string]struct{})
	mtIndex := make(map[keyword.MatchType]int)
	var cpcSum float64

	for _, r := range rows {
		cpcSum += r.SuggestedCPC

		if i, ok := mtIndex[r.MatchType]; ok {
			s.MatchTypes[i].Count++
		} else {
			mtIndex[r.MatchType] = len(s.MatchTypes)
			s.MatchTypes = append(s.MatchTypes, MatchTypeCount{MatchType: r.MatchType, Count: 1})
		}

		gi, ok := groupIndex[r.AdGroup]
		if !ok {
			gi = len(s.Groups)
			groupIndex[r.AdGroup] = gi
			groupSeen[r.AdGroup] = make(map[string]struct{})
			s.Groups = append(s.Groups, GroupStats{Name: r.AdGroup})
		}
		if _, dup := groupSeen[r.AdGroup][r.Keyword]; !dup {
			groupSeen[r.AdGroup][r.Keyword] = struct{}{}
			s.Groups[gi].Keywords++
			s.Groups[gi].Volume += r.AvgMonthlySearches
		}

		if _, dup := seen[r.Keyword]; dup {
			continue
		}
		seen[r.Keyword] = struct{}{}
		s.UniqueKeywords++
		s.TotalSearchVolume += r.AvgMonthlySearches
		if r.HighPriority {
			s.HighPriority++
		}
	}

	sort.SliceStable(s.Groups, func(i, j int) bool { return s.Groups[i].Name < s.Groups[j].Name })
	sort.SliceStable(s.MatchTypes, func(i, j int) bool { return s.MatchTypes[i].Count > s.MatchTypes[j].Count })

	s.AdGroups = len(s.Groups)
	s.AvgSearchVolume = float64(s.TotalSearchVolume) / float64(s.UniqueKeywords)
	s.AvgSuggestedCPC = cpcSum / float64(len(rows))
	return s
}

// Group is the subset of rows for one ad group
type Group struct {
	Name     string
	SafeName string
	Rows     []keyword.Row
}

// ByAdGroup partitions rows by ad group in first-appearance order
func ByAdGroup(rows []keyword.Row) []Group {
	var groups []Group
	index := make(map[string]int)
	for _, r := range rows {
		i, ok := index[r.AdGroup]
		if !ok {
			i = len(groups)
			index[r.AdGroup] = i
			groups = append(groups, Group{Name: r.AdGroup, SafeName: SafeName(r.AdGroup)})
		}
		groups[i].Rows = append(groups[i].Rows, r)
	}
	return groups
}

var unsafeChars = regexp.MustCompile(`[^\p{L}\p{N}_\s\p{Z}-]`)

// SafeName strips characters that are not Unicode letters, digits,
// underscores, whitespace or hyphens, then replaces spaces with underscores.
func SafeName(group string) string {
	return strings.ReplaceAll(unsafeChars.ReplaceAllString(group, ""), " ", "_")
}

// Header describes the campaign the summary is printed for
type Header struct {
	Brand           string
	BrandURL        string
	Competitor      string
	CompetitorURL   string
	MinSearchVolume int64
	CurrencySymbol  string
}

// Print writes the console summary
func Print(w io.Writer, h Header, s Summary) error {
	rule := strings.Repeat("=", 60)
	thin := strings.Repeat("-", 60)

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\nKEYWORD RESEARCH SUMMARY\n%s\n", rule, rule)
	fmt.Fprintf(&b, "Brand: %s (%s)\n", h.Brand, h.BrandURL)
	fmt.Fprintf(&b, "Competitor: %s (%s)\n", h.Competitor, h.CompetitorURL)
	fmt.Fprintf(&b, "Min Search Volume: %d\n", h.MinSearchVolume)
	fmt.Fprintln(&b, thin)
	fmt.Fprintf(&b, "Unique Keywords: %d\n", s.UniqueKeywords)
	fmt.Fprintf(&b, "Total Variations: %d\n", s.TotalRows)
	fmt.Fprintf(&b, "Ad Groups: %d\n", s.AdGroups)
	fmt.Fprintf(&b, "Avg Search Volume: %.0f\n", s.AvgSearchVolume)
	fmt.Fprintf(&b, "Total Search Volume: %s\n", humanize.Comma(s.TotalSearchVolume))
	fmt.Fprintf(&b, "Avg Suggested CPC: %s%.2f\n", h.CurrencySymbol, s.AvgSuggestedCPC)
	fmt.Fprintf(&b, "High Priority Keywords: %d\n", s.HighPriority)
	fmt.Fprintln(&b, thin)
	fmt.Fprintln(&b, "AD GROUPS BREAKDOWN:")
	for _, g := range s.Groups {
		fmt.Fprintf(&b, "  - %s: %d keywords (%s volume)\n", g.Name, g.Keywords, humanize.Comma(g.Volume))
	}
	fmt.Fprintln(&b, thin)
	fmt.Fprintln(&b, "MATCH TYPES:")
	for _, m := range s.MatchTypes {
		fmt.Fprintf(&b, "  - %s: %d\n", m.MatchType, m.Count)
	}
	fmt.Fprintln(&b, rule)

	_, err := io.WriteString(w, b.String())
	return err
}
