package themes

import (
	"encoding/json"
	"sort"
	"strings"
	"unicode"

	"github.com/cognicore/kwplan/pkg/kwplan/keyword"
)

const (
	BrandTheme      = "Brand Themes"
	CompetitorTheme = "Competitor Themes"
	GeneralTheme    = "General Themes"
)

// Options names the terms ad groups are matched against. Empty brand or
// competitor names fall back to "brand" and "competitor".
type Options struct {
	Brand      string
	Competitor string
	Categories []string
	Locations  []string
}

// Theme is a named set of ad groups
type Theme struct {
	Name     string
	AdGroups []string
}

// Themes is the ordered theme listing; it marshals as a JSON object.
type Themes []Theme

// Build groups the distinct ad groups of rows into Performance Max themes.
// An ad group can land in several themes: brand or competitor (brand wins),
// every matching category and location, and General when nothing matched.
// Themes appear in first-assignment order; each theme's groups are sorted.
func Build(rows []keyword.Row, opts Options) Themes {
	brand := strings.ToLower(orDefault(opts.Brand, "brand"))
	competitor := strings.ToLower(orDefault(opts.Competitor, "competitor"))

	var out Themes
	index := make(map[string]int)
	members := make(map[string]map[string]struct{})
	add := func(theme, group string) {
		i, ok := index[theme]
		if !ok {
			i = len(out)
			index[theme] = i
			members[theme] = make(map[string]struct{})
			out = append(out, Theme{Name: theme})
		}
		if _, dup := members[theme][group]; dup {
			return
		}
		members[theme][group] = struct{}{}
		out[i].AdGroups = append(out[i].AdGroups, group)
	}

	seen := make(map[string]struct{})
	for _, r := range rows {
		group := r.AdGroup
		if _, dup := seen[group]; dup {
			continue
		}
		seen[group] = struct{}{}
		lower := strings.ToLower(group)

		matched := false
		switch {
		case strings.Contains(lower, brand):
			add(BrandTheme, group)
			matched = true
		case strings.Contains(lower, competitor):
			add(CompetitorTheme, group)
			matched = true
		}
		for _, term := range opts.Categories {
			if strings.Contains(lower, strings.ToLower(term)) {
				add("Category - "+title(term), group)
				matched = true
			}
		}
		for _, loc := range opts.Locations {
			if strings.Contains(lower, strings.ToLower(loc)) {
				add("Location - "+title(loc), group)
				matched = true
			}
		}
		if !matched {
			add(GeneralTheme, group)
		}
	}

	for i := range out {
		sort.Strings(out[i].AdGroups)
	}
	return out
}

// Get returns the ad groups of a theme, or nil
func (t Themes) Get(name string) []string {
	for _, th := range t {
		if th.Name == name {
			return th.AdGroups
		}
	}
	return nil
}

// MarshalJSON writes the themes as an object keyed by theme name, keeping
// theme order.
func (t Themes) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, th := range t {
		if i > 0 {
			b.WriteByte(',')
		}
		name, err := marshalNoEscape(th.Name)
		if err != nil {
			return nil, err
		}
		groups, err := marshalNoEscape(th.AdGroups)
		if err != nil {
			return nil, err
		}
		b.Write(name)
		b.WriteByte(':')
		b.Write(groups)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

func marshalNoEscape(v any) ([]byte, error) {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return []byte(strings.TrimSuffix(b.String(), "\n")), nil
}

// title upper-cases the first letter of every word and lower-cases the rest.
func title(s string) string {
	runes := []rune(s)
	prevLetter := false
	for i, r := range runes {
		if prevLetter {
			runes[i] = unicode.ToLower(r)
		} else {
			runes[i] = unicode.ToUpper(r)
		}
		prevLetter = unicode.IsLetter(r)
	}
	return string(runes)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
