package classify

import (
	"testing"

	"github.com/cognicore/kwplan/pkg/kwplan/keyword"
	"github.com/cognicore/kwplan/pkg/kwplan/rules"
)

func testTable() *rules.Table {
	return rules.FromGroups([]rules.Group{
		{Name: "Brand Terms", Terms: []string{"dominos"}},
		{Name: "Pizza Queries", Terms: []string{"pizza"}},
	})
}

func TestAssignAdGroup(t *testing.T) {
	c := New(testTable(), StrategyDefault)

	tests := []struct {
		keyword string
		want    string
	}{
		{"Dominos Menu", "Brand Terms"},
		{"cheese pizza delivery", "Pizza Queries"},
		{"running shoes", FallbackGroup},
		{"", FallbackGroup},
	}
	for _, tt := range tests {
		if got := c.AssignAdGroup(tt.keyword); got != tt.want {
			t.Errorf("AssignAdGroup(%q) = %q, want %q", tt.keyword, got, tt.want)
		}
	}
}

func TestAssignAdGroupNilTable(t *testing.T) {
	c := New(nil, StrategyDefault)
	if got := c.AssignAdGroup("dominos"); got != FallbackGroup {
		t.Errorf("Expected fallback group, got %q", got)
	}
}

func TestParseStrategy(t *testing.T) {
	tests := map[string]Strategy{
		"conservative": StrategyConservative,
		"aggressive":   StrategyAggressive,
		"intelligent":  StrategyDefault,
		"default":      StrategyDefault,
		"":             StrategyDefault,
		"Conservative": StrategyDefault,
	}
	for in, want := range tests {
		if got := ParseStrategy(in); got != want {
			t.Errorf("ParseStrategy(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestDetermineMatchTypes(t *testing.T) {
	tests := []struct {
		name     string
		strategy Strategy
		keyword  string
		adGroup  string
		volume   int64
		want     keyword.MatchType
	}{
		{"conservative brand", StrategyConservative, "dominos", "Brand Terms", 10, keyword.MatchExact},
		{"conservative high volume", StrategyConservative, "buy shoes online", FallbackGroup, 6000, keyword.MatchExact},
		{"conservative boundary", StrategyConservative, "buy shoes", FallbackGroup, 5000, keyword.MatchPhrase},
		{"conservative low volume", StrategyConservative, "buy shoes", FallbackGroup, 10, keyword.MatchPhrase},

		{"aggressive volume", StrategyAggressive, "a b c d e", FallbackGroup, 1001, keyword.MatchExact},
		{"aggressive short", StrategyAggressive, "a b c", FallbackGroup, 1000, keyword.MatchPhrase},
		{"aggressive long", StrategyAggressive, "a b c d", FallbackGroup, 1000, keyword.MatchBroad},
		{"aggressive ignores brand", StrategyAggressive, "a b c d", "Brand Terms", 10, keyword.MatchBroad},

		{"default brand", StrategyDefault, "a b c d e", "Brand Terms", 1, keyword.MatchExact},
		{"default brand is case sensitive", StrategyDefault, "a b c d e", "brand terms", 1, keyword.MatchBroad},
		{"default high short", StrategyDefault, "a b c", FallbackGroup, 5001, keyword.MatchExact},
		{"default high long", StrategyDefault, "a b c d", FallbackGroup, 5001, keyword.MatchPhrase},
		{"default medium", StrategyDefault, "a", FallbackGroup, 1001, keyword.MatchPhrase},
		{"default low", StrategyDefault, "a", FallbackGroup, 1000, keyword.MatchBroad},
		{"unrecognized falls through", ParseStrategy("smart"), "a", FallbackGroup, 1000, keyword.MatchBroad},
		{"whitespace tokens", StrategyAggressive, "  a\tb   c\n ", FallbackGroup, 0, keyword.MatchPhrase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(testTable(), tt.strategy)
			got := c.DetermineMatchTypes(tt.keyword, tt.adGroup, tt.volume)
			if len(got) != 1 {
				t.Fatalf("Expected exactly one match type, got %v", got)
			}
			if got[0] != tt.want {
				t.Errorf("got %s, want %s", got[0], tt.want)
			}
		})
	}
}

func TestDetermineMatchTypesTotal(t *testing.T) {
	strategies := []Strategy{StrategyDefault, StrategyConservative, StrategyAggressive, Strategy(42)}
	keywords := []string{"", "one", "one two three", "one two three four five"}
	groups := []string{FallbackGroup, "Brand Terms"}
	volumes := []int64{0, 1000, 1001, 5000, 5001, 1 << 40}

	for _, s := range strategies {
		c := New(nil, s)
		for _, kw := range keywords {
			for _, g := range groups {
				for _, v := range volumes {
					got := c.DetermineMatchTypes(kw, g, v)
					if len(got) != 1 {
						t.Fatalf("%v/%q/%q/%d: expected one match type, got %v", s, kw, g, v, got)
					}
					switch got[0] {
					case keyword.MatchExact, keyword.MatchPhrase, keyword.MatchBroad:
					default:
						t.Errorf("unexpected match type %q", got[0])
					}
				}
			}
		}
	}
}
