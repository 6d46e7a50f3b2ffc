package classify

import (
	"github.com/cognicore/kwplan/pkg/kwplan/keyword"
	"github.com/cognicore/kwplan/pkg/kwplan/rules"
)

// FallbackGroup is the ad group for keywords no rule matches
const FallbackGroup = "General Keywords"

// Lookuper resolves a keyword to an ad group
type Lookuper interface {
	Lookup(keyword string) (string, bool)
}

// Classifier assigns ad groups and match types
type Classifier struct {
	rules    Lookuper
	strategy Strategy
}

// New creates a classifier over a rule table. A nil table assigns every
// keyword to FallbackGroup.
func New(table Lookuper, strategy Strategy) *Classifier {
	if table == nil {
		table = rules.New()
	}
	return &Classifier{rules: table, strategy: strategy}
}

// Strategy returns the configured match-type strategy
func (c *Classifier) Strategy() Strategy {
	return c.strategy
}

// AssignAdGroup returns the rule-table group for the keyword, or FallbackGroup
func (c *Classifier) AssignAdGroup(kw string) string {
	if group, ok := c.rules.Lookup(kw); ok && group != "" {
		return group
	}
	return FallbackGroup
}

// DetermineMatchTypes returns the match types to bid on. Every strategy
// currently yields exactly one type; callers expand one row per entry.
func (c *Classifier) DetermineMatchTypes(kw, adGroup string, volume int64) []keyword.MatchType {
	return []keyword.MatchType{c.strategy.decide(newSignals(kw, adGroup, volume))}
}
