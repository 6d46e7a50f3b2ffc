package rules

import "strings"

// DefaultGroup is assigned to terms listed before any group heading.
const DefaultGroup = "General"

const (
	headingMarker = "# "
	termMarker    = `- "`
)

// Rule maps a lowercase term to an ad group
type Rule struct {
	Term  string
	Group string
}

// Table is an ordered term → ad group mapping. A term keeps the position of
// its first appearance; a later duplicate only replaces the group.
type Table struct {
	rules []Rule
	index map[string]int
}

// New creates an empty rule table
func New() *Table {
	return &Table{index: make(map[string]int)}
}

// Add inserts or overwrites a term
func (t *Table) Add(term, group string) {
	term = strings.ToLower(term)
	if term == "" {
		return
	}
	if i, ok := t.index[term]; ok {
		t.rules[i].Group = group
		return
	}
	t.index[term] = len(t.rules)
	t.rules = append(t.rules, Rule{Term: term, Group: group})
}

// FromGroups builds a table from structured group → terms data. Groups are
// applied in the order given.
func FromGroups(groups []Group) *Table {
	t := New()
	for _, g := range groups {
		for _, term := range g.Terms {
			t.Add(term, g.Name)
		}
	}
	return t
}

// Group is a named list of terms
type Group struct {
	Name  string
	Terms []string
}

// Parse reads annotated configuration text. A line containing "# " and the
// word Terms or Queries starts a group; a line containing `- "` contributes
// the quoted term to the current group. Anything else is ignored.
func Parse(text string) *Table {
	t := New()
	current := DefaultGroup

	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(line, headingMarker) &&
			(strings.Contains(line, "Terms") || strings.Contains(line, "Queries")) {
			parts := strings.Split(line, headingMarker)
			current = strings.TrimSpace(parts[1])
			continue
		}
		if !strings.Contains(line, termMarker) {
			continue
		}
		rest := strings.SplitN(line, termMarker, 2)[1]
		term, _, _ := strings.Cut(rest, `"`)
		t.Add(term, current)
	}

	return t
}

// Lookup returns the group of the first term contained in the keyword.
// Matching is a plain substring test, so "cat" also matches "category".
func (t *Table) Lookup(keyword string) (string, bool) {
	if t == nil {
		return "", false
	}
	kw := strings.ToLower(strings.TrimSpace(keyword))
	for _, r := range t.rules {
		if strings.Contains(kw, r.Term) {
			return r.Group, true
		}
	}
	return "", false
}

// Rules returns a copy of the rules in iteration order
func (t *Table) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	copy(out, t.rules)
	return out
}

// Len returns the number of distinct terms
func (t *Table) Len() int {
	return len(t.rules)
}
