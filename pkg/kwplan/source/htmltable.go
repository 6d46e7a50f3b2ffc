package source

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Column positions assumed when the header gives no hint:
// keyword, search volume, low bid, high bid, competition.
var defaultColumns = columns{keyword: 0, volume: 1, low: 2, high: 3, competition: 4}

type columns struct {
	keyword, volume, low, high, competition int
}

func (c columns) shiftedTo(kw int) columns {
	return columns{keyword: kw, volume: kw + 1, low: kw + 2, high: kw + 3, competition: kw + 4}
}

// ParseHTMLTable extracts keyword rows from a saved keyword-planner results
// page. The table whose header mentions "keyword" or "search" is used,
// otherwise the first table.
func ParseHTMLTable(r io.Reader) ([]RawRecord, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	tables := findAll(doc, atom.Table)
	if len(tables) == 0 {
		return nil, nil
	}
	target := tables[0]
	for _, t := range tables {
		var hint []string
		for _, h := range headerCells(t, true) {
			hint = append(hint, strings.ToLower(textOf(h)))
		}
		joined := strings.Join(hint, " ")
		if strings.Contains(joined, "keyword") || strings.Contains(joined, "search") {
			target = t
			break
		}
	}

	var header []string
	for _, h := range headerCells(target, false) {
		header = append(header, strings.ToLower(collapseSpace(textOf(h))))
	}
	cols := columns{
		keyword:     headerIndex(header, "keyword", defaultColumns.keyword),
		volume:      headerIndex(header, "search volume", defaultColumns.volume),
		low:         headerIndex(header, "low range", defaultColumns.low),
		high:        headerIndex(header, "high range", defaultColumns.high),
		competition: headerIndex(header, "competition", defaultColumns.competition),
	}

	var out []RawRecord
	for _, body := range findAll(target, atom.Tbody) {
		for _, tr := range children(body, atom.Tr) {
			if rec, ok := parseRow(tr, cols); ok {
				out = append(out, rec)
			}
		}
	}
	return out, nil
}

func parseRow(tr *html.Node, cols columns) (RawRecord, bool) {
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.DataAtom == atom.Th || c.DataAtom == atom.Td) {
			cells = append(cells, strings.TrimSpace(textOf(c)))
		}
	}
	if len(cells) == 0 {
		return RawRecord{}, false
	}

	cell := func(i int) string {
		if i >= 0 && i < len(cells) {
			return cells[i]
		}
		return ""
	}

	// A numeric keyword cell usually means a leading index or checkbox
	// column; realign on the first cell that has letters.
	if !looksLikeText(cell(cols.keyword)) {
		for i, txt := range cells {
			if looksLikeText(txt) {
				cols = cols.shiftedTo(i)
				break
			}
		}
	}

	kw := cell(cols.keyword)
	if !looksLikeText(kw) {
		return RawRecord{}, false
	}
	competition := cell(cols.competition)
	if competition == "" {
		competition = "Unknown"
	}
	volume := parseNumber(cell(cols.volume))
	low := parseNumber(cell(cols.low))
	high := parseNumber(cell(cols.high))

	return RawRecord{
		Keyword:            &kw,
		AvgMonthlySearches: &volume,
		Competition:        &competition,
		TopPageBidLow:      &low,
		TopPageBidHigh:     &high,
	}, true
}

var (
	nonNumeric = regexp.MustCompile(`[^\d.\-,]`)
	firstNum   = regexp.MustCompile(`-?\d+(\.\d+)?`)
)

// parseNumber strips currency symbols, spaces and thousands separators and
// returns the first number found, or 0.
func parseNumber(text string) float64 {
	cleaned := nonNumeric.ReplaceAllString(text, "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	m := firstNum.FindString(cleaned)
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return v
}

func looksLikeText(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func headerIndex(header []string, name string, fallback int) int {
	for i, h := range header {
		if strings.Contains(h, name) {
			return i
		}
	}
	return fallback
}

// headerCells returns th cells under thead; with loose set it also accepts
// th anywhere in the table and td under thead.
func headerCells(table *html.Node, loose bool) []*html.Node {
	var out []*html.Node
	for _, head := range findAll(table, atom.Thead) {
		out = append(out, findAll(head, atom.Th)...)
		if loose {
			out = append(out, findAll(head, atom.Td)...)
		}
	}
	if loose && len(out) == 0 {
		out = findAll(table, atom.Th)
	}
	return out
}

func findAll(n *html.Node, a atom.Atom) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == html.ElementNode && child.DataAtom == a {
				out = append(out, child)
			}
			walk(child)
		}
	}
	walk(n)
	return out
}

func children(n *html.Node, a atom.Atom) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			out = append(out, c)
		}
	}
	return out
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
