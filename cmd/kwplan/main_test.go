package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/kwplan/pkg/kwplan/export"
	"github.com/cognicore/kwplan/pkg/kwplan/internalerr"
	"github.com/cognicore/kwplan/pkg/kwplan/keyword"
)

const rawData = `{
  "brand": [
    {"keyword": "dominos menu", "avg_monthly_searches": 9000, "competition": "High", "top_page_bid_low": 2.0, "top_page_bid_high": 6.0},
    {"keyword": "dominos jobs", "avg_monthly_searches": 5000, "competition": "Low", "top_page_bid_low": 0, "top_page_bid_high": 0}
  ],
  "competitor": [
    {"keyword": "veg pizza delivery", "avg_monthly_searches": 2000, "competition": "Low", "top_page_bid_low": 0, "top_page_bid_high": 0},
    {"keyword": "dominos menu", "avg_monthly_searches": 1, "competition": "Low", "top_page_bid_low": 0, "top_page_bid_high": 0},
    {"keyword": "rare pizza", "avg_monthly_searches": 50, "competition": "Low", "top_page_bid_low": 0, "top_page_bid_high": 0}
  ]
}`

// writeFixture lays out a campaign directory and returns the config path.
func writeFixture(t *testing.T) (dir, configPath string) {
	t.Helper()
	dir = t.TempDir()
	out := filepath.Join(dir, "output")

	cfg := `brand:
  name: Dominos
  url: https://dominos.co.in
competitor:
  name: Pizza Hut
filters:
  min_search_volume: 100
  max_cpc_threshold: 50
advanced:
  match_type_strategy: conservative
  exclude_terms: ["jobs"]
  high_priority_terms: ["delivery"]
output:
  raw_data_file: ` + filepath.Join(dir, "raw.json") + `
  output_dir: ` + out + `
  create_individual_adgroup_files: true
  archive_path: ` + filepath.Join(dir, "runs.db") + `
  metrics_path: ` + filepath.Join(dir, "kwplan.prom") + `
category_terms: ["pizza"]
service_locations: ["mumbai"]
ad_group_rules:
  # Dominos Brand Terms
  - "dominos"
  # Pizza Queries
  - "pizza"
`
	configPath = filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "raw.json"), []byte(rawData), 0o644))
	return dir, configPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stdout)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), err
}

func TestProcessThenDownstream(t *testing.T) {
	dir, configPath := writeFixture(t)
	out := filepath.Join(dir, "output")

	stdout, err := execute(t, "process", "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Unique Keywords: 2")
	assert.Contains(t, stdout, "Dominos Brand Terms: 1 keywords")

	rows, err := export.LoadCSV(filepath.Join(out, "keyword_research_results.csv"))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, keyword.Row{
		Keyword: "dominos menu", AdGroup: "Dominos Brand Terms", MatchType: keyword.MatchExact,
		AvgMonthlySearches: 9000, Competition: "High", SuggestedCPC: 4.8,
		SuggestedCPCRange: "₹2.40 - ₹7.20", Source: "brand",
	}, rows[0])
	assert.Equal(t, "Pizza Queries", rows[1].AdGroup)
	assert.Equal(t, keyword.MatchPhrase, rows[1].MatchType)
	assert.True(t, rows[1].HighPriority)

	for _, name := range []string{"adgroup_Dominos_Brand_Terms.csv", "adgroup_Pizza_Queries.csv", "summary.json"} {
		assert.FileExists(t, filepath.Join(out, name))
	}
	assert.FileExists(t, filepath.Join(dir, "runs.db"))

	prom, err := os.ReadFile(filepath.Join(dir, "kwplan.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(prom), "kwplan_stage_records")

	_, err = execute(t, "themes", "--config", configPath)
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(out, themesFile))
	require.NoError(t, err)
	var themes map[string][]string
	require.NoError(t, json.Unmarshal(data, &themes))
	assert.Equal(t, []string{"Dominos Brand Terms"}, themes["Brand Themes"])
	assert.Equal(t, []string{"Pizza Queries"}, themes["Category - Pizza"])

	_, err = execute(t, "shopping-bids", "--config", configPath)
	require.NoError(t, err)
	bids, err := os.ReadFile(filepath.Join(out, shoppingFile))
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(bids)), "\n"), 3)

	stdout, err = execute(t, "runs", "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "conservative")
	assert.Equal(t, 2, strings.Count(stdout, "\n"), "header plus one run")
}

func TestProcessEmptyResult(t *testing.T) {
	dir, configPath := writeFixture(t)
	none := filepath.Join(dir, "none.json")
	require.NoError(t, os.WriteFile(none, []byte(`{"brand": [{"keyword": "x", "avg_monthly_searches": 1, "competition": "Low", "top_page_bid_low": 0, "top_page_bid_high": 0}]}`), 0o644))

	_, err := execute(t, "process", "--config", configPath, "--input", none)
	assert.ErrorIs(t, err, internalerr.ErrEmptyResult)
	assert.NoFileExists(t, filepath.Join(dir, "output", "keyword_research_results.csv"))
	assert.FileExists(t, filepath.Join(dir, "kwplan.prom"), "failed runs still export metrics")
}

func TestProcessArchiveFailureWritesNoResults(t *testing.T) {
	dir, configPath := writeFixture(t)
	cfg, err := os.ReadFile(configPath)
	require.NoError(t, err)
	unreachable := filepath.Join(dir, "missing", "runs.db")
	cfg = []byte(strings.Replace(string(cfg), filepath.Join(dir, "runs.db"), unreachable, 1))
	require.NoError(t, os.WriteFile(configPath, cfg, 0o644))

	_, err = execute(t, "process", "--config", configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "archive run")

	entries, err := os.ReadDir(filepath.Join(dir, "output"))
	require.NoError(t, err)
	assert.Empty(t, entries, "no result or temp files after a failed archive")
}

func TestProcessMissingConfigKey(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("advanced:\n  match_type_strategy: default\n"), 0o644))

	_, err := execute(t, "process", "--config", configPath)
	assert.ErrorIs(t, err, internalerr.ErrConfiguration)
}

func TestImportHTML(t *testing.T) {
	dir, configPath := writeFixture(t)
	page := filepath.Join(dir, "brand.html")
	require.NoError(t, os.WriteFile(page, []byte(`<table>
<thead><tr><th>Keyword</th><th>Search Volume</th><th>Low Range</th><th>High Range</th><th>Competition</th></tr></thead>
<tbody><tr><td>dominos offers</td><td>12,000</td><td>₹3.10</td><td>₹9.50</td><td>Medium</td></tr></tbody>
</table>`), 0o644))
	raw := filepath.Join(dir, "imported.json")

	_, err := execute(t, "import-html", "--config", configPath, "--out", raw, page)
	require.NoError(t, err)

	stdout, err := execute(t, "process", "--config", configPath, "--input", raw)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Unique Keywords: 1")
}
