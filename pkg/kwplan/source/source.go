package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/cognicore/kwplan/pkg/kwplan/internalerr"
	"github.com/cognicore/kwplan/pkg/kwplan/keyword"
)

// RawRecord is a harvested keyword as it appears on disk. Pointer fields
// let the pipeline tell a missing field from a zero value.
type RawRecord struct {
	Keyword            *string  `json:"keyword"`
	AvgMonthlySearches *float64 `json:"avg_monthly_searches"`
	Competition        *string  `json:"competition"`
	TopPageBidLow      *float64 `json:"top_page_bid_low"`
	TopPageBidHigh     *float64 `json:"top_page_bid_high"`
}

// Batch is the list of records harvested from one source
type Batch struct {
	Name    string
	Records []RawRecord
}

// Record converts the raw entry into a keyword.Record tagged with source.
func (r RawRecord) Record(source string) (keyword.Record, error) {
	var missing []string
	if r.Keyword == nil {
		missing = append(missing, "keyword")
	}
	if r.AvgMonthlySearches == nil {
		missing = append(missing, "avg_monthly_searches")
	}
	if r.Competition == nil {
		missing = append(missing, "competition")
	}
	if r.TopPageBidLow == nil {
		missing = append(missing, "top_page_bid_low")
	}
	if r.TopPageBidHigh == nil {
		missing = append(missing, "top_page_bid_high")
	}
	if len(missing) > 0 {
		return keyword.Record{}, fmt.Errorf("%w: missing %s", internalerr.ErrMalformedRecord, strings.Join(missing, ", "))
	}

	volume, err := wholeVolume(*r.AvgMonthlySearches)
	if err != nil {
		return keyword.Record{}, fmt.Errorf("%w: %q %v", internalerr.ErrMalformedRecord, *r.Keyword, err)
	}

	rec := keyword.Record{
		Keyword:            *r.Keyword,
		Source:             source,
		AvgMonthlySearches: volume,
		Competition:        keyword.Competition(*r.Competition),
		TopPageBidLow:      *r.TopPageBidLow,
		TopPageBidHigh:     *r.TopPageBidHigh,
	}
	if err := rec.Validate(); err != nil {
		return keyword.Record{}, err
	}
	return rec, nil
}

// wholeVolume accepts only finite whole numbers that fit an int64.
func wholeVolume(v float64) (int64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, fmt.Errorf("avg_monthly_searches %v is not a whole number", v)
	}
	if v >= math.MaxInt64 || v < math.MinInt64 {
		return 0, fmt.Errorf("avg_monthly_searches %v is out of range", v)
	}
	return int64(v), nil
}

// FromRecord wraps a complete record, for callers building input in code.
func FromRecord(rec keyword.Record) RawRecord {
	kw := rec.Keyword
	vol := float64(rec.AvgMonthlySearches)
	comp := string(rec.Competition)
	low, high := rec.TopPageBidLow, rec.TopPageBidHigh
	return RawRecord{
		Keyword:            &kw,
		AvgMonthlySearches: &vol,
		Competition:        &comp,
		TopPageBidLow:      &low,
		TopPageBidHigh:     &high,
	}
}

// LoadJSON loads a source-name → records object from a file
func LoadJSON(path string) ([]Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}
	batches, err := DecodeJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return batches, nil
}

// DecodeJSON decodes a source-name → records object, keeping the sources in
// document order.
func DecodeJSON(r io.Reader) ([]Batch, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object of sources, got %v", tok)
	}

	var batches []Batch
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected source name, got %v", tok)
		}
		var records []RawRecord
		if err := dec.Decode(&records); err != nil {
			return nil, fmt.Errorf("source %q: %w", name, err)
		}
		batches = append(batches, Batch{Name: name, Records: records})
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return batches, nil
}

type jsonlRecord struct {
	Source string `json:"source"`
	RawRecord
}

// LoadJSONL loads one record per line; each line names its source.
// Malformed lines are skipped with a warning.
func LoadJSONL(path string, logger *zap.Logger) ([]Batch, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}

	var batches []Batch
	index := make(map[string]int)

	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var rec jsonlRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			logger.Warn("skipping malformed JSON line",
				zap.String("path", path), zap.Int("line", i+1), zap.Error(err))
			continue
		}
		pos, ok := index[rec.Source]
		if !ok {
			pos = len(batches)
			index[rec.Source] = pos
			batches = append(batches, Batch{Name: rec.Source})
		}
		batches[pos].Records = append(batches[pos].Records, rec.RawRecord)
	}

	return batches, nil
}

// WriteJSON writes batches as a source-name → records object in order
func WriteJSON(w io.Writer, batches []Batch) error {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, b := range batches {
		name, err := json.Marshal(b.Name)
		if err != nil {
			return err
		}
		records := b.Records
		if records == nil {
			records = []RawRecord{}
		}
		body, err := json.MarshalIndent(records, "  ", "  ")
		if err != nil {
			return err
		}
		buf.WriteString("  ")
		buf.Write(name)
		buf.WriteString(": ")
		buf.Write(body)
		if i < len(batches)-1 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")
	_, err := w.Write(buf.Bytes())
	return err
}
