package export

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/cognicore/kwplan/pkg/kwplan/internalerr"
	"github.com/cognicore/kwplan/pkg/kwplan/keyword"
	"github.com/cognicore/kwplan/pkg/kwplan/report"
)

// bom is the UTF-8 byte order mark spreadsheet tools use to detect encoding.
const bom = "\ufeff"

// WriteCSV writes rows in keyword.Columns order, preceded by a header.
func WriteCSV(w io.Writer, rows []keyword.Row, withBOM bool) error {
	if withBOM {
		if _, err := io.WriteString(w, bom); err != nil {
			return err
		}
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(keyword.Columns); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.Values()); err != nil {
			return fmt.Errorf("write %q: %w", r.Keyword, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reads a result table written by WriteCSV. Columns are located by
// header name so reordered or extra columns are tolerated; keyword is the
// only required column.
func ReadCSV(r io.Reader) ([]keyword.Row, error) {
	reader := csv.NewReader(stripBOM(r))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: no header", internalerr.ErrEmptyInput)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}
	if _, ok := index["keyword"]; !ok {
		return nil, fmt.Errorf("%w: header has no keyword column", internalerr.ErrMalformedRecord)
	}

	var rows []keyword.Row
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		field := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return rec[i]
		}

		row := keyword.Row{
			Keyword:           field("keyword"),
			AdGroup:           field("ad_group"),
			MatchType:         keyword.MatchType(field("match_type")),
			Competition:       keyword.Competition(field("competition")),
			SuggestedCPCRange: field("suggested_cpc_range"),
			Source:            field("source"),
		}
		if v := field("avg_monthly_searches"); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w: avg_monthly_searches %q", line, internalerr.ErrMalformedRecord, v)
			}
			row.AvgMonthlySearches = int64(f)
		}
		if v := field("suggested_cpc"); v != "" {
			if row.SuggestedCPC, err = strconv.ParseFloat(v, 64); err != nil {
				return nil, fmt.Errorf("line %d: %w: suggested_cpc %q", line, internalerr.ErrMalformedRecord, v)
			}
		}
		if v := field("high_priority"); v != "" {
			if row.HighPriority, err = strconv.ParseBool(v); err != nil {
				return nil, fmt.Errorf("line %d: %w: high_priority %q", line, internalerr.ErrMalformedRecord, v)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// LoadCSV reads a result table from a file
func LoadCSV(path string) ([]keyword.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(bufio.NewReader(f))
}

// stripBOM wraps a reader to strip a UTF-8 BOM if present.
func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(bom)); err == nil && string(head) == bom {
		br.Discard(len(bom))
	}
	return br
}

// Writer lays out result files under one output directory
type Writer struct {
	Dir         string
	MainFile    string
	SummaryFile string
	PerGroup    bool
	Logger      *zap.Logger
}

// Files lists what a Write produced
type Files struct {
	Main    string
	Summary string
	Groups  []string
}

// Staged holds fully written temp files that have not replaced their
// targets yet. Exactly one of Commit or Discard should follow.
type Staged struct {
	files   Files
	pending []pendingFile
	logger  *zap.Logger
}

type pendingFile struct {
	tmp, final string
}

// Write stages and commits in one step.
func (w *Writer) Write(ctx context.Context, rows []keyword.Row) (Files, error) {
	staged, err := w.Stage(ctx, rows)
	if err != nil {
		return Files{}, err
	}
	return staged.Commit()
}

// Stage writes the main table (with BOM), the summary JSON when SummaryFile
// is set and, when PerGroup is set, one adgroup_<name>.csv per ad group, all
// to temp files in Dir. On error every temp file is removed and no target
// is touched.
func (w *Writer) Stage(ctx context.Context, rows []keyword.Row) (*Staged, error) {
	logger := w.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	s := &Staged{logger: logger}
	add := func(name string, fill func(io.Writer) error) (string, error) {
		final := filepath.Join(w.Dir, name)
		tmp, err := writeTemp(w.Dir, name, fill)
		if err != nil {
			return "", fmt.Errorf("write %s: %w", final, err)
		}
		s.pending = append(s.pending, pendingFile{tmp: tmp, final: final})
		return final, nil
	}

	var err error
	if s.files.Main, err = add(w.MainFile, func(f io.Writer) error { return WriteCSV(f, rows, true) }); err != nil {
		s.Discard()
		return nil, err
	}
	if w.SummaryFile != "" {
		summary := report.Summarize(rows)
		if s.files.Summary, err = add(w.SummaryFile, func(f io.Writer) error { return encodeJSON(f, summary) }); err != nil {
			s.Discard()
			return nil, err
		}
	}
	if w.PerGroup {
		for _, g := range report.ByAdGroup(rows) {
			if err := ctx.Err(); err != nil {
				s.Discard()
				return nil, err
			}
			path, err := add("adgroup_"+g.SafeName+".csv", func(f io.Writer) error { return WriteCSV(f, g.Rows, false) })
			if err != nil {
				s.Discard()
				return nil, err
			}
			s.files.Groups = append(s.files.Groups, path)
		}
	}
	logger.Debug("staged result files", zap.Int("files", len(s.pending)), zap.Int("rows", len(rows)))
	return s, nil
}

// Commit renames every staged file onto its target. If a rename fails the
// remaining temp files are removed.
func (s *Staged) Commit() (Files, error) {
	for i, p := range s.pending {
		if err := os.Rename(p.tmp, p.final); err != nil {
			s.pending = s.pending[i:]
			s.Discard()
			return Files{}, fmt.Errorf("commit %s: %w", p.final, err)
		}
		s.logger.Debug("wrote result file", zap.String("path", p.final))
	}
	s.pending = nil
	s.logger.Info("wrote result table", zap.String("path", s.files.Main), zap.Int("group_files", len(s.files.Groups)))
	return s.files, nil
}

// Discard removes the staged temp files
func (s *Staged) Discard() {
	for _, p := range s.pending {
		os.Remove(p.tmp)
	}
	s.pending = nil
}

// WriteJSON writes v as indented JSON to path, creating parent directories.
func WriteJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return writeFile(path, func(w io.Writer) error { return encodeJSON(w, v) })
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// writeTemp fills a hidden temp file next to the target and returns its path.
func writeTemp(dir, name string, fill func(io.Writer) error) (string, error) {
	f, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return "", err
	}
	bw := bufio.NewWriter(f)
	err = f.Chmod(0o644)
	if err == nil {
		err = fill(bw)
	}
	if err == nil {
		err = bw.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func writeFile(path string, fill func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := fill(bw); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
