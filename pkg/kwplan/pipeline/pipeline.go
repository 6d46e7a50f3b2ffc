package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cognicore/kwplan/pkg/kwplan/bid"
	"github.com/cognicore/kwplan/pkg/kwplan/classify"
	"github.com/cognicore/kwplan/pkg/kwplan/config"
	"github.com/cognicore/kwplan/pkg/kwplan/filter"
	"github.com/cognicore/kwplan/pkg/kwplan/internalerr"
	"github.com/cognicore/kwplan/pkg/kwplan/keyword"
	"github.com/cognicore/kwplan/pkg/kwplan/metrics"
	"github.com/cognicore/kwplan/pkg/kwplan/source"
)

// Stage names used in errors, logs and metrics
const (
	StageLoad     = "load"
	StageValidate = "validate"
	StageDedupe   = "dedupe"
	StageFilter   = "filter"
	StageClassify = "classify"
	StageExpand   = "expand"
)

// Pipeline turns harvested keyword batches into the campaign result table:
// flatten → validate → dedupe → filter → classify → bid → expand
type Pipeline struct {
	filter         *filter.Filter
	classifier     *classify.Classifier
	priorityTerms  []string
	currencySymbol string
	logger         *zap.Logger
	metrics        *metrics.Recorder
}

// Options configures a Pipeline
type Options struct {
	Config  *config.Config
	Rules   classify.Lookuper
	Logger  *zap.Logger
	Metrics *metrics.Recorder
}

// New creates a pipeline from configuration and a rule table
func New(opts Options) (*Pipeline, error) {
	if opts.Config == nil {
		return nil, internalerr.Configf("no configuration given")
	}
	cfg := opts.Config

	f, err := filter.New(cfg.Filters, cfg.Advanced.ExcludeTerms)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	priority := make([]string, 0, len(cfg.Advanced.HighPriorityTerms))
	for _, term := range cfg.Advanced.HighPriorityTerms {
		priority = append(priority, strings.ToLower(term))
	}

	symbol := cfg.Output.CurrencySymbol
	if symbol == "" {
		symbol = config.DefaultCurrencySymbol
	}

	return &Pipeline{
		filter:         f,
		classifier:     classify.New(opts.Rules, classify.ParseStrategy(cfg.Advanced.MatchTypeStrategy)),
		priorityTerms:  priority,
		currencySymbol: symbol,
		logger:         logger,
		metrics:        opts.Metrics,
	}, nil
}

// Result is the outcome of a successful run
type Result struct {
	Rows       []keyword.Row
	Classified []keyword.Classified
	Raw        int
	Deduped    int
	Filter     filter.Stats
}

// Run processes the batches. Any error aborts the run and no partial result
// is returned.
func (p *Pipeline) Run(ctx context.Context, batches []source.Batch) (*Result, error) {
	start := time.Now()
	res, err := p.run(ctx, batches)
	if err != nil {
		stage := StageLoad
		var se *internalerr.StageError
		if errors.As(err, &se) {
			stage = se.Stage
		}
		p.metrics.Finish(start, stage)
		p.logger.Error("keyword pipeline failed", zap.String("stage", stage), zap.Error(err))
		return nil, err
	}
	p.metrics.Finish(start, "")
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, batches []source.Batch) (*Result, error) {
	records, err := p.flatten(batches)
	if err != nil {
		return nil, err
	}
	raw := countRaw(batches)
	p.metrics.Stage(StageLoad, raw)
	p.logger.Info("loaded keywords", zap.Int("raw", raw), zap.Int("sources", len(batches)))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	deduped := Dedupe(records)
	p.metrics.Stage(StageDedupe, len(deduped))

	kept, stats := p.filter.Apply(deduped)
	p.recordFilter(stats)
	p.logger.Info("filtered keywords",
		zap.Int("deduped", len(deduped)),
		zap.Int("filtered", len(kept)),
		zap.Int("below_volume", stats.BelowVolume),
		zap.Int("above_cpc", stats.AboveCPC))
	if len(kept) == 0 {
		return nil, &internalerr.StageError{
			Stage:     StageFilter,
			Kind:      internalerr.ErrEmptyResult,
			Input:     len(deduped),
			Remaining: 0,
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	classified := make([]keyword.Classified, 0, len(kept))
	for _, rec := range kept {
		classified = append(classified, p.Classify(rec))
	}
	p.metrics.Stage(StageClassify, len(classified))

	rows := Expand(classified)
	for _, row := range rows {
		p.metrics.Row(string(row.MatchType))
	}
	p.metrics.Stage(StageExpand, len(rows))
	p.logger.Info("expanded rows", zap.Int("keywords", len(classified)), zap.Int("rows", len(rows)))

	return &Result{
		Rows:       rows,
		Classified: classified,
		Raw:        raw,
		Deduped:    len(deduped),
		Filter:     stats,
	}, nil
}

// flatten tags each record with its source and validates it. Every bad
// record is reported, not just the first.
func (p *Pipeline) flatten(batches []source.Batch) ([]keyword.Record, error) {
	raw := countRaw(batches)
	if raw == 0 {
		return nil, &internalerr.StageError{Stage: StageLoad, Kind: internalerr.ErrEmptyInput}
	}

	records := make([]keyword.Record, 0, raw)
	var errs []error
	for _, b := range batches {
		for i, r := range b.Records {
			rec, err := r.Record(b.Name)
			if err != nil {
				errs = append(errs, fmt.Errorf("source %q record %d: %w", b.Name, i, err))
				continue
			}
			records = append(records, rec)
		}
	}
	if len(errs) > 0 {
		return nil, &internalerr.StageError{
			Stage:     StageValidate,
			Kind:      internalerr.ErrMalformedRecord,
			Input:     raw,
			Remaining: len(records),
			Detail:    errors.Join(errs...),
		}
	}
	return records, nil
}

func (p *Pipeline) recordFilter(stats filter.Stats) {
	p.metrics.Stage(StageFilter, stats.Output)
	p.metrics.Dropped("volume", stats.BelowVolume)
	p.metrics.Dropped("cpc", stats.AboveCPC)
	excluded := 0
	for _, n := range stats.ExcludedByTerm {
		excluded += n
	}
	p.metrics.Dropped("exclude_term", excluded)
}

// Classify assigns ad group, priority, CPC window and match types
func (p *Pipeline) Classify(rec keyword.Record) keyword.Classified {
	group := p.classifier.AssignAdGroup(rec.Keyword)
	rc := clampWindow(bid.Recommend(rec.TopPageBidLow, rec.TopPageBidHigh, rec.Competition, rec.AvgMonthlySearches))

	return keyword.Classified{
		Record:          rec,
		AdGroup:         group,
		HighPriority:    p.isHighPriority(rec.Keyword),
		SuggestedCPCMin: rc.Min,
		SuggestedCPCMax: rc.Max,
		SuggestedCPC:    rc.Suggested,
		CPCRange:        rc.Range(p.currencySymbol),
		MatchTypes:      p.classifier.DetermineMatchTypes(rec.Keyword, group, rec.AvgMonthlySearches),
	}
}

// clampWindow raises Max to Min when the recorded high bid fell below the
// floor, and keeps Suggested inside the window.
func clampWindow(rc bid.Recommendation) bid.Recommendation {
	rc.Max = math.Max(rc.Max, rc.Min)
	rc.Suggested = math.Min(math.Max(rc.Suggested, rc.Min), rc.Max)
	return rc
}

func (p *Pipeline) isHighPriority(kw string) bool {
	lower := strings.ToLower(kw)
	for _, term := range p.priorityTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// Dedupe keeps the first record for each keyword, preserving order
func Dedupe(records []keyword.Record) []keyword.Record {
	seen := make(map[string]struct{}, len(records))
	out := make([]keyword.Record, 0, len(records))
	for _, r := range records {
		if _, ok := seen[r.Keyword]; ok {
			continue
		}
		seen[r.Keyword] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Expand emits one row per match type in classification order. A repeated
// match type for the same keyword is emitted once.
func Expand(classified []keyword.Classified) []keyword.Row {
	rows := make([]keyword.Row, 0, len(classified))
	for _, c := range classified {
		emitted := make(map[keyword.MatchType]struct{}, len(c.MatchTypes))
		for _, mt := range c.MatchTypes {
			if _, ok := emitted[mt]; ok {
				continue
			}
			emitted[mt] = struct{}{}
			rows = append(rows, keyword.Row{
				Keyword:            c.Keyword,
				AdGroup:            c.AdGroup,
				MatchType:          mt,
				AvgMonthlySearches: c.AvgMonthlySearches,
				Competition:        c.Competition,
				SuggestedCPC:       c.SuggestedCPC,
				SuggestedCPCRange:  c.CPCRange,
				HighPriority:       c.HighPriority,
				Source:             c.Source,
			})
		}
	}
	return rows
}

func countRaw(batches []source.Batch) int {
	n := 0
	for _, b := range batches {
		n += len(b.Records)
	}
	return n
}
