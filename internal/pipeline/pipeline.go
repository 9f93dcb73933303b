// Package pipeline runs a crawl: it pulls candidates from the selected source
// adapters and passes each through normalization, deduplication and the
// ingestion writer, recording the run in the catalog.
package pipeline

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vivahvendors/vendor-crawler/internal/catalog"
	"github.com/vivahvendors/vendor-crawler/internal/dedup"
	"github.com/vivahvendors/vendor-crawler/internal/ingest"
	"github.com/vivahvendors/vendor-crawler/internal/metrics"
	"github.com/vivahvendors/vendor-crawler/internal/model"
	"github.com/vivahvendors/vendor-crawler/internal/normalize"
	"github.com/vivahvendors/vendor-crawler/internal/source"
	"github.com/vivahvendors/vendor-crawler/internal/taxonomy"
)

// Status is the per-candidate status line tag.
type Status string

// Candidate statuses.
const (
	StatusNew   Status = "NEW"
	StatusUpd   Status = "UPD"
	StatusSkip  Status = "SKIP"
	StatusDedup Status = "DEDUP"
	StatusErr   Status = "ERR"
)

// Event describes one status line of a crawl.
type Event struct {
	Status       Status
	Source       string
	BusinessName string
	City         string
	Confidence   int
	ProfileID    string
	Reason       string
	Err          error
}

// String renders the event as a console status line.
func (e Event) String() string {
	switch e.Status {
	case StatusNew:
		return fmt.Sprintf("  [NEW] %q (%s)", e.BusinessName, e.City)
	case StatusDedup:
		return fmt.Sprintf("  [DEDUP] %q matches existing (confidence: %d)", e.BusinessName, e.Confidence)
	case StatusErr:
		return fmt.Sprintf("  [ERR] %q: %v", e.BusinessName, e.Err)
	case StatusSkip:
		return fmt.Sprintf("  [SKIP] %q (%s)", e.BusinessName, e.Reason)
	default:
		return fmt.Sprintf("  [%s] %q", e.Status, e.BusinessName)
	}
}

// ReasonInvalid is the skip reason of a record rejected by normalization.
const ReasonInvalid = "invalid data"

// RunOpts scopes one crawl.
type RunOpts struct {
	Source     string
	Region     string
	City       string
	Category   string
	MaxResults int
	// Seed marks an initial seed crawl; it only changes logging.
	Seed bool
}

// Label is the CrawlRun source descriptor, "<source> | <region>/<city>".
func (o RunOpts) Label() string {
	return fmt.Sprintf("%s | %s/%s", o.Source, o.Region, o.City)
}

// Mode returns SEED or REFRESH.
func (o RunOpts) Mode() string {
	if o.Seed {
		return "SEED"
	}
	return "REFRESH"
}

// RunResult is the outcome of a finished crawl.
type RunResult struct {
	RunID  string
	Status catalog.RunStatus
	catalog.RunCounts
	// Interrupted is set when the context was canceled mid-run.
	Interrupted bool
}

// Pipeline sequences adapters and candidates against one catalog.
type Pipeline struct {
	store    catalog.Store
	registry *source.Registry
	dict     *taxonomy.Dictionary
	recorder *metrics.Recorder
	observer func(Event)
	log      *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRecorder counts outcomes in r.
func WithRecorder(r *metrics.Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithObserver receives every status event in order.
func WithObserver(fn func(Event)) Option {
	return func(p *Pipeline) { p.observer = fn }
}

// New creates a Pipeline.
func New(store catalog.Store, registry *source.Registry, dict *taxonomy.Dictionary, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:    store,
		registry: registry,
		dict:     dict,
		log:      zap.L().With(zap.String("component", "pipeline")),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run crawls the selected sources. Startup failures (unknown source,
// vocabulary unavailable, run row not created) return an error before any
// candidate is processed. Per-candidate failures are tallied and never
// returned. The run row is finalized even when ctx is canceled.
func (p *Pipeline) Run(ctx context.Context, opts RunOpts) (*RunResult, error) {
	adapters, err := p.registry.Select(opts.Source)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: select source")
	}

	vocab, err := p.store.LoadVocabulary(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load vocabulary")
	}
	mapper := taxonomy.NewMapper(p.dict, vocab)

	run, err := p.store.StartRun(ctx, opts.Label())
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: start run")
	}

	log := p.log.With(zap.String("run_id", run.ID), zap.String("mode", opts.Mode()))
	log.Info("pipeline: crawl started",
		zap.String("source", opts.Source),
		zap.String("region", opts.Region),
		zap.String("city", opts.City),
		zap.String("category", opts.Category),
		zap.Int("max_results", opts.MaxResults),
		zap.Int("terms", vocab.TermCount()),
		zap.Int("categories", vocab.CategoryCount()),
	)

	c := &crawl{
		p:      p,
		dedup:  dedup.New(p.store),
		writer: ingest.NewWriter(p.store, mapper),
		log:    log,
	}
	cfg := source.ScrapeConfig{
		Region:     opts.Region,
		City:       opts.City,
		Category:   opts.Category,
		MaxResults: opts.MaxResults,
	}

	for _, a := range adapters {
		if ctx.Err() != nil {
			break
		}
		if !a.Active() {
			log.Warn("pipeline: adapter inactive, skipping", zap.String("source", a.Name()))
			continue
		}
		log.Info("pipeline: running adapter", zap.String("source", a.Name()))
		for raw := range a.Scrape(ctx, cfg) {
			if ctx.Err() != nil {
				break
			}
			c.process(ctx, raw)
		}
	}

	res := &RunResult{
		RunID:       run.ID,
		Status:      catalog.RunCompleted,
		RunCounts:   c.counts,
		Interrupted: ctx.Err() != nil,
	}
	if c.counts.Errors > 0 {
		res.Status = catalog.RunCompletedWithErrors
	}

	finishCtx := context.WithoutCancel(ctx)
	if err := p.store.FinishRun(finishCtx, run.ID, res.Status, res.RunCounts); err != nil {
		return res, eris.Wrap(err, "pipeline: finish run")
	}
	p.recorder.RunFinished(string(res.Status))

	log.Info("pipeline: crawl complete",
		zap.String("status", string(res.Status)),
		zap.Int("found", res.Found),
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
		zap.Int("skipped", res.Skipped),
		zap.Int("errors", res.Errors),
		zap.Bool("interrupted", res.Interrupted),
	)
	return res, nil
}

// crawl holds the per-run state.
type crawl struct {
	p      *Pipeline
	dedup  *dedup.Deduplicator
	writer *ingest.Writer
	counts catalog.RunCounts
	log    *zap.Logger
}

func (c *crawl) process(ctx context.Context, raw model.RawVendor) {
	c.counts.Found++

	v, ok := normalize.Normalize(raw)
	if !ok {
		c.counts.Skipped++
		c.emit(Event{Status: StatusSkip, Source: raw.Source, BusinessName: raw.BusinessName, City: raw.City, Reason: ReasonInvalid}, "skipped")
		return
	}

	verdict, err := c.dedup.Check(ctx, &v)
	if err != nil {
		c.counts.Errors++
		c.emit(Event{Status: StatusErr, Source: v.Source, BusinessName: v.BusinessName, City: v.City, Err: err}, "errors")
		return
	}
	if verdict.IsDuplicate {
		c.p.recorder.Confidence(verdict.Confidence)
		c.emit(Event{
			Status:       StatusDedup,
			Source:       v.Source,
			BusinessName: v.BusinessName,
			City:         v.City,
			Confidence:   verdict.Confidence,
			ProfileID:    verdict.MatchedID,
			Reason:       verdict.Signal,
		}, "")
	}

	res, err := c.writer.Write(ctx, &v, verdict.MatchedID)
	if err != nil {
		c.counts.Errors++
		c.emit(Event{Status: StatusErr, Source: v.Source, BusinessName: v.BusinessName, City: v.City, Confidence: verdict.Confidence, Err: err}, "errors")
		return
	}

	ev := Event{
		Source:       v.Source,
		BusinessName: v.BusinessName,
		City:         v.City,
		Confidence:   verdict.Confidence,
		ProfileID:    res.ProfileID,
		Reason:       res.Reason,
	}
	switch res.Outcome {
	case ingest.Created:
		c.counts.Created++
		ev.Status = StatusNew
	case ingest.Updated:
		c.counts.Updated++
		ev.Status = StatusUpd
	default:
		c.counts.Skipped++
		ev.Status = StatusSkip
	}
	c.emit(ev, string(res.Outcome))
}

// emit logs ev, forwards it to the observer and counts outcome when set.
func (c *crawl) emit(ev Event, outcome string) {
	fields := []zap.Field{
		zap.String("status", string(ev.Status)),
		zap.String("source", ev.Source),
		zap.String("business_name", ev.BusinessName),
		zap.String("city", ev.City),
		zap.Int("confidence", ev.Confidence),
	}
	if outcome != "" {
		fields = append(fields, zap.String("outcome", outcome))
	}
	if ev.ProfileID != "" {
		fields = append(fields, zap.String("profile_id", ev.ProfileID))
	}
	if ev.Reason != "" {
		fields = append(fields, zap.String("reason", ev.Reason))
	}

	if ev.Err != nil {
		c.log.Error("pipeline: candidate failed", append(fields, zap.Error(ev.Err))...)
	} else {
		c.log.Info("pipeline: candidate", fields...)
	}

	if outcome != "" {
		c.p.recorder.Outcome(ev.Source, outcome)
	}
	if c.p.observer != nil {
		c.p.observer(ev)
	}
}
