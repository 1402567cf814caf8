// Package enrich runs the batch enrichment pipeline: select eligible
// targets, crawl, extract, merge, retry failures once, report.
package enrich

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/vet-enrich/internal/cost"
	"github.com/sells-group/vet-enrich/internal/crawl"
	"github.com/sells-group/vet-enrich/internal/extract"
	"github.com/sells-group/vet-enrich/internal/model"
	"github.com/sells-group/vet-enrich/internal/store"
)

// DefaultConcurrency bounds how many targets are processed at once.
const DefaultConcurrency = 5

// progressInterval controls how often batch progress is logged.
const progressInterval = 10

// Crawler fetches a target's pages.
type Crawler interface {
	FetchTarget(ctx context.Context, homepageURL string) ([]model.PageFetchResult, error)
}

// Extractor turns page text into a structured record.
type Extractor interface {
	Extract(ctx context.Context, practiceName, websiteText string) (*model.ExtractionRecord, error)
}

// Gateway is the record store boundary.
type Gateway interface {
	QueryEligible(ctx context.Context, limit int) ([]model.Target, error)
	Merge(ctx context.Context, targetID string, rec *model.ExtractionRecord) error
	MarkFailed(ctx context.Context, targetID, errMsg string) error
}

// Options configures an Orchestrator.
type Options struct {
	Concurrency int
	Limit       int // max targets per run, 0 = all eligible

	// Cache is optional; when set, crawls are served from and written to it.
	Cache    store.Store
	CacheTTL time.Duration
}

// Orchestrator drives one enrichment batch.
type Orchestrator struct {
	crawler     Crawler
	extractor   Extractor
	gateway     Gateway
	ledger      *cost.Ledger
	cache       store.Store
	cacheTTL    time.Duration
	concurrency int
	limit       int
}

// New creates an Orchestrator.
func New(crawler Crawler, extractor Extractor, gateway Gateway, ledger *cost.Ledger, opts Options) *Orchestrator {
	o := &Orchestrator{
		crawler:     crawler,
		extractor:   extractor,
		gateway:     gateway,
		ledger:      ledger,
		cache:       opts.Cache,
		cacheTTL:    opts.CacheTTL,
		concurrency: opts.Concurrency,
		limit:       opts.Limit,
	}
	if o.concurrency <= 0 {
		o.concurrency = DefaultConcurrency
	}
	if o.cacheTTL <= 0 {
		o.cacheTTL = store.DefaultCrawlTTL
	}
	return o
}

// Run executes one batch. Failed targets get exactly one retry pass after
// the main pass; a budget denial aborts further LLM work but keeps every
// merge that already completed. The returned run reports the final state
// even when processing aborted.
func (o *Orchestrator) Run(ctx context.Context) (*model.EnrichmentRun, error) {
	run := &model.EnrichmentRun{
		ID:        uuid.New().String(),
		State:     model.RunStateSelecting,
		StartedAt: time.Now().UTC(),
	}
	log := zap.L().With(zap.String("run_id", run.ID))

	targets, err := o.gateway.QueryEligible(ctx, o.limit)
	if err != nil {
		return nil, eris.Wrap(err, "enrich: select targets")
	}
	run.TargetsTotal = len(targets)

	if len(targets) == 0 {
		log.Info("enrich: no eligible targets")
		run.State = model.RunStateDone
		return run, nil
	}

	log.Info("enrich: batch starting",
		zap.Int("targets", len(targets)),
		zap.Int("concurrency", o.concurrency),
	)

	run.State = model.RunStateProcessing
	results, aborted := o.processAll(ctx, targets, false)

	// Exactly one retry pass over the failures, unless the budget is gone.
	if !aborted {
		var retryTargets []model.Target
		for _, r := range results {
			if r.Status.Retryable() {
				retryTargets = append(retryTargets, r.Target)
			}
		}
		if len(retryTargets) > 0 {
			run.State = model.RunStateRetrying
			log.Info("enrich: retry pass", zap.Int("targets", len(retryTargets)))

			retryResults, retryAborted := o.processAll(ctx, retryTargets, true)
			aborted = retryAborted
			results = mergeResults(results, retryResults)
		}
	}

	run.State = model.RunStateReporting
	o.recordFailures(ctx, results)

	run.Results = results
	for _, r := range results {
		switch {
		case r.Status == model.StatusSucceeded:
			run.Succeeded++
		case r.Status.Failed():
			run.FailedAfterRetry++
		}
	}

	sum := o.ledger.Snapshot()
	run.TotalCost = sum.Cumulative
	run.CallCount = sum.CallCount
	run.Duration = time.Since(run.StartedAt)

	if aborted {
		run.State = model.RunStateAborted
	} else {
		run.State = model.RunStateDone
	}

	log.Info("enrich: batch complete",
		zap.String("state", string(run.State)),
		zap.Int("succeeded", run.Succeeded),
		zap.Int("failed", run.FailedAfterRetry),
		zap.Float64("cost", run.TotalCost),
		zap.Duration("elapsed", run.Duration),
	)

	return run, nil
}

// processAll runs one pass over the targets with bounded concurrency. It
// returns a result per target and whether the budget was exhausted. On
// abort, targets that have not started yet come back skipped.
func (o *Orchestrator) processAll(ctx context.Context, targets []model.Target, retryPass bool) ([]model.TargetResult, bool) {
	var mu sync.Mutex
	results := make([]model.TargetResult, len(targets))
	aborted := false
	done := 0

	procCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g := new(errgroup.Group)
	g.SetLimit(o.concurrency)

	for i, target := range targets {
		g.Go(func() error {
			mu.Lock()
			stop := aborted
			mu.Unlock()

			if stop || procCtx.Err() != nil {
				results[i] = model.TargetResult{
					Target:  target,
					Status:  model.StatusSkipped,
					Error:   "skipped: budget exhausted",
					Retried: retryPass,
				}
				return nil
			}

			res := o.processOne(procCtx, target)
			res.Retried = retryPass

			mu.Lock()
			results[i] = res
			done++
			if res.Status == model.StatusSkipped {
				aborted = true
				cancel()
			}
			if done%progressInterval == 0 {
				sum := o.ledger.Snapshot()
				zap.L().Info("enrich: progress",
					zap.Int("done", done),
					zap.Int("total", len(targets)),
					zap.Float64("cost", sum.Cumulative),
					zap.Float64("budget", sum.Budget),
				)
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results, aborted
}

// processOne runs the full pipeline for a single target.
func (o *Orchestrator) processOne(ctx context.Context, target model.Target) model.TargetResult {
	start := time.Now()
	log := zap.L().With(
		zap.String("target_id", target.ID),
		zap.String("practice", target.Name),
	)

	res := model.TargetResult{Target: target}

	pages, err := o.fetchPages(ctx, target)
	if err != nil {
		if canceled(ctx, err) {
			return skipResult(res, start)
		}
		res.Status = model.StatusFetchFailed
		res.Error = err.Error()
		res.Duration = time.Since(start)
		return res
	}
	res.PagesFetched = len(pages)

	if !crawl.AnySucceeded(pages) {
		if ctx.Err() != nil {
			return skipResult(res, start)
		}
		res.Status = model.StatusFetchFailed
		res.Error = "all page fetches failed"
		res.Duration = time.Since(start)
		log.Warn("enrich: fetch failed", zap.Int("pages_attempted", len(pages)))
		return res
	}

	content := crawl.AllocateBudget(pages)
	if content == "" {
		res.Status = model.StatusFetchFailed
		res.Error = "no usable page content"
		res.Duration = time.Since(start)
		return res
	}

	rec, err := o.extractor.Extract(ctx, target.Name, content)
	if err != nil {
		var budgetErr *cost.BudgetExceededError
		var schemaErr *extract.SchemaError
		switch {
		case errors.As(err, &budgetErr):
			// No call was made; the target stays eligible for the next run.
			res.Status = model.StatusSkipped
			res.Error = err.Error()
			log.Warn("enrich: budget exhausted, aborting batch", zap.Error(err))
		case errors.As(err, &schemaErr):
			// The same content yields the same malformed response, so a
			// second paid call is wasted spend.
			res.Status = model.StatusSchemaFailed
			res.Error = err.Error()
			log.Warn("enrich: response rejected, not retrying", zap.Error(err))
		case canceled(ctx, err):
			return skipResult(res, start)
		default:
			res.Status = model.StatusLLMFailed
			res.Error = err.Error()
			log.Warn("enrich: extraction failed", zap.Error(err))
		}
		res.Duration = time.Since(start)
		return res
	}

	if err := o.gateway.Merge(ctx, target.ID, rec); err != nil {
		if canceled(ctx, err) {
			return skipResult(res, start)
		}
		res.Status = model.StatusUpsertFailed
		res.Error = err.Error()
		res.Duration = time.Since(start)
		log.Warn("enrich: merge failed", zap.Error(err))
		return res
	}

	res.Status = model.StatusSucceeded
	res.Duration = time.Since(start)
	log.Debug("enrich: target complete",
		zap.Int("pages", res.PagesFetched),
		zap.Duration("elapsed", res.Duration),
	)
	return res
}

// canceled reports whether err is collateral from a cancelled pass rather
// than a real target failure.
func canceled(ctx context.Context, err error) bool {
	return errors.Is(err, context.Canceled) || ctx.Err() != nil
}

// skipResult finalizes a target cut short by run abort. It is never written
// back as failed, so the target stays eligible for the next run.
func skipResult(res model.TargetResult, start time.Time) model.TargetResult {
	res.Status = model.StatusSkipped
	res.Error = "skipped: run aborted"
	res.Duration = time.Since(start)
	return res
}

// fetchPages serves a crawl from cache when possible.
func (o *Orchestrator) fetchPages(ctx context.Context, target model.Target) ([]model.PageFetchResult, error) {
	if o.cache != nil {
		cached, err := o.cache.GetCachedCrawl(ctx, target.HomepageURL)
		if err != nil {
			zap.L().Warn("enrich: cache read failed", zap.Error(err))
		} else if cached != nil {
			return cached.Pages, nil
		}
	}

	pages, err := o.crawler.FetchTarget(ctx, target.HomepageURL)
	if err != nil {
		return nil, err
	}

	if o.cache != nil && crawl.AnySucceeded(pages) {
		if err := o.cache.SetCachedCrawl(ctx, target.HomepageURL, pages, o.cacheTTL); err != nil {
			zap.L().Warn("enrich: cache write failed", zap.Error(err))
		}
	}

	return pages, nil
}

// recordFailures marks still-failed targets in the record store. Budget
// skips are left untouched so they stay eligible next run.
func (o *Orchestrator) recordFailures(ctx context.Context, results []model.TargetResult) {
	for _, r := range results {
		if !r.Status.Failed() {
			continue
		}
		msg := r.Error
		if msg == "" {
			msg = "enrichment failed"
		}
		if err := o.gateway.MarkFailed(ctx, r.Target.ID, msg); err != nil {
			zap.L().Warn("enrich: mark failed errored",
				zap.String("target_id", r.Target.ID),
				zap.Error(err),
			)
		}
	}
}

// mergeResults overlays retry outcomes onto the first-pass results by
// target ID.
func mergeResults(first, retry []model.TargetResult) []model.TargetResult {
	byID := make(map[string]model.TargetResult, len(retry))
	for _, r := range retry {
		byID[r.Target.ID] = r
	}
	out := make([]model.TargetResult, len(first))
	for i, r := range first {
		if rr, ok := byID[r.Target.ID]; ok {
			out[i] = rr
		} else {
			out[i] = r
		}
	}
	return out
}
