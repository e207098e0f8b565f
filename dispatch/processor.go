// Package dispatch runs matched domain handlers concurrently with bounded
// fan-out, per-task deadlines, and failure isolation: one handler's error,
// timeout, or panic never disturbs its siblings.
package dispatch

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/powerautomation/domainmcp/domains"
	"github.com/powerautomation/domainmcp/errors"
)

// DefaultMaxConcurrent bounds one batch's parallel handler invocations.
const DefaultMaxConcurrent = 5

// Failure describes one task that produced no result. Elapsed is seconds
// from dispatch until the task was given up on.
type Failure struct {
	DomainID string
	Err      error
	Elapsed  float64
}

// Processor fans one request out to its matched handlers.
type Processor struct {
	maxConcurrent int
	logger        *zap.SugaredLogger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New creates a processor. maxConcurrent <= 0 uses the default of 5.
func New(maxConcurrent int, logger *zap.SugaredLogger) *Processor {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Processor{
		maxConcurrent: maxConcurrent,
		logger:        logger,
		limiters:      make(map[string]*rate.Limiter),
	}
}

// limiter returns the domain's dispatch limiter, creating it on first use.
// nil means the domain is unlimited.
func (p *Processor) limiter(info domains.DomainInfo) *rate.Limiter {
	if info.MaxRequestsPerMinute <= 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	lim, ok := p.limiters[info.ID]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(float64(info.MaxRequestsPerMinute)/60.0), 1)
		p.limiters[info.ID] = lim
	}
	return lim
}

// ProcessBatch runs every match concurrently and gathers the outcomes.
// Matches beyond the concurrency bound are dropped, not queued. The first
// return value holds successful results in match order; everything else
// comes back as a Failure so the caller can record it.
//
// Cancelling ctx fails the outstanding tasks with the context's error;
// results already produced are still returned.
func (p *Processor) ProcessBatch(ctx context.Context, requestText string, matches []domains.DomainMatch, domainContext map[string]any) ([]*domains.DomainResult, []Failure) {
	if len(matches) == 0 {
		return nil, nil
	}
	if len(matches) > p.maxConcurrent {
		p.logger.Debugw("Truncating match list to concurrency bound",
			"matched", len(matches),
			"max_concurrent", p.maxConcurrent)
		matches = matches[:p.maxConcurrent]
	}

	results := make([]*domains.DomainResult, len(matches))
	failures := make([]*Failure, len(matches))

	var wg sync.WaitGroup
	for i, match := range matches {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], failures[i] = p.runTask(ctx, requestText, match, domainContext)
		}()
	}
	wg.Wait()

	var ok []*domains.DomainResult
	var failed []Failure
	for i := range matches {
		if results[i] != nil {
			ok = append(ok, results[i])
		}
		if failures[i] != nil {
			failed = append(failed, *failures[i])
		}
	}
	return ok, failed
}

type outcome struct {
	result *domains.DomainResult
	err    error
}

// runTask executes one handler invocation with its deadline and updates
// the handler's own metrics on every path where the handler actually ran.
func (p *Processor) runTask(ctx context.Context, requestText string, match domains.DomainMatch, domainContext map[string]any) (*domains.DomainResult, *Failure) {
	start := time.Now()

	fail := func(err error) (*domains.DomainResult, *Failure) {
		return nil, &Failure{
			DomainID: match.DomainID,
			Err:      err,
			Elapsed:  time.Since(start).Seconds(),
		}
	}

	if lim := p.limiter(match.Info); lim != nil && !lim.Allow() {
		p.logger.Debugw("Dispatch over rate limit, skipping",
			"domain_id", match.DomainID,
			"max_per_minute", match.Info.MaxRequestsPerMinute)
		// The handler never ran, so its metrics are untouched.
		return fail(errors.Wrapf(errors.ErrRateLimited, "domain %q", match.DomainID))
	}

	taskCtx := ctx
	if match.Info.MaxProcessingTime > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(ctx, match.Info.MaxProcessingTime)
		defer cancel()
	}

	// The handler runs in its own goroutine so a handler that ignores
	// ctx still cannot hold the task past its deadline.
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: errors.Newf("handler panicked: %v", r)}
			}
		}()
		res, err := match.Handler.ProcessDomainRequest(taskCtx, requestText, domainContext, match.Confidence)
		done <- outcome{result: res, err: err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-taskCtx.Done():
		elapsed := time.Since(start).Seconds()
		match.Handler.Metrics().Update(elapsed, match.Confidence, false)

		err := taskCtx.Err()
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = errors.Wrapf(errors.ErrHandlerTimeout,
				"domain %q exceeded %s", match.DomainID, match.Info.MaxProcessingTime)
			p.logger.Warnw("Handler timed out",
				"domain_id", match.DomainID,
				"max_processing_time", match.Info.MaxProcessingTime)
		}
		return fail(err)
	}

	elapsed := time.Since(start).Seconds()

	if out.err != nil {
		match.Handler.Metrics().Update(elapsed, match.Confidence, false)
		p.logger.Warnw("Handler failed",
			"domain_id", match.DomainID,
			"error", out.err)
		return fail(errors.WrapHandlerExecution(out.err, match.DomainID))
	}
	if out.result == nil {
		match.Handler.Metrics().Update(elapsed, match.Confidence, false)
		return fail(errors.WrapHandlerExecution(errors.New("handler returned no result"), match.DomainID))
	}

	result := out.result
	if result.DomainID == "" {
		result.DomainID = match.DomainID
	}
	if result.ResultType == "" {
		result.ResultType = match.Info.ResultType
	}
	result.ProcessingTime = elapsed

	match.Handler.Metrics().Update(elapsed, result.Confidence, true)
	return result, nil
}
