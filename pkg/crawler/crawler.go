// Package crawler runs the continuous search loop: request a page, persist
// it, pace the next request off the returned quota state, repeat until the
// context is cancelled.
package crawler

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"xscraper/pkg/crawlog"
	"xscraper/pkg/errors"
	"xscraper/pkg/logger"
	"xscraper/pkg/ratelimit"
	"xscraper/pkg/xapi"
)

// SearchClient is the one API operation the engine needs.
type SearchClient interface {
	SearchRecent(ctx context.Context, p xapi.SearchParams) (*xapi.SearchResult, error)
}

// StepWriter persists one iteration. Satisfied by crawlog.Writer.
type StepWriter interface {
	WriteStep(p xapi.Pagination, rl ratelimit.Status) error
	WritePosts(posts []xapi.Post) error
}

// Config is the state of one crawl invocation. Query, MaxResults and Delay
// are fixed for the run; the two cursors are updated by the engine after
// every step.
type Config struct {
	Query      string
	MaxResults int
	NextToken  string
	SinceID    string
	Delay      time.Duration
	// Grace is added when sleeping through an exhausted quota window.
	// Zero means ratelimit.DefaultGrace.
	Grace time.Duration
}

// Resume reconstructs the cursors from the last crawl_step of a prior log.
// Everything else in base is kept as-is.
func Resume(path string, base Config) (Config, error) {
	step, err := crawlog.LastStep(path)
	if err != nil {
		return Config{}, err
	}
	base.SinceID = step.Pagination.NewestID
	base.NextToken = step.Pagination.NextToken
	return base, nil
}

// Engine drives the crawl loop.
type Engine struct {
	client SearchClient
	logger logger.Logger

	// sleep is swapped out by tests so loop iterations run instantly
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an engine around a search client.
func New(client SearchClient, log logger.Logger) *Engine {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Engine{
		client: client,
		logger: log,
		sleep:  sleepContext,
	}
}

// Run crawls until ctx is cancelled, which is the loop's only clean exit.
// Each iteration appends the crawl_step record first and its posts after
// it, then waits for whichever is longer: the fixed courtesy delay, or the
// quota reset when the page reported an exhausted limit. Request errors are
// logged and retried after the fixed delay; only config errors (a missing
// token has no chance of fixing itself) and log-write failures are fatal.
func (e *Engine) Run(ctx context.Context, cfg Config, w StepWriter) error {
	gate := ratelimit.NewGate(cfg.Delay)
	if cfg.Grace > 0 {
		gate.Grace = cfg.Grace
	}

	e.logger.InfoWithFields("starting crawl", map[string]interface{}{
		"query":       cfg.Query,
		"max_results": cfg.MaxResults,
		"since_id":    cfg.SinceID,
		"next_token":  cfg.NextToken,
		"delay":       cfg.Delay.String(),
	})

	for step := 1; ; step++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		result, err := e.client.SearchRecent(ctx, xapi.SearchParams{
			Query:      cfg.Query,
			MaxResults: cfg.MaxResults,
			NextToken:  cfg.NextToken,
			SinceID:    cfg.SinceID,
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.IsFatal(err) {
				return err
			}

			e.logger.WarnWithFields("search request failed, retrying", map[string]interface{}{
				"error":       err.Error(),
				"retry_after": cfg.Delay.String(),
			})
			if err := e.sleep(ctx, cfg.Delay); err != nil {
				return err
			}
			continue
		}

		// Losing the log is losing the crawl; a failed append is fatal.
		if err := w.WriteStep(result.Pagination, result.RateLimit); err != nil {
			return fmt.Errorf("failed to append crawl step: %w", err)
		}
		if err := w.WritePosts(result.Posts); err != nil {
			return fmt.Errorf("failed to append posts: %w", err)
		}

		cfg.NextToken = result.Pagination.NextToken
		cfg.SinceID = advanceSinceID(cfg.SinceID, result.Pagination.NewestID)

		wait := gate.Wait(result.RateLimit)
		e.logger.InfoWithFields("crawl step complete", map[string]interface{}{
			"step":         step,
			"result_count": result.Pagination.ResultCount,
			"newest_id":    result.Pagination.NewestID,
			"next_token":   result.Pagination.NextToken,
			"remaining":    result.RateLimit.Remaining,
			"wait":         wait.String(),
		})

		if err := e.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// advanceSinceID moves the watermark forward, never back. A response with
// no newest_id keeps the current value; one whose id compares lower (which
// a well-behaved endpoint never sends) is ignored too.
func advanceSinceID(current, newest string) string {
	if newest == "" {
		return current
	}
	if current == "" {
		return newest
	}

	cur, errCur := strconv.ParseUint(current, 10, 64)
	next, errNext := strconv.ParseUint(newest, 10, 64)
	if errCur != nil || errNext != nil {
		// Non-numeric ids: trust the endpoint's ordering
		return newest
	}
	if next < cur {
		return current
	}
	return newest
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
