// Package enrich implements the author-enrichment pass over a crawl log.
//
// The pass is two scans with a lookup phase between them: scan the log for
// the distinct author ids it references, resolve them in batches against
// the user-lookup endpoint, then scan again writing every record through to
// the output with author_data layered onto posts whose author resolved.
// The input log is never touched; a crash mid-run leaves it intact.
package enrich

import (
	"context"
	"time"

	"xscraper/pkg/crawlog"
	"xscraper/pkg/errors"
	"xscraper/pkg/logger"
	"xscraper/pkg/ratelimit"
	"xscraper/pkg/xapi"
)

// UserClient is the one API operation the pass needs.
type UserClient interface {
	GetUsersBatch(ctx context.Context, ids []string) ([]xapi.User, ratelimit.Status, error)
}

// Stats summarizes one enrichment run.
type Stats struct {
	Posts    int // post records seen
	Authors  int // distinct author ids referenced
	Resolved int // ids the lookup endpoint knew
	Enriched int // post records written with author_data
	Skipped  int // malformed input lines
}

// Enricher runs the pass.
type Enricher struct {
	client UserClient
	logger logger.Logger
	grace  time.Duration

	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures an Enricher
type Option func(*Enricher)

// WithGrace overrides the extra wait added past an exhausted window's
// reset time.
func WithGrace(d time.Duration) Option {
	return func(e *Enricher) {
		if d > 0 {
			e.grace = d
		}
	}
}

// New creates an enricher around a user-lookup client.
func New(client UserClient, log logger.Logger, opts ...Option) *Enricher {
	if log == nil {
		log = logger.GetLogger()
	}
	e := &Enricher{
		client: client,
		logger: log,
		grace:  ratelimit.DefaultGrace,
		sleep: func(ctx context.Context, d time.Duration) error {
			t := time.NewTimer(d)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
				return nil
			}
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run enriches inPath into outPath. Failures to read, resolve or write are
// enrich errors; an unknown author is not an error, that post is passed
// through without author_data.
func (e *Enricher) Run(ctx context.Context, inPath, outPath string) (Stats, error) {
	var stats Stats

	ids, err := e.collectAuthorIDs(inPath, &stats)
	if err != nil {
		return stats, err
	}
	stats.Authors = len(ids)

	e.logger.InfoWithFields("collected author ids", map[string]interface{}{
		"posts":   stats.Posts,
		"authors": stats.Authors,
	})

	authors, err := e.resolveAuthors(ctx, ids)
	if err != nil {
		return stats, err
	}
	stats.Resolved = len(authors)

	if err := e.rewrite(inPath, outPath, authors, &stats); err != nil {
		return stats, err
	}

	e.logger.InfoWithFields("enrichment complete", map[string]interface{}{
		"resolved": stats.Resolved,
		"enriched": stats.Enriched,
		"output":   outPath,
	})
	return stats, nil
}

// collectAuthorIDs is scan #1: distinct author ids in first-seen order.
// Posts without an author id are counted but contribute nothing.
func (e *Enricher) collectAuthorIDs(path string, stats *Stats) ([]string, error) {
	var ids []string
	seen := make(map[string]bool)

	skipped, err := crawlog.Scan(path, func(rec crawlog.Record) error {
		if rec.Type != crawlog.TypePost {
			return nil
		}
		stats.Posts++

		id := rec.Data.AuthorID()
		if id == "" || seen[id] {
			return nil
		}
		seen[id] = true
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.KindEnrich, err, "failed to scan crawl log")
	}
	stats.Skipped = skipped

	return ids, nil
}

// resolveAuthors looks the ids up in batches of at most MaxUsersPerBatch.
// Unlike crawl pacing there is no fixed delay here; the pass only sleeps
// when a batch comes back with its quota exhausted.
func (e *Enricher) resolveAuthors(ctx context.Context, ids []string) (map[string]xapi.User, error) {
	authors := make(map[string]xapi.User, len(ids))
	gate := &ratelimit.Gate{Grace: e.grace}

	for start := 0; start < len(ids); start += xapi.MaxUsersPerBatch {
		end := start + xapi.MaxUsersPerBatch
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]

		users, rl, err := e.client.GetUsersBatch(ctx, batch)
		if err != nil {
			return nil, errors.Wrap(errors.KindEnrich, err, "user batch lookup failed")
		}
		for _, u := range users {
			if id := u.ID(); id != "" {
				authors[id] = u
			}
		}

		e.logger.DebugWithFields("resolved user batch", map[string]interface{}{
			"batch_size": len(batch),
			"resolved":   len(users),
			"remaining":  rl.Remaining,
		})

		if end < len(ids) && rl.Exhausted() {
			wait := gate.Wait(rl)
			e.logger.InfoWithFields("rate limit exhausted, waiting for reset", map[string]interface{}{
				"wait": wait.String(),
			})
			if err := e.sleep(ctx, wait); err != nil {
				return nil, err
			}
		}
	}

	return authors, nil
}

// rewrite is scan #2: copy every record through, layering author_data onto
// posts whose author resolved. Original post fields are never modified.
func (e *Enricher) rewrite(inPath, outPath string, authors map[string]xapi.User, stats *Stats) error {
	w, err := crawlog.Create(outPath)
	if err != nil {
		return errors.Wrap(errors.KindEnrich, err, "failed to create output log")
	}
	defer w.Close()

	_, err = crawlog.Scan(inPath, func(rec crawlog.Record) error {
		if rec.Type == crawlog.TypePost {
			if author, ok := authors[rec.Data.AuthorID()]; ok {
				rec.AuthorData = author
				stats.Enriched++
			}
		}
		return w.WriteRecord(rec)
	})
	if err != nil {
		return errors.Wrap(errors.KindEnrich, err, "failed to rewrite crawl log")
	}

	if err := w.Close(); err != nil {
		return errors.Wrap(errors.KindEnrich, err, "failed to finalize output log")
	}
	return nil
}
