// Package crawlog reads and writes the append-only NDJSON crawl log.
//
// The log interleaves two record kinds: a crawl_step per engine iteration
// carrying pagination and quota state, and one post record per fetched
// post. Every read pass tolerates malformed lines, so a log truncated by a
// killed process stays usable; the skipped-line count is reported for
// logging, nothing more.
package crawlog

import (
	"bufio"
	"encoding/json"
	"os"
	"time"

	"xscraper/pkg/errors"
	"xscraper/pkg/ratelimit"
	"xscraper/pkg/xapi"
)

const (
	// TypeStep tags a crawl-iteration metadata record
	TypeStep = "crawl_step"

	// TypePost tags a single-post record
	TypePost = "post"
)

// maxLineSize bounds a single log line. Post payloads are small, but an
// enriched record carries the author object too.
const maxLineSize = 10 * 1024 * 1024

// Record is the union of both line shapes. A step record populates
// Pagination and RateLimit; a post record populates Data and optionally
// AuthorData. Re-marshalling a Record reproduces the original line, which
// is what the enrichment rewrite relies on.
type Record struct {
	Type       string                 `json:"type"`
	Timestamp  time.Time              `json:"timestamp"`
	Pagination *xapi.Pagination       `json:"pagination,omitempty"`
	RateLimit  *ratelimit.Status      `json:"rate_limit,omitempty"`
	Data       xapi.Post              `json:"data,omitempty"`
	AuthorData map[string]interface{} `json:"author_data,omitempty"`
}

// Step is the reconstructed state of one crawl iteration.
type Step struct {
	Timestamp  time.Time
	Pagination xapi.Pagination
	RateLimit  ratelimit.Status
}

// Writer appends records to a log file. It is not safe for concurrent use;
// the crawl engine is the only writer and it is single-threaded.
type Writer struct {
	f   *os.File
	enc *json.Encoder
	now func() time.Time
}

// Append opens path for appending, creating it when absent.
func Append(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return newWriter(f), nil
}

// Create opens path truncated. Used by the enrichment rewrite, which always
// targets a fresh output file.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return newWriter(f), nil
}

func newWriter(f *os.File) *Writer {
	return &Writer{
		f:   f,
		enc: json.NewEncoder(f),
		now: time.Now,
	}
}

// WriteStep appends one crawl_step record. The engine calls this before
// appending the step's posts, so a resume scan never sees posts from a
// step whose metadata was lost.
func (w *Writer) WriteStep(p xapi.Pagination, rl ratelimit.Status) error {
	return w.enc.Encode(Record{
		Type:       TypeStep,
		Timestamp:  w.now().UTC(),
		Pagination: &p,
		RateLimit:  &rl,
	})
}

// WritePosts appends one post record per entry.
func (w *Writer) WritePosts(posts []xapi.Post) error {
	ts := w.now().UTC()
	for _, p := range posts {
		rec := Record{
			Type:      TypePost,
			Timestamp: ts,
			Data:      p,
		}
		if err := w.enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}

// WriteRecord appends a record as-is. The enrichment rewrite uses this to
// copy records through, touching only the author_data field.
func (w *Writer) WriteRecord(rec Record) error {
	return w.enc.Encode(rec)
}

// Sync flushes appended records to stable storage.
func (w *Writer) Sync() error {
	return w.f.Sync()
}

// Close closes the underlying file.
func (w *Writer) Close() error {
	return w.f.Close()
}

// Scan reads path sequentially, invoking fn for every well-formed record.
// Lines that fail to parse are skipped and counted. A non-nil error from fn
// aborts the scan and is returned as-is.
func Scan(path string, fn func(Record) error) (skipped int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			skipped++
			continue
		}
		if rec.Type != TypeStep && rec.Type != TypePost {
			skipped++
			continue
		}

		if err := fn(rec); err != nil {
			return skipped, err
		}
	}

	return skipped, scanner.Err()
}

// LastStep scans the whole log and returns the final crawl_step record.
// That is the only record resume trusts: posts appended after it are
// deliberately ignored for cursor reconstruction. A log with no step
// record, or no log at all, is a resume error.
func LastStep(path string) (*Step, error) {
	var last *Step

	_, err := Scan(path, func(rec Record) error {
		if rec.Type != TypeStep {
			return nil
		}
		step := Step{Timestamp: rec.Timestamp}
		if rec.Pagination != nil {
			step.Pagination = *rec.Pagination
		}
		if rec.RateLimit != nil {
			step.RateLimit = *rec.RateLimit
		}
		last = &step
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.KindResume, err, "failed to read crawl log")
	}

	if last == nil {
		return nil, errors.Newf(errors.KindResume, "no crawl_step record in %s", path)
	}
	return last, nil
}

// ReadPosts collects every post record in log order, reporting the number
// of malformed lines skipped along the way.
func ReadPosts(path string) ([]Record, int, error) {
	var posts []Record

	skipped, err := Scan(path, func(rec Record) error {
		if rec.Type == TypePost {
			posts = append(posts, rec)
		}
		return nil
	})
	if err != nil {
		return nil, skipped, err
	}
	return posts, skipped, nil
}
