package crawlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xscraper/pkg/errors"
	"xscraper/pkg/ratelimit"
	"xscraper/pkg/xapi"
)

func writeSampleLog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crawl.jsonl")

	w, err := Append(path)
	require.NoError(t, err)
	w.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }

	require.NoError(t, w.WriteStep(
		xapi.Pagination{NextToken: "tok1", NewestID: "20", OldestID: "11", ResultCount: 2},
		ratelimit.Status{Limit: 450, Remaining: 440, Reset: 1700000000},
	))
	require.NoError(t, w.WritePosts([]xapi.Post{
		{"id": "19", "author_id": "a", "text": "hello"},
		{"id": "20", "author_id": "b", "text": "world"},
	}))
	require.NoError(t, w.WriteStep(
		xapi.Pagination{NextToken: "tok2", NewestID: "30", OldestID: "21", ResultCount: 1},
		ratelimit.Status{Limit: 450, Remaining: 439, Reset: 1700000000},
	))
	require.NoError(t, w.WritePosts([]xapi.Post{
		{"id": "30", "author_id": "a", "text": "again"},
	}))
	require.NoError(t, w.Close())

	return path
}

func TestScan(t *testing.T) {
	path := writeSampleLog(t)

	var steps, posts int
	skipped, err := Scan(path, func(rec Record) error {
		switch rec.Type {
		case TypeStep:
			steps++
			assert.NotNil(t, rec.Pagination)
			assert.NotNil(t, rec.RateLimit)
		case TypePost:
			posts++
			assert.NotEmpty(t, rec.Data.ID())
		}
		return nil
	})
	require.NoError(t, err)

	assert.Zero(t, skipped)
	assert.Equal(t, 2, steps)
	assert.Equal(t, 3, posts)
}

func TestScanSkipsMalformedLines(t *testing.T) {
	path := writeSampleLog(t)

	// Simulate a write interrupted mid-line plus outright garbage
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{\"type\":\"post\",\"data\":{\"id\":\"tr\n")
	require.NoError(t, err)
	_, err = f.WriteString("not json at all\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	var posts int
	skipped, err := Scan(path, func(rec Record) error {
		if rec.Type == TypePost {
			posts++
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 2, skipped)
	assert.Equal(t, 3, posts, "malformed lines must not change the parsed result")
}

func TestScanSkipsUnknownRecordTypes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crawl.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(
		`{"type":"comment","timestamp":"2024-06-01T12:00:00Z"}`+"\n"+
			`{"type":"post","timestamp":"2024-06-01T12:00:00Z","data":{"id":"1"}}`+"\n",
	), 0o644))

	var seen int
	skipped, err := Scan(path, func(rec Record) error {
		seen++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, 1, seen)
}

func TestLastStep(t *testing.T) {
	path := writeSampleLog(t)

	step, err := LastStep(path)
	require.NoError(t, err)

	assert.Equal(t, "tok2", step.Pagination.NextToken)
	assert.Equal(t, "30", step.Pagination.NewestID)
	assert.Equal(t, 439, step.RateLimit.Remaining)
}

func TestLastStepIdempotent(t *testing.T) {
	path := writeSampleLog(t)

	first, err := LastStep(path)
	require.NoError(t, err)
	second, err := LastStep(path)
	require.NoError(t, err)

	assert.Equal(t, first.Pagination, second.Pagination)
}

func TestLastStepIgnoresTrailingPosts(t *testing.T) {
	path := writeSampleLog(t)

	// Posts after the final step carry newer ids, but resume only trusts
	// the step record.
	w, err := Append(path)
	require.NoError(t, err)
	require.NoError(t, w.WritePosts([]xapi.Post{{"id": "99", "author_id": "c"}}))
	require.NoError(t, w.Close())

	step, err := LastStep(path)
	require.NoError(t, err)
	assert.Equal(t, "30", step.Pagination.NewestID)
}

func TestLastStepNoStepRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crawl.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(
		`{"type":"post","timestamp":"2024-06-01T12:00:00Z","data":{"id":"1"}}`+"\n",
	), 0o644))

	_, err := LastStep(path)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindResume))
}

func TestLastStepMissingFile(t *testing.T) {
	_, err := LastStep(filepath.Join(t.TempDir(), "nope.jsonl"))
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindResume))
}

func TestReadPosts(t *testing.T) {
	path := writeSampleLog(t)

	posts, skipped, err := ReadPosts(path)
	require.NoError(t, err)

	assert.Zero(t, skipped)
	require.Len(t, posts, 3)
	assert.Equal(t, "19", posts[0].Data.ID())
	assert.Equal(t, "30", posts[2].Data.ID())
}

func TestWriteRecordRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")

	w, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteRecord(Record{
		Type:      TypePost,
		Timestamp: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Data:      xapi.Post{"id": "1", "author_id": "a"},
		AuthorData: map[string]interface{}{
			"username": "alice",
		},
	}))
	require.NoError(t, w.Close())

	posts, _, err := ReadPosts(path)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "alice", posts[0].AuthorData["username"])
}
