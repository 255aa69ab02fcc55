package enrich

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xscraper/pkg/crawlog"
	"xscraper/pkg/errors"
	"xscraper/pkg/ratelimit"
	"xscraper/pkg/xapi"
)

// batchClient records each batch it was asked to resolve
type batchClient struct {
	batches [][]string
	users   map[string]xapi.User
	limits  []ratelimit.Status
	err     error
}

func (c *batchClient) GetUsersBatch(ctx context.Context, ids []string) ([]xapi.User, ratelimit.Status, error) {
	if c.err != nil {
		return nil, ratelimit.Status{}, c.err
	}

	call := len(c.batches)
	c.batches = append(c.batches, append([]string(nil), ids...))

	var users []xapi.User
	for _, id := range ids {
		if u, ok := c.users[id]; ok {
			users = append(users, u)
		}
	}

	rl := ratelimit.Status{Limit: 75, Remaining: 50}
	if call < len(c.limits) {
		rl = c.limits[call]
	}
	return users, rl, nil
}

func newTestEnricher(client UserClient, opts ...Option) (*Enricher, *[]time.Duration) {
	e := New(client, nil, opts...)
	var slept []time.Duration
	e.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return e, &slept
}

func writeLog(t *testing.T, posts []xapi.Post) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crawl.jsonl")

	w, err := crawlog.Append(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteStep(xapi.Pagination{NewestID: "99"}, ratelimit.Status{Remaining: 10}))
	require.NoError(t, w.WritePosts(posts))
	require.NoError(t, w.Close())
	return path
}

func TestRunLayersAuthorData(t *testing.T) {
	in := writeLog(t, []xapi.Post{
		{"id": "1", "author_id": "a", "text": "first"},
		{"id": "2", "author_id": "b", "text": "second"},
		{"id": "3", "author_id": "a", "text": "third"},
		{"id": "4", "text": "no author"},
	})
	out := filepath.Join(t.TempDir(), "out.jsonl")

	client := &batchClient{users: map[string]xapi.User{
		"a": {"id": "a", "username": "alice", "public_metrics": map[string]interface{}{"followers_count": float64(12)}},
		// "b" is unknown to the endpoint
	}}
	e, _ := newTestEnricher(client)

	stats, err := e.Run(context.Background(), in, out)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Posts)
	assert.Equal(t, 2, stats.Authors)
	assert.Equal(t, 1, stats.Resolved)
	assert.Equal(t, 2, stats.Enriched)

	require.Len(t, client.batches, 1)
	assert.Equal(t, []string{"a", "b"}, client.batches[0], "first-seen order, duplicates collapsed")

	posts, _, err := crawlog.ReadPosts(out)
	require.NoError(t, err)
	require.Len(t, posts, 4)

	// Enriched posts keep their original fields and gain author_data
	assert.Equal(t, "first", posts[0].Data["text"])
	require.NotNil(t, posts[0].AuthorData)
	assert.Equal(t, "alice", posts[0].AuthorData["username"])
	assert.NotNil(t, posts[2].AuthorData)

	// Unresolved and author-less posts pass through untouched
	assert.Nil(t, posts[1].AuthorData)
	assert.Nil(t, posts[3].AuthorData)

	// Step records survive the rewrite
	var steps int
	_, err = crawlog.Scan(out, func(rec crawlog.Record) error {
		if rec.Type == crawlog.TypeStep {
			steps++
			assert.Equal(t, "99", rec.Pagination.NewestID)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, steps)
}

func TestRunBatchPartitioning(t *testing.T) {
	posts := make([]xapi.Post, 250)
	for i := range posts {
		posts[i] = xapi.Post{
			"id":        fmt.Sprintf("p%03d", i),
			"author_id": fmt.Sprintf("a%03d", i),
		}
	}
	in := writeLog(t, posts)
	out := filepath.Join(t.TempDir(), "out.jsonl")

	client := &batchClient{}
	e, _ := newTestEnricher(client)

	_, err := e.Run(context.Background(), in, out)
	require.NoError(t, err)

	require.Len(t, client.batches, 3)
	assert.Len(t, client.batches[0], 100)
	assert.Len(t, client.batches[1], 100)
	assert.Len(t, client.batches[2], 50)
	assert.Equal(t, "a000", client.batches[0][0])
	assert.Equal(t, "a249", client.batches[2][49])
}

func TestRunSleepsOnlyWhenExhausted(t *testing.T) {
	posts := make([]xapi.Post, 250)
	for i := range posts {
		posts[i] = xapi.Post{"id": fmt.Sprintf("%d", i), "author_id": fmt.Sprintf("a%03d", i)}
	}
	in := writeLog(t, posts)
	out := filepath.Join(t.TempDir(), "out.jsonl")

	client := &batchClient{limits: []ratelimit.Status{
		{Remaining: 0, Reset: time.Now().Add(3 * time.Second).Unix()}, // forces a wait
		{Remaining: 40},                                               // quota left, no wait
		{Remaining: 0, Reset: time.Now().Unix()},                      // last batch, nothing follows
	}}
	e, slept := newTestEnricher(client)

	_, err := e.Run(context.Background(), in, out)
	require.NoError(t, err)

	require.Len(t, *slept, 1, "sleep only between batches and only on exhaustion")
	assert.GreaterOrEqual(t, (*slept)[0], ratelimit.DefaultGrace)
}

func TestRunHonorsConfiguredGrace(t *testing.T) {
	posts := make([]xapi.Post, 150)
	for i := range posts {
		posts[i] = xapi.Post{"id": fmt.Sprintf("%d", i), "author_id": fmt.Sprintf("a%03d", i)}
	}
	in := writeLog(t, posts)
	out := filepath.Join(t.TempDir(), "out.jsonl")

	client := &batchClient{limits: []ratelimit.Status{
		{Remaining: 0, Reset: time.Now().Add(-time.Minute).Unix()},
		{Remaining: 40},
	}}
	e, slept := newTestEnricher(client, WithGrace(9*time.Second))

	_, err := e.Run(context.Background(), in, out)
	require.NoError(t, err)

	// Reset in the past: the wait is the configured grace alone
	require.Len(t, *slept, 1)
	assert.GreaterOrEqual(t, (*slept)[0], 9*time.Second)
	assert.Less(t, (*slept)[0], 10*time.Second)
}

func TestRunLookupFailure(t *testing.T) {
	in := writeLog(t, []xapi.Post{{"id": "1", "author_id": "a"}})
	out := filepath.Join(t.TempDir(), "out.jsonl")

	client := &batchClient{err: errors.NewAPI(500, "boom")}
	e, _ := newTestEnricher(client)

	_, err := e.Run(context.Background(), in, out)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindEnrich))
}

func TestRunMissingInput(t *testing.T) {
	e, _ := newTestEnricher(&batchClient{})

	_, err := e.Run(context.Background(), filepath.Join(t.TempDir(), "nope.jsonl"), filepath.Join(t.TempDir(), "out.jsonl"))
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindEnrich))
}
