package xapi

import (
	"net/url"
	"strings"
	"testing"
)

func TestClampMaxResults(t *testing.T) {
	tests := []struct {
		input    int
		expected int
	}{
		{0, 10},
		{5, 10},
		{10, 10},
		{50, 50},
		{100, 100},
		{150, 100},
		{-1, 10},
	}

	for _, tt := range tests {
		if got := ClampMaxResults(tt.input); got != tt.expected {
			t.Errorf("ClampMaxResults(%d) = %d, want %d", tt.input, got, tt.expected)
		}
	}
}

func TestSearchRecentURL(t *testing.T) {
	raw := SearchRecentURL(BaseURL, SearchParams{
		Query:      "golang lang:en",
		MaxResults: 50,
		NextToken:  "tok123",
		SinceID:    "111",
	})

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("invalid URL: %v", err)
	}
	if u.Path != "/2/tweets/search/recent" {
		t.Errorf("unexpected path: %s", u.Path)
	}

	q := u.Query()
	if q.Get("query") != "golang lang:en" {
		t.Errorf("unexpected query param: %q", q.Get("query"))
	}
	if q.Get("max_results") != "50" {
		t.Errorf("unexpected max_results: %q", q.Get("max_results"))
	}
	if q.Get("next_token") != "tok123" {
		t.Errorf("unexpected next_token: %q", q.Get("next_token"))
	}
	if q.Get("since_id") != "111" {
		t.Errorf("unexpected since_id: %q", q.Get("since_id"))
	}
	if !strings.Contains(q.Get("tweet.fields"), "author_id") {
		t.Errorf("tweet.fields missing author_id: %q", q.Get("tweet.fields"))
	}
}

func TestSearchRecentURLOmitsEmptyCursors(t *testing.T) {
	raw := SearchRecentURL(BaseURL, SearchParams{Query: "golang", MaxResults: 10})

	u, _ := url.Parse(raw)
	q := u.Query()
	if _, ok := q["next_token"]; ok {
		t.Error("empty next_token must be omitted")
	}
	if _, ok := q["since_id"]; ok {
		t.Error("empty since_id must be omitted")
	}
}

func TestUsersBatchURL(t *testing.T) {
	raw := UsersBatchURL(BaseURL, []string{"1", "2", "3"})

	u, _ := url.Parse(raw)
	if u.Path != "/2/users" {
		t.Errorf("unexpected path: %s", u.Path)
	}
	if got := u.Query().Get("ids"); got != "1,2,3" {
		t.Errorf("unexpected ids: %q", got)
	}
	if !strings.Contains(u.Query().Get("user.fields"), "public_metrics") {
		t.Error("user.fields missing public_metrics")
	}
}

func TestUserURL(t *testing.T) {
	byID := UserURL(BaseURL, "12345", false)
	if !strings.Contains(byID, "/2/users/12345?") {
		t.Errorf("unexpected by-id URL: %s", byID)
	}

	byName := UserURL(BaseURL, "jack", true)
	if !strings.Contains(byName, "/2/users/by/username/jack?") {
		t.Errorf("unexpected by-username URL: %s", byName)
	}
}

func TestPostURL(t *testing.T) {
	if got := PostURL("12345"); got != "https://x.com/i/web/status/12345" {
		t.Errorf("unexpected post URL: %s", got)
	}
}
