package xapi

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// BaseURL is the base URL for the X API
	BaseURL = "https://api.twitter.com/2"

	// SearchRecentEndpoint is the recent-search endpoint path
	SearchRecentEndpoint = "/tweets/search/recent"

	// UsersEndpoint is the batch user lookup endpoint path
	UsersEndpoint = "/users"

	// MinSearchResults is the smallest page size the platform accepts
	MinSearchResults = 10

	// MaxSearchResults is the largest page size the platform accepts
	MaxSearchResults = 100

	// MaxUsersPerBatch is the platform's ceiling on ids per lookup request
	MaxUsersPerBatch = 100

	// tweetFields are the post attributes requested on every search
	tweetFields = "created_at,author_id,text"

	// userFields are the attributes requested on every user lookup
	userFields = "username,name,public_metrics"
)

// ClampMaxResults forces a requested page size into the platform's
// accepted range.
func ClampMaxResults(n int) int {
	if n < MinSearchResults {
		return MinSearchResults
	}
	if n > MaxSearchResults {
		return MaxSearchResults
	}
	return n
}

// SearchRecentURL constructs the URL for one recent-search request.
func SearchRecentURL(base string, p SearchParams) string {
	params := url.Values{}
	params.Set("query", p.Query)
	params.Set("max_results", strconv.Itoa(ClampMaxResults(p.MaxResults)))
	params.Set("tweet.fields", tweetFields)
	if p.NextToken != "" {
		params.Set("next_token", p.NextToken)
	}
	if p.SinceID != "" {
		params.Set("since_id", p.SinceID)
	}

	return fmt.Sprintf("%s%s?%s", base, SearchRecentEndpoint, params.Encode())
}

// UsersBatchURL constructs the URL for a batch user lookup. The caller is
// responsible for keeping len(ids) within MaxUsersPerBatch; the platform
// rejects oversized batches.
func UsersBatchURL(base string, ids []string) string {
	params := url.Values{}
	params.Set("ids", strings.Join(ids, ","))
	params.Set("user.fields", userFields)

	return fmt.Sprintf("%s%s?%s", base, UsersEndpoint, params.Encode())
}

// UserURL constructs the URL for a single user lookup, by id or by handle.
func UserURL(base, identifier string, byUsername bool) string {
	params := url.Values{}
	params.Set("user.fields", userFields)

	if byUsername {
		return fmt.Sprintf("%s%s/by/username/%s?%s", base, UsersEndpoint, url.PathEscape(identifier), params.Encode())
	}
	return fmt.Sprintf("%s%s/%s?%s", base, UsersEndpoint, url.PathEscape(identifier), params.Encode())
}

// PostURL returns the canonical web URL for a post identifier.
func PostURL(id string) string {
	return fmt.Sprintf("https://x.com/i/web/status/%s", id)
}
