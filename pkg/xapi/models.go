package xapi

import (
	"xscraper/pkg/ratelimit"
)

// Post is one post as returned by the search endpoint. The payload is kept
// schema-less; the crawler only ever reads "id" and "author_id" and
// everything else passes through to the log untouched.
type Post map[string]interface{}

// ID returns the post identifier, or "" when absent.
func (p Post) ID() string {
	return stringField(p, "id")
}

// AuthorID returns the author identifier, or "" when absent.
func (p Post) AuthorID() string {
	return stringField(p, "author_id")
}

// User is one user object from the users endpoints, kept schema-less the
// same way.
type User map[string]interface{}

// ID returns the user identifier, or "" when absent.
func (u User) ID() string {
	return stringField(u, "id")
}

// Username returns the handle, or "" when absent.
func (u User) Username() string {
	return stringField(u, "username")
}

// FollowerCount digs the follower count out of public_metrics. The second
// return is false when the field is absent.
func (u User) FollowerCount() (int, bool) {
	metrics, ok := u["public_metrics"].(map[string]interface{})
	if !ok {
		return 0, false
	}
	// JSON numbers decode as float64
	count, ok := metrics["followers_count"].(float64)
	if !ok {
		return 0, false
	}
	return int(count), true
}

func stringField(m map[string]interface{}, key string) string {
	v, ok := m[key].(string)
	if !ok {
		return ""
	}
	return v
}

// Pagination is the search endpoint's meta object. NextToken being empty
// means forward pagination is exhausted at this request time; NewestID
// feeds since-based polling.
type Pagination struct {
	NextToken   string `json:"next_token,omitempty"`
	NewestID    string `json:"newest_id,omitempty"`
	OldestID    string `json:"oldest_id,omitempty"`
	ResultCount int    `json:"result_count"`
}

// SearchParams are the inputs to one recent-search request.
type SearchParams struct {
	Query      string
	MaxResults int
	NextToken  string
	SinceID    string
}

// SearchResult is one page of search results plus the pagination and quota
// state that came with it.
type SearchResult struct {
	Posts      []Post           `json:"posts"`
	Pagination Pagination       `json:"pagination"`
	RateLimit  ratelimit.Status `json:"rate_limit"`
}

// searchResponse is the wire shape of the search endpoint. Both fields are
// optional: an empty result set has no data array and may have no meta.
type searchResponse struct {
	Data []Post      `json:"data"`
	Meta *Pagination `json:"meta"`
}

// usersResponse is the wire shape of the user lookup endpoints. The single
// lookup returns an object under data, the batch lookup an array; they are
// decoded separately.
type usersResponse struct {
	Data []User `json:"data"`
}

type userResponse struct {
	Data User `json:"data"`
}
