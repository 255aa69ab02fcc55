package errors

import (
	"errors"
	"fmt"
)

// Kind classifies the failures the tool can report
type Kind string

const (
	KindConfig     Kind = "config"      // missing credential or invalid configuration
	KindAPI        Kind = "api"         // non-2xx HTTP response from the platform
	KindNotFound   Kind = "not_found"   // single-identifier lookup matched nothing
	KindParse      Kind = "parse"       // malformed persisted record or payload
	KindResume     Kind = "resume"      // no crawl_step record in a resume source
	KindEmptyInput Kind = "empty_input" // export found zero posts
	KindEnrich     Kind = "enrich"      // I/O failure during enrichment
	KindNetwork    Kind = "network"     // transport-level failure
)

// Error is a classified error, optionally carrying the HTTP status code and
// response body that produced it.
type Error struct {
	Kind    Kind
	Message string
	Code    int
	Body    string
	Err     error
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a classified error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a classified error wrapping an underlying cause.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// NewAPI creates an api error carrying the HTTP status and response body.
func NewAPI(code int, body string) *Error {
	return &Error{
		Kind:    KindAPI,
		Message: fmt.Sprintf("request failed with status %d", code),
		Code:    code,
		Body:    body,
	}
}

// KindOf returns the Kind of err, or the empty Kind if err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err is a classified error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// IsFatal reports whether an error should terminate the crawl loop rather
// than be retried. Only configuration problems qualify; api and network
// failures are retried indefinitely by the engine.
func IsFatal(err error) bool {
	return IsKind(err, KindConfig)
}
