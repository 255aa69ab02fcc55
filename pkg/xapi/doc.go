// Package xapi is the client for the X API v2 endpoints this tool uses:
// recent-post search and user lookup.
//
// The client deliberately knows nothing about crawling. Each method issues
// exactly one HTTP request and reports three things back: the payload, the
// pagination meta (for search), and the quota signal parsed from the
// x-rate-limit-* response headers. Pacing, pagination and retries are the
// caller's business.
//
// Post and User payloads stay schema-less maps so the persisted log
// reproduces whatever the platform returned; typed accessors cover the few
// fields the tool actually reads.
package xapi
