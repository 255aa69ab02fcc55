// Package ratelimit adapts the crawler's request cadence to the quota
// signal the X API returns on every response.
//
// The platform enforces a per-credential window advertised through the
// x-rate-limit-limit, x-rate-limit-remaining and x-rate-limit-reset
// response headers. Status carries that signal; Gate turns it into a
// sleep duration for the caller.
//
// Policy:
//
//   - remaining > 0: wait exactly the configured fixed delay. Quota being
//     available is not a license to hammer the endpoint.
//   - remaining == 0: wait until the advertised reset time, plus a small
//     grace period that absorbs clock skew between us and the server.
//
// The gate is stateless and has no side effects; it only reports the
// duration. The caller decides how to suspend (time.Sleep, timer select
// against a context, ...).
//
// Usage:
//
//	gate := ratelimit.NewGate(5 * time.Second)
//
//	status := resp.RateLimit
//	time.Sleep(gate.Wait(status))
package ratelimit
