// Package httpx provides a retrying HTTP client for corpus fetches.
//
// The client retries connection errors and 5xx responses with exponential
// backoff and jitter. Client errors (404, 403, 401) fail immediately and map
// to sentinel errors so callers can distinguish a missing record from a
// flaky network.
package httpx
