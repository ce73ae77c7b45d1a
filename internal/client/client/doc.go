// Package client talks to the taskmaster REST API.
//
// HTTPClient keeps the bearer token of the current session in memory. Calls
// fail with ErrUnavailable when the server cannot be reached and with
// ErrUnauthorized when it rejects the token (401/403); in the latter case the
// token is dropped so the caller has to log in again.
package client
