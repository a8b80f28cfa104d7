// Package accesstoken manages the short-lived WeChat access token shared by
// every API call.
//
// The Manager serves a cached token while it is comfortably inside its
// validity window, re-acquires it through the platform's token endpoint when
// it is about to expire, and coalesces concurrent acquisitions so a resident
// process performs at most one fetch at a time. Tokens are also persisted to
// a cache file so a fresh CLI invocation reuses a still-valid token instead
// of burning a refresh on every command.
package accesstoken
