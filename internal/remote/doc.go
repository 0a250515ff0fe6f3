// Package remote is the HTTP client for the competition platform.
//
// The agent talks to three endpoints, all authenticated with a bearer API key:
//
//	GET  {server}/api/health                                  connectivity probe
//	POST {server}/api/finishlynx/import-results-agent          result upload
//	GET  {server}/api/finishlynx/export-start-lists/{id}       start list download
//
// Every failure is classified so callers can decide how to report it:
// a *ConnectivityError means no response was received, a *ServerError means
// the server answered with a non-2xx status, and a *ClientError means the
// request could not be built. The client never retries; retrying is the
// job of the sync queue.
package remote
