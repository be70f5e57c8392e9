// Package codesearch provides a typed client for the GitHub code search API.
//
// Client issues authenticated requests for workflow files that reference
// actions, retrying rate-limited responses with capped exponential backoff
// and optionally pacing requests to stay under the search quota. Paginator
// drives the client page by page until the API reports an empty page.
package codesearch
