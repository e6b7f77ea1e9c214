// Package httputil fetches remote JSON-LD documents.
//
// # Overview
//
// RO-Crates are often published online, so the CLI and the server accept a
// URL wherever they accept a file. This package provides the plumbing:
//
//   - [Client]: GET with JSON-LD content negotiation and response caching
//   - [Backoff]: Retry policy for transient failures
//
// # Caching
//
// [Client] stores response bodies in a [cache.Cache] under keys from a
// [cache.Keyer], so the CLI's file cache and the server's Redis cache both
// work. Pass refresh to bypass a cached body.
//
// # Retry
//
// [Backoff.Do] re-runs an operation while it fails with a
// [RetryableError]. Network errors, 429 and 5xx responses are retryable;
// anything else, such as a 404, is returned at once. The delay doubles
// after each attempt unless the server sent Retry-After:
//
//	err := httputil.DefaultBackoff.Do(ctx, func() error {
//	    body, err = fetch()
//	    return err
//	})
//
// # Configuration
//
// Default settings:
//
//   - Request timeout: 10 seconds
//   - Max attempts: 3
//   - Base backoff: 1 second, capped at 10 seconds
//   - Document TTL: [cache.TTLDocument]
//
// [cache.Cache]: github.com/matzehuels/cratetree/pkg/cache.Cache
// [cache.Keyer]: github.com/matzehuels/cratetree/pkg/cache.Keyer
// [cache.TTLDocument]: github.com/matzehuels/cratetree/pkg/cache.TTLDocument
package httputil
