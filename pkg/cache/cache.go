// Package cache provides the byte cache shared by the CLI and the server.
//
// The pipeline caches two kinds of entries: documents fetched over HTTP and
// rendered artifacts (SVG, DOT, frame JSON). Both are addressed by keys from
// a [Keyer], so that identical inputs hit the same entry no matter which
// host produced it.
//
// Backends:
//   - [FileCache]: one JSON file per entry under the user cache directory (CLI)
//   - [RedisCache]: shared Redis instance (server deployments)
//   - [NullCache]: caching disabled
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values with an optional TTL.
type Cache interface {
	// Get returns the value for key and whether it was found.
	// Expired entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Entry lifetimes.
const (
	// TTLDocument bounds how long a fetched remote document is reused.
	TTLDocument = time.Hour

	// TTLArtifact bounds how long a rendered artifact is reused. Artifacts
	// are keyed by content hash, so they only expire to reclaim space.
	TTLArtifact = 7 * 24 * time.Hour
)

// Keyer builds cache keys.
type Keyer interface {
	// HTTPKey addresses a fetched document.
	HTTPKey(namespace, key string) string

	// ArtifactKey addresses a rendered artifact of the document with the
	// given content hash.
	ArtifactKey(docHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts lists the inputs that change a rendered artifact.
type ArtifactKeyOpts struct {
	Format string `json:"format"`

	// Config is a fingerprint of the viewer configuration.
	Config string `json:"config"`

	// Expanded is the sorted expanded set the artifact was rendered with.
	Expanded []string `json:"expanded"`
}

// DefaultKeyer is the standard Keyer.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard Keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// ArtifactKey returns "artifact:<hash of inputs>".
func (DefaultKeyer) ArtifactKey(docHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", docHash, opts)
}
