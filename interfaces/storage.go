package interfaces

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

// MetadataLocation is a parsed metadata pointer: a URI naming where an
// instance descriptor lives. The registry stores pointers verbatim; this type
// is only used when a pointer is handed to the storage layer for resolution
// or when configuring backend mirrors.
type MetadataLocation struct {
	Raw    string     // Original URI
	Scheme string     // Protocol
	Host   string     // Hostname, bucket, CID or domain depending on scheme
	Path   string     // Resource path
	Query  url.Values // Query parameters
	Auth   string     // Authentication info
}

// ParseMetadataLocation parses and validates a metadata pointer URI.
//
// Supported schemes:
//   - file:// - Local filesystem storage
//   - s3:// - Amazon S3 or compatible object storage
//   - ipfs:// - IPFS node storage, pointers carry the CID as host
//   - vault:// - HashiCorp Vault KV v2 storage
//   - github:// - Read-only storage served through the GitHub contents API
//   - dnslink:// - Read-only indirection through DNS TXT records
func ParseMetadataLocation(uri string) (MetadataLocation, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return MetadataLocation{}, fmt.Errorf("%w: %v", ErrInvalidLocationURI, err)
	}

	switch parsed.Scheme {
	case "file", "s3", "ipfs", "vault", "github", "dnslink":
		// Valid scheme
	default:
		return MetadataLocation{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidLocationURI, parsed.Scheme)
	}

	var auth string
	if parsed.User != nil {
		auth = parsed.User.String()
	}

	return MetadataLocation{
		Raw:    uri,
		Scheme: parsed.Scheme,
		Host:   parsed.Host,
		Path:   parsed.Path,
		Query:  parsed.Query(),
		Auth:   auth,
	}, nil
}

// String returns the original URI string.
func (loc MetadataLocation) String() string {
	return loc.Raw
}

// GetParam returns a query parameter value.
func (loc MetadataLocation) GetParam(name string) string {
	return loc.Query.Get(name)
}

// GetParamBool returns a boolean query parameter value.
func (loc MetadataLocation) GetParamBool(name string) bool {
	value := loc.Query.Get(name)
	return value == "true" || value == "1" || value == "yes"
}

var (
	// ErrContentNotFound is returned when a pointer resolves to no content in
	// the storage backend.
	ErrContentNotFound = errors.New("content not found")

	// ErrBackendUnavailable is returned when a storage backend is not accessible.
	// This could be due to network issues, authentication failures, or service outages.
	ErrBackendUnavailable = errors.New("storage backend unavailable")

	// ErrInvalidLocationURI is returned when a metadata location URI is malformed
	// or uses an unsupported scheme.
	ErrInvalidLocationURI = errors.New("invalid metadata location URI")

	// ErrReadOnlyBackend is returned by Store on backends that can only resolve
	// content, such as github and dnslink.
	ErrReadOnlyBackend = errors.New("storage backend is read-only")
)

// StorageBackend resolves and publishes instance descriptors addressed by
// metadata pointers.
type StorageBackend interface {
	// Fetch resolves a pointer of this backend's scheme to descriptor bytes.
	Fetch(ctx context.Context, loc MetadataLocation) ([]byte, error)

	// Store publishes a descriptor and returns the pointer under which it
	// can be fetched back.
	Store(ctx context.Context, data []byte) (MetadataLocation, error)

	// Available checks if backend is accessible.
	Available(ctx context.Context) bool

	// Name returns identifier for logging.
	Name() string

	// Scheme returns the pointer scheme this backend resolves.
	Scheme() string

	// LocationURI returns URI identifying this backend.
	LocationURI() string
}

// StorageBackendFactory creates storage backends.
type StorageBackendFactory interface {
	// StorageBackendFor creates a backend rooted at the given location.
	StorageBackendFor(location MetadataLocation) (StorageBackend, error)

	// CreateMultiBackend creates an aggregated backend over a mirror set.
	CreateMultiBackend(locations []MetadataLocation) (StorageBackend, error)
}
