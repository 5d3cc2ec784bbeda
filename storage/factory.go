package storage

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ruteri/contract-instance-registry/interfaces"
)

// StorageBackendFactory creates storage backends from location URIs and
// manages multi-backend configurations for redundant storage.
type StorageBackendFactory struct {
	log *slog.Logger
}

// NewStorageBackendFactory creates a new factory instance that can create storage backends.
func NewStorageBackendFactory(logger *slog.Logger) *StorageBackendFactory {
	if logger == nil {
		logger = slog.Default()
	}

	return &StorageBackendFactory{
		log: logger,
	}
}

// StorageBackendFor creates a storage backend from a parsed location.
// The URI format is [scheme]://[auth@]host[:port][/path][?params]
//
// Supported schemes:
//   - file:// - Local filesystem storage
//   - s3:// - Amazon S3 or compatible object storage
//   - ipfs:// - IPFS node storage
//   - vault:// - HashiCorp Vault KV v2 storage
//   - github:// - Read-only storage over the GitHub contents API
//   - dnslink:// - Read-only DNS TXT indirection into IPFS
//
// Returns an error if the location is invalid or the scheme is unsupported.
func (sf *StorageBackendFactory) StorageBackendFor(location interfaces.MetadataLocation) (interfaces.StorageBackend, error) {
	switch location.Scheme {
	case "file":
		return sf.createFileBackend(location)
	case "s3":
		return sf.createS3Backend(location)
	case "ipfs":
		return sf.createIPFSBackend(location)
	case "vault":
		return sf.createVaultBackend(location)
	case "github":
		return sf.createGitHubBackend(location)
	case "dnslink":
		return sf.createDNSLinkBackend(location)
	default:
		return nil, fmt.Errorf("unsupported backend scheme: %s", location.Scheme)
	}
}

// CreateMultiBackend creates a multi-storage backend from a list of locations.
// The multi-backend aggregates all valid backends, providing redundancy for storage operations.
// It will store content to all available backends and fetch from the first one that has the content.
// Returns an error if no valid backends could be created from the provided locations.
func (sf *StorageBackendFactory) CreateMultiBackend(locations []interfaces.MetadataLocation) (interfaces.StorageBackend, error) {
	backends := make([]interfaces.StorageBackend, 0, len(locations))

	for _, location := range locations {
		backend, err := sf.StorageBackendFor(location)
		if err != nil {
			sf.log.Warn("Failed to create storage backend",
				"err", err,
				slog.String("locationURI", location.String()))
			continue
		}
		backends = append(backends, backend)
	}

	if len(backends) == 0 {
		return nil, fmt.Errorf("no valid storage backends created")
	}

	return NewMultiStorageBackend(backends, sf.log), nil
}

// createFileBackend creates a file system storage backend.
// URI format: file:///absolute/path/ or file://./relative/path/
func (sf *StorageBackendFactory) createFileBackend(loc interfaces.MetadataLocation) (interfaces.StorageBackend, error) {
	sf.log.Debug("Creating file backend", slog.String("uri", loc.String()))

	// Get the path, handling relative vs absolute paths
	path := loc.Path
	if loc.Host != "" {
		path = loc.Host + "/" + strings.TrimPrefix(path, "/")
	}

	// Make sure path is not empty
	if path == "" {
		return nil, fmt.Errorf("empty path in file URI: %s", loc.String())
	}

	// Create the backend
	return NewFileBackend(path, sf.log)
}

// createS3Backend creates an S3 or S3-compatible storage backend.
// URI format: s3://[ACCESS_KEY:SECRET_KEY@]bucket-name/path/?region=us-west-2&endpoint=custom.s3.com
// The backend supports both public buckets (read-only) and authenticated access.
func (sf *StorageBackendFactory) createS3Backend(loc interfaces.MetadataLocation) (interfaces.StorageBackend, error) {
	sf.log.Debug("Creating S3 backend", slog.String("uri", loc.String()))

	// Get bucket name
	bucketName := loc.Host

	// Parse path - remove leading slash
	prefix := strings.TrimPrefix(loc.Path, "/")

	// Parse region and endpoint
	region := loc.GetParam("region")
	if region == "" {
		region = "us-east-1" // Default region
	}

	endpoint := loc.GetParam("endpoint")

	// Parse credentials
	var accessKey, secretKey string
	if loc.Auth != "" {
		// Extract credentials from URI (less secure)
		accessKey, secretKey, _ = strings.Cut(loc.Auth, ":")
		sf.log.Debug("Using embedded credentials for write access")
	} else {
		sf.log.Debug("No credentials provided, S3 bucket assumed to be public, write operations may fail")
	}

	// Create the backend
	return NewS3Backend(bucketName, prefix, region, endpoint, accessKey, secretKey, sf.log)
}

// createIPFSBackend creates an IPFS storage backend.
// URI format: ipfs://host:port/?gateway=true&timeout=30s
// The backend can connect to either an IPFS node or a gateway.
func (sf *StorageBackendFactory) createIPFSBackend(loc interfaces.MetadataLocation) (interfaces.StorageBackend, error) {
	sf.log.Debug("Creating IPFS backend", slog.String("uri", loc.String()))

	// Parse host and port
	host, port, ok := strings.Cut(loc.Host, ":")
	if !ok || port == "" {
		port = "5001" // Default IPFS API port
	}

	// Check if this is a gateway
	useGateway := loc.GetParamBool("gateway")

	// Parse timeout
	timeout := loc.GetParam("timeout")
	if timeout == "" {
		timeout = "30s" // Default timeout
	}

	// Create the backend
	return NewIPFSBackend(host, port, useGateway, timeout, sf.log)
}

// createVaultBackend creates a Vault storage backend.
// URI format: vault://host:port/mount/path?token=...&insecure=true
// Defaults to the "secret" mount and "registry" data path when the path
// names neither.
func (sf *StorageBackendFactory) createVaultBackend(loc interfaces.MetadataLocation) (interfaces.StorageBackend, error) {
	sf.log.Debug("Creating Vault backend", slog.String("uri", loc.String()))

	if loc.Host == "" {
		return nil, fmt.Errorf("vault URI names no server: %s", loc.String())
	}

	scheme := "https"
	if loc.GetParamBool("insecure") {
		scheme = "http"
	}
	address := fmt.Sprintf("%s://%s", scheme, loc.Host)

	mountPath := "secret"
	dataPath := "registry"
	if trimmed := strings.Trim(loc.Path, "/"); trimmed != "" {
		if mount, rest, ok := strings.Cut(trimmed, "/"); ok {
			mountPath = mount
			dataPath = rest
		} else {
			mountPath = trimmed
		}
	}

	return NewVaultBackend(address, mountPath, dataPath, loc.GetParam("token"), sf.log)
}

// createGitHubBackend creates a read-only GitHub storage backend.
// URI format: github://owner/repo[/ref[/dir]]
// Ref defaults to main and dir to the repository root.
func (sf *StorageBackendFactory) createGitHubBackend(loc interfaces.MetadataLocation) (interfaces.StorageBackend, error) {
	sf.log.Debug("Creating GitHub backend", slog.String("uri", loc.String()))

	owner := loc.Host
	parts := strings.Split(strings.Trim(loc.Path, "/"), "/")
	if owner == "" || len(parts) == 0 || parts[0] == "" {
		return nil, fmt.Errorf("invalid GitHub URI format, expected github://owner/repo[/ref[/dir]]")
	}

	repo := parts[0]
	ref := "main"
	dir := ""
	if len(parts) > 1 {
		ref = parts[1]
	}
	if len(parts) > 2 {
		dir = strings.Join(parts[2:], "/")
	}

	// Create the backend
	return NewGitHubBackend(owner, repo, ref, dir, sf.log), nil
}

// createDNSLinkBackend creates a read-only DNSLink storage backend.
// URI format: dnslink://domain?resolver=127.0.0.53:53&ipfs=127.0.0.1:5001
// Content retrieval is delegated to an IPFS backend built from the ipfs
// parameter.
func (sf *StorageBackendFactory) createDNSLinkBackend(loc interfaces.MetadataLocation) (interfaces.StorageBackend, error) {
	sf.log.Debug("Creating DNSLink backend", slog.String("uri", loc.String()))

	if loc.Host == "" {
		return nil, fmt.Errorf("dnslink URI names no domain: %s", loc.String())
	}

	ipfsAddr := loc.GetParam("ipfs")
	if ipfsAddr == "" {
		ipfsAddr = "127.0.0.1:5001"
	}
	host, port, ok := strings.Cut(ipfsAddr, ":")
	if !ok || port == "" {
		port = "5001"
	}

	ipfsBackend, err := NewIPFSBackend(host, port, false, "30s", sf.log)
	if err != nil {
		return nil, fmt.Errorf("failed to create IPFS delegate: %w", err)
	}

	return NewDNSLinkBackend(loc.Host, loc.GetParam("resolver"), ipfsBackend, sf.log)
}
