// Package storage resolves and publishes instance descriptors through
// pluggable backends.
//
// The registry itself stores only metadata pointers; this package turns a
// pointer into the descriptor bytes it names, and publishes descriptors so a
// pointer exists to hand to the registry. Available backends:
//
//   - File system storage for local development and testing
//   - S3-compatible storage for cloud deployments
//   - IPFS storage for decentralized content
//   - Vault KV v2 storage for descriptors treated as secrets
//   - GitHub storage reading digest-named files from a repository (read-only)
//   - DNSLink storage resolving domains to IPFS content (read-only)
//
// # Location URI Format
//
// Storage backends and pointers share one URI format:
//
//	[scheme]://[auth@]host[:port][/path][?params]
//
// Supported URI schemes:
//
//   - file:///var/lib/registry/descriptors/
//   - s3://bucket-name/prefix/?region=us-west-2
//   - ipfs://ipfs.example.com:5001/ (backend) or ipfs://<cid> (pointer)
//   - vault://vault.example.com:8200/secret/registry?token=...
//   - github://owner/repo/ref/dir
//   - dnslink://descriptors.example.com
//
// # Content Addressing
//
// Writable backends name descriptors by content: the file, S3 and Vault
// backends key on the hex SHA-256 digest of the descriptor, IPFS on the CID
// assigned by the node. Store returns the full pointer the descriptor can be
// fetched back with, which is what gets recorded as instance metadata.
//
// # Aggregation
//
// MultiStorageBackend aggregates several backends behind the single
// StorageBackend interface. Fetches route on the pointer's scheme with
// same-scheme mirrors as fallback; stores replicate to every available
// writable backend. StorageBackendFactory builds single backends and
// multi-backends from location URIs.
package storage
