// Package interfaces defines core interfaces and types for the instance
// registry system, separating interface definitions from implementations.
//
// The package provides interfaces for the key components of the system:
//
// # Registry Interfaces
//
// InstanceRegistry: Tokenizes deployed contract instances. Assigns sequential
// numeric identifiers, tracks per-instance addresses and metadata, and exposes
// owner-gated mutation plus an InstanceCreated event stream emitted after every
// creation.
//
// Deployer: Abstracts contract deployment. Implementations deploy fresh
// instances or derive deterministic addresses from a caller-supplied salt.
//
// AccessControl: Answers ownership queries for the registry's administrative
// operations.
//
// # Storage Interfaces
//
// StorageBackend: Provides content-addressed storage for instance descriptors
// across multiple backend types (file, S3, IPFS, Vault, GitHub, DNSLink).
//
// StorageBackendFactory: Creates storage backends from location URIs and
// manages multi-backend configurations for redundant storage.
//
// # Core Types
//
// The package also defines the core value types shared across components:
//
//   - InstanceID: sequential uint64 instance identifier
//   - InstanceMetadata: opaque per-instance metadata bytes
//   - ContractAddress: 20-byte Ethereum address
//   - Salt: 32-byte deterministic-deployment salt
//   - MetadataLocation: parsed storage location URI
//
// # Error Taxonomy
//
// Registry operations fail with one of five sentinel errors: ErrInvalidMetadata,
// ErrDeploymentFailed, ErrUnknownInstance, ErrInstanceDestroyed and
// ErrUnauthorized. Callers match them with errors.Is; the HTTP layer maps each
// to a distinct status code.
package interfaces
