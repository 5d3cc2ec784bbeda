package api

import (
	"github.com/ruteri/contract-instance-registry/interfaces"
)

// Route constants for the registry HTTP API. The public routes require no
// authentication; the admin routes expect a signed request body.
const (
	// RouteCreateInstance deploys a fresh instance contract and records it.
	RouteCreateInstance = "/api/instances"

	// RouteCreateInstanceDeterministic deploys at a salt-derived address.
	RouteCreateInstanceDeterministic = "/api/instances/deterministic"

	// RouteInstanceMetadata returns the metadata pointer for an instance.
	RouteInstanceMetadata = "/api/public/instances/{id}/metadata"

	// RouteInstanceAddress returns the contract address for an instance.
	RouteInstanceAddress = "/api/public/instances/{id}/address"

	// RouteInstanceDescriptor resolves the metadata pointer through the
	// storage layer and returns the descriptor content.
	RouteInstanceDescriptor = "/api/public/instances/{id}/descriptor"

	// RouteRegistryInfo returns the registry owner and instance count.
	RouteRegistryInfo = "/api/public/registry"

	// RouteUpdateMetadata replaces the metadata pointer for an instance.
	RouteUpdateMetadata = "/api/admin/instances/{id}/metadata"

	// RouteDestroyInstance clears an instance's address and metadata.
	RouteDestroyInstance = "/api/admin/instances/{id}/destroy"

	// RoutePublishDescriptor stores a descriptor in the configured storage
	// backends and returns the pointer it can be referenced by.
	RoutePublishDescriptor = "/api/admin/descriptors"
)

// CreateInstanceRequest is the body for both instance creation endpoints.
type CreateInstanceRequest struct {
	// Metadata is the descriptor pointer to record for the new instance.
	// May be empty for fresh deployments.
	Metadata string `json:"metadata"`
}

// CreateDeterministicInstanceRequest is the body for salt-derived creation.
type CreateDeterministicInstanceRequest struct {
	// Metadata is the descriptor pointer to record. Must not be empty.
	Metadata string `json:"metadata"`

	// Salt is the 32-byte deployment salt in hex, with or without 0x prefix.
	Salt string `json:"salt"`
}

// CreateInstanceResponse reports the identifier and deployment address
// assigned to a newly created instance.
type CreateInstanceResponse struct {
	ID      uint64 `json:"id"`
	Address string `json:"address"`
}

// InstanceMetadataResponse carries the stored metadata pointer of an instance.
type InstanceMetadataResponse struct {
	ID       uint64 `json:"id"`
	Metadata string `json:"metadata"`
}

// InstanceAddressResponse carries the contract address of an instance. The
// address is the zero address for destroyed instances.
type InstanceAddressResponse struct {
	ID      uint64 `json:"id"`
	Address string `json:"address"`
}

// RegistryInfoResponse describes the registry itself.
type RegistryInfoResponse struct {
	// Owner is the address allowed to update and destroy instances.
	Owner string `json:"owner"`

	// InstanceCount is the number of identifiers allocated so far,
	// destroyed instances included.
	InstanceCount uint64 `json:"instance_count"`
}

// UpdateMetadataRequest is the signed body for metadata updates. The ID is
// repeated in the body so the signature covers which instance is modified.
type UpdateMetadataRequest struct {
	ID       uint64 `json:"id"`
	Metadata string `json:"metadata"`
}

// DestroyInstanceRequest is the signed body for instance destruction. The ID
// is repeated in the body so the signature covers which instance is destroyed.
type DestroyInstanceRequest struct {
	ID uint64 `json:"id"`
}

// PublishDescriptorResponse reports where a published descriptor was stored.
type PublishDescriptorResponse struct {
	// Location is the primary metadata pointer for the stored descriptor.
	Location string `json:"location"`
}

// InstanceReader defines the unauthenticated read surface of the registry API.
type InstanceReader interface {
	// RegistryInfo returns the registry owner and instance count.
	RegistryInfo() (*RegistryInfoResponse, error)

	// InstanceMetadata returns the metadata pointer for an instance.
	InstanceMetadata(id interfaces.InstanceID) (*InstanceMetadataResponse, error)

	// InstanceAddress returns the contract address for an instance.
	InstanceAddress(id interfaces.InstanceID) (*InstanceAddressResponse, error)

	// InstanceDescriptor resolves and returns the descriptor content.
	InstanceDescriptor(id interfaces.InstanceID) ([]byte, error)
}

// InstanceCreator defines the instance creation surface of the registry API.
type InstanceCreator interface {
	// CreateInstance deploys a fresh instance and records its metadata.
	CreateInstance(metadata []byte) (*CreateInstanceResponse, error)

	// CreateInstanceDeterministic deploys at the salt-derived address.
	CreateInstanceDeterministic(metadata []byte, salt interfaces.Salt) (*CreateInstanceResponse, error)
}

// InstanceAdmin defines the owner-signed mutation surface of the registry API.
type InstanceAdmin interface {
	// UpdateMetadata replaces the metadata pointer for an instance.
	UpdateMetadata(id interfaces.InstanceID, metadata []byte) error

	// DestroyInstance clears an instance's address and metadata.
	DestroyInstance(id interfaces.InstanceID) error

	// PublishDescriptor stores a descriptor and returns its pointer.
	PublishDescriptor(descriptor []byte) (*PublishDescriptorResponse, error)
}

// RegistryProvider combines the full client-side surface of the registry API.
type RegistryProvider interface {
	InstanceReader
	InstanceCreator
	InstanceAdmin
}
