package interfaces

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/event"
)

var (
	// ErrInvalidMetadata is returned when deterministic instance creation is
	// invoked with empty metadata. Fresh creation performs no such check.
	ErrInvalidMetadata = errors.New("metadata must not be empty")

	// ErrDeploymentFailed is returned when the deployer cannot produce a
	// nonzero instance address. No identifier is allocated in that case.
	ErrDeploymentFailed = errors.New("instance deployment failed")

	// ErrUnknownInstance is returned when an identifier was never allocated.
	ErrUnknownInstance = errors.New("unknown instance identifier")

	// ErrInstanceDestroyed is returned by TokenURI for a destroyed instance
	// whose metadata has not been refreshed since destruction.
	ErrInstanceDestroyed = errors.New("instance destroyed")

	// ErrUnauthorized is returned when a caller attempts an owner-gated
	// operation without being the registry owner.
	ErrUnauthorized = errors.New("caller is not the registry owner")
)

// Deployer provisions contract instances on behalf of the registry. A
// deployer must either return a nonzero address or an error, never a
// silently-invalid address.
type Deployer interface {
	// Deploy provisions an instance at a fresh address. Every call yields a
	// new address.
	Deploy(ctx context.Context) (ContractAddress, error)

	// DeployDeterministic provisions an instance at the address derived from
	// salt and the configured init code. Reusing a salt fails.
	DeployDeterministic(ctx context.Context, salt Salt) (ContractAddress, error)
}

// AccessControl decides who may perform owner-gated registry operations.
type AccessControl interface {
	// IsOwner reports whether caller is authorized as the registry owner.
	IsOwner(caller ContractAddress) bool

	// Owner returns the authorized owner address, or the zero address when
	// no owner is configured.
	Owner() ContractAddress
}

// InstanceRegistry tokenizes deployed contract instances. Identifiers are
// allocated sequentially starting at zero and are never reused or reclaimed:
// a failed creation allocates nothing, and destruction clears an instance's
// entries without freeing its identifier.
type InstanceRegistry interface {
	// CreateInstance deploys a fresh instance and records it under the next
	// identifier. The metadata pointer is stored verbatim, empty included.
	CreateInstance(ctx context.Context, metadata InstanceMetadata) (InstanceID, error)

	// CreateInstanceDeterministic deploys an instance at the salt-derived
	// address and records it under the next identifier. Unlike
	// CreateInstance, empty metadata is rejected with ErrInvalidMetadata
	// before any deployment is attempted.
	CreateInstanceDeterministic(ctx context.Context, metadata InstanceMetadata, salt Salt) (InstanceID, error)

	// TokenURI returns the metadata pointer recorded for id. It fails with
	// ErrUnknownInstance for never-allocated identifiers and with
	// ErrInstanceDestroyed for destroyed instances, unless the metadata has
	// been refreshed after destruction.
	TokenURI(id InstanceID) (InstanceMetadata, error)

	// InstanceAddress returns the address recorded for id. Destroyed
	// instances read back the zero address without error; only
	// never-allocated identifiers fail.
	InstanceAddress(id InstanceID) (ContractAddress, error)

	// UpdateMetadataURI replaces the metadata pointer for id. Owner-gated.
	// The instance's liveness is deliberately not checked, so updating a
	// destroyed instance resurrects its metadata while the address stays
	// cleared.
	UpdateMetadataURI(caller ContractAddress, id InstanceID, metadata InstanceMetadata) error

	// DestroyInstance clears the address and metadata recorded for id,
	// keeping the identifier allocated. Owner-gated and idempotent.
	DestroyInstance(caller ContractAddress, id InstanceID) error

	// InstanceCount returns the number of identifiers allocated so far,
	// destroyed instances included.
	InstanceCount() uint64

	// Owner returns the registry owner address.
	Owner() ContractAddress

	// SubscribeInstanceCreated delivers a notification to ch for every
	// successful creation, after the instance is fully recorded.
	SubscribeInstanceCreated(ch chan<- InstanceCreated) event.Subscription
}
