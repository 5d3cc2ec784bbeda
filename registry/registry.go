package registry

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/event"
	"github.com/ruteri/contract-instance-registry/interfaces"
	"github.com/ruteri/contract-instance-registry/metrics"
)

// InstanceRegistry implements the interfaces.InstanceRegistry interface. It
// deploys contract instances through a pluggable Deployer and tracks them as
// sequentially numbered records: identifier, deployed address and an opaque
// metadata pointer.
//
// Identifiers are allocated from a counter that only moves forward. A failed
// deployment allocates nothing; destruction clears the record but keeps the
// identifier occupied. All methods are safe for concurrent use.
type InstanceRegistry struct {
	deployer interfaces.Deployer
	access   interfaces.AccessControl
	log      *slog.Logger

	mu        sync.RWMutex
	nextID    interfaces.InstanceID
	instances map[interfaces.InstanceID]interfaces.ContractAddress
	metadata  map[interfaces.InstanceID]interfaces.InstanceMetadata

	instanceFeed event.Feed
}

// NewInstanceRegistry creates a registry backed by the given deployer and
// access controller. A nil logger defaults to slog.Default().
func NewInstanceRegistry(deployer interfaces.Deployer, access interfaces.AccessControl, log *slog.Logger) *InstanceRegistry {
	if log == nil {
		log = slog.Default()
	}

	return &InstanceRegistry{
		deployer:  deployer,
		access:    access,
		log:       log,
		instances: make(map[interfaces.InstanceID]interfaces.ContractAddress),
		metadata:  make(map[interfaces.InstanceID]interfaces.InstanceMetadata),
	}
}

// CreateInstance deploys a fresh instance and records it under the next
// identifier. The metadata pointer is recorded verbatim; an empty pointer is
// acceptable here, unlike in CreateInstanceDeterministic.
func (r *InstanceRegistry) CreateInstance(ctx context.Context, metadata interfaces.InstanceMetadata) (interfaces.InstanceID, error) {
	addr, err := r.deployer.Deploy(ctx)
	if err != nil {
		return 0, r.deployFailed(err)
	}
	if addr.IsZero() {
		return 0, r.deployFailed(fmt.Errorf("deployer returned the empty sentinel"))
	}

	return r.recordInstance(addr, metadata, false), nil
}

// CreateInstanceDeterministic deploys an instance at the address derived from
// salt and records it under the next identifier. Empty metadata is rejected
// before any deployment is attempted, so a rejected call consumes neither an
// identifier nor the salt.
func (r *InstanceRegistry) CreateInstanceDeterministic(ctx context.Context, metadata interfaces.InstanceMetadata, salt interfaces.Salt) (interfaces.InstanceID, error) {
	if len(metadata) == 0 {
		metrics.IncInstanceCreateFailure()
		return 0, interfaces.ErrInvalidMetadata
	}

	addr, err := r.deployer.DeployDeterministic(ctx, salt)
	if err != nil {
		return 0, r.deployFailed(err)
	}
	if addr.IsZero() {
		return 0, r.deployFailed(fmt.Errorf("deployer returned the empty sentinel"))
	}

	return r.recordInstance(addr, metadata, true), nil
}

func (r *InstanceRegistry) deployFailed(err error) error {
	metrics.IncInstanceCreateFailure()
	r.log.Error("Instance deployment failed", "err", err)
	return fmt.Errorf("%w: %v", interfaces.ErrDeploymentFailed, err)
}

// recordInstance allocates the next identifier and stores the instance under
// it. Deployment already happened; this step cannot fail.
func (r *InstanceRegistry) recordInstance(addr interfaces.ContractAddress, metadata interfaces.InstanceMetadata, deterministic bool) interfaces.InstanceID {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.instances[id] = addr
	r.metadata[id] = bytes.Clone(metadata)
	r.mu.Unlock()

	// Notify only once both mappings are visible.
	r.instanceFeed.Send(interfaces.InstanceCreated{Address: addr, ID: id})
	metrics.IncInstanceCreated(deterministic)

	r.log.Info("Instance created",
		slog.String("instanceID", id.String()),
		slog.String("address", addr.String()),
		slog.Bool("deterministic", deterministic),
	)

	return id
}

// TokenURI returns the metadata pointer recorded for id. A destroyed instance
// reads back ErrInstanceDestroyed until its metadata is refreshed through
// UpdateMetadataURI.
func (r *InstanceRegistry) TokenURI(id interfaces.InstanceID) (interfaces.InstanceMetadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if id >= r.nextID {
		return nil, interfaces.ErrUnknownInstance
	}
	if r.instances[id].IsZero() && len(r.metadata[id]) == 0 {
		return nil, interfaces.ErrInstanceDestroyed
	}

	return bytes.Clone(r.metadata[id]), nil
}

// InstanceAddress returns the address recorded for id.
func (r *InstanceRegistry) InstanceAddress(id interfaces.InstanceID) (interfaces.ContractAddress, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if id >= r.nextID {
		return interfaces.ContractAddress{}, interfaces.ErrUnknownInstance
	}

	// No liveness check: destroyed ids read back the empty sentinel.
	return r.instances[id], nil
}

// UpdateMetadataURI replaces the metadata pointer recorded for id. Only the
// registry owner may call it. The instance's liveness is deliberately not
// checked, so updating a destroyed instance resurrects its metadata while the
// address stays cleared.
func (r *InstanceRegistry) UpdateMetadataURI(caller interfaces.ContractAddress, id interfaces.InstanceID, metadata interfaces.InstanceMetadata) error {
	if !r.access.IsOwner(caller) {
		return interfaces.ErrUnauthorized
	}

	r.mu.Lock()
	if id >= r.nextID {
		r.mu.Unlock()
		return interfaces.ErrUnknownInstance
	}
	r.metadata[id] = bytes.Clone(metadata)
	r.mu.Unlock()

	metrics.IncMetadataUpdate()
	r.log.Info("Instance metadata updated",
		slog.String("instanceID", id.String()),
		slog.Int("metadataLen", len(metadata)),
	)

	return nil
}

// DestroyInstance clears the address and metadata recorded for id. Only the
// registry owner may call it. The identifier stays allocated and the call is
// idempotent: destroying an already-destroyed instance succeeds.
func (r *InstanceRegistry) DestroyInstance(caller interfaces.ContractAddress, id interfaces.InstanceID) error {
	if !r.access.IsOwner(caller) {
		return interfaces.ErrUnauthorized
	}

	r.mu.Lock()
	if id >= r.nextID {
		r.mu.Unlock()
		return interfaces.ErrUnknownInstance
	}
	// Clearing rather than deleting keeps the identifier allocated.
	r.instances[id] = interfaces.ContractAddress{}
	r.metadata[id] = nil
	r.mu.Unlock()

	metrics.IncInstanceDestroyed()
	r.log.Info("Instance destroyed", slog.String("instanceID", id.String()))

	return nil
}

// InstanceCount returns the number of identifiers allocated so far, destroyed
// instances included.
func (r *InstanceRegistry) InstanceCount() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return uint64(r.nextID)
}

// Owner returns the registry owner address.
func (r *InstanceRegistry) Owner() interfaces.ContractAddress {
	return r.access.Owner()
}

// SubscribeInstanceCreated registers ch to receive a notification for every
// successful creation. Delivery happens after the instance is fully recorded,
// on the creating goroutine; slow consumers should buffer.
func (r *InstanceRegistry) SubscribeInstanceCreated(ch chan<- interfaces.InstanceCreated) event.Subscription {
	return r.instanceFeed.Subscribe(ch)
}
