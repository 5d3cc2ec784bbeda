package registry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/ruteri/contract-instance-registry/governance"
	"github.com/ruteri/contract-instance-registry/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testOwner = mustAddr("0x1111111111111111111111111111111111111111")

func mustAddr(hex string) interfaces.ContractAddress {
	addr, err := interfaces.NewContractAddressFromHex(hex)
	if err != nil {
		panic(err)
	}
	return addr
}

func testAddr(b byte) interfaces.ContractAddress {
	var addr interfaces.ContractAddress
	addr[19] = b
	return addr
}

func newTestRegistry(t *testing.T) (*InstanceRegistry, *MockDeployer) {
	t.Helper()

	deployer := new(MockDeployer)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := NewInstanceRegistry(deployer, governance.NewOwnerAccessControl(testOwner), logger)
	return registry, deployer
}

func TestCreateInstance_SequentialIDs(t *testing.T) {
	registry, deployer := newTestRegistry(t)
	ctx := context.Background()

	deployer.On("Deploy", mock.Anything).Return(testAddr(1), nil).Once()
	deployer.On("Deploy", mock.Anything).Return(testAddr(2), nil).Once()
	deployer.On("Deploy", mock.Anything).Return(testAddr(3), nil).Once()

	for want := uint64(0); want < 3; want++ {
		id, err := registry.CreateInstance(ctx, interfaces.InstanceMetadata("ipfs://meta"))
		require.NoError(t, err)
		assert.Equal(t, interfaces.InstanceID(want), id)
	}

	assert.Equal(t, uint64(3), registry.InstanceCount())

	addr, err := registry.InstanceAddress(1)
	require.NoError(t, err)
	assert.Equal(t, testAddr(2), addr)

	deployer.AssertExpectations(t)
}

func TestCreateInstance_EmptyMetadataAllowed(t *testing.T) {
	registry, deployer := newTestRegistry(t)

	deployer.On("Deploy", mock.Anything).Return(testAddr(1), nil).Once()

	id, err := registry.CreateInstance(context.Background(), nil)
	require.NoError(t, err)

	// The empty pointer is recorded verbatim and reads back without error.
	meta, err := registry.TokenURI(id)
	require.NoError(t, err)
	assert.Empty(t, meta)
}

func TestCreateInstance_DeploymentFailure(t *testing.T) {
	registry, deployer := newTestRegistry(t)
	ctx := context.Background()

	deployer.On("Deploy", mock.Anything).Return(interfaces.ContractAddress{}, errors.New("out of gas")).Once()

	_, err := registry.CreateInstance(ctx, interfaces.InstanceMetadata("ipfs://meta"))
	require.Error(t, err)
	assert.ErrorIs(t, err, interfaces.ErrDeploymentFailed)

	// The failed creation must not burn an identifier.
	assert.Equal(t, uint64(0), registry.InstanceCount())

	deployer.On("Deploy", mock.Anything).Return(testAddr(1), nil).Once()
	id, err := registry.CreateInstance(ctx, interfaces.InstanceMetadata("ipfs://meta"))
	require.NoError(t, err)
	assert.Equal(t, interfaces.InstanceID(0), id)
}

func TestCreateInstance_ZeroAddressRejected(t *testing.T) {
	registry, deployer := newTestRegistry(t)

	deployer.On("Deploy", mock.Anything).Return(interfaces.ContractAddress{}, nil).Once()

	_, err := registry.CreateInstance(context.Background(), interfaces.InstanceMetadata("ipfs://meta"))
	require.Error(t, err)
	assert.ErrorIs(t, err, interfaces.ErrDeploymentFailed)
	assert.Equal(t, uint64(0), registry.InstanceCount())
}

func TestCreateInstanceDeterministic(t *testing.T) {
	registry, deployer := newTestRegistry(t)
	salt := interfaces.SaltFromLabel("deployment-1")

	deployer.On("DeployDeterministic", mock.Anything, salt).Return(testAddr(7), nil).Once()

	id, err := registry.CreateInstanceDeterministic(context.Background(), interfaces.InstanceMetadata("ipfs://deterministic"), salt)
	require.NoError(t, err)
	assert.Equal(t, interfaces.InstanceID(0), id)

	meta, err := registry.TokenURI(id)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://deterministic", meta.String())

	addr, err := registry.InstanceAddress(id)
	require.NoError(t, err)
	assert.Equal(t, testAddr(7), addr)

	deployer.AssertExpectations(t)
}

func TestCreateInstanceDeterministic_EmptyMetadata(t *testing.T) {
	registry, deployer := newTestRegistry(t)

	_, err := registry.CreateInstanceDeterministic(context.Background(), nil, interfaces.SaltFromLabel("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, interfaces.ErrInvalidMetadata)

	// Rejected before deployment: the deployer is never consulted and no
	// identifier is consumed.
	deployer.AssertNotCalled(t, "DeployDeterministic", mock.Anything, mock.Anything)
	assert.Equal(t, uint64(0), registry.InstanceCount())
}

func TestCreateInstanceDeterministic_DeploymentFailure(t *testing.T) {
	registry, deployer := newTestRegistry(t)
	salt := interfaces.SaltFromLabel("already-used")

	deployer.On("DeployDeterministic", mock.Anything, salt).Return(interfaces.ContractAddress{}, errors.New("salt already consumed")).Once()

	_, err := registry.CreateInstanceDeterministic(context.Background(), interfaces.InstanceMetadata("ipfs://meta"), salt)
	require.Error(t, err)
	assert.ErrorIs(t, err, interfaces.ErrDeploymentFailed)
	assert.Equal(t, uint64(0), registry.InstanceCount())
}

func TestUnknownInstance(t *testing.T) {
	registry, deployer := newTestRegistry(t)

	deployer.On("Deploy", mock.Anything).Return(testAddr(1), nil).Once()
	_, err := registry.CreateInstance(context.Background(), interfaces.InstanceMetadata("ipfs://meta"))
	require.NoError(t, err)

	// Identifier 1 is the next to be allocated, so it is still unknown.
	unknown := interfaces.InstanceID(registry.InstanceCount())

	_, err = registry.TokenURI(unknown)
	assert.ErrorIs(t, err, interfaces.ErrUnknownInstance)

	_, err = registry.InstanceAddress(unknown)
	assert.ErrorIs(t, err, interfaces.ErrUnknownInstance)

	err = registry.UpdateMetadataURI(testOwner, unknown, interfaces.InstanceMetadata("ipfs://new"))
	assert.ErrorIs(t, err, interfaces.ErrUnknownInstance)

	err = registry.DestroyInstance(testOwner, unknown)
	assert.ErrorIs(t, err, interfaces.ErrUnknownInstance)
}

func TestDestroyInstance(t *testing.T) {
	registry, deployer := newTestRegistry(t)

	deployer.On("Deploy", mock.Anything).Return(testAddr(1), nil).Once()
	id, err := registry.CreateInstance(context.Background(), interfaces.InstanceMetadata("ipfs://meta"))
	require.NoError(t, err)

	err = registry.DestroyInstance(testAddr(9), id)
	assert.ErrorIs(t, err, interfaces.ErrUnauthorized)

	require.NoError(t, registry.DestroyInstance(testOwner, id))

	// Metadata reads fail, address reads return the empty sentinel.
	_, err = registry.TokenURI(id)
	assert.ErrorIs(t, err, interfaces.ErrInstanceDestroyed)

	addr, err := registry.InstanceAddress(id)
	require.NoError(t, err)
	assert.True(t, addr.IsZero())

	// Destroy is idempotent and the identifier stays allocated.
	require.NoError(t, registry.DestroyInstance(testOwner, id))
	assert.Equal(t, uint64(1), registry.InstanceCount())
}

func TestUpdateMetadataURI(t *testing.T) {
	registry, deployer := newTestRegistry(t)

	deployer.On("Deploy", mock.Anything).Return(testAddr(1), nil).Once()
	id, err := registry.CreateInstance(context.Background(), interfaces.InstanceMetadata("ipfs://v1"))
	require.NoError(t, err)

	err = registry.UpdateMetadataURI(testAddr(9), id, interfaces.InstanceMetadata("ipfs://evil"))
	assert.ErrorIs(t, err, interfaces.ErrUnauthorized)

	require.NoError(t, registry.UpdateMetadataURI(testOwner, id, interfaces.InstanceMetadata("ipfs://v2")))

	meta, err := registry.TokenURI(id)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://v2", meta.String())
}

func TestUpdateMetadataURI_DestroyedInstance(t *testing.T) {
	registry, deployer := newTestRegistry(t)

	deployer.On("Deploy", mock.Anything).Return(testAddr(1), nil).Once()
	id, err := registry.CreateInstance(context.Background(), interfaces.InstanceMetadata("ipfs://v1"))
	require.NoError(t, err)

	require.NoError(t, registry.DestroyInstance(testOwner, id))

	// Updating skips the liveness check: the metadata comes back to life
	// while the address stays cleared.
	require.NoError(t, registry.UpdateMetadataURI(testOwner, id, interfaces.InstanceMetadata("ipfs://v2")))

	meta, err := registry.TokenURI(id)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://v2", meta.String())

	addr, err := registry.InstanceAddress(id)
	require.NoError(t, err)
	assert.True(t, addr.IsZero())
}

func TestZeroOwnerRejectsEveryone(t *testing.T) {
	deployer := new(MockDeployer)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := NewInstanceRegistry(deployer, governance.NewOwnerAccessControl(interfaces.ContractAddress{}), logger)

	deployer.On("Deploy", mock.Anything).Return(testAddr(1), nil).Once()
	id, err := registry.CreateInstance(context.Background(), interfaces.InstanceMetadata("ipfs://meta"))
	require.NoError(t, err)

	for _, caller := range []interfaces.ContractAddress{{}, testAddr(1), testOwner} {
		assert.ErrorIs(t, registry.UpdateMetadataURI(caller, id, interfaces.InstanceMetadata("x")), interfaces.ErrUnauthorized)
		assert.ErrorIs(t, registry.DestroyInstance(caller, id), interfaces.ErrUnauthorized)
	}
}

func TestSubscribeInstanceCreated(t *testing.T) {
	registry, deployer := newTestRegistry(t)
	ctx := context.Background()

	events := make(chan interfaces.InstanceCreated, 4)
	sub := registry.SubscribeInstanceCreated(events)
	defer sub.Unsubscribe()

	deployer.On("Deploy", mock.Anything).Return(testAddr(1), nil).Once()
	salt := interfaces.SaltFromLabel("evt")
	deployer.On("DeployDeterministic", mock.Anything, salt).Return(testAddr(2), nil).Once()

	_, err := registry.CreateInstance(ctx, interfaces.InstanceMetadata("ipfs://a"))
	require.NoError(t, err)
	_, err = registry.CreateInstanceDeterministic(ctx, interfaces.InstanceMetadata("ipfs://b"), salt)
	require.NoError(t, err)

	// Feed delivery is synchronous, so both events are already buffered.
	first := <-events
	assert.Equal(t, interfaces.InstanceID(0), first.ID)
	assert.Equal(t, testAddr(1), first.Address)

	second := <-events
	assert.Equal(t, interfaces.InstanceID(1), second.ID)
	assert.Equal(t, testAddr(2), second.Address)

	sub.Unsubscribe()

	deployer.On("Deploy", mock.Anything).Return(testAddr(3), nil).Once()
	_, err = registry.CreateInstance(ctx, interfaces.InstanceMetadata("ipfs://c"))
	require.NoError(t, err)

	select {
	case evt := <-events:
		t.Fatalf("received event after unsubscribe: %+v", evt)
	default:
	}
}

func TestFailedCreationDeliversNoEvent(t *testing.T) {
	registry, deployer := newTestRegistry(t)

	events := make(chan interfaces.InstanceCreated, 4)
	sub := registry.SubscribeInstanceCreated(events)
	defer sub.Unsubscribe()

	deployer.On("Deploy", mock.Anything).Return(interfaces.ContractAddress{}, errors.New("boom")).Once()
	_, err := registry.CreateInstance(context.Background(), interfaces.InstanceMetadata("ipfs://meta"))
	require.Error(t, err)

	select {
	case evt := <-events:
		t.Fatalf("received event for failed creation: %+v", evt)
	default:
	}
}

func TestInstanceLifecycle(t *testing.T) {
	registry, deployer := newTestRegistry(t)
	ctx := context.Background()

	deployer.On("Deploy", mock.Anything).Return(testAddr(1), nil).Once()
	salt := interfaces.SaltFromLabel("lifecycle")
	deployer.On("DeployDeterministic", mock.Anything, salt).Return(testAddr(2), nil).Once()

	first, err := registry.CreateInstance(ctx, interfaces.InstanceMetadata("ipfs://first"))
	require.NoError(t, err)
	second, err := registry.CreateInstanceDeterministic(ctx, interfaces.InstanceMetadata("ipfs://second"), salt)
	require.NoError(t, err)
	require.Equal(t, interfaces.InstanceID(0), first)
	require.Equal(t, interfaces.InstanceID(1), second)

	require.NoError(t, registry.UpdateMetadataURI(testOwner, first, interfaces.InstanceMetadata("ipfs://first-v2")))
	require.NoError(t, registry.DestroyInstance(testOwner, first))

	// The survivor is untouched by its sibling's destruction.
	meta, err := registry.TokenURI(second)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://second", meta.String())

	addr, err := registry.InstanceAddress(second)
	require.NoError(t, err)
	assert.Equal(t, testAddr(2), addr)

	assert.Equal(t, uint64(2), registry.InstanceCount())
	assert.Equal(t, testOwner, registry.Owner())
}
