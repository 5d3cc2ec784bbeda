package registry

import (
	"context"

	"github.com/ethereum/go-ethereum/event"
	"github.com/ruteri/contract-instance-registry/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockDeployer mocks the interfaces.Deployer interface.
type MockDeployer struct {
	mock.Mock
}

// Deploy mocks the Deploy method.
func (m *MockDeployer) Deploy(ctx context.Context) (interfaces.ContractAddress, error) {
	args := m.Called(ctx)
	return args.Get(0).(interfaces.ContractAddress), args.Error(1)
}

// DeployDeterministic mocks the DeployDeterministic method.
func (m *MockDeployer) DeployDeterministic(ctx context.Context, salt interfaces.Salt) (interfaces.ContractAddress, error) {
	args := m.Called(ctx, salt)
	return args.Get(0).(interfaces.ContractAddress), args.Error(1)
}

// MockAccessControl mocks the interfaces.AccessControl interface.
type MockAccessControl struct {
	mock.Mock
}

// IsOwner mocks the IsOwner method.
func (m *MockAccessControl) IsOwner(caller interfaces.ContractAddress) bool {
	args := m.Called(caller)
	return args.Bool(0)
}

// Owner mocks the Owner method.
func (m *MockAccessControl) Owner() interfaces.ContractAddress {
	args := m.Called()
	return args.Get(0).(interfaces.ContractAddress)
}

// MockInstanceRegistry mocks the interfaces.InstanceRegistry interface.
type MockInstanceRegistry struct {
	mock.Mock
}

// CreateInstance mocks the CreateInstance method.
func (m *MockInstanceRegistry) CreateInstance(ctx context.Context, metadata interfaces.InstanceMetadata) (interfaces.InstanceID, error) {
	args := m.Called(ctx, metadata)
	return args.Get(0).(interfaces.InstanceID), args.Error(1)
}

// CreateInstanceDeterministic mocks the CreateInstanceDeterministic method.
func (m *MockInstanceRegistry) CreateInstanceDeterministic(ctx context.Context, metadata interfaces.InstanceMetadata, salt interfaces.Salt) (interfaces.InstanceID, error) {
	args := m.Called(ctx, metadata, salt)
	return args.Get(0).(interfaces.InstanceID), args.Error(1)
}

// TokenURI mocks the TokenURI method.
func (m *MockInstanceRegistry) TokenURI(id interfaces.InstanceID) (interfaces.InstanceMetadata, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(interfaces.InstanceMetadata), args.Error(1)
}

// InstanceAddress mocks the InstanceAddress method.
func (m *MockInstanceRegistry) InstanceAddress(id interfaces.InstanceID) (interfaces.ContractAddress, error) {
	args := m.Called(id)
	return args.Get(0).(interfaces.ContractAddress), args.Error(1)
}

// UpdateMetadataURI mocks the UpdateMetadataURI method.
func (m *MockInstanceRegistry) UpdateMetadataURI(caller interfaces.ContractAddress, id interfaces.InstanceID, metadata interfaces.InstanceMetadata) error {
	args := m.Called(caller, id, metadata)
	return args.Error(0)
}

// DestroyInstance mocks the DestroyInstance method.
func (m *MockInstanceRegistry) DestroyInstance(caller interfaces.ContractAddress, id interfaces.InstanceID) error {
	args := m.Called(caller, id)
	return args.Error(0)
}

// InstanceCount mocks the InstanceCount method.
func (m *MockInstanceRegistry) InstanceCount() uint64 {
	args := m.Called()
	return args.Get(0).(uint64)
}

// Owner mocks the Owner method.
func (m *MockInstanceRegistry) Owner() interfaces.ContractAddress {
	args := m.Called()
	return args.Get(0).(interfaces.ContractAddress)
}

// SubscribeInstanceCreated mocks the SubscribeInstanceCreated method.
func (m *MockInstanceRegistry) SubscribeInstanceCreated(ch chan<- interfaces.InstanceCreated) event.Subscription {
	args := m.Called(ch)
	sub, _ := args.Get(0).(event.Subscription)
	return sub
}
