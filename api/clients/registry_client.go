package clients

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/flashbots/go-utils/signature"
	"github.com/ruteri/contract-instance-registry/api"
	"github.com/ruteri/contract-instance-registry/interfaces"
	"github.com/stretchr/testify/mock"
)

// RegistryClient implements api.RegistryProvider for HTTP-based communication
// with a registry server. Admin operations sign the request body with the
// configured private key; a client without a key can still use the read and
// creation endpoints.
type RegistryClient struct {
	serverAddr string
	privateKey *ecdsa.PrivateKey
	httpClient *http.Client
}

// NewRegistryClient creates a client for the registry HTTP API.
//
// Parameters:
//   - serverAddr: The base URL of the registry server (e.g., "http://localhost:8080")
//   - privateKey: The key used to sign admin requests, nil for read-only use
//   - timeout: Request timeout duration (optional, default 30 seconds)
//
// Returns:
//   - Configured RegistryClient instance
func NewRegistryClient(serverAddr string, privateKey *ecdsa.PrivateKey, timeout ...time.Duration) *RegistryClient {
	clientTimeout := 30 * time.Second
	if len(timeout) > 0 {
		clientTimeout = timeout[0]
	}

	return &RegistryClient{
		serverAddr: strings.TrimSuffix(serverAddr, "/"),
		privateKey: privateKey,
		httpClient: &http.Client{
			Timeout: clientTimeout,
		},
	}
}

// instanceRoute fills the {id} placeholder of a route template.
func instanceRoute(route string, id interfaces.InstanceID) string {
	return strings.Replace(route, "{id}", id.String(), 1)
}

// doRequest performs an HTTP request against the registry server and returns
// the response body. Signed requests carry the body signature in the
// X-Flashbots-Signature header.
func (c *RegistryClient) doRequest(method, path string, body []byte, signed bool) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequest(method, c.serverAddr+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if signed {
		if c.privateKey == nil {
			return nil, errors.New("admin request requires a signing key")
		}
		sig, err := signature.Create(body, c.privateKey)
		if err != nil {
			return nil, fmt.Errorf("failed to sign request: %w", err)
		}
		req.Header.Set(signature.HTTPHeader, sig)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	return respBody, nil
}

// RegistryInfo returns the registry owner and instance count.
func (c *RegistryClient) RegistryInfo() (*api.RegistryInfoResponse, error) {
	body, err := c.doRequest(http.MethodGet, api.RouteRegistryInfo, nil, false)
	if err != nil {
		return nil, err
	}

	var parsed api.RegistryInfoResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("could not parse registry info response: %w", err)
	}

	return &parsed, nil
}

// CreateInstance deploys a fresh instance contract and records the given
// metadata pointer for it.
func (c *RegistryClient) CreateInstance(metadata []byte) (*api.CreateInstanceResponse, error) {
	reqJSON, err := json.Marshal(api.CreateInstanceRequest{Metadata: string(metadata)})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	body, err := c.doRequest(http.MethodPost, api.RouteCreateInstance, reqJSON, false)
	if err != nil {
		return nil, err
	}

	var parsed api.CreateInstanceResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("could not parse create instance response: %w", err)
	}

	return &parsed, nil
}

// CreateInstanceDeterministic deploys an instance contract at the
// salt-derived address and records the given metadata pointer for it.
func (c *RegistryClient) CreateInstanceDeterministic(metadata []byte, salt interfaces.Salt) (*api.CreateInstanceResponse, error) {
	reqJSON, err := json.Marshal(api.CreateDeterministicInstanceRequest{
		Metadata: string(metadata),
		Salt:     salt.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	body, err := c.doRequest(http.MethodPost, api.RouteCreateInstanceDeterministic, reqJSON, false)
	if err != nil {
		return nil, err
	}

	var parsed api.CreateInstanceResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("could not parse create instance response: %w", err)
	}

	return &parsed, nil
}

// InstanceMetadata returns the metadata pointer recorded for an instance.
func (c *RegistryClient) InstanceMetadata(id interfaces.InstanceID) (*api.InstanceMetadataResponse, error) {
	body, err := c.doRequest(http.MethodGet, instanceRoute(api.RouteInstanceMetadata, id), nil, false)
	if err != nil {
		return nil, err
	}

	var parsed api.InstanceMetadataResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("could not parse instance metadata response: %w", err)
	}

	return &parsed, nil
}

// InstanceAddress returns the contract address recorded for an instance.
func (c *RegistryClient) InstanceAddress(id interfaces.InstanceID) (*api.InstanceAddressResponse, error) {
	body, err := c.doRequest(http.MethodGet, instanceRoute(api.RouteInstanceAddress, id), nil, false)
	if err != nil {
		return nil, err
	}

	var parsed api.InstanceAddressResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("could not parse instance address response: %w", err)
	}

	return &parsed, nil
}

// InstanceDescriptor resolves the instance's metadata pointer through the
// server's storage backends and returns the raw descriptor content.
func (c *RegistryClient) InstanceDescriptor(id interfaces.InstanceID) ([]byte, error) {
	return c.doRequest(http.MethodGet, instanceRoute(api.RouteInstanceDescriptor, id), nil, false)
}

// UpdateMetadata replaces the metadata pointer of an instance. Requires the
// registry owner's signing key.
func (c *RegistryClient) UpdateMetadata(id interfaces.InstanceID, metadata []byte) error {
	reqJSON, err := json.Marshal(api.UpdateMetadataRequest{
		ID:       uint64(id),
		Metadata: string(metadata),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	_, err = c.doRequest(http.MethodPost, instanceRoute(api.RouteUpdateMetadata, id), reqJSON, true)
	return err
}

// DestroyInstance clears an instance's address and metadata. Requires the
// registry owner's signing key.
func (c *RegistryClient) DestroyInstance(id interfaces.InstanceID) error {
	reqJSON, err := json.Marshal(api.DestroyInstanceRequest{ID: uint64(id)})
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	_, err = c.doRequest(http.MethodPost, instanceRoute(api.RouteDestroyInstance, id), reqJSON, true)
	return err
}

// PublishDescriptor stores a descriptor in the server's storage backends and
// returns the pointer it can be referenced by. Requires the registry owner's
// signing key.
func (c *RegistryClient) PublishDescriptor(descriptor []byte) (*api.PublishDescriptorResponse, error) {
	body, err := c.doRequest(http.MethodPost, api.RoutePublishDescriptor, descriptor, true)
	if err != nil {
		return nil, err
	}

	var parsed api.PublishDescriptorResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("could not parse publish descriptor response: %w", err)
	}

	return &parsed, nil
}

// MockRegistryProvider implements a mock api.RegistryProvider for testing.
type MockRegistryProvider struct {
	mock.Mock
}

// RegistryInfo implements the RegistryProvider interface for testing.
func (m *MockRegistryProvider) RegistryInfo() (*api.RegistryInfoResponse, error) {
	args := m.Called()
	return args.Get(0).(*api.RegistryInfoResponse), args.Error(1)
}

// CreateInstance implements the RegistryProvider interface for testing.
func (m *MockRegistryProvider) CreateInstance(metadata []byte) (*api.CreateInstanceResponse, error) {
	args := m.Called(metadata)
	return args.Get(0).(*api.CreateInstanceResponse), args.Error(1)
}

// CreateInstanceDeterministic implements the RegistryProvider interface for testing.
func (m *MockRegistryProvider) CreateInstanceDeterministic(metadata []byte, salt interfaces.Salt) (*api.CreateInstanceResponse, error) {
	args := m.Called(metadata, salt)
	return args.Get(0).(*api.CreateInstanceResponse), args.Error(1)
}

// InstanceMetadata implements the RegistryProvider interface for testing.
func (m *MockRegistryProvider) InstanceMetadata(id interfaces.InstanceID) (*api.InstanceMetadataResponse, error) {
	args := m.Called(id)
	return args.Get(0).(*api.InstanceMetadataResponse), args.Error(1)
}

// InstanceAddress implements the RegistryProvider interface for testing.
func (m *MockRegistryProvider) InstanceAddress(id interfaces.InstanceID) (*api.InstanceAddressResponse, error) {
	args := m.Called(id)
	return args.Get(0).(*api.InstanceAddressResponse), args.Error(1)
}

// InstanceDescriptor implements the RegistryProvider interface for testing.
func (m *MockRegistryProvider) InstanceDescriptor(id interfaces.InstanceID) ([]byte, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// UpdateMetadata implements the RegistryProvider interface for testing.
func (m *MockRegistryProvider) UpdateMetadata(id interfaces.InstanceID, metadata []byte) error {
	args := m.Called(id, metadata)
	return args.Error(0)
}

// DestroyInstance implements the RegistryProvider interface for testing.
func (m *MockRegistryProvider) DestroyInstance(id interfaces.InstanceID) error {
	args := m.Called(id)
	return args.Error(0)
}

// PublishDescriptor implements the RegistryProvider interface for testing.
func (m *MockRegistryProvider) PublishDescriptor(descriptor []byte) (*api.PublishDescriptorResponse, error) {
	args := m.Called(descriptor)
	return args.Get(0).(*api.PublishDescriptorResponse), args.Error(1)
}
