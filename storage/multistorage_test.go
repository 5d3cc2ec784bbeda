package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/ruteri/contract-instance-registry/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStorageBackend implements interfaces.StorageBackend for testing
type MockStorageBackend struct {
	mock.Mock
	name   string
	scheme string
}

func (m *MockStorageBackend) Fetch(ctx context.Context, loc interfaces.MetadataLocation) ([]byte, error) {
	args := m.Called(ctx, loc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockStorageBackend) Store(ctx context.Context, data []byte) (interfaces.MetadataLocation, error) {
	args := m.Called(ctx, data)
	return args.Get(0).(interfaces.MetadataLocation), args.Error(1)
}

func (m *MockStorageBackend) Available(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func (m *MockStorageBackend) Name() string {
	return m.name
}

func (m *MockStorageBackend) Scheme() string {
	return m.scheme
}

func (m *MockStorageBackend) LocationURI() string {
	return m.scheme + "://mock"
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustLocation(t *testing.T, uri string) interfaces.MetadataLocation {
	t.Helper()
	loc, err := interfaces.ParseMetadataLocation(uri)
	require.NoError(t, err)
	return loc
}

func TestMultiStorageBackend_Available(t *testing.T) {
	// Create test cases
	tests := []struct {
		name     string
		backends []bool
		expected bool
	}{
		{
			name:     "all backends available",
			backends: []bool{true, true, true},
			expected: true,
		},
		{
			name:     "some backends available",
			backends: []bool{false, true, false},
			expected: true,
		},
		{
			name:     "no backends available",
			backends: []bool{false, false, false},
			expected: false,
		},
		{
			name:     "no backends",
			backends: []bool{},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Create mock backends
			var backends []interfaces.StorageBackend
			for i, available := range tt.backends {
				mockStorage := &MockStorageBackend{name: fmt.Sprintf("mock-A%x", i), scheme: "file"}
				mockStorage.On("Available", mock.Anything).Return(available).Maybe()
				backends = append(backends, mockStorage)
			}

			// Create multi-storage backend
			multi := NewMultiStorageBackend(backends, testLogger())

			// Check availability
			result := multi.Available(context.Background())
			assert.Equal(t, tt.expected, result)

			// Verify all mocks were called
			for _, backend := range backends {
				mockStorage := backend.(*MockStorageBackend)
				mockStorage.AssertExpectations(t)
			}
		})
	}
}

func TestMultiStorageBackend_Fetch(t *testing.T) {
	testData := []byte("descriptor data")
	testErr := errors.New("test error")

	t.Run("routes by pointer scheme", func(t *testing.T) {
		loc := mustLocation(t, "file:///descriptors/abc")

		fileBackend := &MockStorageBackend{name: "mock-file", scheme: "file"}
		fileBackend.On("Available", mock.Anything).Return(true)
		fileBackend.On("Fetch", mock.Anything, loc).Return(testData, nil)

		ipfsBackend := &MockStorageBackend{name: "mock-ipfs", scheme: "ipfs"}

		multi := NewMultiStorageBackend([]interfaces.StorageBackend{ipfsBackend, fileBackend}, testLogger())

		data, err := multi.Fetch(context.Background(), loc)
		require.NoError(t, err)
		assert.Equal(t, testData, data)

		// The ipfs backend resolves a different scheme and must not be
		// consulted, not even for availability.
		ipfsBackend.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
		ipfsBackend.AssertNotCalled(t, "Available", mock.Anything)
	})

	t.Run("same-scheme mirror acts as fallback", func(t *testing.T) {
		loc := mustLocation(t, "file:///descriptors/abc")

		failing := &MockStorageBackend{name: "mock-A", scheme: "file"}
		failing.On("Available", mock.Anything).Return(true)
		failing.On("Fetch", mock.Anything, loc).Return(nil, testErr)

		working := &MockStorageBackend{name: "mock-B", scheme: "file"}
		working.On("Available", mock.Anything).Return(true)
		working.On("Fetch", mock.Anything, loc).Return(testData, nil)

		multi := NewMultiStorageBackend([]interfaces.StorageBackend{failing, working}, testLogger())

		data, err := multi.Fetch(context.Background(), loc)
		require.NoError(t, err)
		assert.Equal(t, testData, data)
	})

	t.Run("unavailable backends are skipped", func(t *testing.T) {
		loc := mustLocation(t, "file:///descriptors/abc")

		down := &MockStorageBackend{name: "mock-A", scheme: "file"}
		down.On("Available", mock.Anything).Return(false)

		up := &MockStorageBackend{name: "mock-B", scheme: "file"}
		up.On("Available", mock.Anything).Return(true)
		up.On("Fetch", mock.Anything, loc).Return(testData, nil)

		multi := NewMultiStorageBackend([]interfaces.StorageBackend{down, up}, testLogger())

		data, err := multi.Fetch(context.Background(), loc)
		require.NoError(t, err)
		assert.Equal(t, testData, data)
		down.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
	})

	t.Run("all matching backends fail", func(t *testing.T) {
		loc := mustLocation(t, "file:///descriptors/abc")

		mock1 := &MockStorageBackend{name: "mock-A", scheme: "file"}
		mock1.On("Available", mock.Anything).Return(true)
		mock1.On("Fetch", mock.Anything, loc).Return(nil, testErr)

		mock2 := &MockStorageBackend{name: "mock-B", scheme: "file"}
		mock2.On("Available", mock.Anything).Return(true)
		mock2.On("Fetch", mock.Anything, loc).Return(nil, testErr)

		multi := NewMultiStorageBackend([]interfaces.StorageBackend{mock1, mock2}, testLogger())

		_, err := multi.Fetch(context.Background(), loc)
		require.Error(t, err)
		assert.ErrorIs(t, err, testErr)
	})

	t.Run("no backend for scheme", func(t *testing.T) {
		loc := mustLocation(t, "ipfs://QmRAQB6YaCyidP37UdDnjFY5vQuiBrcqdyoW1CuDgwxkD4")

		fileBackend := &MockStorageBackend{name: "mock-file", scheme: "file"}
		multi := NewMultiStorageBackend([]interfaces.StorageBackend{fileBackend}, testLogger())

		_, err := multi.Fetch(context.Background(), loc)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no backend for scheme")
	})
}

func TestMultiStorageBackend_Store(t *testing.T) {
	testData := []byte("descriptor data")
	testErr := errors.New("test error")

	t.Run("replicates to all writable backends", func(t *testing.T) {
		locA := mustLocation(t, "file:///descriptors/abc")
		locB := mustLocation(t, "ipfs://QmRAQB6YaCyidP37UdDnjFY5vQuiBrcqdyoW1CuDgwxkD4")

		mock1 := &MockStorageBackend{name: "mock-A", scheme: "file"}
		mock1.On("Available", mock.Anything).Return(true)
		mock1.On("Store", mock.Anything, testData).Return(locA, nil).Once()

		mock2 := &MockStorageBackend{name: "mock-B", scheme: "ipfs"}
		mock2.On("Available", mock.Anything).Return(true)
		mock2.On("Store", mock.Anything, testData).Return(locB, nil).Once()

		multi := NewMultiStorageBackend([]interfaces.StorageBackend{mock1, mock2}, testLogger())

		loc, err := multi.Store(context.Background(), testData)
		require.NoError(t, err)

		// The first successful store provides the primary pointer.
		assert.Equal(t, locA, loc)
		mock1.AssertExpectations(t)
		mock2.AssertExpectations(t)
	})

	t.Run("read-only backends are skipped", func(t *testing.T) {
		locB := mustLocation(t, "ipfs://QmRAQB6YaCyidP37UdDnjFY5vQuiBrcqdyoW1CuDgwxkD4")

		readonly := &MockStorageBackend{name: "mock-github", scheme: "github"}
		readonly.On("Available", mock.Anything).Return(true)
		readonly.On("Store", mock.Anything, testData).Return(interfaces.MetadataLocation{}, interfaces.ErrReadOnlyBackend)

		writable := &MockStorageBackend{name: "mock-ipfs", scheme: "ipfs"}
		writable.On("Available", mock.Anything).Return(true)
		writable.On("Store", mock.Anything, testData).Return(locB, nil)

		multi := NewMultiStorageBackend([]interfaces.StorageBackend{readonly, writable}, testLogger())

		loc, err := multi.Store(context.Background(), testData)
		require.NoError(t, err)
		assert.Equal(t, locB, loc)
	})

	t.Run("all backends fail", func(t *testing.T) {
		mock1 := &MockStorageBackend{name: "mock-A", scheme: "file"}
		mock1.On("Available", mock.Anything).Return(true)
		mock1.On("Store", mock.Anything, testData).Return(interfaces.MetadataLocation{}, testErr)

		multi := NewMultiStorageBackend([]interfaces.StorageBackend{mock1}, testLogger())

		_, err := multi.Store(context.Background(), testData)
		require.Error(t, err)
		assert.ErrorIs(t, err, testErr)
	})

	t.Run("no writable backend", func(t *testing.T) {
		readonly := &MockStorageBackend{name: "mock-github", scheme: "github"}
		readonly.On("Available", mock.Anything).Return(true)
		readonly.On("Store", mock.Anything, testData).Return(interfaces.MetadataLocation{}, interfaces.ErrReadOnlyBackend)

		multi := NewMultiStorageBackend([]interfaces.StorageBackend{readonly}, testLogger())

		_, err := multi.Store(context.Background(), testData)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no writable backend")
	})
}
