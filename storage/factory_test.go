package storage

import (
	"fmt"
	"testing"

	"github.com/ruteri/contract-instance-registry/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageBackendFor(t *testing.T) {
	factory := NewStorageBackendFactory(testLogger())

	tests := []struct {
		name   string
		uri    string
		scheme string
	}{
		{
			name:   "file backend",
			uri:    fmt.Sprintf("file://%s", t.TempDir()),
			scheme: "file",
		},
		{
			name:   "s3 backend",
			uri:    "s3://descriptor-bucket/registry/?region=us-west-2",
			scheme: "s3",
		},
		{
			name:   "s3 backend with credentials",
			uri:    "s3://AKID:secret@descriptor-bucket/registry/",
			scheme: "s3",
		},
		{
			name:   "ipfs backend",
			uri:    "ipfs://127.0.0.1:5001/?timeout=5s",
			scheme: "ipfs",
		},
		{
			name:   "vault backend",
			uri:    "vault://vault.example.com:8200/secret/registry?token=test",
			scheme: "vault",
		},
		{
			name:   "github backend",
			uri:    "github://example/descriptors/main/instances",
			scheme: "github",
		},
		{
			name:   "dnslink backend",
			uri:    "dnslink://descriptors.example.com",
			scheme: "dnslink",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := interfaces.ParseMetadataLocation(tt.uri)
			require.NoError(t, err)

			backend, err := factory.StorageBackendFor(loc)
			require.NoError(t, err)
			assert.Equal(t, tt.scheme, backend.Scheme())
			assert.NotEmpty(t, backend.Name())
		})
	}
}

func TestStorageBackendFor_InvalidLocations(t *testing.T) {
	factory := NewStorageBackendFactory(testLogger())

	tests := []struct {
		name string
		uri  string
	}{
		{name: "vault without server", uri: "vault:///secret/registry"},
		{name: "github without repo", uri: "github://example"},
		{name: "dnslink without domain", uri: "dnslink://"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := interfaces.ParseMetadataLocation(tt.uri)
			require.NoError(t, err)

			_, err = factory.StorageBackendFor(loc)
			assert.Error(t, err)
		})
	}
}

func TestCreateMultiBackend(t *testing.T) {
	factory := NewStorageBackendFactory(testLogger())

	t.Run("aggregates valid backends", func(t *testing.T) {
		locations := []interfaces.MetadataLocation{
			mustLocation(t, fmt.Sprintf("file://%s", t.TempDir())),
			mustLocation(t, "github://example/descriptors"),
		}

		multi, err := factory.CreateMultiBackend(locations)
		require.NoError(t, err)
		assert.Equal(t, "multi", multi.Scheme())
		assert.Contains(t, multi.LocationURI(), "multi:[")
	})

	t.Run("skips invalid locations", func(t *testing.T) {
		locations := []interfaces.MetadataLocation{
			mustLocation(t, "vault:///secret/registry"),
			mustLocation(t, fmt.Sprintf("file://%s", t.TempDir())),
		}

		multi, err := factory.CreateMultiBackend(locations)
		require.NoError(t, err)
		assert.Equal(t, "multi", multi.Scheme())
	})

	t.Run("fails when nothing can be created", func(t *testing.T) {
		locations := []interfaces.MetadataLocation{
			mustLocation(t, "vault:///secret/registry"),
		}

		_, err := factory.CreateMultiBackend(locations)
		assert.Error(t, err)
	})
}
