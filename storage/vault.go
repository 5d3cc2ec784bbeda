package storage

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"
	"github.com/ruteri/contract-instance-registry/interfaces"
)

// VaultBackend implements a storage backend using HashiCorp Vault's KV v2
// secrets engine. Descriptors are keyed by the hex SHA-256 digest of their
// content under the configured mount and data path.
type VaultBackend struct {
	client      *api.Client
	mountPath   string
	dataPath    string
	pointerHost string
	log         *slog.Logger
	locationURI string
}

// NewVaultBackend creates a new Vault storage backend using token
// authentication.
//
// Parameters:
//   - address: Vault server address (e.g. https://vault.example.com:8200)
//   - mountPath: Vault mount path (e.g. "secret")
//   - dataPath: Path within the mount (e.g. "registry")
//   - token: Vault token; when empty the client falls back to VAULT_TOKEN
//   - log: Structured logger for operational insights
func NewVaultBackend(address, mountPath, dataPath, token string, log *slog.Logger) (*VaultBackend, error) {
	// Create Vault config
	config := api.DefaultConfig()
	config.Address = address
	config.HttpClient = &http.Client{
		Timeout: 30 * time.Second,
	}

	// Create Vault client
	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}

	if token != "" {
		client.SetToken(token)
	}

	// Ensure paths are properly formatted
	mountPath = strings.TrimSuffix(mountPath, "/")
	dataPath = strings.TrimPrefix(dataPath, "/")
	dataPath = strings.TrimSuffix(dataPath, "/")

	pointerHost := strings.TrimPrefix(strings.TrimPrefix(address, "https://"), "http://")

	return &VaultBackend{
		client:      client,
		mountPath:   mountPath,
		dataPath:    dataPath,
		pointerHost: pointerHost,
		log:         log,
		locationURI: fmt.Sprintf("vault://%s/%s/%s", pointerHost, mountPath, dataPath),
	}, nil
}

// Fetch retrieves the descriptor the pointer's last path element names. The
// backend resolves against its configured mount and data path. It uses the
// KV v2 API which requires a specific path structure.
func (b *VaultBackend) Fetch(ctx context.Context, loc interfaces.MetadataLocation) ([]byte, error) {
	start := time.Now()

	digest := path.Base(loc.Path)
	if digest == "." || digest == "/" {
		return nil, fmt.Errorf("%w: pointer %q names no descriptor", interfaces.ErrInvalidLocationURI, loc.Raw)
	}

	// Vault KV v2 path structure
	vaultPath := fmt.Sprintf("%s/data/%s/%s", b.mountPath, b.dataPath, digest)

	// Read from Vault
	secret, err := b.client.Logical().ReadWithContext(ctx, vaultPath)
	if err != nil {
		b.log.Error("Failed to read from Vault",
			slog.String("path", vaultPath),
			slog.String("digest", digest),
			"err", err)
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	if secret == nil || secret.Data == nil {
		b.log.Debug("Descriptor not found in Vault",
			slog.String("path", vaultPath),
			slog.String("digest", digest))
		return nil, interfaces.ErrContentNotFound
	}

	// Extract data from the response (KV v2 format)
	data, ok := secret.Data["data"]
	if !ok {
		b.log.Error("Invalid data format in Vault response",
			slog.String("path", vaultPath),
			slog.String("digest", digest))
		return nil, fmt.Errorf("invalid data format in Vault response")
	}

	// Extract content from the data map
	content, ok := data.(map[string]interface{})["content"]
	if !ok {
		b.log.Error("Content key not found in Vault data",
			slog.String("path", vaultPath),
			slog.String("digest", digest))
		return nil, fmt.Errorf("content key not found in Vault data")
	}

	// Content is base64-wrapped so arbitrary descriptor bytes survive the
	// JSON round-trip.
	contentStr, ok := content.(string)
	if !ok {
		b.log.Error("Invalid content format in Vault data",
			slog.String("path", vaultPath),
			slog.String("digest", digest))
		return nil, fmt.Errorf("invalid content format in Vault data")
	}

	decoded, err := base64.StdEncoding.DecodeString(contentStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode Vault content: %w", err)
	}

	b.log.Debug("Fetched descriptor from Vault",
		slog.String("digest", digest),
		slog.Duration("duration", time.Since(start)))

	return decoded, nil
}

// Store saves a descriptor under the hex SHA-256 digest of its content and
// returns the pointer it can be fetched back with.
func (b *VaultBackend) Store(ctx context.Context, data []byte) (interfaces.MetadataLocation, error) {
	start := time.Now()

	hash := sha256.Sum256(data)
	digest := hex.EncodeToString(hash[:])

	// Vault KV v2 path structure
	vaultPath := fmt.Sprintf("%s/data/%s/%s", b.mountPath, b.dataPath, digest)

	// Prepare data for Vault (KV v2 format)
	secretData := map[string]interface{}{
		"data": map[string]interface{}{
			"content": base64.StdEncoding.EncodeToString(data),
		},
	}

	// Write to Vault
	_, err := b.client.Logical().WriteWithContext(ctx, vaultPath, secretData)
	if err != nil {
		b.log.Error("Failed to write to Vault",
			slog.String("path", vaultPath),
			slog.String("digest", digest),
			"err", err)
		return interfaces.MetadataLocation{}, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	b.log.Debug("Stored descriptor in Vault",
		slog.String("digest", digest),
		slog.Duration("duration", time.Since(start)))

	return interfaces.ParseMetadataLocation(fmt.Sprintf("vault://%s/%s/%s/%s", b.pointerHost, b.mountPath, b.dataPath, digest))
}

// Available checks if the Vault backend is accessible.
// It uses the health endpoint to verify that Vault is initialized and unsealed.
func (b *VaultBackend) Available(ctx context.Context) bool {
	// Check if we can access the Vault server
	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	health, err := b.client.Sys().HealthWithContext(healthCtx)
	if err != nil {
		b.log.Debug("Vault health check failed", "err", err)
		return false
	}

	// Check if Vault is initialized and unsealed
	if !health.Initialized || health.Sealed {
		b.log.Debug("Vault is not available",
			slog.Bool("initialized", health.Initialized),
			slog.Bool("sealed", health.Sealed))
		return false
	}

	return true
}

// Name returns a unique identifier for this storage backend.
func (b *VaultBackend) Name() string {
	return fmt.Sprintf("vault-%s-%s", b.mountPath, b.dataPath)
}

// Scheme returns the pointer scheme this backend resolves.
func (b *VaultBackend) Scheme() string {
	return "vault"
}

// LocationURI returns the URI that identifies this storage backend.
func (b *VaultBackend) LocationURI() string {
	return b.locationURI
}
