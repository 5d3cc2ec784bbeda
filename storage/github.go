package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"time"

	"github.com/ruteri/contract-instance-registry/interfaces"
)

// GitHubBackend implements a read-only storage backend over the GitHub
// contents API. A repository directory holding descriptor files named by
// their hex SHA-256 digest acts as a descriptor mirror; fetched content is
// verified against the digest the pointer names.
type GitHubBackend struct {
	owner       string
	repo        string
	ref         string
	dir         string
	client      *http.Client
	log         *slog.Logger
	locationURI string
}

// NewGitHubBackend creates a new GitHub storage backend reading
// digest-named descriptor files from the given repository directory at ref.
func NewGitHubBackend(owner, repo, ref, dir string, log *slog.Logger) *GitHubBackend {
	return &GitHubBackend{
		owner:       owner,
		repo:        repo,
		ref:         ref,
		dir:         dir,
		client:      &http.Client{Timeout: 30 * time.Second},
		log:         log,
		locationURI: fmt.Sprintf("github://%s/%s/%s/%s", owner, repo, ref, dir),
	}
}

// Fetch retrieves the descriptor the pointer's last path element names and
// verifies its SHA-256 digest.
func (b *GitHubBackend) Fetch(ctx context.Context, loc interfaces.MetadataLocation) ([]byte, error) {
	digest := path.Base(loc.Path)
	if digest == "." || digest == "/" {
		return nil, fmt.Errorf("%w: pointer %q names no descriptor", interfaces.ErrInvalidLocationURI, loc.Raw)
	}

	data, err := b.fetchContents(ctx, path.Join(b.dir, digest))
	if err != nil {
		return nil, err
	}

	// Descriptor files are named by their digest; verify the content
	// actually matches before handing it out.
	hash := sha256.Sum256(data)
	if hex.EncodeToString(hash[:]) != digest {
		b.log.Warn("Descriptor digest mismatch",
			slog.String("expected", digest),
			slog.String("actual", hex.EncodeToString(hash[:])))
		return nil, fmt.Errorf("content digest mismatch")
	}

	b.log.Debug("Fetched descriptor from GitHub",
		slog.String("digest", digest),
		slog.Int("size", len(data)))

	return data, nil
}

// Store is not implemented for this read-only backend.
func (b *GitHubBackend) Store(ctx context.Context, data []byte) (interfaces.MetadataLocation, error) {
	return interfaces.MetadataLocation{}, interfaces.ErrReadOnlyBackend
}

// Available checks if the GitHub backend is accessible.
func (b *GitHubBackend) Available(ctx context.Context) bool {
	// Try to access the repository
	url := fmt.Sprintf("https://api.github.com/repos/%s/%s", b.owner, b.repo)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		b.log.Debug("Failed to create request", "err", err)
		return false
	}

	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := b.client.Do(req)
	if err != nil {
		b.log.Debug("GitHub backend unavailable", "err", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		b.log.Debug("GitHub backend unavailable",
			slog.String("status", resp.Status))
		return false
	}

	return true
}

// Name returns a unique identifier for this storage backend.
func (b *GitHubBackend) Name() string {
	return fmt.Sprintf("github-%s-%s", b.owner, b.repo)
}

// Scheme returns the pointer scheme this backend resolves.
func (b *GitHubBackend) Scheme() string {
	return "github"
}

// LocationURI returns the URI that identifies this storage backend.
func (b *GitHubBackend) LocationURI() string {
	return b.locationURI
}

// fetchContents fetches a file through the contents API, asking for the raw
// representation.
func (b *GitHubBackend) fetchContents(ctx context.Context, filePath string) ([]byte, error) {
	url := fmt.Sprintf("https://api.github.com/repos/%s/%s/contents/%s?ref=%s",
		b.owner, b.repo, filePath, b.ref)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github.v3.raw")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == 404 {
		return nil, interfaces.ErrContentNotFound
	}

	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("GitHub API error: %s, %s", resp.Status, string(body))
	}

	return io.ReadAll(resp.Body)
}
