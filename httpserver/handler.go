package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/flashbots/go-utils/signature"
	"github.com/ruteri/contract-instance-registry/api"
	"github.com/ruteri/contract-instance-registry/interfaces"
)

const (
	// maxBodySize is the maximum allowed request body size (1MB).
	maxBodySize = 1024 * 1024
)

// RequestError provides structured error information for HTTP responses.
// It includes both an HTTP status code and the underlying error.
type RequestError struct {
	// StatusCode is the HTTP status code to return.
	StatusCode int

	// Err is the underlying error.
	Err error
}

// Error returns the error message from the underlying error.
func (e *RequestError) Error() string {
	return e.Err.Error()
}

// Handler processes HTTP requests for the instance registry service.
// It exposes the registry operations over the routes declared in the api
// package and resolves descriptor content through the storage layer.
type Handler struct {
	registry interfaces.InstanceRegistry
	storage  interfaces.StorageBackend
	log      *slog.Logger
}

// NewHandler creates a new HTTP request handler with the specified dependencies.
//
// Parameters:
//   - registry: The instance registry backing all API operations
//   - storage: Backend for descriptor resolution and publishing, may be nil
//   - log: Structured logger for operational insights
//
// Returns a configured Handler instance.
func NewHandler(registry interfaces.InstanceRegistry, storage interfaces.StorageBackend, log *slog.Logger) *Handler {
	return &Handler{
		registry: registry,
		storage:  storage,
		log:      log,
	}
}

// readBody reads the request body, rejecting bodies over maxBodySize.
func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if len(body) > maxBodySize {
		return nil, errors.New("request body too large")
	}
	return body, nil
}

// instanceIDFromRequest parses the {id} URL segment.
func instanceIDFromRequest(r *http.Request) (interfaces.InstanceID, error) {
	return interfaces.ParseInstanceID(r.PathValue("id"))
}

// authorizeAdminRequest recovers the caller address from the request body
// signature. Ownership itself is not checked here; the registry enforces it
// per operation so that unauthorized callers and missing signatures produce
// distinct status codes.
func (h *Handler) authorizeAdminRequest(r *http.Request, body []byte) (interfaces.ContractAddress, *RequestError) {
	sigHeader := r.Header.Get(signature.HTTPHeader)
	if sigHeader == "" {
		return interfaces.ContractAddress{}, &RequestError{StatusCode: http.StatusUnauthorized, Err: errors.New("missing request signature")}
	}

	signer, err := signature.Verify(sigHeader, body)
	if err != nil {
		return interfaces.ContractAddress{}, &RequestError{StatusCode: http.StatusUnauthorized, Err: fmt.Errorf("invalid request signature: %w", err)}
	}

	return interfaces.ContractAddress(signer), nil
}

// writeRegistryError maps registry errors onto HTTP status codes.
func (h *Handler) writeRegistryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, interfaces.ErrInvalidMetadata):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, interfaces.ErrUnauthorized):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, interfaces.ErrUnknownInstance):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, interfaces.ErrInstanceDestroyed):
		http.Error(w, err.Error(), http.StatusGone)
	case errors.Is(err, interfaces.ErrDeploymentFailed):
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// writeJSON writes a JSON response body.
func (h *Handler) writeJSON(w http.ResponseWriter, response any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

// HandleCreateInstance processes fresh instance creation requests.
//
// URL format: POST /api/instances
//
// Request body: JSON with the metadata pointer to record. The pointer may be
// empty; fresh creation stores it verbatim.
//
// Response: JSON containing the assigned identifier and deployment address.
func (h *Handler) HandleCreateInstance(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req api.CreateInstanceRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	id, err := h.registry.CreateInstance(r.Context(), interfaces.InstanceMetadata(req.Metadata))
	if err != nil {
		h.log.Error("Instance creation failed", "err", err)
		h.writeRegistryError(w, err)
		return
	}

	h.writeCreateResponse(w, id)
}

// HandleCreateInstanceDeterministic processes salt-derived creation requests.
//
// URL format: POST /api/instances/deterministic
//
// Request body: JSON with the metadata pointer and the 32-byte hex salt.
// Empty metadata is rejected before any deployment is attempted.
//
// Response: JSON containing the assigned identifier and deployment address.
func (h *Handler) HandleCreateInstanceDeterministic(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req api.CreateDeterministicInstanceRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	salt, err := interfaces.NewSaltFromHex(req.Salt)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid salt: %v", err), http.StatusBadRequest)
		return
	}

	id, err := h.registry.CreateInstanceDeterministic(r.Context(), interfaces.InstanceMetadata(req.Metadata), salt)
	if err != nil {
		h.log.Error("Deterministic instance creation failed", "err", err, slog.String("salt", salt.String()))
		h.writeRegistryError(w, err)
		return
	}

	h.writeCreateResponse(w, id)
}

// writeCreateResponse reads the freshly recorded address back and reports it
// together with the assigned identifier.
func (h *Handler) writeCreateResponse(w http.ResponseWriter, id interfaces.InstanceID) {
	addr, err := h.registry.InstanceAddress(id)
	if err != nil {
		h.log.Error("Failed to read back created instance", "err", err, slog.String("instanceID", id.String()))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, api.CreateInstanceResponse{ID: uint64(id), Address: addr.String()})
}

// HandleInstanceMetadata returns the metadata pointer recorded for an instance.
//
// URL format: GET /api/public/instances/{id}/metadata
//
// Responds 404 for never-allocated identifiers and 410 for destroyed
// instances whose metadata has not been refreshed since destruction.
func (h *Handler) HandleInstanceMetadata(w http.ResponseWriter, r *http.Request) {
	id, err := instanceIDFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	metadata, err := h.registry.TokenURI(id)
	if err != nil {
		h.writeRegistryError(w, err)
		return
	}

	h.writeJSON(w, api.InstanceMetadataResponse{ID: uint64(id), Metadata: metadata.String()})
}

// HandleInstanceAddress returns the contract address recorded for an instance.
//
// URL format: GET /api/public/instances/{id}/address
//
// Destroyed instances read back the zero address with status 200; only
// never-allocated identifiers produce 404.
func (h *Handler) HandleInstanceAddress(w http.ResponseWriter, r *http.Request) {
	id, err := instanceIDFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	addr, err := h.registry.InstanceAddress(id)
	if err != nil {
		h.writeRegistryError(w, err)
		return
	}

	h.writeJSON(w, api.InstanceAddressResponse{ID: uint64(id), Address: addr.String()})
}

// HandleInstanceDescriptor resolves an instance's metadata pointer through
// the storage layer and returns the descriptor content.
//
// URL format: GET /api/public/instances/{id}/descriptor
//
// Responds 503 when no storage is configured, 422 when the stored metadata
// is not a resolvable pointer, 404 when the content is missing and 502 when
// every capable backend fails.
func (h *Handler) HandleInstanceDescriptor(w http.ResponseWriter, r *http.Request) {
	id, err := instanceIDFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if h.storage == nil {
		http.Error(w, "No storage backends configured", http.StatusServiceUnavailable)
		return
	}

	metadata, err := h.registry.TokenURI(id)
	if err != nil {
		h.writeRegistryError(w, err)
		return
	}

	location, err := interfaces.ParseMetadataLocation(metadata.String())
	if err != nil {
		http.Error(w, fmt.Sprintf("Instance metadata is not a resolvable pointer: %v", err), http.StatusUnprocessableEntity)
		return
	}

	data, err := h.storage.Fetch(r.Context(), location)
	if err != nil {
		h.log.Error("Descriptor fetch failed", "err", err,
			slog.String("instanceID", id.String()),
			slog.String("location", location.String()))
		if errors.Is(err, interfaces.ErrContentNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
		} else {
			http.Error(w, err.Error(), http.StatusBadGateway)
		}
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(data)
}

// HandleRegistryInfo reports the registry owner and instance count.
//
// URL format: GET /api/public/registry
func (h *Handler) HandleRegistryInfo(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, api.RegistryInfoResponse{
		Owner:         h.registry.Owner().String(),
		InstanceCount: h.registry.InstanceCount(),
	})
}

// HandleUpdateMetadata replaces the metadata pointer of an instance.
//
// URL format: POST /api/admin/instances/{id}/metadata
//
// The request body must be signed by the registry owner and must repeat the
// instance identifier; a body signed for one instance cannot be replayed
// against another.
func (h *Handler) HandleUpdateMetadata(w http.ResponseWriter, r *http.Request) {
	id, err := instanceIDFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	body, err := readBody(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	caller, reqErr := h.authorizeAdminRequest(r, body)
	if reqErr != nil {
		http.Error(w, reqErr.Error(), reqErr.StatusCode)
		return
	}

	var req api.UpdateMetadataRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.ID != uint64(id) {
		http.Error(w, "Instance identifier mismatch between URL and body", http.StatusBadRequest)
		return
	}

	if err := h.registry.UpdateMetadataURI(caller, id, interfaces.InstanceMetadata(req.Metadata)); err != nil {
		h.log.Error("Metadata update failed", "err", err,
			slog.String("instanceID", id.String()),
			slog.String("caller", caller.String()))
		h.writeRegistryError(w, err)
		return
	}

	h.writeJSON(w, api.InstanceMetadataResponse{ID: uint64(id), Metadata: req.Metadata})
}

// HandleDestroyInstance clears an instance's address and metadata.
//
// URL format: POST /api/admin/instances/{id}/destroy
//
// The request body must be signed by the registry owner and must repeat the
// instance identifier. Destruction is idempotent: repeating the call for an
// already-destroyed instance succeeds.
func (h *Handler) HandleDestroyInstance(w http.ResponseWriter, r *http.Request) {
	id, err := instanceIDFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	body, err := readBody(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	caller, reqErr := h.authorizeAdminRequest(r, body)
	if reqErr != nil {
		http.Error(w, reqErr.Error(), reqErr.StatusCode)
		return
	}

	var req api.DestroyInstanceRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.ID != uint64(id) {
		http.Error(w, "Instance identifier mismatch between URL and body", http.StatusBadRequest)
		return
	}

	if err := h.registry.DestroyInstance(caller, id); err != nil {
		h.log.Error("Instance destruction failed", "err", err,
			slog.String("instanceID", id.String()),
			slog.String("caller", caller.String()))
		h.writeRegistryError(w, err)
		return
	}

	h.writeJSON(w, map[string]any{"message": "Instance destroyed"})
}

// HandlePublishDescriptor stores a descriptor in the configured storage
// backends and reports the pointer it can be referenced by.
//
// URL format: POST /api/admin/descriptors
//
// Request body: Raw descriptor content, signed by the registry owner.
//
// Response: JSON containing the primary metadata pointer.
func (h *Handler) HandlePublishDescriptor(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	caller, reqErr := h.authorizeAdminRequest(r, body)
	if reqErr != nil {
		http.Error(w, reqErr.Error(), reqErr.StatusCode)
		return
	}

	// Publishing bypasses the registry, so ownership is enforced here.
	owner := h.registry.Owner()
	if owner.IsZero() || !owner.Equal(caller) {
		http.Error(w, interfaces.ErrUnauthorized.Error(), http.StatusForbidden)
		return
	}

	if len(body) == 0 {
		http.Error(w, "Empty descriptor in request body", http.StatusBadRequest)
		return
	}

	if h.storage == nil {
		http.Error(w, "No storage backends configured", http.StatusServiceUnavailable)
		return
	}

	location, err := h.storage.Store(r.Context(), body)
	if err != nil {
		h.log.Error("Descriptor publishing failed", "err", err, slog.Int("size", len(body)))
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	h.log.Info("Descriptor published",
		slog.String("location", location.String()),
		slog.Int("size", len(body)))

	h.writeJSON(w, api.PublishDescriptorResponse{Location: location.String()})
}
