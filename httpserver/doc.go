/*
Package httpserver implements the HTTP server for the contract instance registry.

It serves the registry operations over the routes declared in the api package:
instance creation, public reads of addresses, metadata pointers and resolved
descriptors, and owner-signed admin operations. The server also consumes the
registry's creation event stream and mirrors it into the operational log.

The package includes two main components:

1. Handler - Request parsing, authorization and registry error mapping
2. Server - Router, lifecycle, health endpoints and metrics wiring

# Creation API Endpoints

  - POST /api/instances - Deploy a fresh instance and record its metadata
  - POST /api/instances/deterministic - Deploy at a salt-derived address

# Public API Endpoints

  - GET /api/public/instances/{id}/metadata - Read the metadata pointer
  - GET /api/public/instances/{id}/address - Read the contract address
  - GET /api/public/instances/{id}/descriptor - Resolve the descriptor content
  - GET /api/public/registry - Read the registry owner and instance count
  - GET /livez - Liveness check
  - GET /readyz - Readiness check
  - GET /drain - Gracefully mark server as not ready
  - GET /undrain - Mark server as ready

# Admin API Endpoints

  - POST /api/admin/instances/{id}/metadata - Replace the metadata pointer
  - POST /api/admin/instances/{id}/destroy - Clear address and metadata
  - POST /api/admin/descriptors - Publish a descriptor to storage

# Admin Authentication

Admin requests carry an ECDSA signature over the request body in the
X-Flashbots-Signature header. The handler recovers the signing address and
hands it to the registry as the caller, where ownership is enforced. Missing
or malformed signatures produce 401; a valid signature from a non-owner
produces 403. Request bodies repeat the instance identifier so a signed body
cannot be replayed against a different instance.

# Error Mapping

Registry errors map onto HTTP status codes as follows:

  - Invalid metadata - 400 Bad Request
  - Not the registry owner - 403 Forbidden
  - Unknown identifier - 404 Not Found
  - Destroyed instance - 410 Gone
  - Deployment failure - 502 Bad Gateway

Note the deliberate asymmetry of the read endpoints: the address endpoint
reports destroyed instances as the zero address with status 200, while the
metadata and descriptor endpoints report them as 410 until the metadata is
refreshed.
*/
package httpserver
