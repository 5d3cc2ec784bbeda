/*
Package api defines the HTTP surface of the contract instance registry: route
constants, request and response types, and the client-side provider
interfaces.

This package is organized into two parts:

1. The api package itself - Shared route and wire types
2. clients - Client libraries for API interaction

The server side lives in the httpserver package, which serves these routes
against a running registry.

# API Structure

The API is divided into three groups:

1. Creation API - Deploys instance contracts and allocates identifiers
2. Public API - Unauthenticated reads of addresses, pointers and descriptors
3. Admin API - Owner-signed metadata updates, destruction and publishing

# Request Signing

Admin requests carry an ECDSA signature over the request body in the
X-Flashbots-Signature header. The server recovers the signing address from
the signature and passes it to the registry as the caller, where ownership is
enforced. Bodies of admin requests repeat the instance identifier so that a
signature cannot be replayed against a different instance.

# Identifier Encoding

Instance identifiers are decimal uint64 values both in URLs and JSON bodies.
Contract addresses and deployment salts are hex-encoded, 0x prefix optional
on input, present on output.
*/
package api
