/*
Package clients provides client libraries for interacting with the registry API.

This package implements the api.RegistryProvider interface over HTTP,
handling request signing, response parsing, and error reporting.

# Client Types

The package provides one client type:

1. RegistryClient - Full registry API client covering reads, creation and
   admin operations

# RegistryClient Features

RegistryClient provides methods for all registry operations:

- RegistryInfo - Query the registry owner and instance count
- CreateInstance - Deploy a fresh instance contract
- CreateInstanceDeterministic - Deploy at a salt-derived address
- InstanceMetadata - Read an instance's metadata pointer
- InstanceAddress - Read an instance's contract address
- InstanceDescriptor - Resolve and fetch the descriptor content
- UpdateMetadata - Replace an instance's metadata pointer (signed)
- DestroyInstance - Clear an instance's address and metadata (signed)
- PublishDescriptor - Store a descriptor in the server's backends (signed)

# Security Model

Admin operations sign the request body with the client's ECDSA private key
and send the signature in the X-Flashbots-Signature header. The server
recovers the signing address and enforces registry ownership, so a client
holding a key other than the owner's receives a 403 response. Read and
creation endpoints work without a key.

# Example Usage

	// Create a client with signing capability
	privateKey, _ := crypto.HexToECDSA("your-private-key-hex")
	client := clients.NewRegistryClient(
	    "http://registry.example.com:8080",
	    privateKey,
	    30*time.Second,
	)

	// Create an instance and read it back
	created, err := client.CreateInstance([]byte("ipfs://QmRAQB..."))
	if err != nil {
	    log.Fatal(err)
	}
	metadata, err := client.InstanceMetadata(interfaces.InstanceID(created.ID))

	// Owner-only operations
	err = client.UpdateMetadata(interfaces.InstanceID(created.ID), []byte("ipfs://QmNew..."))
	err = client.DestroyInstance(interfaces.InstanceID(created.ID))
*/
package clients
