// Package main (cmd/registry-client) implements a command-line client for the
// contract instance registry API.
//
// The client covers the full read and admin surface of the registry server:
//
//	info                 - Print the registry owner and current instance count.
//	create               - Deploy a fresh instance and record its metadata pointer.
//	create-deterministic - Deploy an instance at a salt-derived address. The salt
//	                       is given as 32 bytes of hex (--salt) or derived from a
//	                       label (--salt-label).
//	metadata             - Print the metadata pointer recorded for an instance.
//	address              - Print the contract address recorded for an instance.
//	descriptor           - Resolve an instance's metadata pointer through the
//	                       server's storage backends and write the descriptor
//	                       content to stdout.
//	update-metadata      - Replace the metadata pointer of an instance.
//	destroy              - Clear an instance's address and metadata.
//	publish              - Store a descriptor in the server's storage backends
//	                       and print the resulting pointer.
//
// Admin commands (update-metadata, destroy, publish) sign the request body with
// the key given via --admin-key. The server only accepts signatures from the
// configured registry owner.
//
// Query and create commands print the server's JSON response on stdout, which
// makes the client convenient to compose with jq in scripts.
package main
