// Package main (cmd/registry-server) serves the contract instance registry API.
//
// The server tokenizes deployed contract instances: each successful creation
// deploys an instance contract, assigns the next sequential identifier and
// records the instance's address and metadata pointer. Reads are public;
// metadata updates and destruction require a request body signed by the
// configured registry owner.
//
// Two deployers are supported, selected with --deployer-type:
//
//	local - Derives instance addresses offline the way an EVM would, without
//	        any chain connectivity. Intended for development and testing.
//
//	evm   - Sends real deployment transactions through the RPC endpoint given
//	        with --rpc-addr, funded by --deployer-key. Deterministic creation
//	        goes through the CREATE2 proxy at --create2-proxy.
//
// Descriptor endpoints resolve instance metadata pointers through the storage
// backends named by the repeatable --metadata-backend flag. Without any
// backend the registry still serves addresses and pointers, but descriptor
// resolution and publishing respond with 503.
//
// Example invocations:
//
//	registry-server --owner 0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed \
//	    --metadata-backend file:///var/lib/registry/descriptors \
//	    --metadata-backend ipfs://127.0.0.1:5001
//
//	registry-server --deployer-type evm --rpc-addr http://127.0.0.1:8545 \
//	    --deployer-key <hex> --owner 0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed
package main
