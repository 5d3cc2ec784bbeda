// Package registry implements the instance registry: a tokenized ledger of
// deployed contract instances.
//
// Each successfully created instance is assigned a sequential numeric
// identifier, starting at zero. The registry tracks two mappings keyed by
// that identifier: the deployed contract address and an opaque metadata
// pointer. Identifiers are never reused and the counter never decreases; a
// destroyed instance keeps its identifier with both mappings cleared.
//
// # Creation Strategies
//
// CreateInstance deploys at a fresh address chosen by the deployer. Every
// call yields a new address and the metadata pointer is recorded verbatim,
// empty included.
//
// CreateInstanceDeterministic deploys at an address derived from a
// caller-supplied salt, so the address is known before deployment. This path
// rejects empty metadata up front and consumes the salt on success; reusing a
// salt fails the deployment.
//
// When deployment fails through either path, the error wraps
// interfaces.ErrDeploymentFailed and no identifier is consumed: the next
// successful creation receives the identifier the failed one would have.
//
// # Lifecycle
//
// UpdateMetadataURI and DestroyInstance are restricted to the registry owner
// through the configured interfaces.AccessControl. Destruction clears both
// mappings and is idempotent. Reads split on liveness: TokenURI fails for a
// destroyed instance while InstanceAddress simply reads back the zero
// address. Metadata updates skip the liveness check entirely, which allows
// refreshing the pointer of a destroyed instance.
//
// # Event Stream
//
// Every successful creation is announced on an event feed after the instance
// is fully recorded. Consumers subscribe with SubscribeInstanceCreated:
//
//	ch := make(chan interfaces.InstanceCreated, 16)
//	sub := registry.SubscribeInstanceCreated(ch)
//	defer sub.Unsubscribe()
//
// # Deployers
//
// The registry is agnostic to how instances come to exist: any
// interfaces.Deployer works. The deployer package provides an EVM-backed
// implementation using the CREATE2 deployment proxy for deterministic
// addresses, plus an offline deployer for tests and local development.
package registry
