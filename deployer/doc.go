// Package deployer provides the contract deployment backends used by the
// instance registry.
//
// Two implementations of interfaces.Deployer are available:
//
// EVMDeployer submits real transactions to an Ethereum-compatible chain.
// Fresh instances are deployed as plain contract creations, so every
// deployment lands on a new nonce-derived address. Deterministic instances
// are deployed through a CREATE2 deployment proxy: the proxy receives the
// salt concatenated with the init code and the resulting address depends
// only on the proxy address, the salt and the init code hash. Most networks
// carry the proxy at DefaultDeploymentProxyAddress; InstallDeploymentProxy
// deploys it on chains that do not.
//
// LocalDeployer performs the same address derivations offline, without a
// chain. It exists for tests and for operating the registry in environments
// without blockchain connectivity; the address arithmetic matches the EVM
// exactly, including salt consumption.
//
// Both deployers fail rather than hand back the zero address, which the
// registry additionally guards against.
package deployer
