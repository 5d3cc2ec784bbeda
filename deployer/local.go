package deployer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/contract-instance-registry/interfaces"
)

// LocalDeployer derives instance addresses the way an EVM would, without
// touching a chain. Fresh deployments consume a nonce, deterministic ones
// record their salt so reuse fails. Useful for tests and for running the
// registry without blockchain connectivity.
type LocalDeployer struct {
	origin       common.Address
	initCodeHash common.Hash
	log          *slog.Logger

	mu        sync.Mutex
	nonce     uint64
	usedSalts map[interfaces.Salt]struct{}
}

// NewLocalDeployer creates an offline deployer deriving addresses from
// origin. Empty init code selects the built-in default; a nil logger
// defaults to slog.Default().
func NewLocalDeployer(origin interfaces.ContractAddress, initCode []byte, log *slog.Logger) *LocalDeployer {
	if len(initCode) == 0 {
		initCode = DefaultInstanceInitCode()
	}
	if log == nil {
		log = slog.Default()
	}

	return &LocalDeployer{
		origin:       common.Address(origin),
		initCodeHash: crypto.Keccak256Hash(initCode),
		log:          log,
		usedSalts:    make(map[interfaces.Salt]struct{}),
	}
}

// Deploy derives the address the next nonce-based creation would land on.
func (d *LocalDeployer) Deploy(ctx context.Context) (interfaces.ContractAddress, error) {
	d.mu.Lock()
	nonce := d.nonce
	d.nonce++
	d.mu.Unlock()

	addr := crypto.CreateAddress(d.origin, nonce)
	d.log.Debug("Derived instance address",
		slog.String("address", addr.Hex()),
		slog.Uint64("nonce", nonce),
	)

	return interfaces.ContractAddress(addr), nil
}

// DeployDeterministic derives the salt-based address, consuming the salt.
func (d *LocalDeployer) DeployDeterministic(ctx context.Context, salt interfaces.Salt) (interfaces.ContractAddress, error) {
	d.mu.Lock()
	if _, used := d.usedSalts[salt]; used {
		d.mu.Unlock()
		return interfaces.ContractAddress{}, fmt.Errorf("salt %s already consumed", salt)
	}
	d.usedSalts[salt] = struct{}{}
	d.mu.Unlock()

	addr := crypto.CreateAddress2(d.origin, salt, d.initCodeHash.Bytes())
	d.log.Debug("Derived deterministic instance address",
		slog.String("address", addr.Hex()),
		slog.String("salt", salt.String()),
	)

	return interfaces.ContractAddress(addr), nil
}

// DeterministicAddress returns the address DeployDeterministic would yield
// for salt, without consuming it.
func (d *LocalDeployer) DeterministicAddress(salt interfaces.Salt) interfaces.ContractAddress {
	return interfaces.ContractAddress(crypto.CreateAddress2(d.origin, salt, d.initCodeHash.Bytes()))
}
