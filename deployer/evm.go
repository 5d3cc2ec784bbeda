package deployer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/contract-instance-registry/interfaces"
)

// ErrNoTransactOpts is returned when a deployment is attempted without first
// setting transaction options.
var ErrNoTransactOpts = errors.New("no authorized transactor available")

// EVMDeployer deploys instance contracts on an Ethereum-compatible chain.
// Fresh deployments are plain contract creations; deterministic deployments
// go through a CREATE2 deployment proxy so the instance address depends only
// on the proxy address, the salt and the init code.
type EVMDeployer struct {
	client  bind.ContractBackend
	backend bind.DeployBackend
	chainID *big.Int
	proxy   common.Address

	initCode     []byte
	initCodeHash common.Hash

	auth *bind.TransactOpts
	log  *slog.Logger
}

// NewEVMDeployer creates a deployer sending transactions through client and
// confirming them through backend. Empty init code selects the built-in
// default; proxy names the CREATE2 deployment proxy used for deterministic
// deployments.
func NewEVMDeployer(client bind.ContractBackend, backend bind.DeployBackend, chainID *big.Int, initCode []byte, proxy common.Address, log *slog.Logger) (*EVMDeployer, error) {
	if client == nil || backend == nil {
		return nil, errors.New("nil chain backend")
	}
	if chainID == nil {
		return nil, errors.New("nil chain id")
	}
	if len(initCode) == 0 {
		initCode = DefaultInstanceInitCode()
	}
	if log == nil {
		log = slog.Default()
	}

	return &EVMDeployer{
		client:       client,
		backend:      backend,
		chainID:      chainID,
		proxy:        proxy,
		initCode:     initCode,
		initCodeHash: crypto.Keccak256Hash(initCode),
		log:          log,
	}, nil
}

// SetTransactOpts sets the transaction options required for deployments.
// This must be called before Deploy or DeployDeterministic.
func (d *EVMDeployer) SetTransactOpts(auth *bind.TransactOpts) {
	d.auth = auth
}

// Deploy submits a contract creation carrying the configured init code and
// waits until code exists at the resulting address.
func (d *EVMDeployer) Deploy(ctx context.Context) (interfaces.ContractAddress, error) {
	if d.auth == nil {
		return interfaces.ContractAddress{}, ErrNoTransactOpts
	}

	tx, err := d.sendCreationTx(ctx, nil, d.initCode)
	if err != nil {
		return interfaces.ContractAddress{}, fmt.Errorf("failed to submit deployment: %w", err)
	}

	addr, err := bind.WaitDeployed(ctx, d.backend, tx)
	if err != nil {
		return interfaces.ContractAddress{}, fmt.Errorf("deployment %s not confirmed: %w", tx.Hash().Hex(), err)
	}

	d.log.Debug("Instance contract deployed",
		slog.String("address", addr.Hex()),
		slog.String("tx", tx.Hash().Hex()),
	)

	return interfaces.ContractAddress(addr), nil
}

// DeployDeterministic deploys the configured init code through the CREATE2
// proxy and waits until code exists at the predicted address. The salt is
// consumed on success: a second deployment with the same salt finds the
// address occupied and fails.
func (d *EVMDeployer) DeployDeterministic(ctx context.Context, salt interfaces.Salt) (interfaces.ContractAddress, error) {
	if d.auth == nil {
		return interfaces.ContractAddress{}, ErrNoTransactOpts
	}

	proxyCode, err := d.client.CodeAt(ctx, d.proxy, nil)
	if err != nil {
		return interfaces.ContractAddress{}, fmt.Errorf("failed to check deployment proxy: %w", err)
	}
	if len(proxyCode) == 0 {
		return interfaces.ContractAddress{}, fmt.Errorf("no deployment proxy at %s", d.proxy.Hex())
	}

	predicted := common.Address(d.DeterministicAddress(salt))
	code, err := d.client.CodeAt(ctx, predicted, nil)
	if err != nil {
		return interfaces.ContractAddress{}, fmt.Errorf("failed to check predicted address: %w", err)
	}
	if len(code) > 0 {
		return interfaces.ContractAddress{}, fmt.Errorf("address %s already occupied, salt %s consumed", predicted.Hex(), salt)
	}

	// The proxy expects the salt concatenated with the init code.
	calldata := make([]byte, 0, 32+len(d.initCode))
	calldata = append(calldata, salt.Bytes()...)
	calldata = append(calldata, d.initCode...)

	tx, err := d.sendCreationTx(ctx, &d.proxy, calldata)
	if err != nil {
		return interfaces.ContractAddress{}, fmt.Errorf("failed to submit deterministic deployment: %w", err)
	}

	receipt, err := bind.WaitMined(ctx, d.backend, tx)
	if err != nil {
		return interfaces.ContractAddress{}, fmt.Errorf("deterministic deployment %s not confirmed: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return interfaces.ContractAddress{}, fmt.Errorf("deterministic deployment %s reverted", tx.Hash().Hex())
	}

	code, err = d.backend.CodeAt(ctx, predicted, nil)
	if err != nil {
		return interfaces.ContractAddress{}, fmt.Errorf("failed to confirm deployed code: %w", err)
	}
	if len(code) == 0 {
		return interfaces.ContractAddress{}, fmt.Errorf("no code at predicted address %s after deployment", predicted.Hex())
	}

	d.log.Debug("Instance contract deployed deterministically",
		slog.String("address", predicted.Hex()),
		slog.String("salt", salt.String()),
		slog.String("tx", tx.Hash().Hex()),
	)

	return interfaces.ContractAddress(predicted), nil
}

// DeterministicAddress returns the address DeployDeterministic would deploy
// to for salt, without sending anything.
func (d *EVMDeployer) DeterministicAddress(salt interfaces.Salt) interfaces.ContractAddress {
	return interfaces.ContractAddress(crypto.CreateAddress2(d.proxy, salt, d.initCodeHash.Bytes()))
}

// sendCreationTx assembles, signs and submits a transaction to the given
// destination, using dynamic fees when the chain supports them.
func (d *EVMDeployer) sendCreationTx(ctx context.Context, to *common.Address, data []byte) (*types.Transaction, error) {
	nonce, err := d.client.PendingNonceAt(ctx, d.auth.From)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch nonce: %w", err)
	}

	head, err := d.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chain head: %w", err)
	}

	var tx *types.Transaction
	if head.BaseFee != nil {
		tip, err := d.client.SuggestGasTipCap(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to suggest gas tip: %w", err)
		}
		// The tip plus twice the current base fee survives base fee growth
		// for several blocks.
		feeCap := new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))

		gas, err := d.client.EstimateGas(ctx, ethereum.CallMsg{
			From:      d.auth.From,
			To:        to,
			GasTipCap: tip,
			GasFeeCap: feeCap,
			Data:      data,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to estimate gas: %w", err)
		}

		tx = types.NewTx(&types.DynamicFeeTx{
			ChainID:   d.chainID,
			Nonce:     nonce,
			GasTipCap: tip,
			GasFeeCap: feeCap,
			Gas:       gas,
			To:        to,
			Data:      data,
		})
	} else {
		gasPrice, err := d.client.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to suggest gas price: %w", err)
		}

		gas, err := d.client.EstimateGas(ctx, ethereum.CallMsg{
			From:     d.auth.From,
			To:       to,
			GasPrice: gasPrice,
			Data:     data,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to estimate gas: %w", err)
		}

		tx = types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			GasPrice: gasPrice,
			Gas:      gas,
			To:       to,
			Data:     data,
		})
	}

	signed, err := d.auth.Signer(d.auth.From, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := d.client.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}

	return signed, nil
}

// InstallDeploymentProxy deploys the CREATE2 deployment proxy itself, for
// chains that do not carry one at the canonical address. Returns the address
// the proxy landed on.
func InstallDeploymentProxy(ctx context.Context, client bind.ContractBackend, backend bind.DeployBackend, chainID *big.Int, auth *bind.TransactOpts, log *slog.Logger) (common.Address, error) {
	if log == nil {
		log = slog.Default()
	}

	d := &EVMDeployer{
		client:   client,
		backend:  backend,
		chainID:  chainID,
		initCode: DeploymentProxyInitCode(),
		auth:     auth,
		log:      log,
	}

	tx, err := d.sendCreationTx(ctx, nil, d.initCode)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to submit proxy deployment: %w", err)
	}

	addr, err := bind.WaitDeployed(ctx, backend, tx)
	if err != nil {
		return common.Address{}, fmt.Errorf("proxy deployment %s not confirmed: %w", tx.Hash().Hex(), err)
	}

	log.Info("Deployment proxy installed", slog.String("address", addr.Hex()))
	return addr, nil
}
