package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ruteri/contract-instance-registry/cmd/flags"
	"github.com/ruteri/contract-instance-registry/deployer"
	"github.com/ruteri/contract-instance-registry/governance"
	"github.com/ruteri/contract-instance-registry/httpserver"
	"github.com/ruteri/contract-instance-registry/interfaces"
	"github.com/ruteri/contract-instance-registry/registry"
	"github.com/ruteri/contract-instance-registry/storage"
	"github.com/urfave/cli/v2"
)

var serverFlags []cli.Flag = []cli.Flag{
	flags.ListenAddrFlag,
	flags.RpcAddrFlag,
	&cli.StringFlag{
		Name:  "deployer-type",
		Value: "local",
		Usage: "instance deployer to use: 'local' (offline address derivation) or 'evm' (on-chain deployment)",
	},
	&cli.StringFlag{
		Name:  "deployer-key",
		Value: "",
		Usage: "hex-encoded private key funding on-chain deployments (required for evm deployer)",
	},
	&cli.StringFlag{
		Name:  "create2-proxy",
		Value: deployer.DefaultDeploymentProxyAddress,
		Usage: "address of the CREATE2 deployment proxy used for deterministic deployments",
	},
	&cli.StringFlag{
		Name:  "init-code",
		Value: "",
		Usage: "instance init code as hex or a path to a file containing it; empty selects the built-in default",
	},
	&cli.StringFlag{
		Name:  "local-origin",
		Value: "0x00000000000000000000000000000000000000aa",
		Usage: "origin address the local deployer derives instance addresses from",
	},
	&cli.StringFlag{
		Name:  "owner",
		Value: "",
		Usage: "registry owner address allowed to update and destroy instances; empty disables admin operations",
	},
	&cli.StringSliceFlag{
		Name:  "metadata-backend",
		Usage: "storage backend URI for descriptor resolution (repeatable, e.g. file:///var/lib/registry, ipfs://127.0.0.1:5001)",
	},
	flags.LogServiceFlagFn("registry-server"),
}

func main() {
	app := &cli.App{
		Name:  "registry-server",
		Usage: "Serve the contract instance registry API",
		Flags: append(serverFlags, flags.CommonFlags...),
		Action: func(cCtx *cli.Context) error {
			listenAddr := cCtx.String("listen-addr")
			logger := flags.SetupLogger(cCtx)

			// Registry owner
			var owner interfaces.ContractAddress
			if ownerHex := cCtx.String("owner"); ownerHex != "" {
				var err error
				owner, err = interfaces.NewContractAddressFromHex(ownerHex)
				if err != nil {
					logger.Error("Invalid owner address", "err", err)
					return fmt.Errorf("invalid owner address: %w", err)
				}
			} else {
				logger.Warn("No registry owner configured, admin operations will be rejected")
			}

			// Instance init code
			initCode, err := deployer.LoadInitCode(cCtx.String("init-code"))
			if err != nil {
				logger.Error("Failed to load init code", "err", err)
				return err
			}

			// Instance deployer
			var instanceDeployer interfaces.Deployer
			switch deployerType := cCtx.String("deployer-type"); deployerType {
			case "local":
				origin, err := interfaces.NewContractAddressFromHex(cCtx.String("local-origin"))
				if err != nil {
					logger.Error("Invalid local origin address", "err", err)
					return fmt.Errorf("invalid local origin address: %w", err)
				}
				instanceDeployer = deployer.NewLocalDeployer(origin, initCode, logger)
				logger.Info("Using local deployer", "origin", origin.String())

			case "evm":
				rpcAddress := cCtx.String("rpc-addr")
				logger.Info("Connecting to Ethereum RPC", "address", rpcAddress)
				ethClient, err := ethclient.Dial(rpcAddress)
				if err != nil {
					logger.Error("Failed to dial RPC", "err", err)
					return err
				}

				chainID, err := ethClient.ChainID(context.Background())
				if err != nil {
					logger.Error("Failed to read chain id", "err", err)
					return err
				}

				deployerKey, err := crypto.HexToECDSA(cCtx.String("deployer-key"))
				if err != nil {
					logger.Error("Invalid deployer key", "err", err)
					return fmt.Errorf("invalid deployer key: %w", err)
				}

				auth, err := bind.NewKeyedTransactorWithChainID(deployerKey, chainID)
				if err != nil {
					logger.Error("Failed to create transactor", "err", err)
					return err
				}

				if !common.IsHexAddress(cCtx.String("create2-proxy")) {
					logger.Error("Invalid create2 proxy address", "address", cCtx.String("create2-proxy"))
					return fmt.Errorf("invalid create2 proxy address: %s", cCtx.String("create2-proxy"))
				}
				proxy := common.HexToAddress(cCtx.String("create2-proxy"))

				evmDeployer, err := deployer.NewEVMDeployer(ethClient, ethClient, chainID, initCode, proxy, logger)
				if err != nil {
					logger.Error("Failed to create EVM deployer", "err", err)
					return err
				}
				evmDeployer.SetTransactOpts(auth)
				instanceDeployer = evmDeployer
				logger.Info("Using EVM deployer",
					"chainID", chainID.String(),
					"deployer", auth.From.Hex(),
					"create2Proxy", proxy.Hex())

			default:
				logger.Error("Invalid deployer-type", "type", deployerType)
				return fmt.Errorf("invalid deployer-type: %s", deployerType)
			}

			// Storage backends for descriptor resolution and publishing
			var storageBackend interfaces.StorageBackend
			if backendURIs := cCtx.StringSlice("metadata-backend"); len(backendURIs) > 0 {
				locations := make([]interfaces.MetadataLocation, 0, len(backendURIs))
				for _, uri := range backendURIs {
					location, err := interfaces.ParseMetadataLocation(uri)
					if err != nil {
						logger.Error("Invalid metadata backend URI", "err", err, "uri", uri)
						return fmt.Errorf("invalid metadata backend URI %q: %w", uri, err)
					}
					locations = append(locations, location)
				}

				factory := storage.NewStorageBackendFactory(logger)
				storageBackend, err = factory.CreateMultiBackend(locations)
				if err != nil {
					logger.Error("Failed to create storage backends", "err", err)
					return err
				}
				logger.Info("Storage backends configured", "locationURI", storageBackend.LocationURI())
			} else {
				logger.Warn("No metadata backends configured, descriptor endpoints will be unavailable")
			}

			// Registry and server
			instanceRegistry := registry.NewInstanceRegistry(
				instanceDeployer,
				governance.NewOwnerAccessControl(owner),
				logger,
			)

			cfg := flags.ConfigureServer(cCtx, logger, listenAddr)
			server, err := httpserver.New(cfg, httpserver.NewHandler(instanceRegistry, storageBackend, logger))
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			logger.Info("Starting server")
			server.RunInBackground()

			// Wait for termination signal
			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			server.Shutdown()
			logger.Info("Server shutdown complete")

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
