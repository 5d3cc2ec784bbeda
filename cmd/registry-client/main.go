package main

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/contract-instance-registry/api"
	"github.com/ruteri/contract-instance-registry/api/clients"
	"github.com/ruteri/contract-instance-registry/interfaces"
	"github.com/urfave/cli/v2"
)

var flagServerAddr *cli.StringFlag = &cli.StringFlag{
	Name:  "registry-server-addr",
	Value: "http://127.0.0.1:8080",
	Usage: "Registry server address to request",
}
var flagAdminKey *cli.StringFlag = &cli.StringFlag{
	Name:  "admin-key",
	Usage: "Hex-encoded private key signing admin requests; must be the registry owner's key",
}
var flagMetadata *cli.StringFlag = &cli.StringFlag{
	Name:  "metadata",
	Usage: "Metadata pointer to record for the instance",
}
var flagSalt *cli.StringFlag = &cli.StringFlag{
	Name:  "salt",
	Usage: "32-byte deployment salt as hex",
}
var flagSaltLabel *cli.StringFlag = &cli.StringFlag{
	Name:  "salt-label",
	Usage: "Label hashed into the deployment salt, alternative to --salt",
}
var flagID *cli.Uint64Flag = &cli.Uint64Flag{
	Name:     "id",
	Required: true,
	Usage:    "Instance identifier",
}
var flagFile *cli.StringFlag = &cli.StringFlag{
	Name:  "file",
	Usage: "Path to the descriptor to publish; empty or '-' reads stdin",
}

func main() {
	app := &cli.App{
		Name:  "registry-client",
		Usage: "Interact with a contract instance registry server",
		Flags: []cli.Flag{
			flagServerAddr,
			flagAdminKey,
		},
		Commands: []*cli.Command{
			{
				Name:  "info",
				Usage: "Print the registry owner and instance count",
				Action: func(cCtx *cli.Context) error {
					return NewClientConfig(cCtx).Info()
				},
			},
			{
				Name:  "create",
				Usage: "Deploy a fresh instance and record its metadata pointer",
				Flags: []cli.Flag{flagMetadata},
				Action: func(cCtx *cli.Context) error {
					return NewClientConfig(cCtx).Create(cCtx.String(flagMetadata.Name))
				},
			},
			{
				Name:  "create-deterministic",
				Usage: "Deploy an instance at a salt-derived address",
				Flags: []cli.Flag{flagMetadata, flagSalt, flagSaltLabel},
				Action: func(cCtx *cli.Context) error {
					salt, err := parseSalt(cCtx)
					if err != nil {
						return err
					}
					return NewClientConfig(cCtx).CreateDeterministic(cCtx.String(flagMetadata.Name), salt)
				},
			},
			{
				Name:  "metadata",
				Usage: "Print the metadata pointer recorded for an instance",
				Flags: []cli.Flag{flagID},
				Action: func(cCtx *cli.Context) error {
					return NewClientConfig(cCtx).Metadata(instanceID(cCtx))
				},
			},
			{
				Name:  "address",
				Usage: "Print the contract address recorded for an instance",
				Flags: []cli.Flag{flagID},
				Action: func(cCtx *cli.Context) error {
					return NewClientConfig(cCtx).Address(instanceID(cCtx))
				},
			},
			{
				Name:  "descriptor",
				Usage: "Resolve an instance's metadata pointer and write the descriptor to stdout",
				Flags: []cli.Flag{flagID},
				Action: func(cCtx *cli.Context) error {
					return NewClientConfig(cCtx).Descriptor(instanceID(cCtx))
				},
			},
			{
				Name:  "update-metadata",
				Usage: "Replace the metadata pointer of an instance (owner key required)",
				Flags: []cli.Flag{flagID, flagMetadata},
				Action: func(cCtx *cli.Context) error {
					return NewClientConfig(cCtx).UpdateMetadata(instanceID(cCtx), cCtx.String(flagMetadata.Name))
				},
			},
			{
				Name:  "destroy",
				Usage: "Clear an instance's address and metadata (owner key required)",
				Flags: []cli.Flag{flagID},
				Action: func(cCtx *cli.Context) error {
					return NewClientConfig(cCtx).Destroy(instanceID(cCtx))
				},
			},
			{
				Name:  "publish",
				Usage: "Store a descriptor in the server's storage backends (owner key required)",
				Flags: []cli.Flag{flagFile},
				Action: func(cCtx *cli.Context) error {
					return NewClientConfig(cCtx).Publish(cCtx.String(flagFile.Name))
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// Client wraps the API provider for command execution.
type Client struct {
	Provider api.RegistryProvider
}

// NewClientConfig builds the client from the global flags. A missing or
// malformed admin key only surfaces when an admin command needs it.
func NewClientConfig(cCtx *cli.Context) *Client {
	var adminKey *ecdsa.PrivateKey
	if keyHex := cCtx.String(flagAdminKey.Name); keyHex != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(keyHex, "0x"))
		if err != nil {
			log.Fatalf("could not parse admin key: %v", err)
		}
		adminKey = key
	}

	return &Client{
		Provider: clients.NewRegistryClient(cCtx.String(flagServerAddr.Name), adminKey),
	}
}

func instanceID(cCtx *cli.Context) interfaces.InstanceID {
	return interfaces.InstanceID(cCtx.Uint64(flagID.Name))
}

func parseSalt(cCtx *cli.Context) (interfaces.Salt, error) {
	saltHex := cCtx.String(flagSalt.Name)
	saltLabel := cCtx.String(flagSaltLabel.Name)

	switch {
	case saltHex != "" && saltLabel != "":
		return interfaces.Salt{}, errors.New("--salt and --salt-label are mutually exclusive")
	case saltHex != "":
		return interfaces.NewSaltFromHex(saltHex)
	case saltLabel != "":
		return interfaces.SaltFromLabel(saltLabel), nil
	default:
		return interfaces.Salt{}, errors.New("either --salt or --salt-label is required")
	}
}

func printJSON(v any) {
	encoded, _ := json.Marshal(v)
	fmt.Println(string(encoded))
}

// Info prints the registry owner and instance count.
func (c *Client) Info() error {
	info, err := c.Provider.RegistryInfo()
	if err != nil {
		return fmt.Errorf("registry info request failed: %w", err)
	}
	printJSON(info)
	return nil
}

// Create deploys a fresh instance.
func (c *Client) Create(metadata string) error {
	created, err := c.Provider.CreateInstance([]byte(metadata))
	if err != nil {
		return fmt.Errorf("instance creation failed: %w", err)
	}
	printJSON(created)
	return nil
}

// CreateDeterministic deploys an instance at the salt-derived address.
func (c *Client) CreateDeterministic(metadata string, salt interfaces.Salt) error {
	created, err := c.Provider.CreateInstanceDeterministic([]byte(metadata), salt)
	if err != nil {
		return fmt.Errorf("deterministic instance creation failed: %w", err)
	}
	printJSON(created)
	return nil
}

// Metadata prints the metadata pointer of an instance.
func (c *Client) Metadata(id interfaces.InstanceID) error {
	metadata, err := c.Provider.InstanceMetadata(id)
	if err != nil {
		return fmt.Errorf("metadata request failed: %w", err)
	}
	printJSON(metadata)
	return nil
}

// Address prints the contract address of an instance.
func (c *Client) Address(id interfaces.InstanceID) error {
	addr, err := c.Provider.InstanceAddress(id)
	if err != nil {
		return fmt.Errorf("address request failed: %w", err)
	}
	printJSON(addr)
	return nil
}

// Descriptor writes the resolved descriptor content to stdout.
func (c *Client) Descriptor(id interfaces.InstanceID) error {
	descriptor, err := c.Provider.InstanceDescriptor(id)
	if err != nil {
		return fmt.Errorf("descriptor request failed: %w", err)
	}
	_, err = os.Stdout.Write(descriptor)
	return err
}

// UpdateMetadata replaces the metadata pointer of an instance.
func (c *Client) UpdateMetadata(id interfaces.InstanceID, metadata string) error {
	if err := c.Provider.UpdateMetadata(id, []byte(metadata)); err != nil {
		return fmt.Errorf("metadata update failed: %w", err)
	}
	fmt.Println("metadata updated")
	return nil
}

// Destroy clears an instance's address and metadata.
func (c *Client) Destroy(id interfaces.InstanceID) error {
	if err := c.Provider.DestroyInstance(id); err != nil {
		return fmt.Errorf("instance destruction failed: %w", err)
	}
	fmt.Println("instance destroyed")
	return nil
}

// Publish stores a descriptor in the server's storage backends.
func (c *Client) Publish(path string) error {
	descriptor, err := readDescriptor(path)
	if err != nil {
		return fmt.Errorf("could not read descriptor: %w", err)
	}

	published, err := c.Provider.PublishDescriptor(descriptor)
	if err != nil {
		return fmt.Errorf("descriptor publishing failed: %w", err)
	}
	printJSON(published)
	return nil
}

func readDescriptor(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
