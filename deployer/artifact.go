package deployer

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// DefaultDeploymentProxyAddress is the canonical address of the CREATE2
// deployment proxy present on most EVM networks.
const DefaultDeploymentProxyAddress = "0x4e59b44847b379578588920cA78FbF26c0B4956C"

const (
	// Init code of the deployment proxy: copies out the 37-byte runtime.
	// The runtime treats calldata as `salt ++ initcode`, forwards both to
	// CREATE2 and returns the deployed address, reverting when CREATE2
	// yields the zero address.
	deploymentProxyInitCodeHex = "602580600b6000396000f3" +
		"6000356020360380602060003760006000f58015601f5760005260206000f35b60006000fd"

	// Init code of the default instance contract: a minimal contract
	// answering every call with empty returndata. Deployed when no custom
	// init code is configured.
	defaultInstanceInitCodeHex = "600580600b6000396000f3" + "60006000f3"
)

// DeploymentProxyInitCode returns the init code for installing the CREATE2
// deployment proxy on chains that do not carry it yet.
func DeploymentProxyInitCode() []byte {
	return common.FromHex(deploymentProxyInitCodeHex)
}

// DefaultInstanceInitCode returns the init code deployed for instances when
// no custom init code is configured.
func DefaultInstanceInitCode() []byte {
	return common.FromHex(defaultInstanceInitCodeHex)
}

// LoadInitCode resolves instance init code from source. An empty source
// selects the built-in default; otherwise source is tried as a path to a
// compiled bytecode file and then as a literal hex string.
func LoadInitCode(source string) ([]byte, error) {
	if source == "" {
		return DefaultInstanceInitCode(), nil
	}

	if data, err := os.ReadFile(source); err == nil {
		return parseInitCodeHex(strings.TrimSpace(string(data)))
	}

	return parseInitCodeHex(source)
}

func parseInitCodeHex(source string) ([]byte, error) {
	code, err := hex.DecodeString(strings.TrimPrefix(source, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid init code hex: %w", err)
	}
	if len(code) == 0 {
		return nil, errors.New("empty init code")
	}
	return code, nil
}
