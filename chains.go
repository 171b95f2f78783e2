// Package nanoclaw implements the client side of a pay-as-you-fetch protocol:
// outbound requests to a payment-gated router carry base64-encoded, signed
// EIP-2612 permit authorizations, and payment challenges from the router
// drive authorization refresh. The root package holds the wire types, the
// chain registry and the signing-source contract; the http subpackage wraps
// a standard transport, and signers/evm produces permit signatures.
package nanoclaw

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// ChainConfig contains the per-chain parameters needed to sign and submit
// permit authorizations. USDC addresses and EIP-712 domain parameters were
// verified on-chain 2026-06-12.
type ChainConfig struct {
	// CAIP2 is the chain identifier, e.g. "eip155:8453".
	CAIP2 string

	// Name is the human-readable chain name.
	Name string

	// ChainID is the EIP-155 chain id.
	ChainID int64

	// RPCURL is the default public JSON-RPC endpoint for nonce reads.
	RPCURL string

	// USDCAddress is the official Circle USDC contract address.
	USDCAddress string

	// USDCName and USDCVersion are USDC's EIP-712 domain parameters.
	USDCName    string
	USDCVersion string
}

var (
	// BaseMainnet is the configuration for Base mainnet.
	BaseMainnet = ChainConfig{
		CAIP2:       "eip155:8453",
		Name:        "Base",
		ChainID:     8453,
		RPCURL:      "https://mainnet.base.org",
		USDCAddress: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		USDCName:    "USD Coin",
		USDCVersion: "2",
	}

	// BaseSepolia is the configuration for the Base Sepolia testnet.
	BaseSepolia = ChainConfig{
		CAIP2:       "eip155:84532",
		Name:        "Base Sepolia",
		ChainID:     84532,
		RPCURL:      "https://sepolia.base.org",
		USDCAddress: "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
		USDCName:    "USDC",
		USDCVersion: "2",
	}

	// EthereumMainnet is the configuration for Ethereum mainnet.
	EthereumMainnet = ChainConfig{
		CAIP2:       "eip155:1",
		Name:        "Ethereum",
		ChainID:     1,
		RPCURL:      "https://eth.llamarpc.com",
		USDCAddress: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		USDCName:    "USD Coin",
		USDCVersion: "2",
	}
)

var chainsByCAIP2 = map[string]ChainConfig{
	BaseMainnet.CAIP2:     BaseMainnet,
	BaseSepolia.CAIP2:     BaseSepolia,
	EthereumMainnet.CAIP2: EthereumMainnet,
}

// ChainByCAIP2 resolves a CAIP-2 identifier to a chain configuration.
// Unknown identifiers fall back to Base mainnet.
func ChainByCAIP2(network string) ChainConfig {
	if chain, ok := chainsByCAIP2[network]; ok {
		return chain
	}
	return BaseMainnet
}

// ChainIDBig returns the chain id as a big integer for EIP-712 domains.
func (c ChainConfig) ChainIDBig() *big.Int {
	return big.NewInt(c.ChainID)
}

// ParseChainID extracts the decimal chain id from a CAIP-2 identifier of the
// form "eip155:<decimal>".
func ParseChainID(network string) (int64, error) {
	rest, ok := strings.CutPrefix(network, "eip155:")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNetwork, network)
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNetwork, network)
	}
	return id, nil
}
