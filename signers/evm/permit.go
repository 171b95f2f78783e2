package evm

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/daydreamsai/nanoclaw"
)

// PermitParams are the EIP-2612 permit fields signed over.
type PermitParams struct {
	Owner    common.Address
	Spender  common.Address
	Value    *big.Int
	Nonce    *big.Int
	Deadline *big.Int
}

// SignPermit signs an EIP-2612 Permit struct using EIP-712 in the domain of
// the token contract. Name and version are the token's domain parameters.
func SignPermit(privateKey *ecdsa.PrivateKey, token common.Address, chainID *big.Int, name, version string, params PermitParams) (string, error) {
	typedData := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": []apitypes.Type{
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"Permit": []apitypes.Type{
				{Name: "owner", Type: "address"},
				{Name: "spender", Type: "address"},
				{Name: "value", Type: "uint256"},
				{Name: "nonce", Type: "uint256"},
				{Name: "deadline", Type: "uint256"},
			},
		},
		PrimaryType: "Permit",
		Domain: apitypes.TypedDataDomain{
			Name:              name,
			Version:           version,
			ChainId:           (*math.HexOrDecimal256)(chainID),
			VerifyingContract: token.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"owner":    params.Owner.Hex(),
			"spender":  params.Spender.Hex(),
			"value":    (*math.HexOrDecimal256)(params.Value),
			"nonce":    (*math.HexOrDecimal256)(params.Nonce),
			"deadline": (*math.HexOrDecimal256)(params.Deadline),
		},
	}

	domainSeparator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return "", fmt.Errorf("failed to hash domain: %w", err)
	}

	messageHash, err := typedData.HashStruct("Permit", typedData.Message)
	if err != nil {
		return "", fmt.Errorf("failed to hash message: %w", err)
	}

	// keccak256("\x19\x01" || domainSeparator || messageHash)
	rawData := append([]byte{0x19, 0x01}, append(domainSeparator, messageHash...)...)
	digest := crypto.Keccak256(rawData)

	signature, err := crypto.Sign(digest, privateKey)
	if err != nil {
		return "", nanoclaw.NewPaymentError(nanoclaw.ErrCodeSigningFailed, "failed to sign permit", err)
	}

	// Adjust v value for Ethereum (27 or 28)
	signature[64] += 27

	return "0x" + hex.EncodeToString(signature), nil
}
