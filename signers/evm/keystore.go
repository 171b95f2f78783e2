package evm

import (
	"crypto/ecdsa"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"

	"github.com/daydreamsai/nanoclaw"
)

// PrivateKeyFromKeystore decrypts a geth keystore file and returns the key
// as a 0x-prefixed hex string suitable for the resolver's secrets.
func PrivateKeyFromKeystore(keystorePath, password string) (string, error) {
	data, err := os.ReadFile(keystorePath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", nanoclaw.ErrInvalidKeystore, err)
	}

	var keyJSON struct {
		Crypto keystore.CryptoJSON `json:"crypto"`
	}
	if err := json.Unmarshal(data, &keyJSON); err != nil {
		return "", fmt.Errorf("%w: invalid JSON format", nanoclaw.ErrInvalidKeystore)
	}

	privateKeyBytes, err := keystore.DecryptDataV3(keyJSON.Crypto, password)
	if err != nil {
		return "", fmt.Errorf("%w: decryption failed", nanoclaw.ErrInvalidKeystore)
	}

	privateKey, err := crypto.ToECDSA(privateKeyBytes)
	if err != nil {
		return "", fmt.Errorf("%w: invalid private key", nanoclaw.ErrInvalidKeystore)
	}

	return encodeKeyHex(privateKey), nil
}

// PrivateKeyFromMnemonic derives a signing key from a BIP-39 mnemonic on the
// standard Ethereum path m/44'/60'/0'/0/{accountIndex} and returns it as a
// 0x-prefixed hex string.
func PrivateKeyFromMnemonic(mnemonic string, accountIndex uint32) (string, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return "", nanoclaw.ErrInvalidMnemonic
	}

	seed := bip39.NewSeed(mnemonic, "")

	privateKey, err := deriveEthereumKey(seed, accountIndex)
	if err != nil {
		return "", fmt.Errorf("%w: %v", nanoclaw.ErrInvalidMnemonic, err)
	}

	return encodeKeyHex(privateKey), nil
}

func encodeKeyHex(privateKey *ecdsa.PrivateKey) string {
	return "0x" + hex.EncodeToString(crypto.FromECDSA(privateKey))
}

// deriveEthereumKey walks the BIP-44 path m/44'/60'/0'/0/{index}.
func deriveEthereumKey(seed []byte, index uint32) (*ecdsa.PrivateKey, error) {
	masterKey, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, err
	}

	// 44' = BIP44 purpose
	key, err := masterKey.NewChildKey(bip32.FirstHardenedChild + 44)
	if err != nil {
		return nil, err
	}

	// 60' = Ethereum coin type
	key, err = key.NewChildKey(bip32.FirstHardenedChild + 60)
	if err != nil {
		return nil, err
	}

	// 0' = account 0
	key, err = key.NewChildKey(bip32.FirstHardenedChild + 0)
	if err != nil {
		return nil, err
	}

	// 0 = external chain
	key, err = key.NewChildKey(0)
	if err != nil {
		return nil, err
	}

	key, err = key.NewChildKey(index)
	if err != nil {
		return nil, err
	}

	return crypto.ToECDSA(key.Key)
}
