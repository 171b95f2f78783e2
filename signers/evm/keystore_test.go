package evm

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/daydreamsai/nanoclaw"
)

// testMnemonic is the standard BIP-39 test vector phrase.
const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func addressOfKeyHex(t *testing.T, keyHex string) common.Address {
	t.Helper()
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(keyHex, "0x"))
	if err != nil {
		t.Fatalf("derived key does not parse: %v", err)
	}
	return crypto.PubkeyToAddress(privateKey.PublicKey)
}

func TestPrivateKeyFromMnemonic(t *testing.T) {
	keyHex, err := PrivateKeyFromMnemonic(testMnemonic, 0)
	if err != nil {
		t.Fatalf("PrivateKeyFromMnemonic failed: %v", err)
	}

	if _, ok := NormalizePrivateKey(keyHex); !ok {
		t.Errorf("derived key %q does not normalize", keyHex)
	}

	// Known address for the standard test phrase at m/44'/60'/0'/0/0.
	want := common.HexToAddress("0x9858EfFD232B4033E47d90003D41EC34EcaEda94")
	if got := addressOfKeyHex(t, keyHex); got != want {
		t.Errorf("derived address %s, want %s", got.Hex(), want.Hex())
	}
}

func TestPrivateKeyFromMnemonicIsDeterministic(t *testing.T) {
	first, err := PrivateKeyFromMnemonic(testMnemonic, 0)
	if err != nil {
		t.Fatalf("PrivateKeyFromMnemonic failed: %v", err)
	}
	second, err := PrivateKeyFromMnemonic(testMnemonic, 0)
	if err != nil {
		t.Fatalf("PrivateKeyFromMnemonic failed: %v", err)
	}

	if first != second {
		t.Error("expected deterministic derivation")
	}
}

func TestPrivateKeyFromMnemonicAccountIndexes(t *testing.T) {
	key0, err := PrivateKeyFromMnemonic(testMnemonic, 0)
	if err != nil {
		t.Fatalf("PrivateKeyFromMnemonic failed: %v", err)
	}
	key1, err := PrivateKeyFromMnemonic(testMnemonic, 1)
	if err != nil {
		t.Fatalf("PrivateKeyFromMnemonic failed: %v", err)
	}

	if key0 == key1 {
		t.Error("expected different keys for different account indexes")
	}
}

func TestPrivateKeyFromMnemonicInvalid(t *testing.T) {
	tests := []string{
		"",
		"not a mnemonic",
		"abandon abandon abandon",
	}

	for _, mnemonic := range tests {
		if _, err := PrivateKeyFromMnemonic(mnemonic, 0); !errors.Is(err, nanoclaw.ErrInvalidMnemonic) {
			t.Errorf("expected ErrInvalidMnemonic for %q, got %v", mnemonic, err)
		}
	}
}

func TestPrivateKeyFromKeystoreMissingFile(t *testing.T) {
	_, err := PrivateKeyFromKeystore(filepath.Join(t.TempDir(), "missing.json"), "password")
	if !errors.Is(err, nanoclaw.ErrInvalidKeystore) {
		t.Errorf("expected ErrInvalidKeystore, got %v", err)
	}
}

func TestPrivateKeyFromKeystoreInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keystore.json")
	if err := os.WriteFile(path, []byte("not json"), 0o600); err != nil {
		t.Fatalf("writing fixture failed: %v", err)
	}

	_, err := PrivateKeyFromKeystore(path, "password")
	if !errors.Is(err, nanoclaw.ErrInvalidKeystore) {
		t.Errorf("expected ErrInvalidKeystore, got %v", err)
	}
}

func TestPrivateKeyFromKeystoreWrongPassword(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keystore.json")
	// Structurally valid crypto block that cannot decrypt with any password.
	fixture := `{"crypto":{"cipher":"aes-128-ctr","ciphertext":"00","cipherparams":{"iv":"000102030405060708090a0b0c0d0e0f"},"kdf":"scrypt","kdfparams":{"dklen":32,"n":2,"p":1,"r":8,"salt":"0001020304050607"},"mac":"00"}}`
	if err := os.WriteFile(path, []byte(fixture), 0o600); err != nil {
		t.Fatalf("writing fixture failed: %v", err)
	}

	_, err := PrivateKeyFromKeystore(path, "wrong")
	if !errors.Is(err, nanoclaw.ErrInvalidKeystore) {
		t.Errorf("expected ErrInvalidKeystore, got %v", err)
	}
}
