// Package evm produces EIP-2612 permit signatures for EVM-compatible chains
// and resolves signing sources from injected secrets.
package evm

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/daydreamsai/nanoclaw"
)

// permitTTL is how long a freshly signed permit stays valid.
const permitTTL = time.Hour

// Signer signs permit authorizations with a private key. It reads the
// owner's permit nonce on-chain before every signature.
type Signer struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address

	rpcURLs map[string]string
	reader  NonceReader

	readersMu sync.Mutex
	readers   map[string]NonceReader

	now func() time.Time
}

// SignerOption configures a Signer.
type SignerOption func(*Signer) error

// NewSigner creates a new permit signer with the given options.
func NewSigner(opts ...SignerOption) (*Signer, error) {
	s := &Signer{
		rpcURLs: make(map[string]string),
		readers: make(map[string]NonceReader),
		now:     time.Now,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if s.privateKey == nil {
		return nil, nanoclaw.ErrInvalidKey
	}

	s.address = crypto.PubkeyToAddress(s.privateKey.PublicKey)
	return s, nil
}

// WithPrivateKey sets the private key from a hex string. A leading 0X is
// accepted and rewritten to 0x.
func WithPrivateKey(hexKey string) SignerOption {
	return func(s *Signer) error {
		normalized, ok := NormalizePrivateKey(hexKey)
		if !ok {
			return nanoclaw.ErrInvalidKey
		}

		privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(normalized, "0x"))
		if err != nil {
			return nanoclaw.ErrInvalidKey
		}

		s.privateKey = privateKey
		return nil
	}
}

// WithRPCURL overrides the JSON-RPC endpoint used for nonce reads on the
// given CAIP-2 network.
func WithRPCURL(network, rpcURL string) SignerOption {
	return func(s *Signer) error {
		s.rpcURLs[network] = rpcURL
		return nil
	}
}

// WithNonceReader replaces on-chain nonce reads for every network.
func WithNonceReader(reader NonceReader) SignerOption {
	return func(s *Signer) error {
		s.reader = reader
		return nil
	}
}

// Address returns the signer's account address.
func (s *Signer) Address() common.Address {
	return s.address
}

// SignatureFunc adapts the signer to the header factory's contract.
func (s *Signer) SignatureFunc() nanoclaw.SignatureFunc {
	return s.Sign
}

// Sign produces a permit authorization for the given domain and cap. The
// deadline is one hour out, bumped strictly past MinDeadlineExclusive when
// that floor is set.
func (s *Signer) Sign(ctx context.Context, input nanoclaw.SignatureInput) (*nanoclaw.SignatureOutput, error) {
	chain := nanoclaw.ChainByCAIP2(input.Network)
	token := common.HexToAddress(input.Asset)

	nonce, err := s.readerFor(chain).PermitNonce(ctx, token, s.address)
	if err != nil {
		return nil, err
	}

	value, ok := new(big.Int).SetString(input.PermitCap, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", nanoclaw.ErrInvalidAmount, input.PermitCap)
	}

	deadline := s.now().Unix() + int64(permitTTL/time.Second)
	if input.MinDeadlineExclusive > 0 && deadline <= input.MinDeadlineExclusive {
		deadline = input.MinDeadlineExclusive + 1
	}

	signature, err := SignPermit(s.privateKey, token, chain.ChainIDBig(), input.TokenName, input.TokenVersion, PermitParams{
		Owner:    s.address,
		Spender:  common.HexToAddress(input.FacilitatorSigner),
		Value:    value,
		Nonce:    nonce,
		Deadline: big.NewInt(deadline),
	})
	if err != nil {
		return nil, err
	}

	return &nanoclaw.SignatureOutput{
		Signature:      signature,
		Nonce:          nonce.String(),
		Deadline:       strconv.FormatInt(deadline, 10),
		AccountAddress: s.address.Hex(),
	}, nil
}

// readerFor returns the nonce reader for a chain, building an RPC-backed one
// on first use.
func (s *Signer) readerFor(chain nanoclaw.ChainConfig) NonceReader {
	if s.reader != nil {
		return s.reader
	}

	s.readersMu.Lock()
	defer s.readersMu.Unlock()

	if reader, ok := s.readers[chain.CAIP2]; ok {
		return reader
	}

	rpcURL := chain.RPCURL
	if override, ok := s.rpcURLs[chain.CAIP2]; ok {
		rpcURL = override
	}

	reader := NewRPCNonceReader(rpcURL)
	s.readers[chain.CAIP2] = reader
	return reader
}
