package evm

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/daydreamsai/nanoclaw"
)

// NonceReader fetches the current EIP-2612 permit nonce of an owner on a
// token contract.
type NonceReader interface {
	PermitNonce(ctx context.Context, token, owner common.Address) (*big.Int, error)
}

// erc2612ABI covers the nonces view of ERC-2612 tokens.
const erc2612ABI = `[{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"nonces","outputs":[{"name":"","type":"uint256"}],"type":"function"}]`

var (
	parsedERC2612Once sync.Once
	parsedERC2612     abi.ABI
	parsedERC2612Err  error
)

func erc2612() (abi.ABI, error) {
	parsedERC2612Once.Do(func() {
		parsedERC2612, parsedERC2612Err = abi.JSON(strings.NewReader(erc2612ABI))
	})
	return parsedERC2612, parsedERC2612Err
}

// RPCNonceReader reads permit nonces over a JSON-RPC endpoint. The client is
// dialed lazily on first use and reused afterwards.
type RPCNonceReader struct {
	rpcURL string

	mu     sync.Mutex
	client *ethclient.Client
}

// NewRPCNonceReader creates a nonce reader bound to the given RPC endpoint.
func NewRPCNonceReader(rpcURL string) *RPCNonceReader {
	return &RPCNonceReader{rpcURL: rpcURL}
}

// PermitNonce implements NonceReader.
func (r *RPCNonceReader) PermitNonce(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	client, err := r.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", nanoclaw.ErrNonceReadFailed, err)
	}

	contractABI, err := erc2612()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", nanoclaw.ErrNonceReadFailed, err)
	}

	contract := bind.NewBoundContract(token, contractABI, client, nil, nil)

	var out []interface{}
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &out, "nonces", owner); err != nil {
		return nil, fmt.Errorf("%w: %v", nanoclaw.ErrNonceReadFailed, err)
	}

	if len(out) > 0 {
		if nonce, ok := out[0].(*big.Int); ok {
			return nonce, nil
		}
	}
	return nil, fmt.Errorf("%w: unexpected nonces() result", nanoclaw.ErrNonceReadFailed)
}

func (r *RPCNonceReader) dial(ctx context.Context) (*ethclient.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.client != nil {
		return r.client, nil
	}
	client, err := ethclient.DialContext(ctx, r.rpcURL)
	if err != nil {
		return nil, err
	}
	r.client = client
	return client, nil
}
