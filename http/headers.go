package http

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/daydreamsai/nanoclaw"
	"github.com/daydreamsai/nanoclaw/encoding"
)

// HeaderFactory caches one encoded authorization per (cap, network, asset,
// payTo) tuple and invokes the signing function on miss, expiry or forced
// refresh.
//
// The cache is a hint, not a correctness invariant: concurrent misses may
// each sign and the last writer wins. The mutex guards only slot reads and
// swaps, never a signing call, so signing is never serialized.
type HeaderFactory struct {
	signFn     nanoclaw.SignatureFunc
	defaultCap string
	now        func() time.Time

	mu     sync.Mutex
	config nanoclaw.RouterConfig
	cached *cachedHeader
}

// cachedHeader memoizes an encoded header together with the domain tuple it
// was signed for.
type cachedHeader struct {
	headerValue string
	deadline    int64

	maxValue string
	network  string
	asset    string
	payTo    string
}

// HeaderOptions tunes a single Header call.
type HeaderOptions struct {
	// CapOverride replaces the default permit cap for this call.
	CapOverride string

	// MinDeadlineExclusive forces a fresh signature whose deadline is
	// strictly greater than this Unix timestamp. Any non-zero value
	// bypasses the cache.
	MinDeadlineExclusive int64
}

// PaymentHeader is a ready-to-attach authorization header.
type PaymentHeader struct {
	Name     string
	Value    string
	Deadline int64
}

// NewHeaderFactory creates a factory over the given signing domain, signing
// function and default permit cap.
func NewHeaderFactory(config nanoclaw.RouterConfig, signFn nanoclaw.SignatureFunc, defaultCap string) *HeaderFactory {
	return &HeaderFactory{
		signFn:     signFn,
		defaultCap: defaultCap,
		config:     config,
		now:        time.Now,
	}
}

// Header returns an encoded authorization for the current domain, reusing
// the cached one when the cap and domain tuple match and the deadline is
// comfortably in the future.
func (f *HeaderFactory) Header(ctx context.Context, opts HeaderOptions) (PaymentHeader, error) {
	f.mu.Lock()
	cfg := f.config
	cached := f.cached
	f.mu.Unlock()

	permitCap := opts.CapOverride
	if permitCap == "" {
		permitCap = f.defaultCap
	}

	if cached != nil && opts.MinDeadlineExclusive == 0 &&
		cached.maxValue == permitCap &&
		cached.network == cfg.Network &&
		cached.asset == cfg.Asset &&
		cached.payTo == cfg.PayTo &&
		cached.deadline-f.now().Unix() > nanoclaw.PreExpiryWindowSeconds {
		return PaymentHeader{Name: cfg.HeaderName(), Value: cached.headerValue, Deadline: cached.deadline}, nil
	}

	out, err := f.signFn(ctx, nanoclaw.SignatureInput{
		RouterConfig:         cfg,
		PermitCap:            permitCap,
		MinDeadlineExclusive: opts.MinDeadlineExclusive,
	})
	if err != nil {
		return PaymentHeader{}, err
	}

	deadline, err := strconv.ParseInt(out.Deadline, 10, 64)
	if err != nil {
		return PaymentHeader{}, fmt.Errorf("%w: deadline %q", nanoclaw.ErrMalformedHeader, out.Deadline)
	}

	payload := nanoclaw.PaymentPayload{
		X402Version: nanoclaw.X402Version,
		Accepted: nanoclaw.AcceptedRequirement{
			Scheme:  nanoclaw.UptoScheme,
			Network: cfg.Network,
			Asset:   cfg.Asset,
			PayTo:   cfg.PayTo,
			Extra:   nanoclaw.DomainExtra{Name: cfg.TokenName, Version: cfg.TokenVersion},
		},
		Payload: nanoclaw.PermitPayload{
			Authorization: nanoclaw.PermitAuthorization{
				From:        out.AccountAddress,
				To:          cfg.FacilitatorSigner,
				Value:       permitCap,
				ValidBefore: out.Deadline,
				Nonce:       out.Nonce,
			},
			Signature: out.Signature,
		},
	}

	value, err := encoding.EncodePayment(payload)
	if err != nil {
		return PaymentHeader{}, err
	}

	f.mu.Lock()
	f.cached = &cachedHeader{
		headerValue: value,
		deadline:    deadline,
		maxValue:    permitCap,
		network:     cfg.Network,
		asset:       cfg.Asset,
		payTo:       cfg.PayTo,
	}
	f.mu.Unlock()

	return PaymentHeader{Name: cfg.HeaderName(), Value: value, Deadline: deadline}, nil
}

// Invalidate unconditionally clears the cached header.
func (f *HeaderFactory) Invalidate() {
	f.mu.Lock()
	f.cached = nil
	f.mu.Unlock()
}

// UpdateConfig replaces the signing domain. The cache is left in place; the
// next Header call misses naturally if the domain tuple changed.
func (f *HeaderFactory) UpdateConfig(next nanoclaw.RouterConfig) {
	f.mu.Lock()
	f.config = next
	f.mu.Unlock()
}

// Config returns a snapshot of the current signing domain.
func (f *HeaderFactory) Config() nanoclaw.RouterConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.config
}
