// Package http wraps a standard HTTP transport with automatic payment
// authorization for requests addressed at a payment-gated router.
package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/daydreamsai/nanoclaw"
	"github.com/daydreamsai/nanoclaw/encoding"
)

// Transport is a RoundTripper that attaches signed payment authorizations to
// chargeable router requests and refreshes them in response to payment
// challenges. It wraps an existing http.RoundTripper.
type Transport struct {
	// Base is the underlying RoundTripper (typically http.DefaultTransport).
	Base http.RoundTripper

	// RouterURL locates the payment-gated router. Only requests sharing its
	// origin are eligible for payment.
	RouterURL string

	// PermitCap is the default authorization cap in token base units.
	PermitCap string

	// SignatureFn signs permit authorizations. Required unless a static
	// header is configured.
	SignatureFn nanoclaw.SignatureFunc

	// InitialConfig, when set, skips the router config fetch.
	InitialConfig *nanoclaw.RouterConfig

	// Network is the CAIP-2 identifier used when the router config fetch
	// fails. Defaults to Base mainnet.
	Network string

	// StaticHeaderName and StaticHeaderValue switch the transport to static
	// mode: every chargeable request carries the fixed header and payment
	// challenges are never retried.
	StaticHeaderName  string
	StaticHeaderValue string

	// OnPaymentAttempt is called before each signed request is sent.
	OnPaymentAttempt nanoclaw.PaymentCallback

	// OnPaymentSuccess is called when a signed request is accepted.
	OnPaymentSuccess nanoclaw.PaymentCallback

	// OnPaymentFailure is called when the payment flow gives up.
	OnPaymentFailure nanoclaw.PaymentCallback

	originOnce sync.Once
	originErr  error
	origin     *url.URL
	routerBase string

	factoryOnce sync.Once
	factory     *HeaderFactory
}

// freeSuffixes are router paths that carry no charge and must never trigger
// signing. Signing the config fetch would be circular.
var freeSuffixes = []string{"/v1/config", "/config", "/v1/models", "/models"}

// RoundTrip implements http.RoundTripper. Non-router and free-path requests
// pass through untouched. Chargeable requests get an authorization header;
// a classifiable 401/402 triggers exactly one refresh-and-retry.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.init(); err != nil {
		return nil, err
	}

	if req.URL == nil || !t.chargeable(req.URL) {
		return t.base().RoundTrip(req)
	}

	if t.StaticHeaderValue != "" {
		name := t.StaticHeaderName
		if name == "" {
			name = nanoclaw.DefaultPaymentHeader
		}
		signed := req.Clone(req.Context())
		signed.Header.Set(name, t.StaticHeaderValue)
		return t.base().RoundTrip(signed)
	}

	if t.SignatureFn == nil {
		return nil, nanoclaw.NewPaymentError(nanoclaw.ErrCodeConfiguration,
			"chargeable request without a signing source", nanoclaw.ErrNoSignatureFunc)
	}

	ctx := req.Context()
	factory := t.headerFactory(ctx)

	header, err := factory.Header(ctx, HeaderOptions{})
	if err != nil {
		return nil, err
	}

	start := time.Now()
	t.fire(t.OnPaymentAttempt, t.event(nanoclaw.PaymentEventAttempt, req, factory.Config(), start))

	signed := req.Clone(ctx)
	signed.Header.Set(header.Name, header.Value)

	resp, err := t.base().RoundTrip(signed)
	if err != nil {
		t.fireFailure(req, factory.Config(), start, err)
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized && resp.StatusCode != http.StatusPaymentRequired {
		t.fire(t.OnPaymentSuccess, t.event(nanoclaw.PaymentEventSuccess, req, factory.Config(), start))
		return resp, nil
	}

	// Re-buffer the body so it stays consumable if the response is handed
	// back to the caller.
	errResp := rebufferErrorBody(resp)

	var requirement *nanoclaw.PaymentRequirement
	if encoded := resp.Header.Get(nanoclaw.PaymentRequiredHeaderName); encoded != "" {
		if challenge, err := encoding.DecodeChallenge(encoded); err == nil {
			requirement = challenge.First()
		}
	}

	if requirement != nil {
		factory.UpdateConfig(overlayConfig(factory.Config(), requirement))
	}

	if !errResp.Retriable() {
		return resp, nil
	}

	retry, ok := cloneForRetry(req)
	if !ok {
		return resp, nil
	}

	factory.Invalidate()

	var capOverride string
	if requirement != nil {
		capOverride = requirement.MaxAmount()
	}

	// The server-specified cap applies to this retry only; the next call
	// reverts to the configured cap.
	retryHeader, err := factory.Header(ctx, HeaderOptions{
		CapOverride:          capOverride,
		MinDeadlineExclusive: header.Deadline,
	})
	if err != nil {
		t.fireFailure(req, factory.Config(), start, err)
		return nil, err
	}

	resp.Body.Close()

	retry.Header.Set(retryHeader.Name, retryHeader.Value)

	retryResp, err := t.base().RoundTrip(retry)
	if err != nil {
		t.fireFailure(req, factory.Config(), start, err)
		return nil, err
	}

	// No second retry, whatever the status.
	if retryResp.StatusCode == http.StatusUnauthorized || retryResp.StatusCode == http.StatusPaymentRequired {
		t.fireFailure(req, factory.Config(), start,
			fmt.Errorf("payment rejected with status %d after retry", retryResp.StatusCode))
	} else {
		t.fire(t.OnPaymentSuccess, t.event(nanoclaw.PaymentEventSuccess, req, factory.Config(), start))
	}

	return retryResp, nil
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// init derives the router origin and base once per transport.
func (t *Transport) init() error {
	t.originOnce.Do(func() {
		u, err := url.Parse(t.RouterURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			t.originErr = fmt.Errorf("%w: %q", nanoclaw.ErrInvalidRouterURL, t.RouterURL)
			return
		}
		t.origin = &url.URL{Scheme: u.Scheme, Host: u.Host}
		t.routerBase = strings.TrimRight(t.RouterURL, "/")
	})
	return t.originErr
}

// chargeable reports whether a request URL is addressed at the router and
// not at a free path.
func (t *Transport) chargeable(u *url.URL) bool {
	target := u
	if !target.IsAbs() {
		target = t.origin.ResolveReference(target)
	}
	if target.Scheme != t.origin.Scheme || target.Host != t.origin.Host {
		return false
	}
	for _, suffix := range freeSuffixes {
		if strings.HasSuffix(target.Path, suffix) {
			return false
		}
	}
	return true
}

// headerFactory builds the factory at most once, loading the signing domain
// from the router config endpoint unless an initial config was injected.
func (t *Transport) headerFactory(ctx context.Context) *HeaderFactory {
	t.factoryOnce.Do(func() {
		var cfg nanoclaw.RouterConfig
		if t.InitialConfig != nil {
			cfg = *t.InitialConfig
		} else {
			cfg = fetchRouterConfig(ctx, t.base(), t.routerBase, t.Network)
		}
		t.factory = NewHeaderFactory(cfg, t.SignatureFn, t.PermitCap)
	})
	return t.factory
}

// rebufferErrorBody reads the whole response body, restores it for the
// caller, and parses it as a normalized error response.
func rebufferErrorBody(resp *http.Response) *nanoclaw.ErrorResponse {
	if resp.Body == nil {
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		resp.Body = io.NopCloser(bytes.NewReader(nil))
		return nil
	}
	resp.Body = io.NopCloser(bytes.NewReader(data))
	return nanoclaw.ParseErrorResponse(data)
}

// overlayConfig applies a challenge requirement on top of the current
// signing domain. The facilitator signer follows the new payTo.
func overlayConfig(current nanoclaw.RouterConfig, requirement *nanoclaw.PaymentRequirement) nanoclaw.RouterConfig {
	next := current
	if requirement.Network != "" {
		next.Network = requirement.Network
	}
	if requirement.Asset != "" {
		next.Asset = requirement.Asset
	}
	if to := requirement.Recipient(); to != "" {
		next.PayTo = to
		next.FacilitatorSigner = to
	}
	if name := requirement.DomainName(); name != "" {
		next.TokenName = name
	}
	if version := requirement.DomainVersion(); version != "" {
		next.TokenVersion = version
	}
	return next
}

// cloneForRetry clones a request for the single retry, replaying the body
// through GetBody. Requests whose body cannot be replayed are not retried.
func cloneForRetry(req *http.Request) (*http.Request, bool) {
	clone := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return clone, true
	}
	if req.GetBody == nil {
		return nil, false
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	clone.Body = body
	return clone, true
}

func (t *Transport) event(kind nanoclaw.PaymentEventType, req *http.Request, cfg nanoclaw.RouterConfig, start time.Time) nanoclaw.PaymentEvent {
	event := nanoclaw.PaymentEvent{
		Type:      kind,
		Timestamp: time.Now(),
		URL:       req.URL.String(),
		Network:   cfg.Network,
		Asset:     cfg.Asset,
		Recipient: cfg.PayTo,
	}
	if kind != nanoclaw.PaymentEventAttempt {
		event.Duration = time.Since(start)
	}
	return event
}

func (t *Transport) fireFailure(req *http.Request, cfg nanoclaw.RouterConfig, start time.Time, err error) {
	if t.OnPaymentFailure == nil {
		return
	}
	event := t.event(nanoclaw.PaymentEventFailure, req, cfg, start)
	event.Error = err
	t.OnPaymentFailure(event)
}

func (t *Transport) fire(cb nanoclaw.PaymentCallback, event nanoclaw.PaymentEvent) {
	if cb != nil {
		cb(event)
	}
}
