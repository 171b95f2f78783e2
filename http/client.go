package http

import (
	"net/http"

	"github.com/daydreamsai/nanoclaw"
)

// Client is an HTTP client that automatically attaches payment
// authorizations to router requests. It wraps a standard http.Client and
// adds payment handling via a custom RoundTripper.
type Client struct {
	*http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client) error

// NewClient creates a new payment-enabled HTTP client.
func NewClient(opts ...ClientOption) (*Client, error) {
	client := &Client{
		Client: &http.Client{},
	}

	if client.Transport == nil {
		client.Transport = http.DefaultTransport
	}

	for _, opt := range opts {
		if err := opt(client); err != nil {
			return nil, err
		}
	}

	if transport, ok := client.Transport.(*Transport); ok {
		if err := transport.init(); err != nil {
			return nil, err
		}
	}

	return client, nil
}

// WithHTTPClient sets a custom underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) error {
		c.Client = httpClient
		if c.Transport == nil {
			c.Transport = http.DefaultTransport
		}
		return nil
	}
}

// WithRouterURL points the client at a payment-gated router. Requests that
// do not share the router's origin pass through unpaid.
func WithRouterURL(routerURL string) ClientOption {
	return func(c *Client) error {
		getOrCreateTransport(c).RouterURL = routerURL
		return nil
	}
}

// WithPermitCap sets the default authorization cap in token base units.
func WithPermitCap(permitCap string) ClientOption {
	return func(c *Client) error {
		getOrCreateTransport(c).PermitCap = permitCap
		return nil
	}
}

// WithSignatureFunc sets the permit signing function.
func WithSignatureFunc(signFn nanoclaw.SignatureFunc) ClientOption {
	return func(c *Client) error {
		getOrCreateTransport(c).SignatureFn = signFn
		return nil
	}
}

// WithSigningSource applies a resolved signing source, wiring either the
// signature function or the static header pair depending on its mode.
func WithSigningSource(source nanoclaw.SigningSource) ClientOption {
	return func(c *Client) error {
		transport := getOrCreateTransport(c)
		switch source.Mode {
		case nanoclaw.SourceModeSignature:
			transport.SignatureFn = source.SignatureFn
		case nanoclaw.SourceModeStaticHeader:
			transport.StaticHeaderName = source.HeaderName
			transport.StaticHeaderValue = source.HeaderValue
		default:
			return nanoclaw.NewPaymentError(nanoclaw.ErrCodeConfiguration,
				"unknown signing source mode "+string(source.Mode), nanoclaw.ErrUnsupportedSignerMode)
		}
		return nil
	}
}

// WithInitialConfig injects the signing domain, skipping the router config
// fetch.
func WithInitialConfig(config nanoclaw.RouterConfig) ClientOption {
	return func(c *Client) error {
		cfg := config
		getOrCreateTransport(c).InitialConfig = &cfg
		return nil
	}
}

// WithNetwork sets the CAIP-2 network used when the router config fetch
// fails.
func WithNetwork(network string) ClientOption {
	return func(c *Client) error {
		getOrCreateTransport(c).Network = network
		return nil
	}
}

// WithStaticHeader switches the client to static mode: every chargeable
// request carries the fixed header and challenges are never retried. An
// empty name selects the default payment header.
func WithStaticHeader(name, value string) ClientOption {
	return func(c *Client) error {
		transport := getOrCreateTransport(c)
		transport.StaticHeaderName = name
		transport.StaticHeaderValue = value
		return nil
	}
}

// WithPaymentCallbacks sets all payment callbacks at once.
// Pass nil for any callback you don't want to set.
func WithPaymentCallbacks(onAttempt, onSuccess, onFailure nanoclaw.PaymentCallback) ClientOption {
	return func(c *Client) error {
		transport := getOrCreateTransport(c)

		if onAttempt != nil {
			transport.OnPaymentAttempt = onAttempt
		}
		if onSuccess != nil {
			transport.OnPaymentSuccess = onSuccess
		}
		if onFailure != nil {
			transport.OnPaymentFailure = onFailure
		}

		return nil
	}
}

// getOrCreateTransport gets the payment Transport or wraps the existing one.
func getOrCreateTransport(c *Client) *Transport {
	transport, ok := c.Transport.(*Transport)
	if !ok {
		transport = &Transport{
			Base: c.Transport,
		}
		c.Transport = transport
	}
	return transport
}
