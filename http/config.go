package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/daydreamsai/nanoclaw"
)

// routerConfigResponse is the wire shape of GET {routerBase}/v1/config.
type routerConfigResponse struct {
	Networks []struct {
		NetworkID string `json:"network_id"`
		Asset     struct {
			Address string `json:"address"`
		} `json:"asset"`
		PayTo string `json:"pay_to"`
	} `json:"networks"`
	PaymentHeader string `json:"payment_header"`
	EIP712Config  struct {
		DomainName    string `json:"domain_name"`
		DomainVersion string `json:"domain_version"`
	} `json:"eip712_config"`
}

// defaultRouterConfig is the fallback signing domain when the router config
// endpoint is unreachable: USDC on Base with empty recipient addresses. The
// first payment challenge supplies the real domain.
func defaultRouterConfig(network string) nanoclaw.RouterConfig {
	if network == "" {
		network = nanoclaw.BaseMainnet.CAIP2
	}
	return nanoclaw.RouterConfig{
		Network:       network,
		Asset:         nanoclaw.BaseMainnet.USDCAddress,
		TokenName:     nanoclaw.BaseMainnet.USDCName,
		TokenVersion:  nanoclaw.BaseMainnet.USDCVersion,
		PaymentHeader: nanoclaw.DefaultPaymentHeader,
	}
}

// fetchRouterConfig loads the signing domain from the router's config
// endpoint, overlaying it on the defaults. Any fetch or parse failure yields
// the defaults.
func fetchRouterConfig(ctx context.Context, base http.RoundTripper, routerBase, network string) nanoclaw.RouterConfig {
	cfg := defaultRouterConfig(network)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, routerBase+"/v1/config", nil)
	if err != nil {
		return cfg
	}

	resp, err := base.RoundTrip(req)
	if err != nil {
		return cfg
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return cfg
	}

	var parsed routerConfigResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return cfg
	}

	if len(parsed.Networks) > 0 {
		network := parsed.Networks[0]
		if network.NetworkID != "" {
			cfg.Network = network.NetworkID
		}
		if network.Asset.Address != "" {
			cfg.Asset = network.Asset.Address
		}
		if network.PayTo != "" {
			cfg.PayTo = network.PayTo
			cfg.FacilitatorSigner = network.PayTo
		}
	}
	if parsed.PaymentHeader != "" {
		cfg.PaymentHeader = parsed.PaymentHeader
	}
	if parsed.EIP712Config.DomainName != "" {
		cfg.TokenName = parsed.EIP712Config.DomainName
	}
	if parsed.EIP712Config.DomainVersion != "" {
		cfg.TokenVersion = parsed.EIP712Config.DomainVersion
	}

	return cfg
}
