package nanoclaw

import (
	"encoding/json"
	"strconv"
	"strings"
)

// X402Version is the protocol version carried in every payment payload.
const X402Version = 2

// UptoScheme identifies the payment scheme: each request carries a signed
// authorization letting the router draw up to a cap, rather than an exact amount.
const UptoScheme = "upto"

// DefaultPaymentHeader is the request header that carries the encoded
// authorization unless the router config overrides it.
const DefaultPaymentHeader = "PAYMENT-SIGNATURE"

// PaymentRequiredHeaderName is the response header that carries the router's
// base64-encoded payment challenge.
const PaymentRequiredHeaderName = "PAYMENT-REQUIRED"

// PreExpiryWindowSeconds is the safety margin before a permit deadline during
// which a cached header is considered stale. It shields in-flight requests
// from racing a deadline the router would reject for being too close.
const PreExpiryWindowSeconds = 60

// RouterConfig is the signing domain for permit authorizations.
// Address fields are compared case-insensitively but preserved byte-for-byte.
type RouterConfig struct {
	// Network is a CAIP-2 chain identifier of the form "eip155:<decimal>".
	Network string `json:"network"`

	// Asset is the 0x-prefixed token contract address.
	Asset string `json:"asset"`

	// PayTo is the payment recipient address.
	PayTo string `json:"payTo"`

	// FacilitatorSigner is the spender address that will submit the permit
	// on-chain. Initially equal to PayTo; may diverge after a challenge.
	FacilitatorSigner string `json:"facilitatorSigner"`

	// TokenName and TokenVersion are the EIP-712 domain fields of the token.
	TokenName    string `json:"tokenName"`
	TokenVersion string `json:"tokenVersion"`

	// PaymentHeader optionally overrides the request header name.
	PaymentHeader string `json:"paymentHeader,omitempty"`
}

// HeaderName returns the request header that should carry the authorization.
func (c RouterConfig) HeaderName() string {
	if c.PaymentHeader != "" {
		return c.PaymentHeader
	}
	return DefaultPaymentHeader
}

// SignatureInput is the contract between the header factory and a signing
// function: the current signing domain plus the per-call cap and deadline floor.
type SignatureInput struct {
	RouterConfig

	// PermitCap is the authorized cap in token base units, as a decimal string.
	PermitCap string

	// MinDeadlineExclusive, when non-zero, forces the signed deadline to be
	// strictly greater than this Unix timestamp.
	MinDeadlineExclusive int64
}

// SignatureOutput is what a signing function returns. Nonce and Deadline are
// decimal strings to preserve the full uint256 range across JSON.
type SignatureOutput struct {
	// Signature is the 0x-prefixed hex ECDSA signature.
	Signature string

	// Nonce is the on-chain permit nonce of the signer.
	Nonce string

	// Deadline is the Unix timestamp the authorization is valid before.
	Deadline string

	// AccountAddress is the signer's address.
	AccountAddress string
}

// PaymentPayload is the wire shape that is JSON-serialized then
// base64-encoded into the payment header value.
type PaymentPayload struct {
	X402Version int                 `json:"x402Version"`
	Accepted    AcceptedRequirement `json:"accepted"`
	Payload     PermitPayload       `json:"payload"`
}

// AcceptedRequirement echoes the payment terms the authorization was signed
// against.
type AcceptedRequirement struct {
	Scheme  string      `json:"scheme"`
	Network string      `json:"network"`
	Asset   string      `json:"asset"`
	PayTo   string      `json:"payTo"`
	Extra   DomainExtra `json:"extra"`
}

// DomainExtra carries the EIP-712 domain name and version of the token.
type DomainExtra struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// PermitPayload is the signed authorization and its signature.
type PermitPayload struct {
	Authorization PermitAuthorization `json:"authorization"`
	Signature     string              `json:"signature"`
}

// PermitAuthorization carries the EIP-2612 permit parameters. Value,
// ValidBefore and Nonce are decimal strings, never JSON numbers.
type PermitAuthorization struct {
	// From is the token owner's address.
	From string `json:"from"`

	// To is the spender (the facilitator signer).
	To string `json:"to"`

	// Value is the authorized cap in token base units.
	Value string `json:"value"`

	// ValidBefore is the permit deadline as a Unix timestamp.
	ValidBefore string `json:"validBefore"`

	// Nonce is the on-chain permit nonce.
	Nonce string `json:"nonce"`
}

// PaymentRequiredHeader is the decoded payment challenge the router attaches
// to 401/402 responses. Only the first element of Accepts is consulted.
type PaymentRequiredHeader struct {
	X402Version int                  `json:"x402Version,omitempty"`
	Error       string               `json:"error,omitempty"`
	Accepts     []PaymentRequirement `json:"accepts"`
}

// First returns the first payment requirement, or nil if the challenge
// carries none.
func (h *PaymentRequiredHeader) First() *PaymentRequirement {
	if h == nil || len(h.Accepts) == 0 {
		return nil
	}
	return &h.Accepts[0]
}

// PaymentRequirement is a single payment option from a challenge. The router
// emits both camelCase and snake_case field spellings in the wild, so both
// are accepted.
type PaymentRequirement struct {
	Scheme      string                 `json:"scheme,omitempty"`
	Network     string                 `json:"network,omitempty"`
	Asset       string                 `json:"asset,omitempty"`
	PayTo       string                 `json:"payTo,omitempty"`
	PayToSnake  string                 `json:"pay_to,omitempty"`
	Description string                 `json:"description,omitempty"`
	Extra       map[string]interface{} `json:"extra,omitempty"`
}

// Recipient returns the payTo address under either spelling.
func (r *PaymentRequirement) Recipient() string {
	if r.PayTo != "" {
		return r.PayTo
	}
	return r.PayToSnake
}

// DomainName returns extra.name, the EIP-712 domain name override.
func (r *PaymentRequirement) DomainName() string {
	return r.extraString("name")
}

// DomainVersion returns extra.version, the EIP-712 domain version override.
func (r *PaymentRequirement) DomainVersion() string {
	return r.extraString("version")
}

// amountKeys is the precedence order for the server-specified cap inside a
// requirement's extra block. First present wins.
var amountKeys = []string{
	"maxAmountRequired",
	"max_amount_required",
	"maxAmount",
	"max_amount",
	"amount",
}

// MaxAmount returns the server-specified cap from the extra block, honoring
// the spelling precedence, or "" when none is present.
func (r *PaymentRequirement) MaxAmount() string {
	if r == nil || r.Extra == nil {
		return ""
	}
	for _, key := range amountKeys {
		if v, ok := r.Extra[key]; ok {
			if s := jsonScalarString(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func (r *PaymentRequirement) extraString(key string) string {
	if r == nil || r.Extra == nil {
		return ""
	}
	if v, ok := r.Extra[key]; ok {
		return jsonScalarString(v)
	}
	return ""
}

// jsonScalarString renders a decoded JSON scalar as a decimal string.
// Amounts arrive as strings from well-behaved routers but as bare numbers
// from some, so both are tolerated.
func jsonScalarString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

// ErrorResponse is the normalized shape of a 401/402 response body. The
// router emits both a flat {code, error, message} object and a nested
// {error: {code|type, message|error}} object; both collapse here.
type ErrorResponse struct {
	Code    string
	Err     string
	Message string
}

// ParseErrorResponse normalizes a 401/402 body. Returns nil when the body is
// not JSON or carries none of the recognized fields.
func ParseErrorResponse(body []byte) *ErrorResponse {
	var raw struct {
		Code    string          `json:"code"`
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil
	}

	out := &ErrorResponse{Code: raw.Code, Message: raw.Message}

	if len(raw.Error) > 0 {
		var s string
		if err := json.Unmarshal(raw.Error, &s); err == nil {
			out.Err = s
		} else {
			var nested struct {
				Code    string `json:"code"`
				Type    string `json:"type"`
				Message string `json:"message"`
				Error   string `json:"error"`
			}
			if err := json.Unmarshal(raw.Error, &nested); err == nil {
				if out.Code == "" {
					out.Code = nested.Code
					if out.Code == "" {
						out.Code = nested.Type
					}
				}
				if out.Message == "" {
					out.Message = nested.Message
					if out.Message == "" {
						out.Message = nested.Error
					}
				}
			}
		}
	}

	if out.Code == "" && out.Err == "" && out.Message == "" {
		return nil
	}
	return out
}

// retriableCodes are the error codes that justify a refresh-and-retry.
var retriableCodes = map[string]bool{
	"cap_exhausted":      true,
	"session_closed":     true,
	"settlement_blocked": true,
}

// retriablePhrases back up the code match when the router omits a code.
var retriablePhrases = []string{
	"cap exhausted",
	"session closed",
	"settlement blocked",
	"blocked after previous settlement",
}

// Retriable reports whether the error classifies as a payment fault worth one
// refresh-and-retry. An exact code match takes priority; without a code, a
// case-insensitive substring match over error and message decides.
func (e *ErrorResponse) Retriable() bool {
	if e == nil {
		return false
	}
	if e.Code != "" {
		return retriableCodes[e.Code]
	}
	text := strings.ToLower(e.Err + " " + e.Message)
	for _, phrase := range retriablePhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}
