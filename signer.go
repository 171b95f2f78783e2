package nanoclaw

import "context"

// SignerMode selects how payment authorizations are produced.
type SignerMode string

const (
	// SignerModeEnvPK signs permits with a private key supplied in secrets.
	SignerModeEnvPK SignerMode = "env_pk"

	// SignerModeStaticHeader attaches a pre-signed static header value.
	SignerModeStaticHeader SignerMode = "static_header"
)

// SourceMode tags a resolved SigningSource.
type SourceMode string

const (
	// SourceModeSignature carries a signature-producing function.
	SourceModeSignature SourceMode = "signature"

	// SourceModeStaticHeader carries a fixed header name and value.
	SourceModeStaticHeader SourceMode = "static_header"
)

// SignatureFunc produces a signed permit authorization for the given domain,
// cap and deadline floor. Implementations may perform on-chain reads and must
// honor context cancellation.
type SignatureFunc func(ctx context.Context, input SignatureInput) (*SignatureOutput, error)

// SigningSource is the resolved signing capability: either a signature
// function or a static header pair, discriminated by Mode so callers branch
// on a single field.
type SigningSource struct {
	Mode SourceMode

	// SignatureFn is set when Mode is SourceModeSignature.
	SignatureFn SignatureFunc

	// HeaderName and HeaderValue are set when Mode is SourceModeStaticHeader.
	HeaderName  string
	HeaderValue string
}
