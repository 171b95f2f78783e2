package evm

import (
	"regexp"
	"strings"

	"github.com/daydreamsai/nanoclaw"
)

// Secret keys recognized by the resolver.
const (
	// SecretPrivateKey holds the signing key for SignerModeEnvPK.
	SecretPrivateKey = "X402_PRIVATE_KEY"

	// SecretStaticPaymentHeader holds the pre-signed header value for
	// SignerModeStaticHeader.
	SecretStaticPaymentHeader = "X402_STATIC_PAYMENT_HEADER"
)

var privateKeyPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// NormalizePrivateKey trims the raw key, rewrites a leading 0X to 0x, and
// validates the 32-byte hex shape. The second return is false when the key
// is unusable.
func NormalizePrivateKey(raw string) (string, bool) {
	key := strings.TrimSpace(raw)
	if strings.HasPrefix(key, "0X") {
		key = "0x" + key[2:]
	}
	if !privateKeyPattern.MatchString(key) {
		return "", false
	}
	return key, true
}

// ResolveOptions configures signing-source resolution.
type ResolveOptions struct {
	// SignerMode selects the source kind. Defaults to SignerModeEnvPK.
	SignerMode nanoclaw.SignerMode

	// PaymentHeader overrides the header name for static sources.
	PaymentHeader string

	// Secrets carries the injected secret material. The resolver never
	// reads the process environment.
	Secrets map[string]string

	// RPCURLs optionally overrides nonce-read endpoints per CAIP-2 network.
	RPCURLs map[string]string

	// NonceReader optionally replaces on-chain nonce reads entirely.
	NonceReader NonceReader
}

// ResolveSigningSource translates configuration and secrets into either a
// signature-producing function or a static header pair. Configuration errors
// are raised here, before any I/O.
func ResolveSigningSource(opts ResolveOptions) (nanoclaw.SigningSource, error) {
	mode := opts.SignerMode
	if mode == "" {
		mode = nanoclaw.SignerModeEnvPK
	}

	switch mode {
	case nanoclaw.SignerModeStaticHeader:
		value := opts.Secrets[SecretStaticPaymentHeader]
		if strings.TrimSpace(value) == "" {
			return nanoclaw.SigningSource{}, nanoclaw.NewPaymentError(
				nanoclaw.ErrCodeConfiguration,
				"static header mode requires "+SecretStaticPaymentHeader,
				nanoclaw.ErrMissingStaticHeader,
			)
		}
		headerName := opts.PaymentHeader
		if headerName == "" {
			headerName = nanoclaw.DefaultPaymentHeader
		}
		return nanoclaw.SigningSource{
			Mode:        nanoclaw.SourceModeStaticHeader,
			HeaderName:  headerName,
			HeaderValue: value,
		}, nil

	case nanoclaw.SignerModeEnvPK:
		key, ok := NormalizePrivateKey(opts.Secrets[SecretPrivateKey])
		if !ok {
			return nanoclaw.SigningSource{}, nanoclaw.NewPaymentError(
				nanoclaw.ErrCodeConfiguration,
				"env_pk mode requires a valid "+SecretPrivateKey,
				nanoclaw.ErrInvalidKey,
			)
		}

		signerOpts := []SignerOption{WithPrivateKey(key)}
		for network, rpcURL := range opts.RPCURLs {
			signerOpts = append(signerOpts, WithRPCURL(network, rpcURL))
		}
		if opts.NonceReader != nil {
			signerOpts = append(signerOpts, WithNonceReader(opts.NonceReader))
		}

		signer, err := NewSigner(signerOpts...)
		if err != nil {
			return nanoclaw.SigningSource{}, nanoclaw.NewPaymentError(
				nanoclaw.ErrCodeConfiguration, "failed to build permit signer", err)
		}
		return nanoclaw.SigningSource{
			Mode:        nanoclaw.SourceModeSignature,
			SignatureFn: signer.SignatureFunc(),
		}, nil

	default:
		return nanoclaw.SigningSource{}, nanoclaw.NewPaymentError(
			nanoclaw.ErrCodeConfiguration,
			"unsupported signer mode "+string(mode),
			nanoclaw.ErrUnsupportedSignerMode,
		)
	}
}
