package nanoclaw

import "errors"

// Sentinel errors for payment operations.
var (
	// ErrInvalidKey indicates a missing or malformed private key.
	ErrInvalidKey = errors.New("x402: invalid private key")

	// ErrMissingStaticHeader indicates static header mode without a header value.
	ErrMissingStaticHeader = errors.New("x402: static payment header value is empty")

	// ErrUnsupportedSignerMode indicates an unrecognized signer mode.
	ErrUnsupportedSignerMode = errors.New("x402: unsupported signer mode")

	// ErrNoSignatureFunc indicates a chargeable request with no signing function configured.
	ErrNoSignatureFunc = errors.New("x402: no signing function configured")

	// ErrInvalidNetwork indicates a malformed CAIP-2 network identifier.
	ErrInvalidNetwork = errors.New("x402: invalid network identifier")

	// ErrInvalidAmount indicates a cap or amount that is not a decimal integer.
	ErrInvalidAmount = errors.New("x402: invalid amount")

	// ErrMalformedHeader indicates a payment header that cannot be decoded.
	ErrMalformedHeader = errors.New("x402: malformed payment header")

	// ErrInvalidRouterURL indicates an unparsable router URL.
	ErrInvalidRouterURL = errors.New("x402: invalid router url")

	// ErrInvalidKeystore indicates an invalid or corrupted keystore file.
	ErrInvalidKeystore = errors.New("x402: invalid keystore file")

	// ErrInvalidMnemonic indicates an invalid BIP39 mnemonic phrase.
	ErrInvalidMnemonic = errors.New("x402: invalid mnemonic phrase")

	// ErrNonceReadFailed indicates the on-chain permit nonce read failed.
	ErrNonceReadFailed = errors.New("x402: permit nonce read failed")

	// ErrSigningFailed indicates the permit signing operation failed.
	ErrSigningFailed = errors.New("x402: permit signing failed")
)

// ErrorCode represents payment error codes for programmatic handling.
type ErrorCode string

const (
	// ErrCodeConfiguration indicates invalid construction-time configuration.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION"

	// ErrCodeSigningFailed indicates a permit signing or nonce read failure.
	ErrCodeSigningFailed ErrorCode = "SIGNING_FAILED"

	// ErrCodeMalformedHeader indicates an undecodable payment artifact.
	ErrCodeMalformedHeader ErrorCode = "MALFORMED_HEADER"

	// ErrCodeNetworkError indicates a network failure while paying.
	ErrCodeNetworkError ErrorCode = "NETWORK_ERROR"
)

// PaymentError provides structured error information.
type PaymentError struct {
	// Code is the error code for programmatic handling.
	Code ErrorCode

	// Message is the human-readable error message.
	Message string

	// Details contains additional error context.
	Details map[string]interface{}

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *PaymentError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *PaymentError) Unwrap() error {
	return e.Err
}

// NewPaymentError creates a new PaymentError with the given code and message.
func NewPaymentError(code ErrorCode, message string, err error) *PaymentError {
	return &PaymentError{
		Code:    code,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// WithDetails adds additional context to the error.
// Lazily initializes the Details map if nil.
func (e *PaymentError) WithDetails(key string, value interface{}) *PaymentError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}
