// Package encoding provides utilities for encoding and decoding payment data.
// It handles base64 and JSON marshaling for payment payloads and challenges.
package encoding

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/daydreamsai/nanoclaw"
)

// EncodePayment converts a PaymentPayload to a base64-encoded JSON string.
// This is the value carried in the payment request header.
//
// Returns an error if JSON marshaling fails.
func EncodePayment(payment nanoclaw.PaymentPayload) (string, error) {
	paymentJSON, err := json.Marshal(payment)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payment: %w", err)
	}
	return base64.StdEncoding.EncodeToString(paymentJSON), nil
}

// DecodePayment converts a base64-encoded JSON string to a PaymentPayload.
//
// Returns an error if base64 decoding or JSON unmarshaling fails.
func DecodePayment(encoded string) (nanoclaw.PaymentPayload, error) {
	var payment nanoclaw.PaymentPayload

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return payment, fmt.Errorf("failed to decode base64: %w", err)
	}

	if err := json.Unmarshal(decoded, &payment); err != nil {
		return payment, fmt.Errorf("failed to unmarshal payment: %w", err)
	}

	return payment, nil
}

// EncodeChallenge converts a PaymentRequiredHeader to base64-encoded JSON.
// This is the value routers carry in the challenge response header.
//
// Returns an error if JSON marshaling fails.
func EncodeChallenge(challenge nanoclaw.PaymentRequiredHeader) (string, error) {
	challengeJSON, err := json.Marshal(challenge)
	if err != nil {
		return "", fmt.Errorf("failed to marshal challenge: %w", err)
	}
	return base64.StdEncoding.EncodeToString(challengeJSON), nil
}

// DecodeChallenge converts base64-encoded JSON to a PaymentRequiredHeader.
//
// Returns an error if base64 decoding or JSON unmarshaling fails.
func DecodeChallenge(encoded string) (nanoclaw.PaymentRequiredHeader, error) {
	var challenge nanoclaw.PaymentRequiredHeader

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return challenge, fmt.Errorf("failed to decode base64: %w", err)
	}

	if err := json.Unmarshal(decoded, &challenge); err != nil {
		return challenge, fmt.Errorf("failed to unmarshal challenge: %w", err)
	}

	return challenge, nil
}
