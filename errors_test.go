package nanoclaw

import (
	"errors"
	"testing"
)

func TestPaymentErrorUnwrap(t *testing.T) {
	err := NewPaymentError(ErrCodeConfiguration, "bad key", ErrInvalidKey)

	if !errors.Is(err, ErrInvalidKey) {
		t.Error("expected errors.Is to match the wrapped sentinel")
	}

	var paymentErr *PaymentError
	if !errors.As(error(err), &paymentErr) {
		t.Fatal("expected errors.As to match PaymentError")
	}
	if paymentErr.Code != ErrCodeConfiguration {
		t.Errorf("code = %s, want %s", paymentErr.Code, ErrCodeConfiguration)
	}
}

func TestPaymentErrorMessage(t *testing.T) {
	err := NewPaymentError(ErrCodeSigningFailed, "signing failed", ErrNonceReadFailed)
	want := "signing failed: " + ErrNonceReadFailed.Error()
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	bare := &PaymentError{Code: ErrCodeSigningFailed, Message: "signing failed"}
	if bare.Error() != "signing failed" {
		t.Errorf("Error() = %q", bare.Error())
	}
}

func TestPaymentErrorWithDetails(t *testing.T) {
	err := (&PaymentError{Code: ErrCodeNetworkError, Message: "boom"}).
		WithDetails("network", "eip155:8453")

	if err.Details["network"] != "eip155:8453" {
		t.Errorf("details = %v", err.Details)
	}
}
