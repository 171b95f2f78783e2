package encoding

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/daydreamsai/nanoclaw"
)

func samplePayload() nanoclaw.PaymentPayload {
	return nanoclaw.PaymentPayload{
		X402Version: nanoclaw.X402Version,
		Accepted: nanoclaw.AcceptedRequirement{
			Scheme:  nanoclaw.UptoScheme,
			Network: "eip155:8453",
			Asset:   "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
			PayTo:   "0x1234567890123456789012345678901234565678",
			Extra:   nanoclaw.DomainExtra{Name: "USD Coin", Version: "2"},
		},
		Payload: nanoclaw.PermitPayload{
			Authorization: nanoclaw.PermitAuthorization{
				From:        "0x9999999999999999999999999999999999999999",
				To:          "0x1234567890123456789012345678901234565678",
				Value:       "1000000",
				ValidBefore: "1767225600",
				Nonce:       "1",
			},
			Signature: "0xsig",
		},
	}
}

func TestPaymentRoundTrip(t *testing.T) {
	payload := samplePayload()

	encoded, err := EncodePayment(payload)
	if err != nil {
		t.Fatalf("EncodePayment failed: %v", err)
	}

	decoded, err := DecodePayment(encoded)
	if err != nil {
		t.Fatalf("DecodePayment failed: %v", err)
	}

	if decoded != payload {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", decoded, payload)
	}
}

func TestEncodePaymentKeepsDecimalStrings(t *testing.T) {
	encoded, err := EncodePayment(samplePayload())
	if err != nil {
		t.Fatalf("EncodePayment failed: %v", err)
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("header is not valid base64: %v", err)
	}

	// Authorization fields must stay strings so the full uint256 range
	// survives JSON.
	var parsed map[string]interface{}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		t.Fatalf("decoded header is not valid JSON: %v", err)
	}
	payload := parsed["payload"].(map[string]interface{})
	auth := payload["authorization"].(map[string]interface{})
	if _, ok := auth["value"].(string); !ok {
		t.Errorf("value serialized as %T, want string", auth["value"])
	}
	if _, ok := auth["validBefore"].(string); !ok {
		t.Errorf("validBefore serialized as %T, want string", auth["validBefore"])
	}

	if !strings.Contains(string(raw), `"x402Version":2`) {
		t.Errorf("payload missing protocol version: %s", raw)
	}
}

func TestDecodePaymentErrors(t *testing.T) {
	if _, err := DecodePayment("not base64!!!"); err == nil {
		t.Error("expected error for invalid base64")
	}

	encoded := base64.StdEncoding.EncodeToString([]byte("not json"))
	if _, err := DecodePayment(encoded); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestChallengeRoundTrip(t *testing.T) {
	challenge := nanoclaw.PaymentRequiredHeader{
		X402Version: nanoclaw.X402Version,
		Error:       "payment required",
		Accepts: []nanoclaw.PaymentRequirement{
			{
				Scheme:  nanoclaw.UptoScheme,
				Network: "eip155:8453",
				Asset:   "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
				PayTo:   "0x1234567890123456789012345678901234565678",
				Extra: map[string]interface{}{
					"name":              "USD Coin",
					"version":           "2",
					"maxAmountRequired": "500000",
				},
			},
		},
	}

	encoded, err := EncodeChallenge(challenge)
	if err != nil {
		t.Fatalf("EncodeChallenge failed: %v", err)
	}

	decoded, err := DecodeChallenge(encoded)
	if err != nil {
		t.Fatalf("DecodeChallenge failed: %v", err)
	}

	first := decoded.First()
	if first == nil {
		t.Fatal("expected a requirement")
	}
	if first.MaxAmount() != "500000" {
		t.Errorf("MaxAmount() = %q, want 500000", first.MaxAmount())
	}
	if first.Recipient() != "0x1234567890123456789012345678901234565678" {
		t.Errorf("Recipient() = %q", first.Recipient())
	}
}

func TestDecodeChallengeErrors(t *testing.T) {
	if _, err := DecodeChallenge("!!!"); err == nil {
		t.Error("expected error for invalid base64")
	}

	encoded := base64.StdEncoding.EncodeToString([]byte("[not a challenge]"))
	if _, err := DecodeChallenge(encoded); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
