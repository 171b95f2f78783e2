package nanoclaw

import "time"

// PaymentEventType identifies the kind of payment event.
type PaymentEventType string

const (
	// PaymentEventAttempt fires before a signed request is sent.
	PaymentEventAttempt PaymentEventType = "attempt"

	// PaymentEventSuccess fires when a signed request is accepted.
	PaymentEventSuccess PaymentEventType = "success"

	// PaymentEventFailure fires when the payment flow gives up.
	PaymentEventFailure PaymentEventType = "failure"
)

// PaymentEvent describes a payment attempt, success or failure.
type PaymentEvent struct {
	Type      PaymentEventType
	Timestamp time.Time

	// URL is the request URL the payment was attached to.
	URL string

	// Network, Asset and Recipient describe the signing domain used.
	Network   string
	Asset     string
	Recipient string

	// Amount is the authorized cap in token base units.
	Amount string

	// Payer is the signing account address, when known.
	Payer string

	// Error is set on failure events.
	Error error

	// Duration measures from the first signed send to the event.
	Duration time.Duration
}

// PaymentCallback receives payment events from the transport.
type PaymentCallback func(event PaymentEvent)
