// Package gateway isolates the payment processor behind a small interface.
package gateway

import (
	"context"
	"errors"
)

var (
	// ErrGateway wraps every failed or timed out call to the processor.
	ErrGateway = errors.New("payment gateway error")
	// ErrVerification is returned when a webhook signature does not check out.
	ErrVerification = errors.New("webhook verification failed")
	// ErrMalformedEvent is returned for a correctly signed event whose data
	// cannot be decoded. Redelivery will not fix it.
	ErrMalformedEvent = errors.New("malformed webhook event")
)

// IntentCanceled is the processor status of a closed charge intent.
const IntentCanceled = "canceled"

type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeIgnored   Outcome = "ignored"
)

// ChargeIntent is a processor-side payment attempt. ClientSecret is handed
// to the browser so it can confirm the charge directly with the processor.
type ChargeIntent struct {
	ID           string
	ClientSecret string
	Status       string
}

// Event is a verified webhook notification reduced to what reconciliation
// needs.
type Event struct {
	ID            string
	Type          string
	ProcessorRef  string
	Outcome       Outcome
	AmountMinor   int64
	Currency      string
	BookingID     string
	FailureReason *string
	// IntentClosed is set when the processor has already closed the intent.
	// A failed attempt on an open intent can still be retried and captured.
	IntentClosed bool
}

type Gateway interface {
	OpenChargeIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*ChargeIntent, error)
	GetChargeIntent(ctx context.Context, intentID string) (*ChargeIntent, error)
	CancelChargeIntent(ctx context.Context, intentID string) error
	VerifyWebhook(payload []byte, signatureHeader string) (*Event, error)
}
