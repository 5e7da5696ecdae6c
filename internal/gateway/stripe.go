package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"guidehub/pkg/utils"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"
	"github.com/stripe/stripe-go/v74/webhook"
	"go.uber.org/zap"
)

const (
	eventPaymentSucceeded = "payment_intent.succeeded"
	eventPaymentFailed    = "payment_intent.payment_failed"
	eventPaymentCanceled  = "payment_intent.canceled"

	// BookingMetadataKey carries the booking id on every intent.
	BookingMetadataKey = "bookingId"
)

type stripeGateway struct {
	api           *client.API
	webhookSecret string
	timeout       time.Duration
	log           *zap.Logger
}

type Option func(*stripe.BackendConfig)

// WithBackendURL points the client at another API host.
func WithBackendURL(url string) Option {
	return func(c *stripe.BackendConfig) { c.URL = stripe.String(url) }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *stripe.BackendConfig) { c.HTTPClient = hc }
}

// NewStripeGateway builds a Stripe backed Gateway. Network retries are
// disabled so cfg.Timeout bounds every call.
func NewStripeGateway(cfg *utils.PaymentConfig, log *zap.Logger, opts ...Option) Gateway {
	log = log.With(zap.String("gateway", "stripe"))

	backendCfg := &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     log.Sugar(),
	}
	for _, opt := range opts {
		opt(backendCfg)
	}

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg)
	api := &client.API{}
	api.Init(cfg.SecretKey, &stripe.Backends{
		API:     backend,
		Connect: backend,
		Uploads: backend,
	})

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &stripeGateway{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
		timeout:       timeout,
		log:           log,
	}
}

func (g *stripeGateway) OpenChargeIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*ChargeIntent, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinor),
		Currency: stripe.String(strings.ToLower(currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		g.log.Error("Failed to open payment intent",
			zap.Error(err),
			zap.Int64("amount", amountMinor),
			zap.String("currency", currency),
		)
		return nil, fmt.Errorf("%w: open payment intent: %v", ErrGateway, err)
	}

	return toChargeIntent(pi), nil
}

func (g *stripeGateway) GetChargeIntent(ctx context.Context, intentID string) (*ChargeIntent, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.Get(intentID, params)
	if err != nil {
		g.log.Error("Failed to fetch payment intent", zap.Error(err), zap.String("intent_id", intentID))
		return nil, fmt.Errorf("%w: get payment intent %s: %v", ErrGateway, intentID, err)
	}

	return toChargeIntent(pi), nil
}

func (g *stripeGateway) CancelChargeIntent(ctx context.Context, intentID string) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx

	if _, err := g.api.PaymentIntents.Cancel(intentID, params); err != nil {
		g.log.Warn("Failed to cancel payment intent", zap.Error(err), zap.String("intent_id", intentID))
		return fmt.Errorf("%w: cancel payment intent %s: %v", ErrGateway, intentID, err)
	}

	return nil
}

// VerifyWebhook checks the Stripe-Signature header against the raw payload
// and maps payment intent events onto an Outcome. Events rendered for
// another API version are accepted; only the payment intent fields read
// below are relied on.
func (g *stripeGateway) VerifyWebhook(payload []byte, signatureHeader string) (*Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerification, err)
	}

	out := &Event{
		ID:      event.ID,
		Type:    string(event.Type),
		Outcome: OutcomeIgnored,
	}

	switch out.Type {
	case eventPaymentSucceeded:
		out.Outcome = OutcomeSucceeded
	case eventPaymentFailed:
		out.Outcome = OutcomeFailed
	case eventPaymentCanceled:
		out.Outcome = OutcomeFailed
		out.IntentClosed = true
	default:
		return out, nil
	}

	if event.Data == nil || len(event.Data.Raw) == 0 {
		return nil, fmt.Errorf("%w: event %s has no data", ErrMalformedEvent, event.ID)
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("%w: event %s: decode payment intent: %v", ErrMalformedEvent, event.ID, err)
	}

	out.ProcessorRef = pi.ID
	out.AmountMinor = pi.Amount
	out.Currency = strings.ToLower(string(pi.Currency))
	out.BookingID = pi.Metadata[BookingMetadataKey]

	if out.Outcome == OutcomeFailed {
		out.FailureReason = failureReason(out.Type, &pi)
	}

	return out, nil
}

func failureReason(eventType string, pi *stripe.PaymentIntent) *string {
	var reason string
	switch {
	case pi.LastPaymentError != nil && pi.LastPaymentError.Msg != "":
		reason = pi.LastPaymentError.Msg
	case pi.LastPaymentError != nil && pi.LastPaymentError.Code != "":
		reason = string(pi.LastPaymentError.Code)
	case eventType == eventPaymentCanceled && pi.CancellationReason != "":
		reason = "canceled: " + string(pi.CancellationReason)
	case eventType == eventPaymentCanceled:
		reason = "canceled"
	default:
		reason = "payment failed"
	}
	return &reason
}

func toChargeIntent(pi *stripe.PaymentIntent) *ChargeIntent {
	return &ChargeIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
	}
}
