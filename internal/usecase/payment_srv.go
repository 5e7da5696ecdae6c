package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"guidehub/internal/data/entity"
	"guidehub/internal/data/repository"
	"guidehub/internal/dto/request"
	"guidehub/internal/dto/response"
	"guidehub/internal/gateway"
	"guidehub/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PaymentService interface {
	// RequestPayment opens a charge intent for a booking and records it as
	// a pending payment. A booking has at most one live payment: a pending
	// one is resumed and a succeeded one is a conflict.
	RequestPayment(ctx context.Context, userID uuid.UUID, req *request.CreatePaymentIntentRequest) (*response.PaymentIntentResponse, error)
	// ApplyWebhookEvent verifies a processor notification and applies its
	// outcome to the matching pending payment exactly once.
	ApplyWebhookEvent(ctx context.Context, payload []byte, signature string) error
}

type paymentService struct {
	repo     *repository.Repository
	gateway  gateway.Gateway
	currency string
	log      *zap.Logger
	now      func() time.Time
}

func NewPaymentService(repo *repository.Repository, gw gateway.Gateway, cfg *utils.PaymentConfig, log *zap.Logger) PaymentService {
	currency := strings.ToLower(cfg.Currency)
	if currency == "" {
		currency = "usd"
	}

	return &paymentService{
		repo:     repo,
		gateway:  gw,
		currency: currency,
		log:      log.With(zap.String("service", "payment")),
		now:      time.Now,
	}
}

func (s *paymentService) RequestPayment(ctx context.Context, userID uuid.UUID, req *request.CreatePaymentIntentRequest) (*response.PaymentIntentResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}

	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid booking ID %s", ErrInvalidInput, req.BookingID)
	}

	booking, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("load booking: %w", err)
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %s: %w", bookingID.String(), ErrNotFound)
	}
	if booking.UserID != userID {
		s.log.Warn("Payment requested for foreign booking",
			zap.String("booking_id", bookingID.String()),
			zap.String("user_id", userID.String()))
		return nil, fmt.Errorf("booking %s: %w", bookingID.String(), ErrForbidden)
	}

	active, err := s.repo.Payment.FindActiveByBookingID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("load active payment: %w", err)
	}
	if active != nil {
		return s.resume(ctx, active)
	}

	amountMinor := ToMinorUnits(booking.TotalPrice)
	if amountMinor <= 0 {
		return nil, fmt.Errorf("%w: booking %s has nothing to charge", ErrInvalidInput, bookingID.String())
	}

	intent, err := s.gateway.OpenChargeIntent(ctx, amountMinor, s.currency, map[string]string{
		gateway.BookingMetadataKey: bookingID.String(),
	})
	if err != nil {
		s.log.Error("Failed to open charge intent",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
			zap.Int64("amount_minor", amountMinor))
		return nil, fmt.Errorf("%w: %w", ErrGateway, err)
	}

	// Written only after the intent exists, so a gateway failure leaves
	// nothing behind and the call can be retried.
	now := s.now().UTC()
	payment := &entity.Payment{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		BookingID:    bookingID,
		Amount:       booking.TotalPrice,
		Currency:     s.currency,
		Status:       entity.PaymentStatusPending,
		ProcessorRef: intent.ID,
	}

	if err := s.repo.Payment.Create(ctx, payment); err != nil {
		s.cancelOrphan(ctx, intent.ID)

		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("save payment: %w", err)
		}

		// A concurrent request for the same booking won the insert.
		winner, findErr := s.repo.Payment.FindActiveByBookingID(ctx, bookingID)
		if findErr != nil {
			return nil, fmt.Errorf("load active payment: %w", findErr)
		}
		if winner == nil {
			return nil, fmt.Errorf("booking %s: %w", bookingID.String(), ErrConflict)
		}
		return s.resume(ctx, winner)
	}

	s.log.Info("Payment intent opened",
		zap.String("payment_id", payment.ID.String()),
		zap.String("booking_id", bookingID.String()),
		zap.String("processor_ref", intent.ID),
		zap.Int64("amount_minor", amountMinor))

	return &response.PaymentIntentResponse{ClientSecret: intent.ClientSecret}, nil
}

// resume hands back the client secret of a booking's live payment.
func (s *paymentService) resume(ctx context.Context, payment *entity.Payment) (*response.PaymentIntentResponse, error) {
	if payment.Status == entity.PaymentStatusSucceeded {
		return nil, fmt.Errorf("booking %s already paid: %w", payment.BookingID.String(), ErrConflict)
	}

	intent, err := s.gateway.GetChargeIntent(ctx, payment.ProcessorRef)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGateway, err)
	}

	s.log.Info("Resuming pending payment",
		zap.String("payment_id", payment.ID.String()),
		zap.String("processor_ref", payment.ProcessorRef))

	return &response.PaymentIntentResponse{ClientSecret: intent.ClientSecret}, nil
}

func (s *paymentService) cancelOrphan(ctx context.Context, intentID string) {
	if err := s.gateway.CancelChargeIntent(context.WithoutCancel(ctx), intentID); err != nil {
		s.log.Warn("Failed to cancel orphaned charge intent",
			zap.Error(err),
			zap.String("processor_ref", intentID))
	}
}

func (s *paymentService) ApplyWebhookEvent(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.VerifyWebhook(payload, signature)
	if errors.Is(err, gateway.ErrMalformedEvent) {
		// Signed by the processor, so redelivery would fail the same way.
		s.log.Error("Dropping undecodable webhook event", zap.Error(err))
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrVerification, err)
	}

	log := s.log.With(
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type),
		zap.String("processor_ref", event.ProcessorRef))

	if event.Outcome == gateway.OutcomeIgnored {
		log.Debug("Ignoring webhook event")
		return nil
	}

	payment, err := s.repo.Payment.FindByProcessorRef(ctx, event.ProcessorRef)
	if err != nil {
		return fmt.Errorf("resolve payment: %w", err)
	}
	if payment == nil {
		log.Warn("Webhook for unknown payment, discarding")
		return nil
	}

	log = log.With(zap.String("payment_id", payment.ID.String()))

	if payment.Status.IsTerminal() {
		if payment.Status == entity.PaymentStatusFailed && event.Outcome == gateway.OutcomeSucceeded {
			log.Error("Charge captured on a failed payment, refund required",
				zap.Int64("amount_minor", event.AmountMinor),
				zap.String("booking_id", payment.BookingID.String()))
			return nil
		}
		log.Info("Duplicate webhook delivery, payment already final",
			zap.String("status", string(payment.Status)))
		return nil
	}

	if mismatch := s.mismatch(event, payment); mismatch != "" {
		log.Error("Webhook does not match payment, leaving it pending",
			zap.String("mismatch", mismatch),
			zap.Int64("event_amount_minor", event.AmountMinor),
			zap.String("event_currency", event.Currency))
		return nil
	}

	target := entity.PaymentStatusSucceeded
	if event.Outcome == gateway.OutcomeFailed {
		target = entity.PaymentStatusFailed
	}

	if err := payment.Transition(target, event.FailureReason); err != nil {
		log.Error("Rejected payment transition", zap.Error(err))
		return nil
	}

	// A declined attempt leaves the intent confirmable, so it is closed
	// before the payment can be marked failed and a new intent opened.
	if target == entity.PaymentStatusFailed && !event.IntentClosed {
		if err := s.closeIntent(ctx, payment.ProcessorRef); err != nil {
			log.Error("Failed to close intent of failed payment", zap.Error(err))
			return fmt.Errorf("%w: %w", ErrGateway, err)
		}
	}

	applied, err := s.repo.Payment.TransitionStatus(ctx, payment.ID, target, payment.FailureReason)
	if err != nil {
		return fmt.Errorf("apply webhook outcome: %w", err)
	}
	if !applied {
		log.Info("Concurrent delivery already settled payment")
		return nil
	}

	log.Info("Payment settled", zap.String("status", string(target)))
	return nil
}

// closeIntent cancels an intent at the processor. An intent that is already
// canceled counts as closed.
func (s *paymentService) closeIntent(ctx context.Context, intentID string) error {
	ctx = context.WithoutCancel(ctx)

	cancelErr := s.gateway.CancelChargeIntent(ctx, intentID)
	if cancelErr == nil {
		return nil
	}

	intent, err := s.gateway.GetChargeIntent(ctx, intentID)
	if err != nil {
		return errors.Join(cancelErr, err)
	}
	if intent.Status == gateway.IntentCanceled {
		return nil
	}
	return fmt.Errorf("intent %s is %s: %w", intentID, intent.Status, cancelErr)
}

// mismatch names the first field where the event disagrees with the stored
// payment, or returns "".
func (s *paymentService) mismatch(event *gateway.Event, payment *entity.Payment) string {
	switch {
	case event.AmountMinor != ToMinorUnits(payment.Amount):
		return "amount"
	case !strings.EqualFold(event.Currency, payment.Currency):
		return "currency"
	case event.BookingID != "" && event.BookingID != payment.BookingID.String():
		return "booking"
	}
	return ""
}
