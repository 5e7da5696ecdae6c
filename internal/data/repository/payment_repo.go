package repository

import (
	"context"
	"errors"
	"fmt"

	"guidehub/internal/data/entity"
	"guidehub/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type PaymentRepository interface {
	// Create returns ErrDuplicate when the booking already has a live
	// payment or the processor reference is taken.
	Create(ctx context.Context, payment *entity.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error)
	FindByProcessorRef(ctx context.Context, ref string) (*entity.Payment, error)
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.Payment, error)
	// FindActiveByBookingID returns the pending or succeeded payment of a
	// booking, if any.
	FindActiveByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error)
	// TransitionStatus moves a pending payment to a terminal status. It
	// reports false when the payment was no longer pending.
	TransitionStatus(ctx context.Context, id uuid.UUID, to entity.PaymentStatus, failureReason *string) (bool, error)
}

type paymentRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPaymentRepository(db database.PgxIface, log *zap.Logger) PaymentRepository {
	return &paymentRepository{
		db:  db,
		log: log.With(zap.String("repository", "payment")),
	}
}

const paymentColumns = `id, booking_id, amount, currency, status, processor_ref, failure_reason, created_at, updated_at`

func (r *paymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	query := `
		INSERT INTO payments (id, booking_id, amount, currency, status, processor_ref,
		                      failure_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, query,
		payment.ID,
		payment.BookingID,
		payment.Amount,
		payment.Currency,
		payment.Status,
		payment.ProcessorRef,
		payment.FailureReason,
		payment.CreatedAt,
		payment.UpdatedAt,
	)

	if isUniqueViolation(err) {
		r.log.Warn("Live payment already exists for booking",
			zap.String("booking_id", payment.BookingID.String()),
			zap.String("processor_ref", payment.ProcessorRef),
		)
		return fmt.Errorf("create payment for booking %s: %w", payment.BookingID.String(), ErrDuplicate)
	}
	if err != nil {
		r.log.Error("Failed to create payment",
			zap.Error(err),
			zap.String("booking_id", payment.BookingID.String()),
		)
		return fmt.Errorf("create payment for booking %s: %w", payment.BookingID.String(), err)
	}

	return nil
}

func (r *paymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	payment, err := r.findOne(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to find payment by ID",
			zap.Error(err),
			zap.String("payment_id", id.String()),
		)
		return nil, fmt.Errorf("find payment by ID %s: %w", id.String(), err)
	}

	return payment, nil
}

func (r *paymentRepository) FindByProcessorRef(ctx context.Context, ref string) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE processor_ref = $1`

	payment, err := r.findOne(ctx, query, ref)
	if err != nil {
		r.log.Error("Failed to find payment by processor ref",
			zap.Error(err),
			zap.String("processor_ref", ref),
		)
		return nil, fmt.Errorf("find payment by processor ref %s: %w", ref, err)
	}

	return payment, nil
}

func (r *paymentRepository) FindActiveByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE booking_id = $1 AND status IN ('pending', 'succeeded')
		ORDER BY created_at DESC
		LIMIT 1
	`

	payment, err := r.findOne(ctx, query, bookingID)
	if err != nil {
		r.log.Error("Failed to find active payment by booking ID",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find active payment by booking ID %s: %w", bookingID.String(), err)
	}

	return payment, nil
}

func (r *paymentRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE booking_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, bookingID)
	if err != nil {
		r.log.Error("Failed to find payments by booking ID",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find payments by booking ID %s: %w", bookingID.String(), err)
	}
	defer rows.Close()

	var payments []*entity.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			r.log.Error("Failed to scan payment row", zap.Error(err))
			return nil, fmt.Errorf("scan payment row: %w", err)
		}
		payments = append(payments, payment)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate payment rows: %w", err)
	}

	return payments, nil
}

func (r *paymentRepository) TransitionStatus(ctx context.Context, id uuid.UUID, to entity.PaymentStatus, failureReason *string) (bool, error) {
	if !entity.PaymentStatusPending.CanTransitionTo(to) {
		return false, fmt.Errorf("%w: pending -> %s", entity.ErrInvalidTransition, to)
	}

	query := `
		UPDATE payments
		SET status = $2, failure_reason = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`

	result, err := r.db.Exec(ctx, query, id, to, failureReason)
	if err != nil {
		r.log.Error("Failed to transition payment status",
			zap.Error(err),
			zap.String("payment_id", id.String()),
			zap.String("status", string(to)),
		)
		return false, fmt.Errorf("transition payment %s to %s: %w", id.String(), string(to), err)
	}

	return result.RowsAffected() == 1, nil
}

// findOne returns (nil, nil) when no row matches.
func (r *paymentRepository) findOne(ctx context.Context, query string, args ...any) (*entity.Payment, error) {
	payment, err := scanPayment(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return payment, err
}

func scanPayment(row pgx.Row) (*entity.Payment, error) {
	var payment entity.Payment
	err := row.Scan(
		&payment.ID,
		&payment.BookingID,
		&payment.Amount,
		&payment.Currency,
		&payment.Status,
		&payment.ProcessorRef,
		&payment.FailureReason,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}
