package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"guidehub/internal/data/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newPaymentRepo(t *testing.T) (PaymentRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPaymentRepository(mock, zap.NewNop()), mock
}

func TestPaymentRepository_TransitionStatus(t *testing.T) {
	repo, mock := newPaymentRepo(t)
	id := uuid.New()

	mock.ExpectExec(`UPDATE payments`).
		WithArgs(id, entity.PaymentStatusSucceeded, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ok, err := repo.TransitionStatus(context.Background(), id, entity.PaymentStatusSucceeded, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_TransitionStatus_AlreadyTerminal(t *testing.T) {
	repo, mock := newPaymentRepo(t)
	id := uuid.New()

	mock.ExpectExec(`WHERE id = \$1 AND status = 'pending'`).
		WithArgs(id, entity.PaymentStatusFailed, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	reason := "card_declined"
	ok, err := repo.TransitionStatus(context.Background(), id, entity.PaymentStatusFailed, &reason)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_TransitionStatus_RejectsNonTerminalTarget(t *testing.T) {
	repo, mock := newPaymentRepo(t)

	_, err := repo.TransitionStatus(context.Background(), uuid.New(), entity.PaymentStatusPending, nil)
	assert.ErrorIs(t, err, entity.ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_Create_Duplicate(t *testing.T) {
	repo, mock := newPaymentRepo(t)
	now := time.Now()
	payment := &entity.Payment{
		BaseNoDelete: entity.BaseNoDelete{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		BookingID:    uuid.New(),
		Amount:       decimal.RequireFromString("300.00"),
		Currency:     "usd",
		Status:       entity.PaymentStatusPending,
		ProcessorRef: "pi_123",
	}

	mock.ExpectExec(`INSERT INTO payments`).
		WithArgs(payment.ID, payment.BookingID, pgxmock.AnyArg(), "usd", entity.PaymentStatusPending,
			"pi_123", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "ux_payments_booking_active"})

	err := repo.Create(context.Background(), payment)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_Create_OtherError(t *testing.T) {
	repo, mock := newPaymentRepo(t)
	payment := &entity.Payment{BaseNoDelete: entity.BaseNoDelete{ID: uuid.New()}, BookingID: uuid.New()}

	mock.ExpectExec(`INSERT INTO payments`).
		WillReturnError(errors.New("connection reset"))

	err := repo.Create(context.Background(), payment)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrDuplicate))
}

func TestPaymentRepository_FindByProcessorRef_NotFound(t *testing.T) {
	repo, mock := newPaymentRepo(t)

	mock.ExpectQuery(`FROM payments WHERE processor_ref = \$1`).
		WithArgs("pi_missing").
		WillReturnError(pgx.ErrNoRows)

	payment, err := repo.FindByProcessorRef(context.Background(), "pi_missing")
	require.NoError(t, err)
	assert.Nil(t, payment)
	assert.NoError(t, mock.ExpectationsWereMet())
}
