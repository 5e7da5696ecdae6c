package entity

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
)

var ErrInvalidTransition = errors.New("invalid payment status transition")

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusSucceeded, PaymentStatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusSucceeded || s == PaymentStatusFailed
}

// CanTransitionTo allows only pending -> succeeded and pending -> failed.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	return s == PaymentStatusPending && next.IsTerminal()
}

type Payment struct {
	BaseNoDelete
	BookingID     uuid.UUID       `db:"booking_id"`
	Amount        decimal.Decimal `db:"amount"`
	Currency      string          `db:"currency"`
	Status        PaymentStatus   `db:"status"`
	ProcessorRef  string          `db:"processor_ref"`
	FailureReason *string         `db:"failure_reason"`
}

// Transition moves the payment to next or returns ErrInvalidTransition,
// leaving the payment untouched.
func (p *Payment) Transition(next PaymentStatus, failureReason *string) error {
	if !p.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, next)
	}
	p.Status = next
	if next == PaymentStatusFailed {
		p.FailureReason = failureReason
	}
	return nil
}
