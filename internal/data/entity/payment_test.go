package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to PaymentStatus
		want     bool
	}{
		{PaymentStatusPending, PaymentStatusSucceeded, true},
		{PaymentStatusPending, PaymentStatusFailed, true},
		{PaymentStatusPending, PaymentStatusPending, false},
		{PaymentStatusSucceeded, PaymentStatusFailed, false},
		{PaymentStatusSucceeded, PaymentStatusPending, false},
		{PaymentStatusFailed, PaymentStatusSucceeded, false},
		{PaymentStatusFailed, PaymentStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestPayment_Transition(t *testing.T) {
	reason := "card_declined"

	p := &Payment{Status: PaymentStatusPending}
	require.NoError(t, p.Transition(PaymentStatusFailed, &reason))
	assert.Equal(t, PaymentStatusFailed, p.Status)
	require.NotNil(t, p.FailureReason)
	assert.Equal(t, reason, *p.FailureReason)

	err := p.Transition(PaymentStatusSucceeded, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, PaymentStatusFailed, p.Status)
}

func TestPaymentStatus_Terminal(t *testing.T) {
	assert.False(t, PaymentStatusPending.IsTerminal())
	assert.True(t, PaymentStatusSucceeded.IsTerminal())
	assert.True(t, PaymentStatusFailed.IsTerminal())
	assert.False(t, PaymentStatus("refunded").Valid())
}
