package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkPaid(t *testing.T) {
	b := &Booking{Status: BookingStatusPending}
	paidAt := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)

	require.NoError(t, b.MarkPaid("tx-123", paidAt))
	assert.Equal(t, BookingStatusPaid, b.Status)
	require.NotNil(t, b.PaymentReference)
	assert.Equal(t, "tx-123", *b.PaymentReference)
	require.NotNil(t, b.PaidAt)
	assert.Equal(t, paidAt, *b.PaidAt)
	assert.True(t, b.Terminal())
}

func TestMarkPaidTerminalIsRejected(t *testing.T) {
	paidAt := time.Now().UTC()

	b := &Booking{Status: BookingStatusPaid}
	require.ErrorIs(t, b.MarkPaid("tx-123", paidAt), ErrAlreadyFinalized)

	b = &Booking{Status: BookingStatusCancelled}
	require.ErrorIs(t, b.MarkPaid("tx-123", paidAt), ErrAlreadyFinalized)
	assert.Equal(t, BookingStatusCancelled, b.Status, "rejected transition must not mutate")
	assert.Nil(t, b.PaymentReference)
}

func TestCancel(t *testing.T) {
	b := &Booking{Status: BookingStatusPending}
	require.NoError(t, b.Cancel())
	assert.Equal(t, BookingStatusCancelled, b.Status)
	assert.True(t, b.Terminal())

	require.ErrorIs(t, b.Cancel(), ErrAlreadyFinalized)

	paid := &Booking{Status: BookingStatusPaid}
	require.ErrorIs(t, paid.Cancel(), ErrAlreadyFinalized)
	assert.Equal(t, BookingStatusPaid, paid.Status)
}

func TestValidPaymentMethod(t *testing.T) {
	assert.True(t, ValidPaymentMethod(PaymentMethodKHQR))
	assert.True(t, ValidPaymentMethod(PaymentMethodABA))
	assert.False(t, ValidPaymentMethod(""))
	assert.False(t, ValidPaymentMethod("cash"))
	assert.False(t, ValidPaymentMethod("KHQR"))
}
