package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vannda/cinebook/internal/clock"
	"github.com/vannda/cinebook/internal/model"
	"github.com/vannda/cinebook/internal/payment"
	"github.com/vannda/cinebook/internal/queue"
	"github.com/vannda/cinebook/internal/repository"
)

type fakeGateway struct {
	charge   *payment.Charge
	status   *payment.Status
	checkErr error
	checks   int
}

func (g *fakeGateway) CreateCharge(_ context.Context, bookingID uint64, amountCents uint32, currency string) (*payment.Charge, error) {
	if g.charge != nil {
		return g.charge, nil
	}
	return &payment.Charge{Reference: "ref-1", AmountCents: amountCents, Currency: currency}, nil
}

func (g *fakeGateway) CheckStatus(ctx context.Context, _ string) (*payment.Status, error) {
	g.checks++
	if g.checkErr != nil {
		return nil, g.checkErr
	}
	return g.status, nil
}

type capturePublisher struct {
	events []queue.BookingPaidEvent
	err    error
}

func (p *capturePublisher) PublishBookingPaid(_ context.Context, ev queue.BookingPaidEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

func newPaymentFixture(gw *fakeGateway) (*fakeStore, *PaymentService, *capturePublisher, *model.Booking) {
	store := newFakeStore()
	store.addShowtime(10, 1, 1250)
	store.addSeats(1, 101, 102)

	reservations := NewReservationService(store, clock.NewFixed(testInstant))
	b, err := reservations.CreateBooking(context.Background(), CreateBookingInput{
		UserID: 7, ShowtimeID: 10, SeatIDs: []uint64{101, 102}, PaymentMethod: model.PaymentMethodKHQR,
	})
	if err != nil {
		panic(err)
	}

	pub := &capturePublisher{}
	svc := NewPaymentService(store, gw, clock.NewFixed(testInstant), pub, 1, time.Second, "USD")
	return store, svc, pub, b
}

func TestCreateCharge(t *testing.T) {
	store, svc, _, b := newPaymentFixture(&fakeGateway{})
	ctx := context.Background()

	ch, err := svc.CreateCharge(ctx, b.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, "ref-1", ch.Reference)
	assert.Equal(t, uint32(2500), ch.AmountCents)

	stored, err := store.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PaymentReference)
	assert.Equal(t, "ref-1", *stored.PaymentReference)

	_, err = svc.CreateCharge(ctx, b.ID, 8)
	require.ErrorIs(t, err, repository.ErrForbidden)
}

func TestConfirmPayment(t *testing.T) {
	store, svc, pub, b := newPaymentFixture(&fakeGateway{})
	ctx := context.Background()

	got, err := svc.ConfirmPayment(ctx, b.ID, "tx-abc", 2500)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusPaid, got.Status)
	require.NotNil(t, got.PaidAt)
	assert.Equal(t, testInstant, *got.PaidAt)
	assert.Equal(t, []uint64{101, 102}, got.SeatIDs)

	stored, err := store.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusPaid, stored.Status)

	require.Len(t, pub.events, 1)
	assert.Equal(t, b.ID, pub.events[0].BookingID)
	assert.Equal(t, uint32(2500), pub.events[0].TotalPriceCents)
}

func TestConfirmPaymentIdempotent(t *testing.T) {
	_, svc, pub, b := newPaymentFixture(&fakeGateway{})
	ctx := context.Background()

	_, err := svc.ConfirmPayment(ctx, b.ID, "tx-abc", 2500)
	require.NoError(t, err)

	// The webhook and the poller can both deliver the same settlement;
	// the second arrival is a successful no-op and publishes nothing.
	got, err := svc.ConfirmPayment(ctx, b.ID, "tx-abc", 2500)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusPaid, got.Status)
	assert.Len(t, pub.events, 1)
}

func TestConfirmPaymentAmountTolerance(t *testing.T) {
	_, svc, _, b := newPaymentFixture(&fakeGateway{})
	ctx := context.Background()

	// One cent off is provider rounding, accepted.
	got, err := svc.ConfirmPayment(ctx, b.ID, "tx-abc", 2499)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusPaid, got.Status)
}

func TestConfirmPaymentAmountMismatch(t *testing.T) {
	store, svc, pub, b := newPaymentFixture(&fakeGateway{})
	ctx := context.Background()

	_, err := svc.ConfirmPayment(ctx, b.ID, "tx-abc", 2000)
	require.ErrorIs(t, err, ErrAmountMismatch)
	assert.Empty(t, pub.events)

	stored, err := store.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusPending, stored.Status, "mismatch must leave the booking pending")
}

func TestConfirmPaymentAfterCancellation(t *testing.T) {
	store, svc, _, b := newPaymentFixture(&fakeGateway{})
	ctx := context.Background()

	reservations := NewReservationService(store, clock.NewFixed(testInstant))
	_, err := reservations.Cancel(ctx, b.ID, 7)
	require.NoError(t, err)

	_, err = svc.ConfirmPayment(ctx, b.ID, "tx-abc", 2500)
	require.ErrorIs(t, err, ErrAlreadyCancelled)

	stored, err := store.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCancelled, stored.Status, "a cancelled booking is never revived")
}

func TestConfirmByReference(t *testing.T) {
	_, svc, _, b := newPaymentFixture(&fakeGateway{})
	ctx := context.Background()

	_, err := svc.CreateCharge(ctx, b.ID, 7)
	require.NoError(t, err)

	got, err := svc.ConfirmByReference(ctx, "ref-1", 2500)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
	assert.Equal(t, model.BookingStatusPaid, got.Status)

	_, err = svc.ConfirmByReference(ctx, "no-such-ref", 2500)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCheckAndConfirm(t *testing.T) {
	gw := &fakeGateway{status: &payment.Status{State: payment.StateConfirmed, AmountCents: 2500}}
	_, svc, _, b := newPaymentFixture(gw)
	ctx := context.Background()

	_, err := svc.CreateCharge(ctx, b.ID, 7)
	require.NoError(t, err)

	got, err := svc.CheckAndConfirm(ctx, b.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusPaid, got.Status)
}

func TestCheckAndConfirmGatewayTimeout(t *testing.T) {
	gw := &fakeGateway{checkErr: context.DeadlineExceeded}
	_, svc, _, b := newPaymentFixture(gw)
	ctx := context.Background()

	_, err := svc.CreateCharge(ctx, b.ID, 7)
	require.NoError(t, err)

	// Unknown is not failure: the booking stays pending and the caller
	// polls again.
	got, err := svc.CheckAndConfirm(ctx, b.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusPending, got.Status)
}

func TestCheckAndConfirmWithoutCharge(t *testing.T) {
	_, svc, _, b := newPaymentFixture(&fakeGateway{})

	var verr *ValidationError
	_, err := svc.CheckAndConfirm(context.Background(), b.ID, 7)
	require.ErrorAs(t, err, &verr)
}

func TestPollPending(t *testing.T) {
	gw := &fakeGateway{status: &payment.Status{State: payment.StateConfirmed, AmountCents: 2500}}
	store, svc, pub, b := newPaymentFixture(gw)
	ctx := context.Background()

	_, err := svc.CreateCharge(ctx, b.ID, 7)
	require.NoError(t, err)

	// The poller covers a lost webhook end to end.
	n, err := svc.PollPending(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, pub.events, 1)

	stored, err := store.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusPaid, stored.Status)

	// A later pass finds nothing pending.
	n, err = svc.PollPending(ctx, 100)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPollPendingGatewayErrorSkips(t *testing.T) {
	gw := &fakeGateway{checkErr: errors.New("connection refused")}
	store, svc, _, b := newPaymentFixture(gw)
	ctx := context.Background()

	_, err := svc.CreateCharge(ctx, b.ID, 7)
	require.NoError(t, err)

	n, err := svc.PollPending(ctx, 100)
	require.NoError(t, err)
	assert.Zero(t, n)

	stored, err := store.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusPending, stored.Status)
}
