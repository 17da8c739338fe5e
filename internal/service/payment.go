package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/vannda/cinebook/internal/clock"
	"github.com/vannda/cinebook/internal/model"
	"github.com/vannda/cinebook/internal/payment"
	"github.com/vannda/cinebook/internal/queue"
	"github.com/vannda/cinebook/internal/repository"
)

// EventPublisher emits domain events after state transitions commit.
type EventPublisher interface {
	PublishBookingPaid(ctx context.Context, ev queue.BookingPaidEvent) error
}

// PaymentService creates charges and converges booking state with the
// provider. ConfirmPayment is the single settlement path: the gateway
// webhook, the customer-facing status poll, and the background poller all
// funnel through it, so arriving twice (or racing each other) is safe.
type PaymentService struct {
	store     Store
	gateway   payment.Gateway
	clock     clock.Clock
	publisher EventPublisher

	// toleranceCents is the permitted gap between the booking total and
	// the observed settlement amount, absorbing provider rounding.
	toleranceCents uint32
	// checkTimeout bounds each gateway status call. A timeout means the
	// settlement state is unknown, never that the payment failed.
	checkTimeout time.Duration
	currency     string
}

func NewPaymentService(store Store, gw payment.Gateway, clk clock.Clock, pub EventPublisher, toleranceCents uint32, checkTimeout time.Duration, currency string) *PaymentService {
	return &PaymentService{
		store:          store,
		gateway:        gw,
		clock:          clk,
		publisher:      pub,
		toleranceCents: toleranceCents,
		checkTimeout:   checkTimeout,
		currency:       currency,
	}
}

// CreateCharge asks the gateway for a payable charge covering the booking
// total and records the charge reference on the booking so settlement can
// be matched back later.
func (s *PaymentService) CreateCharge(ctx context.Context, bookingID, userID uint64) (*payment.Charge, error) {
	b, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, repository.ErrForbidden
	}
	switch b.Status {
	case model.BookingStatusPaid:
		return nil, model.ErrAlreadyFinalized
	case model.BookingStatusCancelled:
		return nil, ErrAlreadyCancelled
	}

	ch, err := s.gateway.CreateCharge(ctx, b.ID, b.TotalPriceCents, s.currency)
	if err != nil {
		return nil, err
	}

	method := model.PaymentMethodKHQR
	if b.PaymentMethod != nil {
		method = *b.PaymentMethod
	}
	if err := s.store.SetBookingPaymentRef(ctx, b.ID, method, ch.Reference); err != nil {
		return nil, err
	}
	return ch, nil
}

// ConfirmPayment settles a booking. It is idempotent: confirming an
// already-paid booking returns it unchanged, so the webhook and the
// poller can both observe the same settlement without double-applying.
// A cancelled booking is never revived (ErrAlreadyCancelled), and an
// amount outside the tolerance leaves the booking pending
// (ErrAmountMismatch).
func (s *PaymentService) ConfirmPayment(ctx context.Context, bookingID uint64, providerRef string, observedCents uint32) (*model.Booking, error) {
	var out *model.Booking
	transitioned := false
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		b, err := s.store.BookingForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.Status == model.BookingStatusPaid {
			out = b
			return nil
		}
		if b.Status == model.BookingStatusCancelled {
			return ErrAlreadyCancelled
		}
		if centsDiff(observedCents, b.TotalPriceCents) > s.toleranceCents {
			return ErrAmountMismatch
		}
		if err := b.MarkPaid(providerRef, s.clock.Now()); err != nil {
			return err
		}
		if err := s.store.FinalizeBooking(ctx, b); err != nil {
			return err
		}
		b.SeatIDs, err = s.store.BookingSeatIDs(ctx, b.ID)
		if err != nil {
			return err
		}
		out = b
		transitioned = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if transitioned && s.publisher != nil {
		s.publishPaid(ctx, out)
	}
	return out, nil
}

// ConfirmByReference resolves webhook payloads that carry only the charge
// reference.
func (s *PaymentService) ConfirmByReference(ctx context.Context, providerRef string, observedCents uint32) (*model.Booking, error) {
	b, err := s.store.BookingByPaymentRef(ctx, providerRef)
	if err != nil {
		return nil, err
	}
	return s.ConfirmPayment(ctx, b.ID, providerRef, observedCents)
}

// CheckAndConfirm is the customer polling path: it asks the gateway for
// the charge state and settles the booking if the money arrived. Gateway
// errors and timeouts leave the booking pending; the client simply polls
// again.
func (s *PaymentService) CheckAndConfirm(ctx context.Context, bookingID, userID uint64) (*model.Booking, error) {
	b, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, repository.ErrForbidden
	}
	if b.Terminal() {
		return b, nil
	}
	if b.PaymentReference == nil {
		return nil, &ValidationError{Msg: "no charge requested for this booking"}
	}

	cctx, cancel := context.WithTimeout(ctx, s.checkTimeout)
	defer cancel()
	st, err := s.gateway.CheckStatus(cctx, *b.PaymentReference)
	if err != nil {
		log.Printf("payment: status check for booking %d failed: %v", b.ID, err)
		return b, nil
	}
	if st.State != payment.StateConfirmed {
		return b, nil
	}
	return s.ConfirmPayment(ctx, b.ID, *b.PaymentReference, st.AmountCents)
}

// PollPending drives background reconciliation: it walks pending bookings
// that have a charge reference and settles those the provider reports as
// confirmed. Missed webhooks converge here. Returns how many bookings
// were settled this pass.
func (s *PaymentService) PollPending(ctx context.Context, limit int) (int, error) {
	pending, err := s.store.PendingWithReference(ctx, limit)
	if err != nil {
		return 0, err
	}

	confirmed := 0
	for i := range pending {
		b := &pending[i]
		cctx, cancel := context.WithTimeout(ctx, s.checkTimeout)
		st, err := s.gateway.CheckStatus(cctx, *b.PaymentReference)
		cancel()
		if err != nil {
			// Unknown state; the next pass retries.
			log.Printf("payment: poll status for booking %d failed: %v", b.ID, err)
			continue
		}
		if st.State != payment.StateConfirmed {
			continue
		}
		if _, err := s.ConfirmPayment(ctx, b.ID, *b.PaymentReference, st.AmountCents); err != nil {
			switch {
			case errors.Is(err, ErrAmountMismatch):
				log.Printf("payment: ALERT amount mismatch on booking %d: expected %d, provider reports %d", b.ID, b.TotalPriceCents, st.AmountCents)
			case errors.Is(err, ErrAlreadyCancelled):
				log.Printf("payment: ALERT settlement arrived for cancelled booking %d, ref %s", b.ID, *b.PaymentReference)
			default:
				log.Printf("payment: confirm booking %d failed: %v", b.ID, err)
			}
			continue
		}
		confirmed++
	}
	return confirmed, nil
}

func (s *PaymentService) publishPaid(ctx context.Context, b *model.Booking) {
	ev := queue.BookingPaidEvent{
		BookingID:       b.ID,
		UserID:          b.UserID,
		ShowtimeID:      b.ShowtimeID,
		SeatIDs:         b.SeatIDs,
		TotalPriceCents: b.TotalPriceCents,
	}
	if b.PaymentMethod != nil {
		ev.PaymentMethod = *b.PaymentMethod
	}
	if b.PaymentReference != nil {
		ev.PaymentReference = *b.PaymentReference
	}
	if b.PaidAt != nil {
		ev.PaidAt = b.PaidAt.UTC().Format("2006-01-02 15:04:05")
	}
	if err := s.publisher.PublishBookingPaid(ctx, ev); err != nil {
		log.Printf("payment: publish booking.paid for %d failed: %v", b.ID, err)
	}
}

func centsDiff(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}
