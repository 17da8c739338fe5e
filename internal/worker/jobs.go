package worker

import (
	"context"
	"log"
	"time"

	"github.com/vannda/cinebook/internal/service"
)

// NewLockSweeper deletes expired seat-lock rows. Hygiene only: reads
// already ignore stale rows, the sweep just keeps the table small.
func NewLockSweeper(locks *service.SeatLockService, interval time.Duration) *Runner {
	return NewRunner("lock-sweeper", interval, func(ctx context.Context) {
		n, err := locks.SweepExpired(ctx)
		if err != nil {
			log.Printf("lock-sweeper: sweep failed: %v", err)
			return
		}
		if n > 0 {
			log.Printf("lock-sweeper: removed %d expired locks", n)
		}
	})
}

// NewBookingExpirer cancels pending bookings older than timeout so their
// seats return to the pool when a customer abandons checkout.
func NewBookingExpirer(reservations *service.ReservationService, timeout, interval time.Duration) *Runner {
	return NewRunner("booking-expirer", interval, func(ctx context.Context) {
		n, err := reservations.ExpirePending(ctx, timeout)
		if err != nil {
			log.Printf("booking-expirer: expire failed: %v", err)
			return
		}
		if n > 0 {
			log.Printf("booking-expirer: cancelled %d stale pending bookings", n)
		}
	})
}

// NewPaymentPoller reconciles charged-but-unconfirmed bookings against
// the provider, covering webhooks that were lost or delayed.
func NewPaymentPoller(payments *service.PaymentService, batch int, interval time.Duration) *Runner {
	return NewRunner("payment-poller", interval, func(ctx context.Context) {
		n, err := payments.PollPending(ctx, batch)
		if err != nil {
			log.Printf("payment-poller: poll failed: %v", err)
			return
		}
		if n > 0 {
			log.Printf("payment-poller: settled %d bookings", n)
		}
	})
}
