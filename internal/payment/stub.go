package payment

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// StubGateway is an in-memory Gateway for local development and tests.
// Charges start pending; Confirm flips them so reconciliation paths can
// be exercised without a provider account.
type StubGateway struct {
	mu      sync.Mutex
	charges map[string]*Status
	ttl     time.Duration
}

func NewStubGateway(ttl time.Duration) *StubGateway {
	return &StubGateway{charges: make(map[string]*Status), ttl: ttl}
}

func (g *StubGateway) CreateCharge(_ context.Context, bookingID uint64, amountCents uint32, currency string) (*Charge, error) {
	ref := uuid.NewString()
	g.mu.Lock()
	g.charges[ref] = &Status{State: StatePending, AmountCents: amountCents}
	g.mu.Unlock()
	return &Charge{
		Reference:   ref,
		QRString:    "STUB:" + ref,
		AmountCents: amountCents,
		Currency:    currency,
		ExpiresAt:   time.Now().UTC().Add(g.ttl),
	}, nil
}

func (g *StubGateway) CheckStatus(_ context.Context, reference string) (*Status, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if st, ok := g.charges[reference]; ok {
		cp := *st
		return &cp, nil
	}
	return &Status{State: StatePending}, nil
}

// Confirm marks a charge as settled, optionally overriding the amount to
// simulate an under- or over-payment.
func (g *StubGateway) Confirm(reference string, amountCents uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	st, ok := g.charges[reference]
	if !ok {
		st = &Status{}
		g.charges[reference] = st
	}
	st.State = StateConfirmed
	if amountCents != 0 {
		st.AmountCents = amountCents
	}
	st.ProviderTxID = "stub-" + reference
}
