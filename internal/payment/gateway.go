// Package payment abstracts the payment provider behind a small Gateway
// interface.  The production implementation speaks the Bakong KHQR API;
// a stub keeps local development and tests off the network.
package payment

import (
	"context"
	"time"
)

// State is the provider-side view of a charge.
type State string

const (
	StatePending   State = "pending"
	StateConfirmed State = "confirmed"
	StateFailed    State = "failed"
)

// Charge is a payment request handed to the customer, typically rendered
// as a QR code in the client.
type Charge struct {
	Reference     string    `json:"reference"`
	QRString      string    `json:"qr_string"`
	QRImageBase64 string    `json:"qr_image_base64"`
	AmountCents   uint32    `json:"amount_cents"`
	Currency      string    `json:"currency"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// Status is the result of polling the provider for a charge.
type Status struct {
	State        State
	AmountCents  uint32
	ProviderTxID string
}

// Gateway creates charges and reports their settlement state.  CheckStatus
// must respect ctx deadlines; a timeout means "unknown", never "failed".
type Gateway interface {
	CreateCharge(ctx context.Context, bookingID uint64, amountCents uint32, currency string) (*Charge, error)
	CheckStatus(ctx context.Context, reference string) (*Status, error)
}
