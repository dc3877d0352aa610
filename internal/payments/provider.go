package payments

import (
	"context"

	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/domain"
)

// Handle is what a provider gives back for a new payment: the
// provider-side reference used later for reconciliation and refunds,
// plus whatever the citizen needs to complete the payment.
type Handle struct {
	Method       domain.PaymentMethod `json:"method"`
	Reference    string               `json:"reference"`
	URL          string               `json:"url,omitempty"`
	ClientSecret string               `json:"client_secret,omitempty"`
}

// Provider abstracts one payment rail. CreateIntent must be safe to
// call again for the same booking; a re-approval simply issues fresh
// payment handles.
type Provider interface {
	// CreateIntent registers a pending payment of amountCents with the
	// provider. correlationID is the booking id as a string and travels
	// with the payment so the webhook can find its booking again.
	CreateIntent(ctx context.Context, amountCents int64, description, correlationID string) (*Handle, error)

	// Refund returns the given amount for a previously completed
	// payment identified by its provider reference.
	Refund(ctx context.Context, reference string, amountCents int64) error
}
