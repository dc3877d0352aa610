package payments

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/refund"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/domain"
)

// StripeProvider handles card payments via Stripe PaymentIntents.
type StripeProvider struct {
	webhookSecret string
	currency      string
}

func NewStripeProvider(secretKey, webhookSecret, currency string) *StripeProvider {
	stripe.Key = secretKey
	return &StripeProvider{webhookSecret: webhookSecret, currency: currency}
}

func (p *StripeProvider) CreateIntent(ctx context.Context, amountCents int64, description, correlationID string) (*Handle, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(p.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Description: stripe.String(description),
		Metadata:    map[string]string{"booking_id": correlationID},
	}
	params.Context = ctx

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, domain.ExternalError("card payment could not be set up", err)
	}

	return &Handle{
		Method:       domain.MethodCard,
		Reference:    pi.ID,
		ClientSecret: pi.ClientSecret,
	}, nil
}

func (p *StripeProvider) Refund(ctx context.Context, reference string, amountCents int64) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(reference),
		Amount:        stripe.Int64(amountCents),
	}
	params.Context = ctx

	if _, err := refund.New(params); err != nil {
		return domain.ExternalError("card refund failed", err)
	}
	return nil
}

// WebhookNotice is the provider-independent result of parsing an
// incoming payment callback.
type WebhookNotice struct {
	CorrelationID string
	Reference     string
	AmountCents   int64
	Refunded      bool
}

// ParseWebhook verifies the Stripe-Signature header against the raw
// body and extracts the booking correlation for the events we act on.
// Events we do not care about return (nil, nil).
func (p *StripeProvider) ParseWebhook(payload []byte, signature string) (*WebhookNotice, error) {
	event, err := webhook.ConstructEvent(payload, signature, p.webhookSecret)
	if err != nil {
		return nil, domain.AuthError("webhook signature verification failed")
	}

	switch event.Type {
	case "payment_intent.succeeded":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("decode payment_intent: %w", err)
		}
		return &WebhookNotice{
			CorrelationID: pi.Metadata["booking_id"],
			Reference:     pi.ID,
			AmountCents:   pi.Amount,
		}, nil
	case "charge.refunded":
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			return nil, fmt.Errorf("decode charge: %w", err)
		}
		notice := &WebhookNotice{
			CorrelationID: ch.Metadata["booking_id"],
			AmountCents:   ch.AmountRefunded,
			Refunded:      true,
		}
		if ch.PaymentIntent != nil {
			notice.Reference = ch.PaymentIntent.ID
		}
		return notice, nil
	default:
		return nil, nil
	}
}
