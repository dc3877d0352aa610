package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/domain"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/http/response"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/payments"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/service"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/pkg/logger"
)

const maxWebhookBody = 64 << 10

// WebhookHandler receives payment confirmations. Stripe callbacks are
// identified by the Stripe-Signature header, wallet callbacks by
// X-Wallet-Signature. Nothing in the payload is trusted before the
// signature checks out.
type WebhookHandler struct {
	Bookings service.BookingService
	Stripe   *payments.StripeProvider
	Wallet   *payments.WalletProvider
}

func NewWebhookHandler(bookings service.BookingService, stripe *payments.StripeProvider, wallet *payments.WalletProvider) *WebhookHandler {
	return &WebhookHandler{Bookings: bookings, Stripe: stripe, Wallet: wallet}
}

func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		response.BadRequest(w, "unreadable body")
		return
	}

	switch {
	case r.Header.Get("Stripe-Signature") != "":
		h.stripeCallback(w, r, body)
	case r.Header.Get("X-Wallet-Signature") != "":
		h.walletCallback(w, r, body)
	default:
		response.Unauthorized(w, "unsigned webhook")
	}
}

func (h *WebhookHandler) stripeCallback(w http.ResponseWriter, r *http.Request, body []byte) {
	if h.Stripe == nil {
		response.Unauthorized(w, "card payments not configured")
		return
	}

	notice, err := h.Stripe.ParseWebhook(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}
	if notice == nil {
		// Event type we don't act on. Ack it.
		response.WriteJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	if err := h.Bookings.Reconcile(r.Context(), notice, domain.MethodCard); err != nil {
		logger.ErrorContext(r.Context(), "Stripe reconciliation failed", "error", err)
		response.InternalError(w, "reconciliation failed")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type walletCallback struct {
	Reference   string `json:"reference"`
	BookingID   string `json:"booking_id"`
	AmountCents int64  `json:"amount_cents"`
	Refunded    bool   `json:"refunded"`
}

func (h *WebhookHandler) walletCallback(w http.ResponseWriter, r *http.Request, body []byte) {
	if h.Wallet == nil {
		response.Unauthorized(w, "wallet payments not configured")
		return
	}

	var in walletCallback
	if err := json.Unmarshal(body, &in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}

	sig := r.Header.Get("X-Wallet-Signature")
	if !h.Wallet.VerifyCallback(in.Reference, in.BookingID, in.AmountCents, sig) {
		response.Unauthorized(w, "webhook signature verification failed")
		return
	}

	notice := &payments.WebhookNotice{
		CorrelationID: in.BookingID,
		Reference:     in.Reference,
		AmountCents:   in.AmountCents,
		Refunded:      in.Refunded,
	}
	if err := h.Bookings.Reconcile(r.Context(), notice, domain.MethodWallet); err != nil {
		logger.ErrorContext(r.Context(), "Wallet reconciliation failed", "error", err)
		response.InternalError(w, "reconciliation failed")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
