package handlers

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/domain"
	mw "github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/http/middleware"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/http/response"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/service"
)

type BookingHandler struct {
	Bookings service.BookingService
}

func NewBookingHandler(bookings service.BookingService) *BookingHandler {
	return &BookingHandler{Bookings: bookings}
}

func (h *BookingHandler) Request(w http.ResponseWriter, r *http.Request) {
	var in domain.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}

	claims := mw.Claims(r)
	booking, err := h.Bookings.Request(r.Context(), claims.Sub, &in)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, booking)
}

func (h *BookingHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	result, err := h.Bookings.Approve(r.Context(), id)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, result)
}

func (h *BookingHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	if err := h.Bookings.Reject(r.Context(), id); err != nil {
		response.WriteDomainError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{"message": "booking rejected"})
}

func (h *BookingHandler) Refund(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	if err := h.Bookings.Refund(r.Context(), id); err != nil {
		response.WriteDomainError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{"message": "booking refunded"})
}

func (h *BookingHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)

	bookings, err := h.Bookings.ListMine(r.Context(), claims.Sub, queryInt(r, "limit", 20), queryInt(r, "offset", 0))
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, bookings)
}

// ListPublic serves the open calendar of approved slots, no auth.
func (h *BookingHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.Bookings.ListPublic(r.Context())
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, bookings)
}

func (h *BookingHandler) DownloadInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	claims := mw.Claims(r)
	path, err := h.Bookings.InvoicePath(r.Context(), id, claims.Sub, claims.Role)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	if _, err := os.Stat(path); err != nil {
		response.NotFound(w, "invoice not found")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	http.ServeFile(w, r, path)
}
