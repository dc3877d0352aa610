package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/http/response"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/repository"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/service"
)

type AdminHandler struct {
	Bookings  service.BookingService
	Analytics service.AnalyticsService
	Audit     repository.AuditRepository
}

func NewAdminHandler(bookings service.BookingService, analytics service.AnalyticsService, audit repository.AuditRepository) *AdminHandler {
	return &AdminHandler{Bookings: bookings, Analytics: analytics, Audit: audit}
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Bookings.Dashboard(r.Context(), queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, entries)
}

func (h *AdminHandler) Logs(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Audit.List(r.Context(), queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, entries)
}

func (h *AdminHandler) AnalyticsReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from, err := time.Parse("2006-01-02", q.Get("startDate"))
	if err != nil {
		response.BadRequest(w, "startDate must be YYYY-MM-DD")
		return
	}
	to, err := time.Parse("2006-01-02", q.Get("endDate"))
	if err != nil {
		response.BadRequest(w, "endDate must be YYYY-MM-DD")
		return
	}

	var roomID int64
	if raw := q.Get("roomId"); raw != "" {
		roomID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.BadRequest(w, "roomId must be numeric")
			return
		}
	}

	report, err := h.Analytics.Report(r.Context(), from, to.AddDate(0, 0, 1), roomID)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, report)
}
