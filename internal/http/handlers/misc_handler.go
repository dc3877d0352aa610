package handlers

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/http/response"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/weather"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/pkg/events"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/pkg/logger"
)

// MiscHandler holds the small unauthenticated endpoints: the contact
// relay and the weather advisory.
type MiscHandler struct {
	EventBus events.Publisher
	Weather  weather.Service
}

func NewMiscHandler(eventBus events.Publisher, weatherSvc weather.Service) *MiscHandler {
	return &MiscHandler{EventBus: eventBus, Weather: weatherSvc}
}

func (h *MiscHandler) Contact(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Message = strings.TrimSpace(in.Message)
	if in.Name == "" || in.Message == "" {
		response.BadRequest(w, "name and message are required")
		return
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		response.BadRequest(w, "email is not valid")
		return
	}

	event := events.ContactMessageEvent{Name: in.Name, Email: in.Email, Message: in.Message}
	if err := h.EventBus.Publish(r.Context(), events.ContactMessage, event); err != nil {
		logger.ErrorContext(r.Context(), "Failed to relay contact message", "error", err)
		response.InternalError(w, "message could not be delivered")
		return
	}

	response.WriteJSON(w, http.StatusAccepted, map[string]string{"message": "thank you, we will get back to you"})
}

// Forecast proxies Open-Meteo for a facility's coordinates so the
// frontend never talks to the third party directly.
func (h *MiscHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(q.Get("lng"), 64)
	if errLat != nil || errLng != nil {
		response.BadRequest(w, "lat and lng are required")
		return
	}

	date := time.Now()
	if raw := q.Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.BadRequest(w, "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}

	forecast, err := h.Weather.DailyForecast(r.Context(), lat, lng, date)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, forecast)
}
