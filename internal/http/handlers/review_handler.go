package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/domain"
	mw "github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/http/middleware"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/http/response"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/service"
)

type ReviewHandler struct {
	Reviews service.ReviewService
}

func NewReviewHandler(reviews service.ReviewService) *ReviewHandler {
	return &ReviewHandler{Reviews: reviews}
}

func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}

	claims := mw.Claims(r)
	review, err := h.Reviews.Create(r.Context(), claims.Sub, &in)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, review)
}

func (h *ReviewHandler) ListByRoom(w http.ResponseWriter, r *http.Request) {
	roomID, err := pathID(r, "roomId")
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	reviews, err := h.Reviews.ListByRoom(r.Context(), roomID)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, reviews)
}

func (h *ReviewHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)

	recs, err := h.Reviews.Recommend(r.Context(), claims.Sub)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, recs)
}
