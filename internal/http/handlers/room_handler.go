package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/domain"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/http/response"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/repository"
)

// RoomHandler works straight on the repository: room and feature
// management has no business rules beyond input validation.
type RoomHandler struct {
	Rooms repository.RoomRepository
}

func NewRoomHandler(rooms repository.RoomRepository) *RoomHandler {
	return &RoomHandler{Rooms: rooms}
}

func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.Rooms.List(r.Context())
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, rooms)
}

func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	if err := in.Validate(); err != nil {
		response.WriteDomainError(w, err)
		return
	}

	room, err := h.Rooms.Create(r.Context(), &in)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, room)
}

func (h *RoomHandler) ListFeatures(w http.ResponseWriter, r *http.Request) {
	roomID, err := pathID(r, "roomId")
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	features, err := h.Rooms.ListFeatures(r.Context(), roomID)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, features)
}

func (h *RoomHandler) CreateFeature(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateFeatureRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	if err := in.Validate(); err != nil {
		response.WriteDomainError(w, err)
		return
	}

	room, err := h.Rooms.GetByID(r.Context(), in.RoomID)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}
	if room == nil {
		response.NotFound(w, "room not found")
		return
	}

	feature, err := h.Rooms.CreateFeature(r.Context(), &in)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, feature)
}
