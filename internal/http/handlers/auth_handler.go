package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/domain"
	mw "github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/http/middleware"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/http/response"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/service"
)

type AuthHandler struct {
	Auth service.AuthService
}

func NewAuthHandler(auth service.AuthService) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}

	user, err := h.Auth.Register(r.Context(), &in)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}

	out, err := h.Auth.Login(r.Context(), &in)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, out)
}

// MyData handles the citizen's own-data routes: GET exports everything
// stored about them, DELETE erases it.
func (h *AuthHandler) MyData(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)

	export, err := h.Auth.Export(r.Context(), claims.Sub)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, export)
}

func (h *AuthHandler) EraseMyData(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)

	if err := h.Auth.Erase(r.Context(), claims.Sub); err != nil {
		response.WriteDomainError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{"message": "your data has been erased"})
}

func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Auth.ListUsers(r.Context(), queryInt(r, "limit", 20), queryInt(r, "offset", 0))
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, users)
}

func (h *AuthHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	var in struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}

	if err := h.Auth.UpdateRole(r.Context(), id, in.Role); err != nil {
		response.WriteDomainError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{"message": "role updated"})
}
