package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/enzo-projet/zogames/internal/api/apierr"
	"github.com/enzo-projet/zogames/internal/api/middleware"
	"github.com/enzo-projet/zogames/internal/api/request"
	"github.com/enzo-projet/zogames/internal/api/response"
	"github.com/enzo-projet/zogames/internal/services/identity"
)

// AuthHandler handles account and credential endpoints
type AuthHandler struct {
	identity *identity.Service
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(identityService *identity.Service) *AuthHandler {
	return &AuthHandler{identity: identityService}
}

// Signup handles POST /api/v1/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req request.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Pseudo = strings.TrimSpace(req.Pseudo)
	if req.Email == "" || req.Password == "" || req.Pseudo == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("email, password and pseudo are required"))
		return
	}

	grant, err := h.identity.Signup(r.Context(), req.Email, req.Password, req.Pseudo)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.GrantFromService(grant))
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}

	grant, err := h.identity.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GrantFromService(grant))
}

// Guest handles POST /api/v1/auth/guest
func (h *AuthHandler) Guest(w http.ResponseWriter, r *http.Request) {
	var req request.GuestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}

	req.Pseudo = strings.TrimSpace(req.Pseudo)
	if req.Pseudo == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("pseudo is required"))
		return
	}

	grant, err := h.identity.CreateGuest(r.Context(), req.Pseudo)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.GrantFromService(grant))
}

// Profile handles GET /api/v1/auth/profile
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	response.JSON(w, http.StatusOK, response.ProfileFromModel(user))
}
