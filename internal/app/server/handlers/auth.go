package handlers

import (
	"encoding/json"
	"net/http"

	"ghostsignal/internal/core/domain"
	"ghostsignal/internal/core/services"
	"ghostsignal/pkg/middleware"
)

type AuthHandler struct {
	identity *services.IdentityService
	tokenSvc *services.TokenService
}

func NewAuthHandler(identity *services.IdentityService, tokenSvc *services.TokenService) *AuthHandler {
	return &AuthHandler{identity: identity, tokenSvc: tokenSvc}
}

type credentialRequest struct {
	Nickname string `json:"nickname"`
	Secret   string `json:"secret"`
}

// Register binds a new codename. Rejections come back as a structured
// result, not an HTTP error body, so clients render one shape.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	log := middleware.Logger(r.Context())
	var req credentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.ErrorContext(r.Context(), "auth handler - register - bad request")
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	res, err := h.identity.Register(r.Context(), req.Nickname, req.Secret)
	if err != nil {
		log.ErrorContext(r.Context(), "auth handler - register - backend unavailable", "err", err)
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	if !res.Success {
		h.writeResult(w, http.StatusConflict, res)
		return
	}
	h.finish(w, r, res)
	log.InfoContext(r.Context(), "auth handler - register - success", "nickname", req.Nickname)
}

// Login verifies a codename and access key.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := middleware.Logger(r.Context())
	var req credentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.ErrorContext(r.Context(), "auth handler - login - bad request")
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	res, err := h.identity.Login(r.Context(), req.Nickname, req.Secret)
	if err != nil {
		log.ErrorContext(r.Context(), "auth handler - login - backend unavailable", "err", err)
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	if !res.Success {
		h.writeResult(w, http.StatusUnauthorized, res)
		return
	}
	h.finish(w, r, res)
	log.InfoContext(r.Context(), "auth handler - login - success", "nickname", req.Nickname)
}

// finish attaches a session token and writes the success result.
func (h *AuthHandler) finish(w http.ResponseWriter, r *http.Request, res domain.AuthResult) {
	token, err := h.tokenSvc.GenerateToken(res.User.ID, res.User.Role)
	if err != nil {
		middleware.Logger(r.Context()).ErrorContext(r.Context(), "auth handler - token generation failed", "err", err)
		http.Error(w, "failed to generate token", http.StatusInternalServerError)
		return
	}
	res.Token = token
	h.writeResult(w, http.StatusOK, res)
}

func (h *AuthHandler) writeResult(w http.ResponseWriter, status int, res domain.AuthResult) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(res)
}
