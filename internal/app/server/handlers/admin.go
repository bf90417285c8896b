package handlers

import (
	"encoding/json"
	"net/http"

	"ghostsignal/internal/core/domain"
	"ghostsignal/internal/core/services"
	"ghostsignal/pkg/middleware"
)

type AdminHandler struct {
	admin *services.AdminService
}

func NewAdminHandler(admin *services.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// requireAdmin enforces the role claim carried by the session token.
func (h *AdminHandler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	role, _ := r.Context().Value(middleware.RoleKey).(string)
	if role != domain.RoleAdmin {
		middleware.Logger(r.Context()).WarnContext(r.Context(), "admin handler - forbidden", "role", role)
		http.Error(w, "forbidden", http.StatusForbidden)
		return false
	}
	return true
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	stats, err := h.admin.GetStats(r.Context())
	if err != nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(stats)
}

func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	users, err := h.admin.GetUsers(r.Context())
	if err != nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(users)
}

func (h *AdminHandler) Block(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	var req struct {
		UserID string `json:"user_id"`
		Addr   string `json:"addr"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if err := h.admin.BlockUser(r.Context(), req.UserID, req.Addr); err != nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "blocked"})
}
