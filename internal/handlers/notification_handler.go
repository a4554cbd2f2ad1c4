package handlers

import (
	"encoding/json"
	"net/http"

	"qamqorBack/internal/services"
)

type NotificationHandler struct {
	Service *services.NotificationService
}

type tokenRequest struct {
	Token string `json:"token"`
}

// CreateToken registers a device push token for the authenticated user.
func (h *NotificationHandler) CreateToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		http.Error(w, "user not authorized", http.StatusUnauthorized)
		return
	}
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}
	if err := h.Service.SaveToken(r.Context(), userID, req.Token); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *NotificationHandler) DeleteToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		http.Error(w, "user not authorized", http.StatusUnauthorized)
		return
	}
	token := getParam(r, "token")
	if token == "" {
		http.Error(w, "missing token", http.StatusBadRequest)
		return
	}
	if err := h.Service.DeleteToken(r.Context(), userID, token); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
