package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"qamqorBack/internal/services"
)

type DonationHandler struct {
	Service *services.DonationService
}

type createIntentRequest struct {
	Amount         int64  `json:"amount"`
	OrganizationID *int64 `json:"organization_id"`
	EventID        *int64 `json:"event_id"`
}

// CreateIntent registers a one-off donation and returns the payment sheet
// credentials. The donation stays pending until the webhook settles it.
func (h *DonationHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		http.Error(w, "user not authorized", http.StatusUnauthorized)
		return
	}

	var req createIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}

	res, err := h.Service.CreateOneOffIntent(r.Context(), userID, req.Amount, req.OrganizationID, req.EventID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// History returns the authenticated user's donations, optionally bounded by
// from/to query parameters in RFC 3339.
func (h *DonationHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		http.Error(w, "user not authorized", http.StatusUnauthorized)
		return
	}

	var from, to time.Time
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, "invalid from", http.StatusBadRequest)
			return
		}
		from = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, "invalid to", http.StatusBadRequest)
			return
		}
		to = t
	}

	items, err := h.Service.History(r.Context(), userID, from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"donations": items})
}

// ListByOrganization returns every donation received by one organization.
// Admin only, enforced by the route chain.
func (h *DonationHandler) ListByOrganization(w http.ResponseWriter, r *http.Request) {
	orgID, err := getInt64Param(r, "organization_id")
	if err != nil {
		http.Error(w, "invalid organization_id", http.StatusBadRequest)
		return
	}
	items, err := h.Service.ListByOrganization(r.Context(), orgID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"donations": items})
}
