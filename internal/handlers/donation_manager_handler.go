package handlers

import (
	"encoding/json"
	"net/http"

	"qamqorBack/internal/services"
)

type DonationManagerHandler struct {
	Service *services.DonationManagerService
}

// GetManager returns the user's recurring-giving state and reward points.
func (h *DonationManagerHandler) GetManager(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		http.Error(w, "user not authorized", http.StatusUnauthorized)
		return
	}
	overview, err := h.Service.Overview(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (h *DonationManagerHandler) Follow(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		http.Error(w, "user not authorized", http.StatusUnauthorized)
		return
	}
	orgID, err := getInt64Param(r, "organization_id")
	if err != nil {
		http.Error(w, "invalid organization_id", http.StatusBadRequest)
		return
	}
	if err := h.Service.Follow(r.Context(), userID, orgID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "followed"})
}

func (h *DonationManagerHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		http.Error(w, "user not authorized", http.StatusUnauthorized)
		return
	}
	orgID, err := getInt64Param(r, "organization_id")
	if err != nil {
		http.Error(w, "invalid organization_id", http.StatusBadRequest)
		return
	}
	if err := h.Service.Unfollow(r.Context(), userID, orgID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "unfollowed"})
}

type swapRequest struct {
	OldOrganizationID int64 `json:"old_organization_id"`
	NewOrganizationID int64 `json:"new_organization_id"`
}

// Swap exchanges one followed organization for another in place.
func (h *DonationManagerHandler) Swap(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		http.Error(w, "user not authorized", http.StatusUnauthorized)
		return
	}
	var req swapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}
	if err := h.Service.Swap(r.Context(), userID, req.OldOrganizationID, req.NewOrganizationID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "swapped"})
}

type createRecurringRequest struct {
	Amount   int64  `json:"amount"`
	Interval string `json:"interval"`
}

// CreateRecurring opens the recurring donation subscription.
func (h *DonationManagerHandler) CreateRecurring(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		http.Error(w, "user not authorized", http.StatusUnauthorized)
		return
	}
	var req createRecurringRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}
	res, err := h.Service.CreateRecurring(r.Context(), userID, req.Amount, req.Interval)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// UpdateRecurring applies partial plan changes: amount, interval, freeze.
func (h *DonationManagerHandler) UpdateRecurring(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		http.Error(w, "user not authorized", http.StatusUnauthorized)
		return
	}
	var req services.RecurringChanges
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}
	if err := h.Service.UpdateRecurring(r.Context(), userID, req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}
