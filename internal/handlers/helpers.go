package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"qamqorBack/internal/models"
	"qamqorBack/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps domain errors onto HTTP statuses. Gateway failures come
// back as 502 so clients can tell a processor outage from our own fault.
func writeError(w http.ResponseWriter, err error) {
	var apiErr *services.StripeError
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, models.ErrNoRecord):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrValidation):
		status = http.StatusBadRequest
	case errors.As(err, &apiErr):
		status = http.StatusBadGateway
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// getParam reads a path or query parameter whether the router stored it with
// a leading colon or not.
func getParam(r *http.Request, name string) string {
	if val := r.URL.Query().Get(":" + name); val != "" {
		return val
	}
	return r.URL.Query().Get(name)
}

func getInt64Param(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(getParam(r, name), 10, 64)
}

// userIDFromContext returns the authenticated user set by the JWT middleware.
func userIDFromContext(r *http.Request) (int64, bool) {
	id, ok := r.Context().Value("user_id").(int64)
	return id, ok
}
