package handlers

import "net/http"

// HealthHandler handles GET /api/health.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, envelope{
		"status":  "OK",
		"message": "LinguaLink Backend is running!",
	})
}
