package handlers

import (
	"net/http"

	"interrogame-backend/internal/models"
)

const healthMessage = "InterroGame API is running"

func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{Status: "healthy", Message: healthMessage})
}
