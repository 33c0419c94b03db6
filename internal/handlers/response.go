package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/apex/log"

	"interrogame-backend/internal/middleware"
	"interrogame-backend/internal/models"
	"interrogame-backend/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get(middleware.RequestIDHeader),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			Fields:    fields,
			RequestID: r.Header.Get(middleware.RequestIDHeader),
		},
	}
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch e := err.(type) {
	case *services.ValidationError:
		writeJSON(w, http.StatusUnprocessableEntity, errorRespWithFields("VALIDATION_ERROR", "Validation failed", e.Fields, r))
	case *services.InferenceError:
		logRequestError(r, err).Error("Inference failed")
		writeJSON(w, http.StatusBadGateway, errorResp("INFERENCE_ERROR", "Failed to get AI response", r))
	case *services.BackendError:
		logRequestError(r, err).Error("Backend request failed")
		if e.Unavailable() {
			writeJSON(w, http.StatusServiceUnavailable, errorResp("BACKEND_UNAVAILABLE", "Inference backend is unreachable", r))
			return
		}
		writeJSON(w, http.StatusBadGateway, errorResp("BACKEND_ERROR", "Inference backend returned an error", r))
	default:
		logRequestError(r, err).Error("Unexpected error")
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}

func logRequestError(r *http.Request, err error) *log.Entry {
	return log.WithError(err).WithFields(log.Fields{
		"request_id": r.Header.Get(middleware.RequestIDHeader),
		"path":       r.URL.Path,
	})
}
