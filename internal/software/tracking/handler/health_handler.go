package handler

import "net/http"

// handleHealth serves GET /tracking/health.
func (handler *TrackingHTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	handler.jsonResponse(r.Context(), w, http.StatusOK, map[string]any{
		"success": true,
		"service": "tracking-service",
	})
}
