package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"ride-track/internal/domain/user"
	"ride-track/internal/general/jwt"
	"ride-track/internal/general/logger"
	"ride-track/internal/general/websocket"
	"ride-track/internal/ports"
)

// TrackingHTTPHandler adapts HTTP requests to the TrackingService.
type TrackingHTTPHandler struct {
	svc       ports.TrackingService
	logger    *logger.Logger
	auth      *jwt.Manager
	websocket *websocket.Handler
}

// NewTrackingHTTPHandler wires an HTTP handler around the TrackingService.
func NewTrackingHTTPHandler(
	svc ports.TrackingService,
	logger *logger.Logger,
	auth *jwt.Manager,
	ws *websocket.Handler,
) *TrackingHTTPHandler {
	return &TrackingHTTPHandler{svc: svc, logger: logger, auth: auth, websocket: ws}
}

// RegisterRoutes mounts tracking endpoints on the provided mux.
func (handler *TrackingHTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /tracking/{booking_ref}/events",
		jwt.AuthMiddlewareFunc(handler.auth, user.RolePassenger, user.RoleAdmin)(handler.handleEventsHistory),
	)

	// the WebSocket endpoint authenticates on its own (token query fallback)
	mux.HandleFunc("GET /ws/tracking", handler.websocket.ServeWS)

	mux.HandleFunc("GET /tracking/health", handler.handleHealth)
}

// ----- general helpers -----

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// withReqID attaches an inbound (or fresh) request id to the context for log correlation.
func (handler *TrackingHTTPHandler) withReqID(ctx context.Context, r *http.Request) context.Context {
	reqID := r.Header.Get("X-Request-Id")
	if reqID == "" {
		b := make([]byte, 12)
		if _, err := rand.Read(b); err == nil {
			reqID = "req_" + hex.EncodeToString(b)
		}
	}
	return handler.logger.WithRequestID(ctx, reqID)
}

// jsonResponse writes data as a JSON response with the given status.
func (handler *TrackingHTTPHandler) jsonResponse(ctx context.Context, w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		handler.logger.Error(ctx, "http_encode_failed", "Failed to encode JSON response", err, nil)
	}
}

// httpError writes the error envelope and logs it.
func (handler *TrackingHTTPHandler) httpError(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
	if err != nil {
		handler.logger.Error(ctx, "http_request_failed", msg, err, map[string]any{"status": status})
	}
	handler.jsonResponse(ctx, w, status, errorResponse{Success: false, Error: msg})
}
