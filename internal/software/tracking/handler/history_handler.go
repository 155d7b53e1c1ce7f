package handler

import (
	"errors"
	"net/http"
	"strings"

	"ride-track/internal/ports"
)

// handleEventsHistory serves GET /tracking/{booking_ref}/events.
func (handler *TrackingHTTPHandler) handleEventsHistory(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	bookingRef := strings.TrimSpace(r.PathValue("booking_ref"))
	if bookingRef == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "booking reference is required", nil)
		return
	}
	ctx = handler.logger.WithBookingRef(ctx, bookingRef)

	resp, err := handler.svc.History(ctx, bookingRef)
	if err != nil {
		if errors.Is(err, ports.ErrBookingNotFound) {
			handler.httpError(ctx, w, http.StatusNotFound, "booking not found", err)
			return
		}
		handler.httpError(ctx, w, http.StatusInternalServerError, "failed to load event history", err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusOK, resp)
}
