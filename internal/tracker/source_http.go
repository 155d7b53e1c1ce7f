package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ride-track/internal/general/contracts"
	"ride-track/internal/ports"
)

// HTTPEventSource fetches event history from the tracking service over
// HTTP with a bearer token.
type HTTPEventSource struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPEventSource builds an event source for the given service base URL
// (e.g. "http://localhost:3002").
func NewHTTPEventSource(baseURL, token string) *HTTPEventSource {
	return &HTTPEventSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// FetchEvents calls GET /tracking/{booking_ref}/events.
func (s *HTTPEventSource) FetchEvents(ctx context.Context, bookingRef string) (*contracts.EventsHistoryResponse, error) {
	endpoint := fmt.Sprintf("%s/tracking/%s/events", s.baseURL, url.PathEscape(bookingRef))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch events: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ports.ErrBookingNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch events: unexpected status %d", resp.StatusCode)
	}

	var history contracts.EventsHistoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	return &history, nil
}
