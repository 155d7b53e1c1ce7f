package contracts

import "time"

// Envelope adds cross-cutting headers all messages may carry.
type Envelope struct {
	CorrelationID string    `json:"correlation_id,omitempty"` // Correlation for tracing across services
	Producer      string    `json:"producer,omitempty"`       // Producer service name, e.g. "tracking-service"
	SentAt        time.Time `json:"sent_at,omitempty"`        // ISO-8601 send time (UTC)
}

type GeoPoint struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
}

type VehicleInfo struct {
	Make  string `json:"make,omitempty"`
	Model string `json:"model,omitempty"`
	Color string `json:"color,omitempty"`
	Plate string `json:"plate,omitempty"`
}

// DriverDetails mirrors the driver payload carried by dispatch-class events
// and push status messages.
type DriverDetails struct {
	Name             string       `json:"name,omitempty"`
	Phone            string       `json:"phone,omitempty"`
	PhotoURL         string       `json:"photo_url,omitempty"`
	Vehicle          *VehicleInfo `json:"vehicle,omitempty"`
	EstimatedArrival string       `json:"estimated_arrival,omitempty"` // ISO-8601
}
