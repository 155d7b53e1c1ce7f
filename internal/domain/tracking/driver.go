package tracking

import (
	"strings"
	"time"
)

// DriverDetails is the sticky driver/vehicle record captured from
// dispatch-class events. Once set it is never cleared by later events that
// lack the payload; losing driver info mid-ride is a display regression,
// not a real occurrence.
type DriverDetails struct {
	Name             string
	Phone            string
	VehicleMake      string
	VehicleModel     string
	VehicleColor     string
	LicensePlate     string
	PhotoURL         string
	EstimatedArrival *time.Time
}

// DriverFromData extracts a driver payload from an event's data map.
// The payload may sit under a "driver" object or flat on the event data;
// both shapes occur in the backend contract. Returns (nil, false) when no
// driver identity is present.
func DriverFromData(data map[string]any) (*DriverDetails, bool) {
	if data == nil {
		return nil, false
	}

	src := data
	if nested, ok := data["driver"].(map[string]any); ok {
		src = nested
	}

	details := DriverDetails{
		Name:         stringField(src, "name", "driver_name"),
		Phone:        stringField(src, "phone", "contact_number"),
		PhotoURL:     stringField(src, "photo_url", "photo"),
		LicensePlate: stringField(src, "license_plate", "plate"),
	}

	if vehicle, ok := src["vehicle"].(map[string]any); ok {
		details.VehicleMake = stringField(vehicle, "make")
		details.VehicleModel = stringField(vehicle, "model")
		details.VehicleColor = stringField(vehicle, "color")
		if details.LicensePlate == "" {
			details.LicensePlate = stringField(vehicle, "plate", "license_plate")
		}
	}

	if raw := stringField(src, "estimated_arrival", "eta"); raw != "" {
		if eta, err := time.Parse(time.RFC3339, raw); err == nil {
			eta = eta.UTC()
			details.EstimatedArrival = &eta
		}
	}

	// a payload without identity is not a driver payload
	if details.Name == "" && details.Phone == "" {
		return nil, false
	}

	return &details, true
}

// stringField returns the first non-empty string value among keys.
func stringField(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := m[key].(string); ok {
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		}
	}
	return ""
}
