package tracker

import (
	"time"

	"ride-track/internal/domain/tracking"
	"ride-track/internal/general/contracts"
)

// eventsFromRecords converts the wire history into normalized domain
// events. Malformed records are skipped, and the batch fetch time stamps
// events whose timestamps do not parse.
func eventsFromRecords(records []contracts.EventRecord, fetchedAt time.Time) []tracking.Event {
	events := make([]tracking.Event, 0, len(records))
	for _, record := range records {
		if event, ok := tracking.EventFromWire(record.EventType, record.Timestamp, record.EventData, fetchedAt); ok {
			events = append(events, event)
		}
	}
	return tracking.Normalize(events)
}

// driverFromContract maps the wire driver payload to the domain record.
// Payloads without a driver identity are treated as absent.
func driverFromContract(d *contracts.DriverDetails) *tracking.DriverDetails {
	if d == nil {
		return nil
	}

	details := tracking.DriverDetails{
		Name:     d.Name,
		Phone:    d.Phone,
		PhotoURL: d.PhotoURL,
	}
	if v := d.Vehicle; v != nil {
		details.VehicleMake = v.Make
		details.VehicleModel = v.Model
		details.VehicleColor = v.Color
		details.LicensePlate = v.Plate
	}
	if d.EstimatedArrival != "" {
		if eta, err := time.Parse(time.RFC3339, d.EstimatedArrival); err == nil {
			eta = eta.UTC()
			details.EstimatedArrival = &eta
		}
	}

	if details.Name == "" && details.Phone == "" {
		return nil
	}
	return &details
}
