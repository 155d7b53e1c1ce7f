package service

import (
	"context"
	"time"

	"ride-track/internal/general/contracts"
	"ride-track/internal/ports"
)

// History returns the full event history for a booking reference, ordered by
// occurrence. The response shape is the poll-channel contract consumed by
// the tracker client.
func (service *trackingService) History(ctx context.Context, bookingRef string) (contracts.EventsHistoryResponse, error) {
	var (
		rideID string
		rows   []ports.StoredEvent
	)

	err := service.uow.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		rideID, err = service.bookings.RideIDForRef(ctx, bookingRef)
		if err != nil {
			return err
		}
		rows, err = service.events.ListByRide(ctx, rideID)
		return err
	})
	if err != nil {
		return contracts.EventsHistoryResponse{}, err
	}

	records := make([]contracts.EventRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, contracts.EventRecord{
			ID:        row.ID,
			EventType: row.Type,
			Timestamp: row.OccurredAt.UTC().Format(time.RFC3339),
			EventData: row.Data,
		})
	}

	service.logger.Info(ctx, "events_history_served", "Served ride event history",
		map[string]any{"booking_ref": bookingRef, "events": len(records)})

	return contracts.EventsHistoryResponse{
		Success:    true,
		BookingRef: bookingRef,
		RideID:     rideID,
		Events:     records,
	}, nil
}
