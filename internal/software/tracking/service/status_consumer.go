package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ride-track/internal/domain/tracking"
	"ride-track/internal/general/contracts"
	"ride-track/internal/ports"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RunStatusConsumer starts the background consumer for ride status messages
// from the dispatch engine. Each message is appended to the event store and
// fanned out to the ride's push room.
func (service *trackingService) RunStatusConsumer(ctx context.Context, prefetch int) {
	go func() {
		err := service.queue.Consume(
			ctx,
			contracts.QueueRideStatusTracking,
			"tracking-status",
			prefetch,
			func(hCtx context.Context, d amqp.Delivery) error {
				return service.handleStatusDelivery(hCtx, d.Body)
			},
		)
		if err != nil && !errors.Is(err, context.Canceled) {
			service.logger.Error(ctx, "ride_status_consume_failed",
				"Failed to consume ride status messages", err,
				map[string]any{"queue": contracts.QueueRideStatusTracking})
		}
	}()
}

// handleStatusDelivery processes one status message. Returning an error
// nack-drops the delivery; unknown statuses and rides are acked and ignored
// to avoid poison loops.
func (service *trackingService) handleStatusDelivery(ctx context.Context, body []byte) error {
	var msg contracts.RideStatusMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		service.logger.Error(ctx, "ride_status_decode_failed",
			"Failed to decode ride status message", err,
			map[string]any{"size": len(body)})
		return fmt.Errorf("decode: %w", err)
	}

	if msg.RideID == "" {
		return nil
	}

	status, err := tracking.ParseStatus(msg.Status)
	if err != nil {
		// a status this service does not know yet; ack and ignore
		service.logger.Info(ctx, "ride_status_unknown", "Ignoring unknown ride status",
			map[string]any{"status": msg.Status, "ride_id": msg.RideID})
		return nil
	}
	eventType, _ := tracking.EventTypeForStatus(status)

	occurredAt := msg.Timestamp
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	bookingRef := msg.BookingRef

	err = service.uow.WithinTx(ctx, func(ctx context.Context) error {
		// correlate ride and booking reference in whichever direction we can
		switch {
		case bookingRef == "":
			ref, err := service.bookings.RefForRide(ctx, msg.RideID)
			if err != nil {
				if errors.Is(err, ports.ErrBookingNotFound) {
					return nil // ride unknown to us; nothing to track yet
				}
				return err
			}
			bookingRef = ref
		default:
			if err := service.bookings.Create(ctx, bookingRef, msg.RideID, ""); err != nil {
				return err
			}
		}

		return service.events.Append(ctx, &ports.StoredEvent{
			RideID:     msg.RideID,
			Type:       string(eventType),
			OccurredAt: occurredAt,
			Data:       eventDataFor(eventType, msg.DriverDetails),
		})
	})
	if err != nil {
		service.logger.Error(ctx, "ride_status_persist_failed",
			"Failed to persist ride status event", err,
			map[string]any{"ride_id": msg.RideID, "status": msg.Status})
		return err
	}
	if bookingRef == "" {
		return nil
	}

	push := contracts.PushStatusMessage{
		Type:          contracts.PushTypeStatusUpdate,
		RideID:        msg.RideID,
		BookingRef:    bookingRef,
		Status:        status.String(),
		DriverDetails: msg.DriverDetails,
		Envelope: contracts.Envelope{
			CorrelationID: msg.CorrelationID,
			Producer:      "tracking-service",
			SentAt:        time.Now().UTC(),
		},
	}

	// rooms are keyed by ride id with a booking-reference fallback for
	// clients that never learned the ride id
	sent := service.hub.Broadcast(msg.RideID, push)
	if bookingRef != msg.RideID {
		sent += service.hub.Broadcast(bookingRef, push)
	}

	service.logger.Info(ctx, "ride_status_pushed", "Ride status update fanned out",
		map[string]any{"ride_id": msg.RideID, "status": status.String(), "connections": sent})

	return nil
}

// eventDataFor builds the persisted event payload. Driver details ride along
// on dispatch-class events only, nested the way the history API serves them.
func eventDataFor(eventType tracking.EventType, details *contracts.DriverDetails) map[string]any {
	if details == nil || !eventType.DispatchClass() {
		return nil
	}

	driver := map[string]any{}
	if details.Name != "" {
		driver["name"] = details.Name
	}
	if details.Phone != "" {
		driver["phone"] = details.Phone
	}
	if details.PhotoURL != "" {
		driver["photo_url"] = details.PhotoURL
	}
	if details.EstimatedArrival != "" {
		driver["estimated_arrival"] = details.EstimatedArrival
	}
	if v := details.Vehicle; v != nil {
		driver["vehicle"] = map[string]any{
			"make": v.Make, "model": v.Model, "color": v.Color, "plate": v.Plate,
		}
	}
	if len(driver) == 0 {
		return nil
	}
	return map[string]any{"driver": driver}
}
