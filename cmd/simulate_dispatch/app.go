package simulatedispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ride-track/internal/domain/tracking"
	"ride-track/internal/general/config"
	"ride-track/internal/general/contracts"
	"ride-track/internal/general/logger"
	"ride-track/internal/general/rabbitmq"
)

// Run publishes a scripted ride-status sequence to the ride topic, standing
// in for the dispatch engine during local development. It walks the full
// lifecycle with a pause between statuses so a follow session has something
// to render.
func Run(ctx context.Context, rideID, bookingRef string, stepDelay time.Duration) error {
	logger := logger.New("simulate-dispatch")
	ctx = logger.WithRequestID(ctx, "simulate-001")

	cfg, err := config.LoadFromFile("config/config.yaml")
	if err != nil {
		logger.Error(ctx, "config_load_failed", "Failed to load configuration", err, nil)
		return err
	}

	rmq, err := rabbitmq.ConnectRabbitMQ(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "rabbitmq_connection_failed", "Failed to connect to RabbitMQ", err, nil)
		return err
	}
	defer rmq.Close()

	pub := rabbitmq.NewMQPublisher(rmq)

	eta := time.Now().Add(6 * time.Minute).UTC().Format(time.RFC3339)
	driver := &contracts.DriverDetails{
		Name:             "Alex Morgan",
		Phone:            "+447700900123",
		EstimatedArrival: eta,
		Vehicle: &contracts.VehicleInfo{
			Make: "Toyota", Model: "Prius", Color: "Silver", Plate: "LT70 XYZ",
		},
	}

	script := []struct {
		status  tracking.Status
		details *contracts.DriverDetails
	}{
		{tracking.StatusBooked, nil},
		{tracking.StatusDispatched, driver},
		{tracking.StatusVehicleArrived, nil},
		{tracking.StatusPassengerOnBoard, nil},
		{tracking.StatusCompleted, nil},
	}

	for i, step := range script {
		msg := contracts.RideStatusMessage{
			RideID:        rideID,
			BookingRef:    bookingRef,
			Status:        step.status.String(),
			Timestamp:     time.Now().UTC(),
			DriverDetails: step.details,
			Envelope: contracts.Envelope{
				CorrelationID: fmt.Sprintf("sim-%s-%d", rideID, i),
				Producer:      "simulate-dispatch",
				SentAt:        time.Now().UTC(),
			},
		}

		body, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("encode status message: %w", err)
		}

		routingKey := contracts.RouteRideStatusPrefix + strings.ToLower(step.status.String())
		if err := pub.Publish(contracts.ExchangeRideTopic, routingKey, body); err != nil {
			logger.Error(ctx, "ride_status_publish_failed", "Failed to publish status message", err,
				map[string]any{"status": step.status.String(), "routing_key": routingKey})
			return err
		}

		logger.Info(ctx, "ride_status_published", "Published simulated status",
			map[string]any{"ride_id": rideID, "status": step.status.String()})

		if i < len(script)-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(stepDelay):
			}
		}
	}

	return nil
}
