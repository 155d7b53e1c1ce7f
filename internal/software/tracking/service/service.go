package service

import (
	"context"

	"ride-track/internal/general/logger"
	"ride-track/internal/ports"

	amqp "github.com/rabbitmq/amqp091-go"
)

// queueConsumer is the slice of the RabbitMQ client this service needs.
// Narrowed to an interface so tests can feed deliveries directly.
type queueConsumer interface {
	Consume(ctx context.Context, queue, consumerTag string, prefetch int,
		handler func(context.Context, amqp.Delivery) error) error
}

// trackingService serves event-history lookups and keeps the event store and
// push rooms fed from the dispatch engine's status stream.
type trackingService struct {
	logger   *logger.Logger
	uow      ports.UnitOfWork
	bookings ports.BookingRepository
	events   ports.RideEventRepository
	hub      ports.Broadcaster
	queue    queueConsumer
}

// NewTrackingService wires the tracking service.
func NewTrackingService(
	logger *logger.Logger,
	uow ports.UnitOfWork,
	bookings ports.BookingRepository,
	events ports.RideEventRepository,
	hub ports.Broadcaster,
	queue queueConsumer,
) ports.TrackingService {
	return &trackingService{
		logger:   logger,
		uow:      uow,
		bookings: bookings,
		events:   events,
		hub:      hub,
		queue:    queue,
	}
}
