package ports

import (
	"context"

	"ride-track/internal/general/contracts"
)

// TrackingService serves event history lookups and runs the status consumer.
type TrackingService interface {
	History(ctx context.Context, bookingRef string) (contracts.EventsHistoryResponse, error)
	RunStatusConsumer(ctx context.Context, prefetch int)
}

// Broadcaster fans a message out to every subscriber of a room. Returns the
// number of connections the message was written to.
type Broadcaster interface {
	Broadcast(room string, msg any) int
}
