package contracts

// Exchanges
const (
	ExchangeRideTopic = "ride_topic"
)

// Queues
const (
	QueueRideStatusTracking = "ride_status_tracking"
)

// Routing patterns
const (
	RouteRideStatusPrefix = "ride.status." // {status}
)
