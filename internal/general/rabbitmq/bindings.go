package rabbitmq

import (
	"fmt"

	"ride-track/internal/general/contracts"

	amqp "github.com/rabbitmq/amqp091-go"
)

func declareTopology(ch *amqp.Channel) error {
	// 1. Exchanges
	if err := ch.ExchangeDeclare(contracts.ExchangeRideTopic, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", contracts.ExchangeRideTopic, err)
	}

	// 2. Queues
	if _, err := ch.QueueDeclare(contracts.QueueRideStatusTracking, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", contracts.QueueRideStatusTracking, err)
	}

	// 3. Bindings
	if err := ch.QueueBind(
		contracts.QueueRideStatusTracking,
		contracts.RouteRideStatusPrefix+"*",
		contracts.ExchangeRideTopic,
		false, nil,
	); err != nil {
		return fmt.Errorf("bind queue %s to %s: %w", contracts.QueueRideStatusTracking, contracts.ExchangeRideTopic, err)
	}

	return nil
}
