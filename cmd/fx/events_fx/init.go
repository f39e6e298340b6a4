package events_fx

import (
	"os"

	"go.uber.org/fx"

	"shoply/pkg/events"
)

var Module = fx.Provide(provideEventPublisher)

// provideEventPublisher wires the kafka publisher only when KAFKA_BROKERS is
// set; a nil publisher disables cross-process events without branching at the
// call sites.
func provideEventPublisher() *events.Publisher {
	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		return nil
	}
	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		topic = "shoply.checkout"
	}
	return events.NewPublisher(brokers, topic)
}
