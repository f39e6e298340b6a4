package pubsub_fx

import (
	"go.uber.org/fx"

	"shoply/pkg/pubsub"
)

var Module = fx.Provide(provideBroker)

func provideBroker() *pubsub.Broker {
	return pubsub.NewBroker()
}
