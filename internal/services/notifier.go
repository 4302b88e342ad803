package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/callsim/callsim-backend/internal/clients/redis"
	"github.com/callsim/callsim-backend/internal/logger"
	"github.com/callsim/callsim-backend/internal/sse"
	"github.com/callsim/callsim-backend/internal/types"
)

// SimulationNotifier pushes transcript changes to live viewers. Delivery is
// fire-and-forget: the lifecycle manager never blocks on it, and a failed
// publish only logs.
type SimulationNotifier interface {
	SimulationStarted(ctx context.Context, simulation *types.Simulation, messages []*types.Message)
	MessagesCreated(ctx context.Context, simulationID uuid.UUID, messages []*types.Message)
	SimulationEnded(ctx context.Context, simulationID uuid.UUID, assessment *types.Assessment)
}

type simulationNotifier struct {
	log *logger.Logger
	hub *sse.Hub
	bus redis.Bus
}

// NewSimulationNotifier builds a notifier over the in-process hub and an
// optional redis bus. With a bus, messages take the redis round trip and
// reach the hub through the forwarder, so every instance sees them; without
// one they go straight to the local hub.
func NewSimulationNotifier(log *logger.Logger, hub *sse.Hub, bus redis.Bus) SimulationNotifier {
	return &simulationNotifier{
		log: log.With("service", "SimulationNotifier"),
		hub: hub,
		bus: bus,
	}
}

func (sn *simulationNotifier) SimulationStarted(ctx context.Context, simulation *types.Simulation, messages []*types.Message) {
	sn.publish(ctx, sse.Message{
		Channel: sse.SimulationChannel(simulation.ID),
		Event:   sse.EventSimulationStarted,
		Data:    messages,
	})
}

func (sn *simulationNotifier) MessagesCreated(ctx context.Context, simulationID uuid.UUID, messages []*types.Message) {
	sn.publish(ctx, sse.Message{
		Channel: sse.SimulationChannel(simulationID),
		Event:   sse.EventMessageCreated,
		Data:    messages,
	})
}

func (sn *simulationNotifier) SimulationEnded(ctx context.Context, simulationID uuid.UUID, assessment *types.Assessment) {
	sn.publish(ctx, sse.Message{
		Channel: sse.SimulationChannel(simulationID),
		Event:   sse.EventSimulationEnded,
		Data:    assessment,
	})
}

func (sn *simulationNotifier) publish(ctx context.Context, msg sse.Message) {
	if sn.bus != nil {
		if err := sn.bus.Publish(ctx, msg); err != nil {
			sn.log.Warn("Failed to publish to redis bus, delivering locally", "error", err, "channel", msg.Channel)
			sn.hub.Publish(msg)
		}
		return
	}
	sn.hub.Publish(msg)
}
