package sse

import (
	"testing"

	"github.com/google/uuid"

	"github.com/callsim/callsim-backend/internal/logger"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewHub(log)
}

func TestHubPublishFiltersByChannel(t *testing.T) {
	hub := newTestHub(t)

	simA := SimulationChannel(uuid.New())
	simB := SimulationChannel(uuid.New())

	clientA := hub.NewClient(uuid.New())
	clientB := hub.NewClient(uuid.New())
	hub.Subscribe(clientA, simA)
	hub.Subscribe(clientB, simB)

	hub.Publish(Message{Channel: simA, Event: EventMessageCreated, Data: "hello"})

	select {
	case msg := <-clientA.Outbound:
		if msg.Channel != simA || msg.Event != EventMessageCreated {
			t.Fatalf("unexpected message: %+v", msg)
		}
	default:
		t.Fatal("subscriber on the published channel received nothing")
	}

	select {
	case msg := <-clientB.Outbound:
		t.Fatalf("subscriber on another channel received %+v", msg)
	default:
	}
}

func TestHubUnsubscribeStopsDelivery(t *testing.T) {
	hub := newTestHub(t)
	channel := SimulationChannel(uuid.New())

	client := hub.NewClient(uuid.New())
	hub.Subscribe(client, channel)
	hub.Unsubscribe(client, channel)

	hub.Publish(Message{Channel: channel, Event: EventMessageCreated})

	select {
	case msg := <-client.Outbound:
		t.Fatalf("unsubscribed client received %+v", msg)
	default:
	}
}

func TestHubFullBufferDoesNotBlockPublisher(t *testing.T) {
	hub := newTestHub(t)
	channel := SimulationChannel(uuid.New())

	client := hub.NewClient(uuid.New())
	hub.Subscribe(client, channel)

	// Overflow the outbound buffer; Publish must return every time.
	for i := 0; i < cap(client.Outbound)+5; i++ {
		hub.Publish(Message{Channel: channel, Event: EventMessageCreated, Data: i})
	}

	if got := len(client.Outbound); got != cap(client.Outbound) {
		t.Fatalf("buffered=%d, want full buffer %d", got, cap(client.Outbound))
	}
}

func TestHubRemoveClientCleansSubscriptions(t *testing.T) {
	hub := newTestHub(t)
	channel := SimulationChannel(uuid.New())

	client := hub.NewClient(uuid.New())
	hub.Subscribe(client, channel)
	hub.RemoveClient(client)

	hub.Publish(Message{Channel: channel, Event: EventMessageCreated})
	select {
	case msg := <-client.Outbound:
		t.Fatalf("removed client received %+v", msg)
	default:
	}
}
