package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"go.uber.org/zap"
)

func setupKafka(t *testing.T) (string, func()) {
	ctx := context.Background()

	kafkaContainer, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers, "broker address should not be empty")

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	}

	return brokers[0], cleanup
}

func TestPoller_DeliversEventsFromOtherInstances(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	broker, cleanup := setupKafka(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	sub, unsubscribe := hub.Subscribe("alice")
	defer unsubscribe()

	poller := NewPoller(hub, "instance-b", zap.NewNop(), broker)
	defer poller.Close()
	go poller.Run(ctx)

	notifier := NewKafkaNotifier("instance-a", broker)
	defer notifier.Close()

	// the reader joins its group asynchronously, so keep writing until it sees one
	require.Eventually(t, func() bool {
		if err := notifier.Notify(ctx, Event{Type: CartUpdated, OwnerID: "alice", Count: 1}); err != nil {
			return false
		}
		select {
		case e := <-sub:
			return e.Type == CartUpdated && e.Origin == "instance-a"
		case <-time.After(500 * time.Millisecond):
			return false
		}
	}, 60*time.Second, time.Second)
}

func TestPoller_SkipsOwnEvents(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	broker, cleanup := setupKafka(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	sub, unsubscribe := hub.Subscribe("alice")
	defer unsubscribe()

	poller := NewPoller(hub, "same", zap.NewNop(), broker)
	defer poller.Close()
	go poller.Run(ctx)

	notifier := NewKafkaNotifier("same", broker)
	defer notifier.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, notifier.Notify(ctx, Event{Type: CartUpdated, OwnerID: "alice"}))
	}

	select {
	case e := <-sub:
		t.Fatalf("own event was replayed: %v", e)
	case <-time.After(5 * time.Second):
	}
}
