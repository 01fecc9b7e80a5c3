package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recv[T any](t *testing.T, ch <-chan Event[T]) Event[T] {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
		return Event[T]{}
	}
}

func TestBroker_PublishReachesSubscriber(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := broker.Subscribe(ctx)

	broker.Publish(UpdatedEvent, "stream delta")

	ev := recv(t, ch)
	assert.Equal(t, "stream delta", ev.Payload)
	assert.Equal(t, UpdatedEvent, ev.Type)
	assert.False(t, ev.Timestamp.IsZero())
}

func TestBroker_FanOut(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx := context.Background()
	chans := []<-chan Event[string]{
		broker.Subscribe(ctx),
		broker.Subscribe(ctx),
		broker.Subscribe(ctx),
	}
	require.Equal(t, 3, broker.Subscribers())

	broker.Publish(CreatedEvent, "log line")

	// Every subscriber gets its own copy
	for _, ch := range chans {
		ev := recv(t, ch)
		assert.Equal(t, "log line", ev.Payload)
		assert.Equal(t, CreatedEvent, ev.Type)
	}
}

func TestBroker_ContextCancelUnsubscribes(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := broker.Subscribe(ctx)
	require.Equal(t, 1, broker.Subscribers())

	cancel()
	require.Eventually(t, func() bool {
		return broker.Subscribers() == 0
	}, time.Second, time.Millisecond)

	_, ok := <-ch
	assert.False(t, ok, "channel should be closed after unsubscribe")
}

func TestBroker_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	broker := NewSizedBroker[string](1)
	defer broker.Close()

	ch := broker.Subscribe(context.Background())

	broker.Publish(UpdatedEvent, "kept")

	// The buffer is full; these must return without blocking
	done := make(chan struct{})
	go func() {
		broker.Publish(UpdatedEvent, "dropped-1")
		broker.Publish(UpdatedEvent, "dropped-2")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}

	ev := recv(t, ch)
	assert.Equal(t, "kept", ev.Payload)
}

func TestBroker_Close(t *testing.T) {
	broker := NewBroker[string]()

	ctx := context.Background()
	ch1 := broker.Subscribe(ctx)
	ch2 := broker.Subscribe(ctx)

	broker.Close()

	_, ok := <-ch1
	assert.False(t, ok)
	_, ok = <-ch2
	assert.False(t, ok)
	assert.Zero(t, broker.Subscribers())

	// Late subscribers see a closed channel, late publishes are no-ops
	ch3 := broker.Subscribe(ctx)
	_, ok = <-ch3
	assert.False(t, ok)
	assert.NotPanics(t, func() { broker.Publish(UpdatedEvent, "late") })
}

func TestBroker_CloseIdempotent(t *testing.T) {
	broker := NewBroker[string]()
	ch := broker.Subscribe(context.Background())

	broker.Close()
	broker.Close()

	_, ok := <-ch
	assert.False(t, ok)
}
