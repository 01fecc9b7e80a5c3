package pubsub

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// listenCmd waits for the next event on ch and returns it as a tea.Msg.
// Returns nil when the context is cancelled or the channel closes, which
// ends the listen loop.
func listenCmd[T any](ctx context.Context, ch <-chan Event[T]) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-ch:
			if !ok {
				return nil
			}
			return event
		}
	}
}

// ContinuousListener adapts a broker subscription to the bubbletea update
// loop: each handled event re-arms the listener by returning Listen() as
// the next command.
type ContinuousListener[T any] struct {
	ctx context.Context
	ch  <-chan Event[T]
}

// NewContinuousListener subscribes to the broker. The subscription is
// released when ctx is cancelled.
func NewContinuousListener[T any](ctx context.Context, broker *Broker[T]) *ContinuousListener[T] {
	return &ContinuousListener[T]{
		ctx: ctx,
		ch:  broker.Subscribe(ctx),
	}
}

// Listen returns a tea.Cmd that yields the next event. Call it from
// Update after handling each event to keep receiving.
func (l *ContinuousListener[T]) Listen() tea.Cmd {
	return listenCmd(l.ctx, l.ch)
}
