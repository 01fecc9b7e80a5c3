// Package echo provides a local, in-process execution engine that streams
// the user's message back word by word. It exists so the parley UI can be
// exercised end to end without a real agent backend, and doubles as a
// reference for the event sequence an engine is expected to emit.
package echo

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zjrosen/parley/internal/engine"
)

const defaultChunkDelay = 40 * time.Millisecond

// Engine implements engine.Engine.
type Engine struct {
	// ChunkDelay is the pause between streamed deltas. Zero means the
	// default; negative means no delay (useful in tests).
	ChunkDelay time.Duration

	// Model is the model name reported on llm:response.
	Model string
}

// New returns an echo engine with default pacing.
func New() *Engine {
	return &Engine{Model: "echo-1"}
}

// CreateSession implements engine.Engine. Safe for concurrent use.
func (e *Engine) CreateSession(ctx context.Context, cfg engine.SessionConfig) (engine.Session, error) {
	id := cfg.ResumeSessionID
	if id == "" {
		id = uuid.NewString()
	}
	delay := e.ChunkDelay
	if delay == 0 {
		delay = defaultChunkDelay
	}
	if delay < 0 {
		delay = 0
	}
	model := cfg.Model
	if model == "" {
		model = e.Model
	}
	return &session{
		id:       id,
		model:    model,
		delay:    delay,
		dispatch: cfg.OnStream,
	}, nil
}

type session struct {
	id       string
	model    string
	delay    time.Duration
	dispatch engine.DispatchFunc

	mu     sync.Mutex
	closed bool
}

func (s *session) ID() string { return s.id }

// Execute streams the response as one text block, then returns the full
// text. Stops streaming early when ctx is cancelled but still emits
// execution:end so the turn always terminates cleanly.
func (s *session) Execute(ctx context.Context, message string) (string, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", context.Canceled
	}
	s.mu.Unlock()

	response := "You said: " + message
	words := strings.Fields(response)

	s.emit(engine.Event{Kind: engine.EventExecutionStart})
	s.emit(engine.Event{Kind: engine.EventContentBlockStart, BlockType: "text"})

	cancelled := false
	for i, word := range words {
		if err := s.pause(ctx); err != nil {
			cancelled = true
			break
		}
		delta := word
		if i < len(words)-1 {
			delta += " "
		}
		s.emit(engine.Event{Kind: engine.EventContentBlockDelta, BlockType: "text", Delta: delta})
	}

	if !cancelled {
		s.emit(engine.Event{
			Kind:  engine.EventContentBlockEnd,
			Block: &engine.Block{Type: "text", Text: response},
		})
		s.emit(engine.Event{
			Kind:          engine.EventLLMResponse,
			Model:         s.model,
			ContextWindow: 200_000,
			Usage:         &engine.Usage{Input: len(strings.Fields(message)), Output: len(words)},
		})
	}
	s.emit(engine.Event{Kind: engine.EventExecutionEnd})

	if cancelled {
		return "", ctx.Err()
	}
	return response, nil
}

func (s *session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *session) emit(ev engine.Event) {
	if s.dispatch != nil {
		s.dispatch(ev)
	}
}

func (s *session) pause(ctx context.Context) error {
	if s.delay == 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.delay):
		return nil
	}
}
