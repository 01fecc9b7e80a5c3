// Package enginetest provides a scripted execution engine for tests. It
// spawns no processes: each Execute replays a script of events through the
// session's dispatch hook and returns a canned response, with an optional
// wait point so tests can interleave turns across conversations
// deterministically.
package enginetest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/zjrosen/parley/internal/engine"
)

// Script controls one Execute call.
type Script struct {
	// PreEvents are emitted immediately.
	PreEvents []engine.Event

	// Wait, when non-nil, blocks Execute between PreEvents and Events
	// until the channel is closed (or ctx is cancelled). Tests use this to
	// hold one conversation's turn open while driving another.
	Wait <-chan struct{}

	// Events are emitted after Wait releases.
	Events []engine.Event

	// Response is the final response text returned by Execute.
	Response string

	// Err, when set, is returned after all events are emitted.
	Err error
}

// TextTurn builds the standard event sequence for a plain text response:
// execution start, one text block streamed word by word, usage, execution
// end.
func TextTurn(response string) Script {
	words := strings.Fields(response)
	events := []engine.Event{
		{Kind: engine.EventExecutionStart},
		{Kind: engine.EventContentBlockStart, BlockType: "text"},
	}
	for i, w := range words {
		delta := w
		if i < len(words)-1 {
			delta += " "
		}
		events = append(events, engine.Event{Kind: engine.EventContentBlockDelta, BlockType: "text", Delta: delta})
	}
	events = append(events,
		engine.Event{Kind: engine.EventContentBlockEnd, Block: &engine.Block{Type: "text", Text: response}},
		engine.Event{Kind: engine.EventLLMResponse, Model: "scripted-1", Usage: &engine.Usage{Input: 1, Output: len(words)}},
		engine.Event{Kind: engine.EventExecutionEnd},
	)
	return Script{Events: events, Response: response}
}

// Engine implements engine.Engine. The zero value is usable: every turn
// echoes "ok: <message>".
type Engine struct {
	mu       sync.Mutex
	sessions []*Session

	// ScriptFor selects the script for an Execute call. When nil, the
	// default is TextTurn("ok: " + message).
	ScriptFor func(sessionID, message string) Script

	// CreateErr, when set, fails CreateSession.
	CreateErr error

	nextID int
}

// CreateSession implements engine.Engine.
func (e *Engine) CreateSession(ctx context.Context, cfg engine.SessionConfig) (engine.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.CreateErr != nil {
		return nil, e.CreateErr
	}
	id := cfg.ResumeSessionID
	if id == "" {
		e.nextID++
		id = fmt.Sprintf("scripted-session-%d", e.nextID)
	}
	s := &Session{engine: e, id: id, dispatch: cfg.OnStream}
	e.sessions = append(e.sessions, s)
	return s, nil
}

// Sessions returns all sessions created so far.
func (e *Engine) Sessions() []*Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Session, len(e.sessions))
	copy(out, e.sessions)
	return out
}

func (e *Engine) scriptFor(sessionID, message string) Script {
	e.mu.Lock()
	fn := e.ScriptFor
	e.mu.Unlock()
	if fn != nil {
		return fn(sessionID, message)
	}
	return TextTurn("ok: " + message)
}

// Session records the messages executed and close calls for assertions.
type Session struct {
	engine   *Engine
	id       string
	dispatch engine.DispatchFunc

	mu       sync.Mutex
	messages []string
	closes   int
}

func (s *Session) ID() string { return s.id }

// Execute replays the script for this message.
func (s *Session) Execute(ctx context.Context, message string) (string, error) {
	s.mu.Lock()
	s.messages = append(s.messages, message)
	s.mu.Unlock()

	script := s.engine.scriptFor(s.id, message)

	for _, ev := range script.PreEvents {
		s.emit(ev)
	}
	if script.Wait != nil {
		select {
		case <-script.Wait:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	for _, ev := range script.Events {
		s.emit(ev)
	}
	if script.Err != nil {
		return "", script.Err
	}
	return script.Response, nil
}

func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

// Messages returns the messages executed on this session, in order.
func (s *Session) Messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.messages))
	copy(out, s.messages)
	return out
}

// CloseCount returns how many times Close was called.
func (s *Session) CloseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

func (s *Session) emit(ev engine.Event) {
	if s.dispatch != nil {
		s.dispatch(ev)
	}
}
