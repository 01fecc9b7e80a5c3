// Package conversation holds per-conversation mutable state: the
// processing flag, the single-slot message queue, the cooperative
// cancellation flag, and the stream accumulation a turn builds up.
//
// A State is owned by exactly one conversation. Its mutex exists because
// the conversation's worker goroutine and the engine's dispatch goroutine
// both touch it during a turn; no other conversation ever does.
package conversation

import (
	"context"
	"sync"
	"time"
)

// State is the mutable state of a single conversation.
//
// Lifecycle: created when the conversation is first opened, reset to idle
// defaults when a turn completes or is cancelled, removed when the
// conversation is closed.
type State struct {
	mu sync.Mutex

	conversationID string

	// Turn state machine
	processing      bool
	cancelled       bool
	processingStart time.Time
	turnCancel      context.CancelFunc // cancels the in-flight turn's context

	// Single-slot queue. Last write wins.
	queuedMessage string
	hasQueued     bool

	// Stream accumulation for the current block
	accumulated   string
	blockType     string
	hadBlockStart bool

	// Per-turn counters
	gotStreamContent bool
	toolCount        int
}

// NewState creates idle state for a conversation.
func NewState(conversationID string) *State {
	return &State{conversationID: conversationID}
}

// ConversationID returns the owning conversation's id.
func (s *State) ConversationID() string {
	return s.conversationID
}

// TryBeginTurn transitions idle → processing and resets per-turn fields.
// Returns false when a turn is already in flight, in which case the caller
// should queue the message instead. cancel is the new turn's context
// cancel; it is invoked later if the user cancels the turn.
func (s *State) TryBeginTurn(cancel context.CancelFunc) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.processing {
		return false
	}
	s.processing = true
	s.cancelled = false
	s.processingStart = time.Now()
	s.turnCancel = cancel
	s.accumulated = ""
	s.blockType = ""
	s.hadBlockStart = false
	s.gotStreamContent = false
	s.toolCount = 0
	return true
}

// FinishTurn transitions back to idle and consumes the queued message, if
// any. Returns ("", false) when no turn was in flight (already finished,
// e.g. cancel raced with normal completion) or nothing was queued.
func (s *State) FinishTurn() (queued string, hasQueued bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.processing {
		return "", false
	}
	s.processing = false
	s.cancelled = false
	s.processingStart = time.Time{}
	s.turnCancel = nil
	s.accumulated = ""
	s.blockType = ""
	s.hadBlockStart = false
	s.toolCount = 0

	queued, hasQueued = s.queuedMessage, s.hasQueued
	s.queuedMessage = ""
	s.hasQueued = false
	return queued, hasQueued
}

// QueueMessage stores a follow-up to dispatch when the current turn
// finishes. The slot holds one message; queueing again overwrites it.
func (s *State) QueueMessage(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queuedMessage = text
	s.hasQueued = true
}

// QueuedMessage returns the queued message without consuming it.
func (s *State) QueuedMessage() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queuedMessage, s.hasQueued
}

// Cancel marks the in-flight turn as cancelled and cancels its context.
// Returns the partial accumulated text so the caller can finalize the
// on-screen block. ok is false when no turn was in flight; redundant
// cancels are no-ops.
func (s *State) Cancel() (partial, blockType string, hadStart, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.processing || s.cancelled {
		return "", "", false, false
	}
	s.cancelled = true
	if s.turnCancel != nil {
		s.turnCancel()
		s.turnCancel = nil
	}
	return s.accumulated, s.blockType, s.hadBlockStart, true
}

// IsProcessing reports whether a turn is in flight.
func (s *State) IsProcessing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processing
}

// IsCancelled reports whether the in-flight turn was cancelled. Wiring
// closures consult this before producing further UI events.
func (s *State) IsCancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

// ProcessingStart returns when the in-flight turn started.
func (s *State) ProcessingStart() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.processing {
		return time.Time{}, false
	}
	return s.processingStart, true
}

// GotStreamContent reports whether the current turn streamed any content.
// Used to decide whether the final Execute response needs to be shown.
func (s *State) GotStreamContent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gotStreamContent
}

// ToolCount returns the number of tool calls observed this turn.
func (s *State) ToolCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.toolCount
}

// --- Stream accumulation (called from the engine's dispatch goroutine) ---

// BeginBlock records a content block start and resets accumulation.
func (s *State) BeginBlock(blockType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blockType = blockType
	s.hadBlockStart = true
	s.accumulated = ""
}

// AppendDelta appends delta text and returns the accumulated snapshot for
// display.
func (s *State) AppendDelta(blockType, delta string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blockType = blockType
	s.accumulated += delta
	s.gotStreamContent = true
	return s.accumulated
}

// EndBlock finalizes the current block. Returns whether a matching start
// was observed (false means the engine emitted an end with no start; the
// display falls back to a direct message).
func (s *State) EndBlock() (hadStart bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hadStart = s.hadBlockStart
	s.gotStreamContent = true
	s.accumulated = ""
	s.blockType = ""
	s.hadBlockStart = false
	return hadStart
}

// IncrementToolCount bumps and returns the per-turn tool counter.
func (s *State) IncrementToolCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toolCount++
	return s.toolCount
}
