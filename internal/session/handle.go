// Package session owns the runtime unit of isolation: one Handle per
// conversation, each carrying its own engine session, callback slots, and
// token counters, collected in a Registry keyed by conversation id.
//
// Isolation is structural. A handle's dispatch method is bound to its
// engine session once, at creation; events can only ever reach the handle
// they were emitted for, so no lookup on the event path can misroute them.
package session

import (
	"sync"

	"github.com/zjrosen/parley/internal/engine"
	"github.com/zjrosen/parley/internal/log"
)

// toolResultLimit caps tool results forwarded to callbacks. Large tool
// output is for the transcript, not the live stream.
const toolResultLimit = 2000

// Callbacks are the handle's slots, installed fresh at the start of every
// turn. A nil slot means no-op. Function values here play the role the
// original design gave to mutable callback attributes; re-binding per turn
// is the contract, not a long-lived registration.
type Callbacks struct {
	OnContentBlockStart func(blockType string, index int)
	OnContentBlockDelta func(blockType, delta string)
	OnContentBlockEnd   func(blockType, text string)
	OnToolPre           func(name string, input map[string]any)
	OnToolPost          func(name string, input map[string]any, result string)
	OnExecutionStart    func()
	OnExecutionEnd      func()
	OnUsageUpdate       func()
}

// Handle isolates one conversation's engine session, callbacks, and token
// counters. Fields are touched only by the handle's own Dispatch (on the
// engine's goroutine) and by the closures the turn driver installs for
// this same conversation.
type Handle struct {
	conversationID string

	mu        sync.Mutex
	session   engine.Session
	callbacks Callbacks

	totalInputTokens  int
	totalOutputTokens int
	modelName         string
	contextWindow     int
}

func newHandle(conversationID string) *Handle {
	return &Handle{conversationID: conversationID}
}

// ConversationID returns the stable id this handle is registered under.
func (h *Handle) ConversationID() string {
	return h.conversationID
}

// Session returns the engine session owned by this handle, nil before
// creation completes.
func (h *Handle) Session() engine.Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.session
}

// SessionID returns the engine-side session id, empty when no session.
func (h *Handle) SessionID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.session == nil {
		return ""
	}
	return h.session.ID()
}

func (h *Handle) setSession(s engine.Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.session = s
}

// SetCallbacks replaces all eight slots at once. Called at the start of
// every outgoing turn so stale closures from a finished turn are never
// left installed.
func (h *Handle) SetCallbacks(cb Callbacks) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.callbacks = cb
}

// ResetUsage zeroes the token counters. Called at session start, not
// mid-turn.
func (h *Handle) ResetUsage() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.totalInputTokens = 0
	h.totalOutputTokens = 0
	h.modelName = ""
	h.contextWindow = 0
}

// TotalInputTokens returns the accumulated input token count.
func (h *Handle) TotalInputTokens() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.totalInputTokens
}

// TotalOutputTokens returns the accumulated output token count.
func (h *Handle) TotalOutputTokens() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.totalOutputTokens
}

// ModelName returns the model reported by the engine, empty until the
// first llm:response.
func (h *Handle) ModelName() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.modelName
}

// ContextWindow returns the context window size reported by the engine.
func (h *Handle) ContextWindow() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.contextWindow
}

// Dispatch routes an engine event to this handle's callback slots. It is
// the handle's permanent dispatch hook, bound at session creation.
//
// Unknown event kinds and unset slots are ignored, never errors: a
// malformed event from one conversation's turn must not destabilize
// anything else. Called from the goroutine running this handle's turn and
// never concurrently with itself for the same handle.
func (h *Handle) Dispatch(ev engine.Event) {
	h.mu.Lock()
	cb := h.callbacks
	if ev.Kind == engine.EventLLMResponse {
		if ev.Usage != nil {
			h.totalInputTokens += ev.Usage.Input
			h.totalOutputTokens += ev.Usage.Output
		}
		if ev.Model != "" && h.modelName == "" {
			h.modelName = ev.Model
		}
		if ev.ContextWindow > 0 && h.contextWindow == 0 {
			h.contextWindow = ev.ContextWindow
		}
	}
	h.mu.Unlock()

	switch ev.Kind {
	case engine.EventContentBlockStart:
		if cb.OnContentBlockStart != nil {
			cb.OnContentBlockStart(blockTypeOrText(ev.BlockType), ev.BlockIndex)
		}
	case engine.EventContentBlockDelta:
		if ev.Delta != "" && cb.OnContentBlockDelta != nil {
			cb.OnContentBlockDelta(blockTypeOrText(ev.BlockType), ev.Delta)
		}
	case engine.EventContentBlockEnd:
		if ev.Block == nil || cb.OnContentBlockEnd == nil {
			return
		}
		switch ev.Block.Type {
		case "text":
			cb.OnContentBlockEnd("text", ev.Block.Text)
		case "thinking", "reasoning":
			cb.OnContentBlockEnd("thinking", ev.Block.Text)
		}
		// Other block types (tool_use and friends) surface through the
		// tool events instead.
	case engine.EventToolPre:
		if cb.OnToolPre != nil {
			name, input := toolNameInput(ev.Tool)
			cb.OnToolPre(name, input)
		}
	case engine.EventToolPost:
		if cb.OnToolPost != nil {
			name, input := toolNameInput(ev.Tool)
			result := ""
			if ev.Tool != nil {
				result = truncate(ev.Tool.Result, toolResultLimit)
			}
			cb.OnToolPost(name, input, result)
		}
	case engine.EventExecutionStart:
		if cb.OnExecutionStart != nil {
			cb.OnExecutionStart()
		}
	case engine.EventExecutionEnd:
		if cb.OnExecutionEnd != nil {
			cb.OnExecutionEnd()
		}
	case engine.EventLLMResponse:
		if cb.OnUsageUpdate != nil {
			cb.OnUsageUpdate()
		}
	default:
		log.Debug(log.CatSession, "ignoring unknown engine event", "kind", string(ev.Kind), "conversation", h.conversationID)
	}
}

func blockTypeOrText(t string) string {
	if t == "" {
		return "text"
	}
	return t
}

func toolNameInput(t *engine.ToolCall) (string, map[string]any) {
	if t == nil {
		return "unknown", nil
	}
	name := t.Name
	if name == "" {
		name = "unknown"
	}
	return name, t.Input
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
