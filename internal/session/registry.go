package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/zjrosen/parley/internal/engine"
	"github.com/zjrosen/parley/internal/log"
)

// Registry owns the conversation id → Handle map, the one truly shared
// mutable structure in the engine core. Create and End are the only
// operations that mutate the map; lookups and message sends take a read
// lock and never block on another conversation's in-flight turn.
type Registry struct {
	mu      sync.RWMutex
	eng     engine.Engine
	handles map[string]*Handle

	// defaultID points at the handle used by single-conversation callers
	// that predate the registry. It is an index into handles, not separate
	// storage.
	defaultID string
}

// NewRegistry creates an empty registry backed by the given engine.
func NewRegistry(eng engine.Engine) *Registry {
	return &Registry{
		eng:     eng,
		handles: make(map[string]*Handle),
	}
}

// Create starts a new engine session and registers its handle. When
// conversationID is empty an id is generated and the handle becomes the
// default (single-conversation compatibility). Returns
// ErrConversationExists when the id already has a live handle.
//
// The engine's event hook is bound to the handle's Dispatch here, once,
// and never rewired.
func (r *Registry) Create(ctx context.Context, conversationID string, cfg engine.SessionConfig) (*Handle, error) {
	autoGenerated := conversationID == ""
	if autoGenerated {
		conversationID = uuid.NewString()
	}

	h := newHandle(conversationID)

	// Reserve the id before the engine call so concurrent Creates for the
	// same conversation can't both win.
	r.mu.Lock()
	if _, exists := r.handles[conversationID]; exists {
		r.mu.Unlock()
		return nil, fmt.Errorf("create session %q: %w", conversationID, ErrConversationExists)
	}
	r.handles[conversationID] = h
	if autoGenerated {
		r.defaultID = conversationID
	}
	r.mu.Unlock()

	cfg.OnStream = h.Dispatch
	sess, err := r.eng.CreateSession(ctx, cfg)
	if err != nil {
		r.mu.Lock()
		delete(r.handles, conversationID)
		if r.defaultID == conversationID {
			r.defaultID = ""
		}
		r.mu.Unlock()
		return nil, fmt.Errorf("create session %q: %w", conversationID, err)
	}

	h.setSession(sess)
	h.ResetUsage()
	log.Info(log.CatSession, "session created", "conversation", conversationID, "session_id", sess.ID())
	return h, nil
}

// Resume is Create for an existing engine session id.
func (r *Registry) Resume(ctx context.Context, sessionID, conversationID string, cfg engine.SessionConfig) (*Handle, error) {
	cfg.ResumeSessionID = sessionID
	return r.Create(ctx, conversationID, cfg)
}

// Handle looks up a conversation's handle. Pure lookup, never mutates.
func (r *Registry) Handle(conversationID string) (*Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[conversationID]
	return h, ok
}

// Handles returns a snapshot of all registered handles.
func (r *Registry) Handles() map[string]*Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*Handle, len(r.handles))
	for id, h := range r.handles {
		out[id] = h
	}
	return out
}

// SendMessage executes one turn on the conversation's session. The call
// blocks the caller for the duration of the turn; it holds no registry
// lock while doing so.
func (r *Registry) SendMessage(ctx context.Context, conversationID, text string) (string, error) {
	h, ok := r.Handle(conversationID)
	if !ok {
		return "", fmt.Errorf("send to %q: %w", conversationID, ErrNoConversation)
	}
	sess := h.Session()
	if sess == nil {
		return "", fmt.Errorf("send to %q: %w", conversationID, ErrNoConversation)
	}
	return sess.Execute(ctx, text)
}

// End tears down the engine session and removes the handle. Idempotent:
// ending an absent conversation is a no-op. An empty conversationID ends
// the default conversation.
func (r *Registry) End(ctx context.Context, conversationID string) error {
	r.mu.Lock()
	if conversationID == "" {
		conversationID = r.defaultID
	}
	h, ok := r.handles[conversationID]
	if ok {
		delete(r.handles, conversationID)
	}
	if r.defaultID == conversationID {
		r.defaultID = ""
	}
	r.mu.Unlock()

	if !ok {
		return nil
	}
	sess := h.Session()
	h.setSession(nil)
	if sess == nil {
		return nil
	}
	if err := sess.Close(ctx); err != nil {
		log.ErrorErr(log.CatSession, "session close failed", err, "conversation", conversationID)
		return fmt.Errorf("end session %q: %w", conversationID, err)
	}
	log.Info(log.CatSession, "session ended", "conversation", conversationID)
	return nil
}

// --- Default-handle compatibility accessors ---
//
// Single-conversation callers predating the registry address "the"
// session; these delegate to whichever handle is the default. They are a
// compatibility shim, not part of the multi-conversation contract.

func (r *Registry) defaultHandle() *Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.defaultID == "" {
		return nil
	}
	return r.handles[r.defaultID]
}

// DefaultConversationID returns the id of the default conversation, empty
// when none exists.
func (r *Registry) DefaultConversationID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultID
}

// Session returns the default handle's engine session, nil when absent.
func (r *Registry) Session() engine.Session {
	if h := r.defaultHandle(); h != nil {
		return h.Session()
	}
	return nil
}

// SessionID returns the default handle's engine session id.
func (r *Registry) SessionID() string {
	if h := r.defaultHandle(); h != nil {
		return h.SessionID()
	}
	return ""
}

// ModelName returns the default handle's model name.
func (r *Registry) ModelName() string {
	if h := r.defaultHandle(); h != nil {
		return h.ModelName()
	}
	return ""
}

// ContextWindow returns the default handle's context window size.
func (r *Registry) ContextWindow() int {
	if h := r.defaultHandle(); h != nil {
		return h.ContextWindow()
	}
	return 0
}

// TotalInputTokens returns the default handle's input token total.
func (r *Registry) TotalInputTokens() int {
	if h := r.defaultHandle(); h != nil {
		return h.TotalInputTokens()
	}
	return 0
}

// TotalOutputTokens returns the default handle's output token total.
func (r *Registry) TotalOutputTokens() int {
	if h := r.defaultHandle(); h != nil {
		return h.TotalOutputTokens()
	}
	return 0
}

// ResetUsage zeroes the default handle's token counters.
func (r *Registry) ResetUsage() {
	if h := r.defaultHandle(); h != nil {
		h.ResetUsage()
	}
}

// SwitchModel switches the default handle's session to a different model,
// when the engine supports it.
func (r *Registry) SwitchModel(model string) bool {
	h := r.defaultHandle()
	if h == nil {
		return false
	}
	sw, ok := h.Session().(engine.ModelSwitcher)
	if !ok || !sw.SwitchModel(model) {
		return false
	}
	h.mu.Lock()
	h.modelName = model
	h.mu.Unlock()
	return true
}
