package conversation

import "sync"

// Tracker provides thread-safe access to per-conversation State. The
// tracker's RWMutex protects the map; each State's own mutex protects its
// fields. This mirrors the two-level locking used by the session registry:
// map mutation is the only globally shared operation.
type Tracker struct {
	mu     sync.RWMutex
	states map[string]*State
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{states: make(map[string]*State)}
}

// GetOrCreate returns the state for a conversation, creating idle state if
// it doesn't exist.
func (t *Tracker) GetOrCreate(conversationID string) *State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok := t.states[conversationID]; ok {
		return st
	}
	st := NewState(conversationID)
	t.states[conversationID] = st
	return st
}

// GetIfExists returns the state for a conversation if it exists, nil
// otherwise.
func (t *Tracker) GetIfExists(conversationID string) *State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.states[conversationID]
}

// Delete removes a conversation's state, cancelling any in-flight turn
// context first. Deleting an absent conversation is a no-op.
func (t *Tracker) Delete(conversationID string) {
	t.mu.Lock()
	st, ok := t.states[conversationID]
	if ok {
		delete(t.states, conversationID)
	}
	t.mu.Unlock()

	if !ok {
		return
	}
	st.mu.Lock()
	if st.turnCancel != nil {
		st.turnCancel()
		st.turnCancel = nil
	}
	st.queuedMessage = ""
	st.hasQueued = false
	st.accumulated = ""
	st.mu.Unlock()
}

// IDs returns a snapshot of the tracked conversation ids.
func (t *Tracker) IDs() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := make([]string, 0, len(t.states))
	for id := range t.states {
		ids = append(ids, id)
	}
	return ids
}
