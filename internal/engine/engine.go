// Package engine defines the contract between parley and an execution
// engine: the component that actually runs an agent turn for a session and
// emits streaming events while doing so.
//
// Parley never looks inside the engine. It creates sessions, executes
// messages on them, and receives events through a dispatch hook that is
// bound once at session creation. The engine must be safe to call
// concurrently for distinct sessions; parley guarantees at most one
// in-flight Execute per session.
package engine

import "context"

// DispatchFunc receives streaming events for a single session. It is bound
// at session creation and never rewired, which is what makes event routing
// structural: an event can only ever reach the session it was created for.
//
// The engine invokes it from whatever goroutine runs the session's turn,
// never concurrently with itself for the same session.
type DispatchFunc func(ev Event)

// SessionConfig configures a new engine session.
type SessionConfig struct {
	// WorkingDir is the directory the session operates in.
	WorkingDir string

	// Model overrides the engine's default model when non-empty.
	Model string

	// ResumeSessionID resumes an existing engine session instead of
	// starting a fresh one.
	ResumeSessionID string

	// OnStream is the session's permanent dispatch hook. May be nil, in
	// which case the engine streams nothing.
	OnStream DispatchFunc
}

// Engine creates sessions. The single shared entry point across all
// conversations; implementations must support concurrent CreateSession
// calls.
type Engine interface {
	CreateSession(ctx context.Context, cfg SessionConfig) (Session, error)
}

// Session is one engine-side conversation. Execute may be long-running; it
// blocks the calling goroutine until the turn finishes and returns the
// final response text. A context-aware engine should stop early when ctx is
// cancelled, but parley does not rely on that (cancellation is cooperative
// at the UI layer).
type Session interface {
	ID() string
	Execute(ctx context.Context, message string) (string, error)
	Close(ctx context.Context) error
}
