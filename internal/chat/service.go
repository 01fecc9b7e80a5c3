// Package chat drives conversation turns. The Service accepts outgoing
// messages, runs each turn on its own goroutine, and bridges engine
// streaming callbacks to the display. All cross-conversation behavior
// (queueing, cancellation, isolation) lives here and in the conversation
// package it leans on.
package chat

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/parley/internal/conversation"
	"github.com/zjrosen/parley/internal/display"
	"github.com/zjrosen/parley/internal/engine"
	"github.com/zjrosen/parley/internal/log"
	"github.com/zjrosen/parley/internal/session"
	"github.com/zjrosen/parley/internal/tracing"
)

// processingLabel is the default activity label shown while a turn runs.
const processingLabel = "Thinking"

// Config configures the chat service.
type Config struct {
	// Tracer records turn spans. Nil means no-op.
	Tracer trace.Tracer
	// SessionDefaults is the template for engine sessions the service
	// creates on demand (working dir, model). OnStream is always
	// overwritten by the registry.
	SessionDefaults engine.SessionConfig
}

// Service coordinates turns across conversations. Safe for concurrent
// use; each conversation's turn runs on its own goroutine and only
// touches that conversation's state.
type Service struct {
	registry *session.Registry
	tracker  *conversation.Tracker
	disp     display.Display
	tracer   trace.Tracer
	defaults engine.SessionConfig
}

// NewService creates a chat service over the given registry, state
// tracker, and display.
func NewService(reg *session.Registry, trk *conversation.Tracker, disp display.Display, cfg Config) *Service {
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("noop")
	}
	return &Service{
		registry: reg,
		tracker:  trk,
		disp:     disp,
		tracer:   tracer,
		defaults: cfg.SessionDefaults,
	}
}

// Registry exposes the session registry for frontends that read session
// metadata (model, token totals).
func (s *Service) Registry() *session.Registry {
	return s.registry
}

// Tracker exposes per-conversation state for frontends that render
// processing indicators and queue markers.
func (s *Service) Tracker() *conversation.Tracker {
	return s.tracker
}

// Open creates a conversation's engine session without sending anything.
// An empty conversationID creates the default conversation; the returned
// handle carries the effective id.
func (s *Service) Open(ctx context.Context, conversationID string) (*session.Handle, error) {
	return s.registry.Create(ctx, conversationID, s.defaults)
}

// Resume opens a conversation backed by an existing engine session id, so
// a prior transcript's context carries into the new conversation.
func (s *Service) Resume(ctx context.Context, sessionID, conversationID string) (*session.Handle, error) {
	return s.registry.Resume(ctx, sessionID, conversationID, s.defaults)
}

// Send accepts a user message for a conversation. If the conversation is
// idle a turn starts immediately on a background goroutine; if a turn is
// in flight the message lands in the single-slot queue, replacing any
// earlier queued message. An empty conversationID targets the default
// conversation, creating it on first use.
//
// Send returns once the message is accepted; it never waits for the turn.
func (s *Service) Send(conversationID, text string) {
	s.send(conversationID, text, false)
}

// send is the shared entry for user sends and queued dispatches. fromQueue
// marks the automatic dispatch of a queued message: its user bubble was
// already shown when it was queued, so it must not be shown again.
func (s *Service) send(conversationID, text string, fromQueue bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	conversationID = s.resolve(conversationID)
	if conversationID == "" {
		// No default conversation yet; create it now so the turn has a
		// session to run against.
		h, err := s.registry.Create(context.Background(), "", s.defaults)
		if err != nil {
			log.ErrorErr(log.CatChat, "default session create failed", err)
			s.disp.ShowError("", err.Error())
			return
		}
		conversationID = h.ConversationID()
	}

	st := s.tracker.GetOrCreate(conversationID)
	ctx, cancel := context.WithCancel(context.Background())
	if !st.TryBeginTurn(cancel) {
		cancel()
		st.QueueMessage(text)
		if !fromQueue {
			s.disp.AddUserMessage(conversationID, text)
			s.disp.UpdateStatus(conversationID, "Message queued")
		}
		log.Debug(log.CatChat, "message queued", "conversation", conversationID)
		return
	}

	if !fromQueue {
		s.disp.AddUserMessage(conversationID, text)
	}
	s.disp.StartProcessing(conversationID, processingLabel)
	go s.runTurn(ctx, cancel, conversationID, st, text)
}

// runTurn executes one turn end to end: ensure the session exists, wire
// fresh streaming callbacks, execute, handle the fallback response, then
// finish the turn and dispatch anything queued.
func (s *Service) runTurn(ctx context.Context, cancel context.CancelFunc, conversationID string, st *conversation.State, text string) {
	defer cancel()

	ctx, span := s.tracer.Start(ctx, tracing.SpanTurn, trace.WithAttributes(
		attribute.String(tracing.AttrConversationID, conversationID),
		attribute.Int(tracing.AttrMessageLength, len(text)),
	))
	defer span.End()

	h, ok := s.registry.Handle(conversationID)
	if !ok {
		var err error
		h, err = s.registry.Create(ctx, conversationID, s.defaults)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			log.ErrorErr(log.CatChat, "session create failed", err, "conversation", conversationID)
			s.disp.ShowError(conversationID, err.Error())
			s.finishTurn(conversationID, st, span)
			return
		}
	}
	span.SetAttributes(attribute.String(tracing.AttrSessionID, h.SessionID()))

	s.wireStreamingCallbacks(conversationID, st, h)

	response, err := s.registry.SendMessage(ctx, conversationID, text)

	// Cancellation is judged by the turn context, not the state flags:
	// Cancel fires turnCancel before any state resets, so ctx.Err is the
	// one signal that can't be raced away.
	cancelled := ctx.Err() != nil
	span.SetAttributes(
		attribute.Bool(tracing.AttrCancelled, cancelled),
		attribute.Int(tracing.AttrToolCount, st.ToolCount()),
		attribute.Bool(tracing.AttrStreamContent, st.GotStreamContent()),
	)

	switch {
	case cancelled:
		span.AddEvent(tracing.EventTurnCancelled)
	case err != nil:
		span.SetStatus(codes.Error, err.Error())
		log.ErrorErr(log.CatChat, "turn failed", err, "conversation", conversationID)
		s.disp.ShowError(conversationID, err.Error())
	case !st.GotStreamContent() && response != "":
		// Engine produced a response without streaming any content.
		span.AddEvent(tracing.EventFallbackMessage)
		s.disp.AddAssistantMessage(conversationID, response)
	}

	s.finishTurn(conversationID, st, span)
}

// finishTurn resets the conversation to idle and dispatches the queued
// message, if any. The queued message gets a full turn of its own but
// skips the user-message emission, which already happened at queue time.
func (s *Service) finishTurn(conversationID string, st *conversation.State, span trace.Span) {
	queued, hasQueued := st.FinishTurn()
	s.disp.FinishProcessing(conversationID)
	if hasQueued {
		span.AddEvent(tracing.EventQueueDispatched)
		log.Debug(log.CatChat, "dispatching queued message", "conversation", conversationID)
		go s.send(conversationID, queued, true)
	}
}

// Cancel cooperatively cancels a conversation's in-flight turn: the turn
// context is cancelled, the partially streamed block is finalized with
// whatever text accumulated, and a system notice is shown. The turn's
// goroutine observes the cancelled context, skips its remaining output,
// and finishes the turn (dispatching any queued message) when the engine
// returns. Returns false when no turn was in flight.
func (s *Service) Cancel(conversationID string) bool {
	conversationID = s.resolve(conversationID)
	st := s.tracker.GetIfExists(conversationID)
	if st == nil {
		return false
	}
	partial, blockType, hadStart, ok := st.Cancel()
	if !ok {
		return false
	}
	if hadStart || partial != "" {
		s.disp.StreamBlockEnd(conversationID, blockType, partial, hadStart)
	}
	s.disp.AddSystemMessage(conversationID, "Generation cancelled.")
	log.Info(log.CatChat, "turn cancelled", "conversation", conversationID)
	return true
}

// IsProcessing reports whether the conversation has a turn in flight.
func (s *Service) IsProcessing(conversationID string) bool {
	st := s.tracker.GetIfExists(s.resolve(conversationID))
	return st != nil && st.IsProcessing()
}

// Close ends a conversation: the engine session is closed and the
// conversation's state is dropped, cancelling any in-flight turn.
func (s *Service) Close(ctx context.Context, conversationID string) error {
	conversationID = s.resolve(conversationID)
	err := s.registry.End(ctx, conversationID)
	s.tracker.Delete(conversationID)
	return err
}

// resolve maps an empty conversation id to the default conversation.
// Returns empty when no default exists yet.
func (s *Service) resolve(conversationID string) string {
	if conversationID != "" {
		return conversationID
	}
	return s.registry.DefaultConversationID()
}
