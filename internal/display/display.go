// Package display defines the frontend-facing output contract. The chat
// service drives a Display; frontends (the TUI, tests) consume the events
// a BrokerDisplay publishes. Every call carries the conversation id so a
// frontend can render each conversation's stream into its own pane,
// whether or not that conversation is the visible one.
package display

// Display receives rendered output and streaming progress from the chat
// service. Implementations must be safe for concurrent use: turns for
// different conversations run on different goroutines.
//
// An empty conversationID on the message methods means "the currently
// active conversation" and is resolved by the frontend.
type Display interface {
	// AddSystemMessage appends a system-attributed message.
	AddSystemMessage(conversationID, text string)
	// AddUserMessage appends a user-attributed message.
	AddUserMessage(conversationID, text string)
	// AddAssistantMessage appends a complete assistant message. Used for
	// the non-streaming fallback when a turn produced a response but no
	// stream content.
	AddAssistantMessage(conversationID, text string)
	// ShowError surfaces a turn failure to the user.
	ShowError(conversationID, text string)
	// UpdateStatus replaces the transient status line.
	UpdateStatus(conversationID, status string)

	// StartProcessing marks the conversation busy with an activity label.
	StartProcessing(conversationID, label string)
	// FinishProcessing marks the conversation idle again.
	FinishProcessing(conversationID string)

	// StreamBlockStart announces a new content block of the given type.
	StreamBlockStart(conversationID, blockType string)
	// StreamBlockDelta carries the accumulated text of the in-progress
	// block, not just the increment, so renderers never have to stitch.
	StreamBlockDelta(conversationID, blockType, accumulated string)
	// StreamBlockEnd finalizes a block. hadBlockStart is false when the
	// engine never announced the block (deltas arrived bare); renderers
	// use it to decide between closing an open block and emitting a
	// complete one.
	StreamBlockEnd(conversationID, blockType, finalText string, hadBlockStart bool)

	// StreamToolStart announces a tool invocation.
	StreamToolStart(conversationID, name string, input map[string]any)
	// StreamToolEnd carries the (truncated) tool result.
	StreamToolEnd(conversationID, name string, input map[string]any, result string)

	// StreamUsageUpdate signals that token counters changed; the frontend
	// reads fresh totals from the session registry.
	StreamUsageUpdate(conversationID string)
}
