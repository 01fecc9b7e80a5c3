package tracing

// Span attribute keys for session engine tracing.
const (
	// Conversation attributes
	AttrConversationID = "conversation.id"
	AttrQueued         = "conversation.queued"
	AttrCancelled      = "conversation.cancelled"

	// Session attributes
	AttrSessionID = "session.id"
	AttrModel     = "session.model"

	// Turn attributes
	AttrMessageLength = "turn.message_length"
	AttrToolCount     = "turn.tool_count"
	AttrStreamContent = "turn.got_stream_content"

	// Error attributes
	AttrErrorMessage = "error.message"
)

// Span names for turn tracing.
const (
	SpanTurn          = "chat.turn"
	SpanSessionCreate = "session.create"
	SpanSessionEnd    = "session.end"
)

// Event names for span events.
const (
	EventMessageQueued   = "message.queued"
	EventQueueDispatched = "queue.dispatched"
	EventTurnCancelled   = "turn.cancelled"
	EventFallbackMessage = "fallback.assistant_message"
)
