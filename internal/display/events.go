package display

// EventType identifies the kind of display event.
type EventType string

const (
	// SystemMessage is emitted for system-attributed messages.
	SystemMessage EventType = "system_message"
	// UserMessage is emitted when a user message is accepted for a turn.
	UserMessage EventType = "user_message"
	// AssistantMessage is emitted for complete assistant messages.
	AssistantMessage EventType = "assistant_message"
	// ErrorMessage is emitted when a turn fails.
	ErrorMessage EventType = "error"
	// StatusUpdate is emitted when the transient status line changes.
	StatusUpdate EventType = "status"

	// ProcessingStarted is emitted when a conversation begins a turn.
	ProcessingStarted EventType = "processing_started"
	// ProcessingFinished is emitted when a conversation's turn completes.
	ProcessingFinished EventType = "processing_finished"

	// BlockStarted is emitted when a content block opens.
	BlockStarted EventType = "block_started"
	// BlockDelta is emitted as a block's accumulated text grows.
	BlockDelta EventType = "block_delta"
	// BlockEnded is emitted when a content block closes.
	BlockEnded EventType = "block_ended"

	// ToolStarted is emitted when a tool invocation begins.
	ToolStarted EventType = "tool_started"
	// ToolEnded is emitted when a tool invocation completes.
	ToolEnded EventType = "tool_ended"

	// UsageUpdated is emitted when token counters change.
	UsageUpdated EventType = "usage_updated"
)

// Event is the wire form of a Display call, published over the pubsub
// broker for frontends to consume. Fields are populated per Type; unused
// fields are zero.
type Event struct {
	// Type identifies the kind of event.
	Type EventType
	// ConversationID identifies which conversation the event belongs to.
	// Empty means the frontend's currently active conversation.
	ConversationID string
	// Text carries message bodies, status lines, processing labels, and
	// block text depending on Type.
	Text string
	// BlockType is "text" or "thinking" for block events.
	BlockType string
	// HadBlockStart reports whether a BlockEnded event closes an
	// announced block.
	HadBlockStart bool
	// ToolName identifies the tool for tool events.
	ToolName string
	// ToolInput carries the tool's input for tool events.
	ToolInput map[string]any
	// ToolResult carries the truncated tool result for ToolEnded.
	ToolResult string
}
