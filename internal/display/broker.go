package display

import (
	"github.com/zjrosen/parley/internal/pubsub"
)

// BrokerDisplay publishes every Display call as an Event on a pubsub
// broker. The TUI subscribes through the broker's tea bridge; tests
// subscribe directly. Publishing never blocks, so a slow or absent
// frontend cannot stall a conversation's turn.
type BrokerDisplay struct {
	broker *pubsub.Broker[Event]
}

// NewBrokerDisplay creates a display backed by a fresh broker.
func NewBrokerDisplay() *BrokerDisplay {
	return &BrokerDisplay{broker: pubsub.NewBroker[Event]()}
}

// Broker exposes the underlying broker for subscribers.
func (d *BrokerDisplay) Broker() *pubsub.Broker[Event] {
	return d.broker
}

// Close shuts down the underlying broker.
func (d *BrokerDisplay) Close() {
	d.broker.Close()
}

func (d *BrokerDisplay) publish(ev Event) {
	d.broker.Publish(pubsub.UpdatedEvent, ev)
}

// AddSystemMessage publishes a system-attributed message.
func (d *BrokerDisplay) AddSystemMessage(conversationID, text string) {
	d.publish(Event{Type: SystemMessage, ConversationID: conversationID, Text: text})
}

// AddUserMessage publishes a user-attributed message.
func (d *BrokerDisplay) AddUserMessage(conversationID, text string) {
	d.publish(Event{Type: UserMessage, ConversationID: conversationID, Text: text})
}

// AddAssistantMessage publishes a complete assistant message.
func (d *BrokerDisplay) AddAssistantMessage(conversationID, text string) {
	d.publish(Event{Type: AssistantMessage, ConversationID: conversationID, Text: text})
}

// ShowError publishes a turn failure.
func (d *BrokerDisplay) ShowError(conversationID, text string) {
	d.publish(Event{Type: ErrorMessage, ConversationID: conversationID, Text: text})
}

// UpdateStatus publishes a status line change.
func (d *BrokerDisplay) UpdateStatus(conversationID, status string) {
	d.publish(Event{Type: StatusUpdate, ConversationID: conversationID, Text: status})
}

// StartProcessing publishes the start of a turn with its activity label.
func (d *BrokerDisplay) StartProcessing(conversationID, label string) {
	d.publish(Event{Type: ProcessingStarted, ConversationID: conversationID, Text: label})
}

// FinishProcessing publishes the end of a turn.
func (d *BrokerDisplay) FinishProcessing(conversationID string) {
	d.publish(Event{Type: ProcessingFinished, ConversationID: conversationID})
}

// StreamBlockStart publishes a content block opening.
func (d *BrokerDisplay) StreamBlockStart(conversationID, blockType string) {
	d.publish(Event{Type: BlockStarted, ConversationID: conversationID, BlockType: blockType})
}

// StreamBlockDelta publishes a block's accumulated text.
func (d *BrokerDisplay) StreamBlockDelta(conversationID, blockType, accumulated string) {
	d.publish(Event{Type: BlockDelta, ConversationID: conversationID, BlockType: blockType, Text: accumulated})
}

// StreamBlockEnd publishes a content block closing.
func (d *BrokerDisplay) StreamBlockEnd(conversationID, blockType, finalText string, hadBlockStart bool) {
	d.publish(Event{Type: BlockEnded, ConversationID: conversationID, BlockType: blockType, Text: finalText, HadBlockStart: hadBlockStart})
}

// StreamToolStart publishes a tool invocation.
func (d *BrokerDisplay) StreamToolStart(conversationID, name string, input map[string]any) {
	d.publish(Event{Type: ToolStarted, ConversationID: conversationID, ToolName: name, ToolInput: input})
}

// StreamToolEnd publishes a tool completion with its truncated result.
func (d *BrokerDisplay) StreamToolEnd(conversationID, name string, input map[string]any, result string) {
	d.publish(Event{Type: ToolEnded, ConversationID: conversationID, ToolName: name, ToolInput: input, ToolResult: result})
}

// StreamUsageUpdate publishes a token counter change.
func (d *BrokerDisplay) StreamUsageUpdate(conversationID string) {
	d.publish(Event{Type: UsageUpdated, ConversationID: conversationID})
}

// Nop is a Display that discards everything. Used where output is
// irrelevant, like headless utilities and some tests.
type Nop struct{}

// NewNop creates a discarding display.
func NewNop() Nop { return Nop{} }

func (Nop) AddSystemMessage(string, string) {}
func (Nop) AddUserMessage(string, string) {}
func (Nop) AddAssistantMessage(string, string) {}
func (Nop) ShowError(string, string) {}
func (Nop) UpdateStatus(string, string) {}
func (Nop) StartProcessing(string, string) {}
func (Nop) FinishProcessing(string) {}
func (Nop) StreamBlockStart(string, string) {}
func (Nop) StreamBlockDelta(string, string, string) {}
func (Nop) StreamBlockEnd(string, string, string, bool) {}
func (Nop) StreamToolStart(string, string, map[string]any) {}
func (Nop) StreamToolEnd(string, string, map[string]any, string) {}
func (Nop) StreamUsageUpdate(string) {}
