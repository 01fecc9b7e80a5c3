package engine

// EventKind identifies a streaming event emitted by the execution engine
// during a turn.
type EventKind string

const (
	EventContentBlockStart EventKind = "content_block:start"
	EventContentBlockDelta EventKind = "content_block:delta"
	EventContentBlockEnd   EventKind = "content_block:end"
	EventToolPre           EventKind = "tool:pre"
	EventToolPost          EventKind = "tool:post"
	EventExecutionStart    EventKind = "execution:start"
	EventExecutionEnd      EventKind = "execution:end"
	EventLLMResponse       EventKind = "llm:response"
)

// Event is a single streaming event. It is a flat struct with optional
// fields rather than one type per kind; consumers switch on Kind and read
// the fields that kind populates. Unknown kinds are ignored by dispatch, so
// engines may emit kinds parley does not know about.
type Event struct {
	Kind EventKind

	// content_block:start / content_block:delta
	BlockType  string // "text", "thinking", "reasoning", ...
	BlockIndex int
	Delta      string // delta text for content_block:delta

	// content_block:end
	Block *Block

	// tool:pre / tool:post
	Tool *ToolCall

	// llm:response
	Usage         *Usage
	Model         string
	ContextWindow int
}

// Block is the finalized content block carried by content_block:end.
type Block struct {
	Type string
	Text string
}

// ToolCall describes a tool invocation. Result is only set on tool:post.
type ToolCall struct {
	Name   string
	Input  map[string]any
	Result string
}

// Usage is incremental token usage carried by llm:response.
type Usage struct {
	Input  int
	Output int
}
