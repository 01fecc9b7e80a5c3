package chatrender

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

func TestRenderContent_RoleLabels(t *testing.T) {
	messages := []Message{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
		{Role: "system", Content: "notice"},
		{Role: "thinking", Content: "hmm"},
	}

	out := stripANSI(RenderContent(messages, 80, RenderConfig{}))

	assert.Contains(t, out, "You\nhi")
	assert.Contains(t, out, "Assistant\nhello")
	assert.Contains(t, out, "System\nnotice")
	assert.Contains(t, out, "Thinking\nhmm")
}

func TestRenderContent_CustomLabels(t *testing.T) {
	messages := []Message{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	}

	out := stripANSI(RenderContent(messages, 80, RenderConfig{
		UserLabel:      "Me",
		AssistantLabel: "Echo",
	}))

	assert.Contains(t, out, "Me\n")
	assert.Contains(t, out, "Echo\n")
	assert.NotContains(t, out, "You\n")
}

func TestRenderContent_ToolCallGrouping(t *testing.T) {
	messages := []Message{
		{Role: "assistant", Content: "read_file", IsToolCall: true},
		{Role: "assistant", Content: "search", IsToolCall: true},
		{Role: "assistant", Content: "write_file", IsToolCall: true},
	}

	out := stripANSI(RenderContent(messages, 80, RenderConfig{}))

	// One label for the group, middle entries branch, last one closes
	assert.Equal(t, 1, strings.Count(out, "Assistant"))
	assert.Contains(t, out, "├╴ read_file")
	assert.Contains(t, out, "├╴ search")
	assert.Contains(t, out, "╰╴ write_file")
}

func TestRenderContent_SingleToolCall(t *testing.T) {
	messages := []Message{
		{Role: "assistant", Content: "search", IsToolCall: true},
	}

	out := stripANSI(RenderContent(messages, 80, RenderConfig{}))

	assert.Contains(t, out, "╰╴ search")
	assert.NotContains(t, out, "├╴")
}

func TestRenderContent_ToolSequenceBrokenByText(t *testing.T) {
	messages := []Message{
		{Role: "assistant", Content: "search", IsToolCall: true},
		{Role: "assistant", Content: "here is what I found"},
		{Role: "assistant", Content: "write_file", IsToolCall: true},
	}

	out := stripANSI(RenderContent(messages, 80, RenderConfig{}))

	// Two separate sequences, each closed
	assert.Equal(t, 2, strings.Count(out, "╰╴"))
	assert.Equal(t, 3, strings.Count(out, "Assistant"))
}

func TestRenderContent_Empty(t *testing.T) {
	assert.Empty(t, RenderContent(nil, 80, RenderConfig{}))
}

func TestWordWrap(t *testing.T) {
	wrapped := WordWrap("alpha beta gamma delta", 11)
	assert.Equal(t, "alpha beta\ngamma delta", wrapped)

	// Non-positive width leaves text alone
	assert.Equal(t, "unchanged text", WordWrap("unchanged text", 0))

	// Explicit newlines survive
	assert.Equal(t, "a\nb", WordWrap("a\nb", 40))
}

func TestFormatElapsed(t *testing.T) {
	assert.Empty(t, FormatElapsed(0))
	assert.Empty(t, FormatElapsed(2900*time.Millisecond))
	assert.Equal(t, "3s", FormatElapsed(3*time.Second))
	assert.Equal(t, "59s", FormatElapsed(59*time.Second))
	assert.Equal(t, "1m 0s", FormatElapsed(time.Minute))
	assert.Equal(t, "2m 5s", FormatElapsed(125*time.Second))
}
