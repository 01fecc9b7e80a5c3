// Package chatrender renders conversation history for the chat TUI.
package chatrender

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

// Role colors - consistent across all conversation panes.
var (
	AssistantColor = lipgloss.AdaptiveColor{Light: "#179299", Dark: "#179299"}
	UserColor      = lipgloss.AdaptiveColor{Light: "#FB923C", Dark: "#FB923C"}
	SystemColor    = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}
	ThinkingColor  = lipgloss.AdaptiveColor{Light: "#A066D3", Dark: "#A066D3"}
)

// Chat rendering styles.
var (
	// RoleStyle applies bold formatting to role labels.
	RoleStyle = lipgloss.NewStyle().Bold(true)

	// UserMessageStyle is for user message content.
	UserMessageStyle = lipgloss.NewStyle().Foreground(UserColor)

	// ThinkingStyle renders thinking blocks muted and italic.
	ThinkingStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#999999", Dark: "#777777"})

	// ToolCallStyle is for tool call display (muted).
	ToolCallStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#999999", Dark: "#666666"})
)

// Message represents a single message in conversation history.
type Message struct {
	Role       string     `json:"role"` // "user", "assistant", "system", "thinking"
	Content    string     `json:"content"`
	IsToolCall bool       `json:"is_tool_call,omitempty"`
	Timestamp  *time.Time `json:"ts,omitempty"`
}

// RenderConfig configures how conversation history is rendered.
type RenderConfig struct {
	AssistantLabel string // Label for assistant messages (default: "Assistant")
	UserLabel      string // Label for user messages (default: "You")
}

// RenderContent renders conversation history with tool call grouping.
// Consecutive tool calls render as a connected group under one role label:
// the first in a sequence gets the label, middle entries get ├╴, and the
// last gets ╰╴. Boundary checks (i == 0, i == len-1) keep single tool
// calls and edge positions safe.
func RenderContent(messages []Message, wrapWidth int, cfg RenderConfig) string {
	var content strings.Builder

	userLabel := cfg.UserLabel
	if userLabel == "" {
		userLabel = "You"
	}
	assistantLabel := cfg.AssistantLabel
	if assistantLabel == "" {
		assistantLabel = "Assistant"
	}

	for i, msg := range messages {
		isFirstToolInSequence := msg.IsToolCall && (i == 0 || !messages[i-1].IsToolCall)
		isLastToolInSequence := msg.IsToolCall && (i == len(messages)-1 || !messages[i+1].IsToolCall)

		switch {
		case msg.Role == "user":
			roleLabel := RoleStyle.Foreground(UserMessageStyle.GetForeground()).Render(userLabel)
			content.WriteString(roleLabel + "\n")
			content.WriteString(WordWrap(msg.Content, wrapWidth-4) + "\n\n")

		case msg.IsToolCall:
			if isFirstToolInSequence {
				roleLabel := RoleStyle.Foreground(AssistantColor).Render(assistantLabel)
				content.WriteString(roleLabel + "\n")
			}

			prefix := "├╴ "
			if isLastToolInSequence {
				prefix = "╰╴ "
			}

			content.WriteString(ToolCallStyle.Render(prefix+msg.Content) + "\n")

			if isLastToolInSequence {
				content.WriteString("\n")
			}

		case msg.Role == "thinking":
			roleLabel := RoleStyle.Foreground(ThinkingColor).Render("Thinking")
			content.WriteString(roleLabel + "\n")
			content.WriteString(ThinkingStyle.Render(WordWrap(msg.Content, wrapWidth-4)) + "\n\n")

		case msg.Role == "system":
			roleLabel := RoleStyle.Foreground(SystemColor).Render("System")
			content.WriteString(roleLabel + "\n")
			content.WriteString(WordWrap(msg.Content, wrapWidth-4) + "\n\n")

		default:
			roleLabel := RoleStyle.Foreground(AssistantColor).Render(assistantLabel)
			content.WriteString(roleLabel + "\n")
			content.WriteString(WordWrap(msg.Content, wrapWidth-4) + "\n\n")
		}
	}

	return strings.TrimRight(content.String(), "\n")
}

// WordWrap wraps text at the given width, preserving explicit newlines.
func WordWrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	return wordwrap.String(text, width)
}

// FormatElapsed formats a turn duration for the status line. Durations
// under three seconds render empty so quick turns don't flash a counter.
func FormatElapsed(d time.Duration) string {
	if d < 3*time.Second {
		return ""
	}
	secs := int(d.Seconds())
	if secs < 60 {
		return fmt.Sprintf("%ds", secs)
	}
	return fmt.Sprintf("%dm %ds", secs/60, secs%60)
}
