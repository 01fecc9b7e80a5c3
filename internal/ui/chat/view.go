package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/parley/internal/ui/chatrender"
)

var (
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#FFFFFF"}).
			Background(lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#3A3A3A"})

	inactiveTabStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Foreground(lipgloss.AdaptiveColor{Light: "#777777", Dark: "#888888"})

	inputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.AdaptiveColor{Light: "#999999", Dark: "#555555"})

	inputBusyStyle = inputStyle.
			BorderForeground(chatrender.AssistantColor)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})

	queuedMarkStyle = lipgloss.NewStyle().
			Foreground(chatrender.UserColor)

	streamCursorStyle = lipgloss.NewStyle().
				Foreground(chatrender.AssistantColor)

	sessionCursorStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(chatrender.AssistantColor)
)

// contentHeight is the viewport height left after tabs, input, and status.
func (m Model) contentHeight() int {
	h := m.height - 7 // tab row + bordered input (5) + blank
	if m.showStatusBar {
		h--
	}
	if h < 1 {
		h = 1
	}
	return h
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderTabs())
	b.WriteString("\n")

	if m.activeTab == TabSessions {
		b.WriteString(m.renderSessions())
	} else {
		b.WriteString(m.renderConversation())
	}

	if m.showStatusBar {
		b.WriteString("\n")
		b.WriteString(m.renderStatusBar())
	}
	return b.String()
}

// renderTabs draws one tab per conversation plus the sessions tab.
func (m Model) renderTabs() string {
	tabs := make([]string, 0, len(m.order)+1)
	for i, id := range m.order {
		pane := m.panes[id]
		label := pane.title
		if pane.processing {
			label = spinnerFrames[m.spinnerFrame] + " " + label
		}
		if pane.queued {
			label += queuedMarkStyle.Render(" •")
		}
		if m.activeTab == TabChat && i == m.active {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(label))
		}
	}
	sessionsLabel := "Sessions"
	if m.activeTab == TabSessions {
		tabs = append(tabs, activeTabStyle.Render(sessionsLabel))
	} else {
		tabs = append(tabs, inactiveTabStyle.Render(sessionsLabel))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// renderConversation draws the active pane's scrollback plus any
// in-progress streaming block, then the input area.
func (m Model) renderConversation() string {
	pane := m.activePane()
	if pane == nil {
		return ""
	}

	wrapWidth := m.width - 2
	if wrapWidth < 10 {
		wrapWidth = 10
	}

	if pane.dirty {
		content := chatrender.RenderContent(pane.messages, wrapWidth, chatrender.RenderConfig{})
		if pane.streamingText != "" {
			block := chatrender.WordWrap(pane.streamingText, wrapWidth-4)
			if pane.streamingType == "thinking" {
				block = chatrender.ThinkingStyle.Render(block)
			}
			content += "\n" + block + streamCursorStyle.Render("▌")
		}
		pane.viewport.Width = wrapWidth
		pane.viewport.Height = m.contentHeight()
		pane.viewport.SetContent(content)
		pane.viewport.GotoBottom()
		pane.dirty = false
	}

	style := inputStyle
	if pane.processing {
		style = inputBusyStyle
	}

	return pane.viewport.View() + "\n" + style.Width(m.width-2).Render(m.input.View())
}

// renderSessions draws the transcript discovery list.
func (m Model) renderSessions() string {
	var b strings.Builder
	if m.sessionErr != nil {
		b.WriteString("Error listing sessions: " + m.sessionErr.Error() + "\n")
	}
	if len(m.sessions) == 0 {
		b.WriteString("No sessions found.\n")
	}
	for i, info := range m.sessions {
		name := info.Name
		if name == "" {
			name = info.SessionID
			if len(name) > 8 {
				name = name[:8]
			}
		}
		line := fmt.Sprintf("%s  %-20s %s", info.DateLabel(), info.Project, name)
		if info.Description != "" {
			line += "  " + info.Description
		}
		if i == m.sessionCursor {
			b.WriteString(sessionCursorStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(statusBarStyle.Render("enter: resume  r: refresh  esc: back"))

	// Pad to the same height as the conversation view so the status bar
	// stays put.
	lines := strings.Count(b.String(), "\n")
	for lines < m.contentHeight()+4 {
		b.WriteString("\n")
		lines++
	}
	return b.String()
}

// renderStatusBar shows the active conversation's model, usage, activity
// label with elapsed time, and transient status.
func (m Model) renderStatusBar() string {
	pane := m.activePane()
	if pane == nil {
		return ""
	}

	parts := make([]string, 0, 4)
	if h, ok := m.svc.Registry().Handle(pane.id); ok {
		if model := h.ModelName(); model != "" {
			parts = append(parts, model)
		}
		in, out := h.TotalInputTokens(), h.TotalOutputTokens()
		if in > 0 || out > 0 {
			parts = append(parts, fmt.Sprintf("↑%d ↓%d tokens", in, out))
		}
	}
	if pane.processing {
		label := pane.label
		if elapsed := chatrender.FormatElapsed(time.Since(pane.start)); elapsed != "" {
			label += " " + elapsed
		}
		parts = append(parts, spinnerFrames[m.spinnerFrame]+" "+label)
	}
	if pane.status != "" {
		parts = append(parts, pane.status)
	}
	if len(parts) == 0 {
		parts = append(parts, "enter: send  esc: cancel  ctrl+n: new chat  ctrl+s: sessions  ctrl+c: quit")
	}
	return statusBarStyle.Render(strings.Join(parts, "  |  "))
}
