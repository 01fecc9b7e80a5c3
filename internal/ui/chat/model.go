// Package chat implements the conversation TUI: one tab per conversation,
// each with its own scrollback, streaming pane, and processing indicator.
// Display events arrive over the pubsub broker and are routed to panes by
// conversation id, so a background conversation keeps streaming into its
// own scrollback while another is visible.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	chatsvc "github.com/zjrosen/parley/internal/chat"
	"github.com/zjrosen/parley/internal/discovery"
	"github.com/zjrosen/parley/internal/display"
	"github.com/zjrosen/parley/internal/log"
	"github.com/zjrosen/parley/internal/pubsub"
	"github.com/zjrosen/parley/internal/ui/chatrender"
	"github.com/zjrosen/parley/internal/ui/markdown"
)

// Tab indices.
const (
	TabChat     = 0
	TabSessions = 1
	tabCount    = 2
)

// spinnerFrames defines the braille spinner animation sequence.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// SpinnerTickMsg advances the spinner frame.
type SpinnerTickMsg struct{}

// sessionsLoadedMsg carries transcript discovery results.
type sessionsLoadedMsg struct {
	sessions []discovery.SessionInfo
	err      error
}

// conversationPane holds per-conversation UI state. Pointer values in the
// panes map so mutations persist across the value-receiver Update/View.
type conversationPane struct {
	id       string
	title    string
	messages []chatrender.Message
	viewport viewport.Model

	// In-progress streaming block
	streamingText string
	streamingType string

	processing bool
	label      string
	start      time.Time
	queued     bool
	status     string
	dirty      bool
}

// Config configures the chat TUI.
type Config struct {
	Service       *chatsvc.Service
	Events        *pubsub.Broker[display.Event]
	Scanner       *discovery.Scanner
	ShowStatusBar bool
	MarkdownStyle string
}

// Model is the root bubbletea model.
type Model struct {
	svc     *chatsvc.Service
	scanner *discovery.Scanner

	listener *pubsub.ContinuousListener[display.Event]
	ctx      context.Context

	input    textarea.Model
	panes    map[string]*conversationPane
	order    []string
	active   int
	renderer *markdown.Renderer

	activeTab     int
	sessions      []discovery.SessionInfo
	sessionCursor int
	sessionErr    error

	width         int
	height        int
	spinnerFrame  int
	showStatusBar bool
	markdownStyle string
}

// New creates the chat TUI model with a single empty conversation.
func New(ctx context.Context, cfg Config) Model {
	input := textarea.New()
	input.Placeholder = "Type a message..."
	input.CharLimit = 0
	input.SetHeight(3)
	input.ShowLineNumbers = false
	input.Focus()

	m := Model{
		svc:           cfg.Service,
		scanner:       cfg.Scanner,
		listener:      pubsub.NewContinuousListener(ctx, cfg.Events),
		ctx:           ctx,
		input:         input,
		panes:         make(map[string]*conversationPane),
		showStatusBar: cfg.ShowStatusBar,
		markdownStyle: cfg.MarkdownStyle,
	}
	m.addPane(uuid.NewString())
	return m
}

// Init starts event listening, the spinner, and cursor blink.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.listener.Listen(), spinnerTick(), textarea.Blink)
}

func spinnerTick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(time.Time) tea.Msg {
		return SpinnerTickMsg{}
	})
}

// addPane registers a new conversation tab and makes it active.
func (m *Model) addPane(id string) *conversationPane {
	pane := &conversationPane{
		id:       id,
		title:    fmt.Sprintf("Chat %d", len(m.order)+1),
		viewport: viewport.New(0, 0),
	}
	m.panes[id] = pane
	m.order = append(m.order, id)
	m.active = len(m.order) - 1
	return pane
}

// activePane returns the visible conversation, nil when none exist.
func (m Model) activePane() *conversationPane {
	if m.active < 0 || m.active >= len(m.order) {
		return nil
	}
	return m.panes[m.order[m.active]]
}

// paneFor resolves a display event's conversation id to a pane. An empty
// id means the active conversation; unknown ids get a fresh tab so events
// for conversations opened elsewhere are never dropped.
func (m *Model) paneFor(conversationID string) *conversationPane {
	if conversationID == "" {
		return m.activePane()
	}
	if pane, ok := m.panes[conversationID]; ok {
		return pane
	}
	return m.addPane(conversationID)
}

// Update is the bubbletea update loop.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SpinnerTickMsg:
		m.spinnerFrame = (m.spinnerFrame + 1) % len(spinnerFrames)
		return m, spinnerTick()

	case sessionsLoadedMsg:
		m.sessions = msg.sessions
		m.sessionErr = msg.err
		if m.sessionCursor >= len(m.sessions) {
			m.sessionCursor = 0
		}
		return m, nil

	case pubsub.Event[display.Event]:
		m.handleDisplayEvent(msg.Payload)
		return m, m.listener.Listen()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleResize(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height
	m.input.SetWidth(msg.Width - 2)

	contentWidth := msg.Width - 2
	if contentWidth < 10 {
		contentWidth = 10
	}
	if r, err := markdown.New(contentWidth, m.markdownStyle); err == nil {
		m.renderer = r
	}
	for _, pane := range m.panes {
		pane.viewport.Width = contentWidth
		pane.viewport.Height = m.contentHeight()
		pane.dirty = true
	}
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "ctrl+s":
		m.activeTab = (m.activeTab + 1) % tabCount
		if m.activeTab == TabSessions {
			return m, m.loadSessions()
		}
		return m, nil
	}

	if m.activeTab == TabSessions {
		return m.handleSessionsKey(msg)
	}
	return m.handleChatKey(msg)
}

func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		pane := m.activePane()
		if pane == nil {
			return m, nil
		}
		m.input.Reset()
		if m.svc.IsProcessing(pane.id) {
			pane.queued = true
		}
		m.svc.Send(pane.id, text)
		return m, nil

	case "esc":
		if pane := m.activePane(); pane != nil {
			m.svc.Cancel(pane.id)
		}
		return m, nil

	case "ctrl+n":
		m.addPane(uuid.NewString())
		return m, nil

	case "ctrl+w":
		return m.closeActive()

	case "tab":
		if len(m.order) > 0 {
			m.active = (m.active + 1) % len(m.order)
		}
		return m, nil

	case "shift+tab":
		if len(m.order) > 0 {
			m.active = (m.active - 1 + len(m.order)) % len(m.order)
		}
		return m, nil

	case "pgup":
		if pane := m.activePane(); pane != nil {
			pane.viewport.HalfPageUp()
		}
		return m, nil

	case "pgdown":
		if pane := m.activePane(); pane != nil {
			pane.viewport.HalfPageDown()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleSessionsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.sessionCursor > 0 {
			m.sessionCursor--
		}
		return m, nil
	case "down", "j":
		if m.sessionCursor < len(m.sessions)-1 {
			m.sessionCursor++
		}
		return m, nil
	case "r":
		if m.scanner != nil {
			m.scanner.Invalidate()
		}
		return m, m.loadSessions()
	case "enter":
		if m.sessionCursor >= len(m.sessions) {
			return m, nil
		}
		info := m.sessions[m.sessionCursor]
		return m.resumeSession(info)
	case "esc":
		m.activeTab = TabChat
		return m, nil
	}
	return m, nil
}

// closeActive ends the active conversation and removes its tab. The last
// tab is replaced rather than removed so there is always somewhere to type.
func (m Model) closeActive() (tea.Model, tea.Cmd) {
	pane := m.activePane()
	if pane == nil {
		return m, nil
	}
	if err := m.svc.Close(context.Background(), pane.id); err != nil {
		log.ErrorErr(log.CatUI, "close conversation failed", err, "conversation", pane.id)
	}
	delete(m.panes, pane.id)
	m.order = append(m.order[:m.active], m.order[m.active+1:]...)
	if len(m.order) == 0 {
		m.addPane(uuid.NewString())
		return m, nil
	}
	if m.active >= len(m.order) {
		m.active = len(m.order) - 1
	}
	return m, nil
}

// resumeSession opens a new tab backed by an existing engine session.
func (m Model) resumeSession(info discovery.SessionInfo) (tea.Model, tea.Cmd) {
	pane := m.addPane(uuid.NewString())
	if info.Name != "" {
		pane.title = info.Name
	} else {
		pane.title = info.Project
	}
	m.activeTab = TabChat

	cid := pane.id
	sid := info.SessionID
	svc := m.svc
	return m, func() tea.Msg {
		if _, err := svc.Resume(context.Background(), sid, cid); err != nil {
			log.ErrorErr(log.CatUI, "resume failed", err, "session_id", sid)
		}
		return nil
	}
}

// loadSessions scans transcripts off the update loop.
func (m Model) loadSessions() tea.Cmd {
	scanner := m.scanner
	ctx := m.ctx
	return func() tea.Msg {
		if scanner == nil {
			return sessionsLoadedMsg{}
		}
		sessions, err := scanner.ListSessions(ctx, 50)
		return sessionsLoadedMsg{sessions: sessions, err: err}
	}
}

// handleDisplayEvent routes one display event into its conversation pane.
func (m *Model) handleDisplayEvent(ev display.Event) {
	pane := m.paneFor(ev.ConversationID)
	if pane == nil {
		return
	}

	switch ev.Type {
	case display.UserMessage:
		pane.messages = append(pane.messages, chatrender.Message{Role: "user", Content: ev.Text})
		pane.queued = pane.processing

	case display.SystemMessage:
		pane.messages = append(pane.messages, chatrender.Message{Role: "system", Content: ev.Text})

	case display.AssistantMessage:
		pane.messages = append(pane.messages, chatrender.Message{Role: "assistant", Content: m.renderMarkdown(ev.Text)})

	case display.ErrorMessage:
		pane.messages = append(pane.messages, chatrender.Message{Role: "system", Content: "Error: " + ev.Text})

	case display.StatusUpdate:
		pane.status = ev.Text

	case display.ProcessingStarted:
		pane.processing = true
		pane.label = ev.Text
		pane.start = time.Now()
		pane.queued = false

	case display.ProcessingFinished:
		pane.processing = false
		pane.queued = false
		pane.status = ""
		pane.streamingText = ""
		pane.streamingType = ""

	case display.BlockStarted:
		pane.streamingType = ev.BlockType
		pane.streamingText = ""

	case display.BlockDelta:
		pane.streamingType = ev.BlockType
		pane.streamingText = ev.Text

	case display.BlockEnded:
		pane.streamingText = ""
		pane.streamingType = ""
		if ev.Text == "" {
			break
		}
		if ev.BlockType == "thinking" {
			pane.messages = append(pane.messages, chatrender.Message{Role: "thinking", Content: ev.Text})
		} else {
			pane.messages = append(pane.messages, chatrender.Message{Role: "assistant", Content: m.renderMarkdown(ev.Text)})
		}

	case display.ToolStarted:
		pane.messages = append(pane.messages, chatrender.Message{Role: "assistant", Content: ev.ToolName, IsToolCall: true})

	case display.ToolEnded, display.UsageUpdated:
		// Status bar reads fresh values from the registry at render time.
	}

	pane.dirty = true
}

// renderMarkdown renders assistant text, falling back to the raw string
// when the renderer is unavailable or fails.
func (m *Model) renderMarkdown(text string) string {
	if m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}
