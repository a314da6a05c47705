package tui

import (
	"context"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/minigpt/internal/chat"
	"github.com/diogo/minigpt/internal/render"
)

// ChatController is the part of chat.Controller the interface drives.
type ChatController interface {
	Initialize()
	SaveCredential(raw string) error
	SendMessage(ctx context.Context, text string) error
}

// sendDoneMsg is sent when a SendMessage call returns
type sendDoneMsg struct {
	err error
}

type focusField int

const (
	focusCredential focusField = iota
	focusMessage
)

type keyMap struct {
	Send        key.Binding
	Newline     key.Binding
	SwitchFocus key.Binding
	Copy        key.Binding
	Quit        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Send:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "Send")),
		Newline:     key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"), key.WithHelp("Alt+Enter", "Newline")),
		SwitchFocus: key.NewBinding(key.WithKeys("tab"), key.WithHelp("Tab", "Focus")),
		Copy:        key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("Ctrl+Y", "Copy")),
		Quit:        key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("Esc", "Quit")),
	}
}

// Options configures the chat interface
type Options struct {
	ModelName string
	Markdown  render.Options
}

// Model represents the TUI state
type Model struct {
	ctx        context.Context
	controller ChatController
	surface    *Surface
	modelName  string
	mdOpts     render.Options
	keys       keyMap

	// UI components
	credentialInput textinput.Model
	textarea        textarea.Model
	viewport        viewport.Model
	spinner         spinner.Model

	// State
	state   Snapshot
	focus   focusField
	sending bool
	ready   bool
	flash   string

	// versions of surface requests already applied
	credentialSeen int
	clearSeen      int
	scrollSeen     int

	copyToClipboard func(string) error

	width  int
	height int
}

// NewModel creates the chat model over surface. The controller should
// already be initialized so the first snapshot carries the credential.
func NewModel(ctx context.Context, controller ChatController, surface *Surface, opts Options) Model {
	keys := defaultKeyMap()

	ti := textinput.New()
	ti.Placeholder = "sk-..."
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.Prompt = ""
	ti.TextStyle = lipgloss.NewStyle().Foreground(colorText)
	ti.PlaceholderStyle = lipgloss.NewStyle().Foreground(colorTextDim)

	ta := textarea.New()
	ta.Placeholder = "Type your message here..."
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.KeyMap.InsertNewline = keys.Newline
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	mdOpts := opts.Markdown
	if mdOpts.Style == "" {
		mdOpts = render.DefaultOptions()
	}

	m := Model{
		ctx:             ctx,
		controller:      controller,
		surface:         surface,
		modelName:       opts.ModelName,
		mdOpts:          mdOpts,
		keys:            keys,
		credentialInput: ti,
		textarea:        ta,
		viewport:        newViewport(80, 10),
		spinner:         s,
		copyToClipboard: clipboard.WriteAll,
	}
	m.sync()

	if m.state.Credential == "" {
		m.setFocus(focusCredential)
	} else {
		m.setFocus(focusMessage)
	}
	return m
}

func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	// Letters are typed into the inputs, so only paging keys scroll.
	vp.KeyMap = viewport.KeyMap{
		PageDown: key.NewBinding(key.WithKeys("pgdown")),
		PageUp:   key.NewBinding(key.WithKeys("pgup")),
	}
	vp.MouseWheelEnabled = true
	return vp
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.surface.WaitForChange(),
	)
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case refreshMsg:
		m.sync()
		return m, m.surface.WaitForChange()

	case sendDoneMsg:
		m.sending = false
		m.sync()
		return m, nil

	case spinner.TickMsg:
		if m.sending || m.state.Loading() {
			m.spinner, cmd = m.spinner.Update(msg)
			m.updateViewport()
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		m.flash = ""

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.SwitchFocus):
			if m.focus == focusCredential {
				m.setFocus(focusMessage)
			} else {
				m.setFocus(focusCredential)
			}
			return m, nil

		case key.Matches(msg, m.keys.Copy):
			m.copyLastReply()
			return m, nil

		case key.Matches(msg, m.keys.Send):
			if m.focus == focusCredential {
				return m.saveCredential()
			}
			return m.send()
		}

		if m.focus == focusCredential {
			m.credentialInput, cmd = m.credentialInput.Update(msg)
		} else {
			m.textarea, cmd = m.textarea.Update(msg)
		}
		cmds = append(cmds, cmd)
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m Model) saveCredential() (tea.Model, tea.Cmd) {
	// Failures are reported by the controller as notices.
	if err := m.controller.SaveCredential(m.credentialInput.Value()); err == nil {
		m.setFocus(focusMessage)
	}
	m.sync()
	return m, nil
}

func (m Model) send() (tea.Model, tea.Cmd) {
	// A disabled send still reaches the controller so it can report the
	// missing key.
	if m.sending {
		return m, nil
	}

	m.sending = true
	text := m.textarea.Value()
	ctrl := m.controller
	ctx := m.ctx

	sendCmd := func() tea.Msg {
		return sendDoneMsg{err: ctrl.SendMessage(ctx, text)}
	}
	return m, tea.Batch(sendCmd, m.spinner.Tick)
}

func (m *Model) copyLastReply() {
	reply := m.surface.LastReply()
	if reply == "" {
		m.flash = "Nothing to copy yet"
		return
	}
	if err := m.copyToClipboard(reply); err != nil {
		m.flash = "Copy failed: " + err.Error()
		return
	}
	m.flash = "Copied last reply to clipboard"
}

func (m *Model) setFocus(f focusField) {
	m.focus = f
	if f == focusCredential {
		m.textarea.Blur()
		m.credentialInput.Focus()
	} else {
		m.credentialInput.Blur()
		m.textarea.Focus()
	}
}

// sync applies the surface state to the model's components.
func (m *Model) sync() {
	snap := m.surface.Snapshot()

	if snap.CredentialVersion != m.credentialSeen {
		m.credentialSeen = snap.CredentialVersion
		m.credentialInput.SetValue(snap.Credential)
	}
	if snap.ClearVersion != m.clearSeen {
		m.clearSeen = snap.ClearVersion
		m.textarea.Reset()
	}

	m.state = snap
	m.updateViewport()

	if snap.ScrollVersion != m.scrollSeen {
		m.scrollSeen = snap.ScrollVersion
		m.viewport.GotoBottom()
	}
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	headerHeight := 3
	noticeHeight := 1
	credentialHeight := 3
	inputHeight := 6
	statusHeight := 1
	borders := 2

	vpHeight := height - headerHeight - noticeHeight - credentialHeight - inputHeight - statusHeight - borders
	if vpHeight < 3 {
		vpHeight = 3
	}
	contentWidth := width - 4

	m.viewport.Width = contentWidth
	m.viewport.Height = vpHeight
	m.textarea.SetWidth(contentWidth - 2)
	m.credentialInput.Width = contentWidth - 12
	m.ready = true

	m.updateViewport()
}

// updateViewport refreshes the viewport content with styled messages
func (m *Model) updateViewport() {
	var content strings.Builder
	bubbleWidth := m.viewport.Width - 6
	if bubbleWidth < 10 {
		bubbleWidth = 10
	}

	for i, msg := range m.state.Messages() {
		if i > 0 {
			content.WriteString("\n")
		}
		content.WriteString(m.renderMessage(msg, bubbleWidth))
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
}

func (m Model) renderMessage(msg chat.Message, width int) string {
	if msg.Role == chat.RoleUser {
		label := userLabelStyle.Render("You")
		return label + "\n" + userBubbleStyle.Width(width).Render(msg.Text)
	}

	label := assistantLabelStyle.Render("Assistant")
	switch {
	case msg.Loading:
		return label + "\n" + m.spinner.View() + loadingStyle.Render(" "+msg.Text)
	case msg.Error:
		return label + "\n" + errorBubbleStyle.Width(width).Render(msg.Text)
	default:
		rendered := render.MarkdownOrPlain(msg.Text, m.mdOpts.WithWidth(width-4))
		return label + "\n" + assistantBubbleStyle.Width(width).Render(rendered)
	}
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	contentWidth := m.width - 4
	var sections []string

	header := lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render("MiniGPT"),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(m.modelName),
	)
	sections = append(sections, headerStyle.Width(contentWidth).Render(header))

	sections = append(sections, m.renderNotices())

	credPanel := inputPanelStyle
	if m.focus == focusCredential {
		credPanel = inputPanelFocusedStyle
	}
	credential := lipgloss.JoinHorizontal(lipgloss.Left,
		inputLabelStyle.Render("API Key"),
		m.credentialInput.View(),
	)
	sections = append(sections, credPanel.Width(contentWidth).Render(credential))

	var messages string
	if len(m.state.Messages()) == 0 {
		messages = m.renderWelcome()
	} else {
		messages = m.viewport.View()
	}
	sections = append(sections, messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(messages))

	inputPanel := inputPanelStyle
	if m.focus == focusMessage {
		inputPanel = inputPanelFocusedStyle
	}
	label := inputLabelStyle.Render("You")
	switch {
	case m.sending || m.state.Loading():
		label += loadingStyle.Render(m.spinner.View() + " waiting for reply")
	case !m.state.SendEnabled:
		label += hintStyle.Render("save an API key to start sending")
	}
	input := lipgloss.JoinVertical(lipgloss.Left, label, m.textarea.View())
	sections = append(sections, inputPanel.Width(contentWidth).Render(input))

	sections = append(sections, m.renderStatusBar(contentWidth))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderNotices() string {
	notices := m.state.Notices()
	if len(notices) == 0 {
		return ""
	}
	lines := make([]string, 0, len(notices))
	for _, n := range notices {
		lines = append(lines, noticeStyle(n.Severity).Render(n.Text))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderWelcome() string {
	width := m.viewport.Width - 4
	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		welcomeTitleStyle.Width(width).Render("Welcome to MiniGPT"),
		"",
		welcomeStyle.Width(width).Render("Start a conversation by typing a message below"),
	)

	topPadding := (m.viewport.Height - lipgloss.Height(content)) / 2
	if topPadding < 0 {
		topPadding = 0
	}
	return strings.Repeat("\n", topPadding) + content
}

// renderStatusBar renders the bottom status bar with shortcuts
func (m Model) renderStatusBar(width int) string {
	if m.flash != "" {
		return statusBarStyle.Width(width).Align(lipgloss.Center).Render(flashStyle.Render(m.flash))
	}

	bindings := []key.Binding{m.keys.Send, m.keys.Newline, m.keys.SwitchFocus, m.keys.Copy, m.keys.Quit}
	items := make([]string, 0, len(bindings)+1)
	for _, b := range bindings {
		h := b.Help()
		items = append(items, statusKeyStyle.Render(h.Key)+statusDescStyle.Render(" "+h.Desc))
	}
	items = append(items, statusKeyStyle.Render("PgUp/PgDn")+statusDescStyle.Render(" Scroll"))

	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(strings.Join(items, "  │  "))
}

// RunChat initializes the controller and runs the chat TUI until quit.
func RunChat(ctx context.Context, controller ChatController, surface *Surface, opts Options) error {
	controller.Initialize()

	m := NewModel(ctx, controller, surface, opts)
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	return err
}
