package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Manish-keer19/meeting-app/internal/room"
	"github.com/Manish-keer19/meeting-app/internal/utils"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const chatTailLines = 6

// Messages sent into the program by session callbacks.
type (
	RosterUpdatedMsg  struct{}
	StatusChangedMsg  struct{ Status room.Status }
	PendingChangedMsg struct{}
	ChatReceivedMsg   struct {
		Name string
		Text string
	}
	DisconnectedMsg struct{ Err error }
)

type chatLine struct {
	name string
	text string
	at   time.Time
}

// RoomModel is the Bubble Tea model for an active room: status line, roster,
// pending join requests and the chat tail. It renders whatever the session
// publishes and calls back into it on key presses.
type RoomModel struct {
	session *room.Session

	status   room.Status
	chat     []chatLine
	spinner  spinner.Model
	input    textinput.Model
	typing   bool
	width    int
	peak     int
	quitting bool
	err      error
}

func NewRoomModel(session *room.Session) *RoomModel {
	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = SpinnerStyle

	input := textinput.New()
	input.Placeholder = "Type a message"
	input.CharLimit = 240
	input.Width = 48

	return &RoomModel{
		session: session,
		status:  room.StatusConnecting,
		spinner: s,
		input:   input,
		width:   80,
	}
}

// ChatCount returns how many chat messages passed through this view.
func (m *RoomModel) ChatCount() int {
	return len(m.chat)
}

// PeakParticipants returns the largest roster size seen, self included.
func (m *RoomModel) PeakParticipants() int {
	if m.peak == 0 {
		return 1
	}
	return m.peak
}

// Err returns the transport error that ended the session, if any.
func (m *RoomModel) Err() error {
	return m.err
}

func (m *RoomModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *RoomModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.typing {
			return m.updateTyping(msg)
		}
		return m.updateKeys(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case RosterUpdatedMsg:
		if n := m.session.Roster().Len() + 1; n > m.peak {
			m.peak = n
		}
		return m, nil

	case PendingChangedMsg:
		return m, nil

	case StatusChangedMsg:
		m.status = msg.Status
		if m.status == room.StatusRejected {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case ChatReceivedMsg:
		m.chat = append(m.chat, chatLine{name: msg.Name, text: msg.Text, at: time.Now()})
		return m, nil

	case DisconnectedMsg:
		m.err = msg.Err
		m.quitting = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *RoomModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		m.session.Leave()
		return m, tea.Quit

	case "m":
		m.session.ToggleMic()

	case "v":
		m.session.ToggleCamera()

	case "s":
		if m.session.Sharing() {
			m.session.StopScreenShare()
		} else if err := m.session.StartScreenShare(); err != nil {
			m.chat = append(m.chat, chatLine{name: "system", text: err.Error(), at: time.Now()})
		}

	case "a":
		if pending := m.session.Pending(); len(pending) > 0 {
			m.session.Admit(pending[0].UserID)
		}

	case "x":
		if pending := m.session.Pending(); len(pending) > 0 {
			m.session.Reject(pending[0].UserID)
		}

	case "t":
		m.typing = true
		m.input.Focus()
		return m, textinput.Blink
	}

	return m, nil
}

func (m *RoomModel) updateTyping(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		text := strings.TrimSpace(m.input.Value())
		if text != "" {
			m.session.SendChat(text)
			m.chat = append(m.chat, chatLine{name: m.session.UserName(), text: text, at: time.Now()})
		}
		m.input.Reset()
		m.typing = false
		m.input.Blur()
		return m, nil

	case "esc":
		m.input.Reset()
		m.typing = false
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *RoomModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	header := fmt.Sprintf("%s %s", IconRoom, m.session.RoomID())
	b.WriteString(TitleStyle.Render(header))
	b.WriteString("  ")
	b.WriteString(StatusStyle.Render(m.status.String()))
	b.WriteString("\n\n")

	switch m.status {
	case room.StatusConnecting:
		b.WriteString(fmt.Sprintf("%s Connecting to room...\n", m.spinner.View()))
	case room.StatusWaiting:
		b.WriteString(fmt.Sprintf("%s Waiting for the host to let you in...\n", m.spinner.View()))
	case room.StatusJoined:
		m.renderRoster(&b)
		m.renderPending(&b)
		m.renderChat(&b)
	}

	if m.typing {
		b.WriteString("\n" + m.input.View() + "\n")
		b.WriteString(HelpStyle.Render("enter send • esc cancel"))
	} else {
		b.WriteString(HelpStyle.Render("m mic • v camera • s share • t chat • a admit • x reject • q leave"))
	}
	b.WriteString("\n")

	return b.String()
}

func (m *RoomModel) renderRoster(b *strings.Builder) {
	self := fmt.Sprintf("%s %s (you)  %s %s",
		IconPeer, m.session.UserName(),
		micIcon(m.session.MicOn()), camIcon(m.session.CameraOn()))
	if m.session.Sharing() {
		self += "  " + IconScreen
	}
	b.WriteString(self + "\n")

	for _, p := range m.session.Roster().Snapshot() {
		line := fmt.Sprintf("%s %s  %s %s",
			IconPeer, utils.TruncateString(p.Name, 24),
			micIcon(p.MicEnabled), camIcon(p.CameraEnabled))
		if p.ScreenSharing {
			line += "  " + IconScreen
		}
		if p.Tracks == nil {
			line += "  " + MutedStyle.Render("(connecting)")
		}
		b.WriteString(line + "\n")
	}
}

func (m *RoomModel) renderPending(b *strings.Builder) {
	pending := m.session.Pending()
	if len(pending) == 0 {
		return
	}

	b.WriteString("\n")
	for _, req := range pending {
		b.WriteString(WarningStyle.Render(
			fmt.Sprintf("%s %s wants to join", IconWaiting, req.UserName)))
		b.WriteString("\n")
	}
}

func (m *RoomModel) renderChat(b *strings.Builder) {
	if len(m.chat) == 0 {
		return
	}

	b.WriteString("\n" + MutedStyle.Render(IconChat+" chat") + "\n")
	start := 0
	if len(m.chat) > chatTailLines {
		start = len(m.chat) - chatTailLines
	}
	for _, line := range m.chat[start:] {
		b.WriteString(fmt.Sprintf("%s %s\n",
			ChatNameStyle.Render(line.name+":"), line.text))
	}
}

func micIcon(on bool) string {
	if on {
		return IconMicOn
	}
	return IconMicOff
}

func camIcon(on bool) string {
	if on {
		return IconCamOn
	}
	return IconCamOff
}
