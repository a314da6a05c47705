package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/diogo/minigpt/internal/chat"
)

// entry is a node placed on the surface: either a message or a notice.
type entry struct {
	message *chat.Message
	notice  *chat.Notice
}

// Entry is a read-only copy of a surface node
type Entry struct {
	Message *chat.Message
	Notice  *chat.Notice
}

// Snapshot is the surface state at one point in time.
type Snapshot struct {
	Entries     []Entry
	SendEnabled bool
	Credential  string

	// Versions increase on every corresponding request so the model can
	// tell a new request from one it already applied.
	CredentialVersion int
	ClearVersion      int
	ScrollVersion     int
}

// Messages returns only the message entries of the snapshot.
func (s Snapshot) Messages() []chat.Message {
	var msgs []chat.Message
	for _, e := range s.Entries {
		if e.Message != nil {
			msgs = append(msgs, *e.Message)
		}
	}
	return msgs
}

// Notices returns only the notice entries of the snapshot.
func (s Snapshot) Notices() []chat.Notice {
	var notices []chat.Notice
	for _, e := range s.Entries {
		if e.Notice != nil {
			notices = append(notices, *e.Notice)
		}
	}
	return notices
}

// Loading reports whether a placeholder message is on the surface.
func (s Snapshot) Loading() bool {
	for _, e := range s.Entries {
		if e.Message != nil && e.Message.Loading {
			return true
		}
	}
	return false
}

// Surface implements chat.Display for the Bubble Tea program. It is written
// to by the controller from any goroutine and read by the model on refresh.
type Surface struct {
	mu      sync.Mutex
	entries []*entry

	sendEnabled       bool
	credential        string
	credentialVersion int
	clearVersion      int
	scrollVersion     int

	changed chan struct{}
}

var _ chat.Display = (*Surface)(nil)

// refreshMsg tells the model the surface changed
type refreshMsg struct{}

// NewSurface creates an empty surface with send disabled.
func NewSurface() *Surface {
	return &Surface{
		changed: make(chan struct{}, 1),
	}
}

// notify never blocks; pending signals coalesce into one.
func (s *Surface) notify() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}

// WaitForChange returns a command that resolves on the next change.
func (s *Surface) WaitForChange() tea.Cmd {
	return func() tea.Msg {
		<-s.changed
		return refreshMsg{}
	}
}

func (s *Surface) AppendMessage(msg chat.Message) chat.Node {
	e := &entry{message: &msg}

	s.mu.Lock()
	s.entries = append(s.entries, e)
	s.mu.Unlock()

	s.notify()
	return e
}

func (s *Surface) PrependNotice(n chat.Notice) chat.Node {
	e := &entry{notice: &n}

	s.mu.Lock()
	s.entries = append([]*entry{e}, s.entries...)
	s.mu.Unlock()

	s.notify()
	return e
}

// Remove detaches node. Unknown or already removed nodes are ignored.
func (s *Surface) Remove(node chat.Node) {
	e, ok := node.(*entry)
	if !ok {
		return
	}

	s.mu.Lock()
	removed := false
	for i, cur := range s.entries {
		if cur == e {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			removed = true
			break
		}
	}
	s.mu.Unlock()

	if removed {
		s.notify()
	}
}

func (s *Surface) ScrollToBottom() {
	s.mu.Lock()
	s.scrollVersion++
	s.mu.Unlock()
	s.notify()
}

func (s *Surface) SetSendEnabled(enabled bool) {
	s.mu.Lock()
	s.sendEnabled = enabled
	s.mu.Unlock()
	s.notify()
}

func (s *Surface) SetCredentialField(value string) {
	s.mu.Lock()
	s.credential = value
	s.credentialVersion++
	s.mu.Unlock()
	s.notify()
}

func (s *Surface) ClearMessageInput() {
	s.mu.Lock()
	s.clearVersion++
	s.mu.Unlock()
	s.notify()
}

// Snapshot copies the current state.
func (s *Surface) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Entries:           make([]Entry, 0, len(s.entries)),
		SendEnabled:       s.sendEnabled,
		Credential:        s.credential,
		CredentialVersion: s.credentialVersion,
		ClearVersion:      s.clearVersion,
		ScrollVersion:     s.scrollVersion,
	}
	for _, e := range s.entries {
		var out Entry
		if e.message != nil {
			m := *e.message
			out.Message = &m
		}
		if e.notice != nil {
			n := *e.notice
			out.Notice = &n
		}
		snap.Entries = append(snap.Entries, out)
	}
	return snap
}

// LastReply returns the text of the most recent successful assistant
// message, or "" when there is none.
func (s *Surface) LastReply() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.entries) - 1; i >= 0; i-- {
		m := s.entries[i].message
		if m == nil || m.Role != chat.RoleAssistant || m.Loading || m.Error {
			continue
		}
		return m.Text
	}
	return ""
}
