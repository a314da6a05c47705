// Package chat implements the chat controller: credential handling, the
// send flow around a single completion call, and rendering of messages and
// transient notices onto a display surface.
package chat

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Severity classifies a notice
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// MessageID identifies a rendered message for later removal.
type MessageID string

// NewMessageID returns a fresh random id
func NewMessageID() MessageID {
	return MessageID(uuid.NewString())
}

// Message is one entry of the chat log
type Message struct {
	ID      MessageID
	Text    string
	Role    Role
	Loading bool
	Error   bool
}

// Notice is a transient status line shown above the log
type Notice struct {
	Text     string
	Severity Severity
}

// Node is an opaque handle to something placed on a Display.
type Node any

// Display is the surface the controller renders onto.
// Remove must tolerate nodes that are already detached.
type Display interface {
	AppendMessage(msg Message) Node
	PrependNotice(n Notice) Node
	Remove(node Node)
	ScrollToBottom()
	SetSendEnabled(enabled bool)
	SetCredentialField(value string)
	ClearMessageInput()
}

// CredentialStore is the persistent storage the credential lives in.
type CredentialStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// Timer is a pending scheduled call
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// User-facing texts
const (
	NoticeEnterKey        = "Please enter your OpenAI API key to start chatting"
	NoticeKeySaved        = "API Key saved successfully!"
	NoticeInvalidKey      = "Please enter a valid API key"
	NoticeMissingKey      = "Please enter your OpenAI API key first"
	NoticeEmptyMessage    = "Please enter a message"
	NoticeSaveFailedFmt   = "Failed to save API key: %v"
	LoadingText           = "Thinking..."
	ErrorMessagePrefix    = "Error: "
	DefaultNoticeDuration = 5 * time.Second
)
