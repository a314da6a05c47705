package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/diogo/minigpt/internal/api"
	"github.com/diogo/minigpt/internal/config"
	apierrors "github.com/diogo/minigpt/internal/errors"
	"github.com/diogo/minigpt/internal/store"
)

// Controller owns the credential and drives the display.
//
// Only one send is expected at a time: the display disables sending while a
// call is in flight. Callers that bypass the display can still overlap sends;
// each then resolves independently.
type Controller struct {
	store     CredentialStore
	display   Display
	completer api.Completer
	scheduler Scheduler
	logger    *slog.Logger

	noticeTimeout time.Duration

	mu         sync.Mutex
	credential string
	nodes      map[MessageID]Node
	notice     *activeNotice
}

type activeNotice struct {
	node  Node
	timer Timer
}

// Option configures a Controller
type Option func(*Controller)

// WithScheduler replaces the timer source used for notice expiry
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) {
		c.scheduler = s
	}
}

// WithLogger sets the controller logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithNoticeTimeout sets how long a notice stays visible
func WithNoticeTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.noticeTimeout = d
		}
	}
}

// NewController creates a Controller. Call Initialize before use.
func NewController(s CredentialStore, display Display, completer api.Completer, opts ...Option) *Controller {
	c := &Controller{
		store:         s,
		display:       display,
		completer:     completer,
		scheduler:     realScheduler{},
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		noticeTimeout: DefaultNoticeDuration,
		nodes:         make(map[MessageID]Node),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Initialize loads the stored credential and renders the initial state.
func (c *Controller) Initialize() {
	value, err := c.store.Get(config.CredentialKey)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.logger.Warn("failed to load credential", "error", err)
		}
		value = ""
	}

	c.mu.Lock()
	c.credential = value
	c.mu.Unlock()

	c.logger.Debug("controller initialized", "has_credential", value != "")
	c.updateUI()
}

// Credential returns the in-memory credential
func (c *Controller) Credential() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.credential
}

// HasCredential reports whether a credential is set
func (c *Controller) HasCredential() bool {
	return c.Credential() != ""
}

// SaveCredential trims raw and persists it. An empty value leaves the
// current credential untouched.
func (c *Controller) SaveCredential(raw string) error {
	key := strings.TrimSpace(raw)
	if key == "" {
		c.ShowNotice(NoticeInvalidKey, SeverityError)
		return apierrors.ErrEmptyCredential
	}

	if err := c.store.Set(config.CredentialKey, key); err != nil {
		c.logger.Error("failed to persist credential", "error", err)
		c.ShowNotice(fmt.Sprintf(NoticeSaveFailedFmt, err), SeverityError)
		return fmt.Errorf("failed to save credential: %w", err)
	}

	c.mu.Lock()
	c.credential = key
	c.mu.Unlock()

	c.updateUI()
	c.ShowNotice(NoticeKeySaved, SeveritySuccess)
	return nil
}

// updateUI mirrors the credential onto the display.
func (c *Controller) updateUI() {
	credential := c.Credential()

	c.display.SetCredentialField(credential)
	c.display.SetSendEnabled(credential != "")

	if credential == "" {
		c.ShowNotice(NoticeEnterKey, SeverityInfo)
	}
}

// SendMessage validates text, issues one completion call and renders the
// outcome. Validation failures are shown as notices and returned; call
// failures are rendered into the log and nil is returned.
func (c *Controller) SendMessage(ctx context.Context, text string) error {
	credential := c.Credential()
	if credential == "" {
		c.ShowNotice(NoticeMissingKey, SeverityError)
		return apierrors.ErrMissingCredential
	}

	text = strings.TrimSpace(text)
	if text == "" {
		c.ShowNotice(NoticeEmptyMessage, SeverityError)
		return apierrors.ErrEmptyMessage
	}

	c.RenderMessage(Message{Text: text, Role: RoleUser})
	c.display.ClearMessageInput()

	release := c.acquireSending()
	defer release()

	loadingID := c.RenderMessage(Message{Text: LoadingText, Role: RoleAssistant, Loading: true})

	start := time.Now()
	reply, err := c.completer.Complete(ctx, credential, text)
	c.RemoveMessage(loadingID)

	if err != nil {
		c.logger.Warn("completion failed",
			"duration", time.Since(start),
			"status", apierrors.GetHTTPStatus(err),
			"error", err,
		)
		c.RenderMessage(Message{
			Text:  ErrorMessagePrefix + apierrors.Reason(err),
			Role:  RoleAssistant,
			Error: true,
		})
		return nil
	}

	c.logger.Debug("completion succeeded", "duration", time.Since(start), "chars", len(reply))
	c.RenderMessage(Message{Text: reply, Role: RoleAssistant})
	return nil
}

// acquireSending disables the send control; the returned release re-enables
// it and is safe to call more than once.
func (c *Controller) acquireSending() (release func()) {
	c.display.SetSendEnabled(false)

	var once sync.Once
	return func() {
		once.Do(func() {
			c.display.SetSendEnabled(true)
		})
	}
}

// RenderMessage appends msg to the log, scrolls to it and returns its id.
func (c *Controller) RenderMessage(msg Message) MessageID {
	if msg.ID == "" {
		msg.ID = NewMessageID()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	node := c.display.AppendMessage(msg)
	c.display.ScrollToBottom()
	c.nodes[msg.ID] = node
	return msg.ID
}

// RemoveMessage detaches the message with id. Unknown ids are ignored.
func (c *Controller) RemoveMessage(id MessageID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.nodes[id]
	if !ok {
		return
	}
	delete(c.nodes, id)
	c.display.Remove(node)
}

// ShowNotice places a notice at the front of the log, replacing any notice
// still visible, and schedules its removal.
func (c *Controller) ShowNotice(text string, severity Severity) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dismissNoticeLocked()

	n := &activeNotice{
		node: c.display.PrependNotice(Notice{Text: text, Severity: severity}),
	}
	n.timer = c.scheduler.AfterFunc(c.noticeTimeout, func() {
		c.expireNotice(n)
	})
	c.notice = n
}

func (c *Controller) expireNotice(n *activeNotice) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.notice == n {
		c.notice = nil
	}
	c.display.Remove(n.node)
}

func (c *Controller) dismissNoticeLocked() {
	if c.notice == nil {
		return
	}
	if c.notice.timer != nil {
		c.notice.timer.Stop()
	}
	c.display.Remove(c.notice.node)
	c.notice = nil
}
