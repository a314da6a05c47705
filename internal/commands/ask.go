package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/diogo/minigpt/internal/config"
	apierrors "github.com/diogo/minigpt/internal/errors"
	"github.com/diogo/minigpt/internal/render"
	"github.com/diogo/minigpt/internal/store"
)

// Gradient colors for animation
var gradientColors = []lipgloss.Color{
	lipgloss.Color("#ff6b6b"),
	lipgloss.Color("#feca57"),
	lipgloss.Color("#48dbfb"),
	lipgloss.Color("#ff9ff3"),
	lipgloss.Color("#54a0ff"),
	lipgloss.Color("#1dd1a1"),
}

var (
	colorText    = lipgloss.Color("#c0caf5")
	colorTextDim = lipgloss.Color("#565f89")
	colorSuccess = lipgloss.Color("#9ece6a")
	colorPrimary = lipgloss.Color("#7aa2f7")
	colorError   = lipgloss.Color("#f7768e")
)

var (
	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	assistantBubbleStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Foreground(colorText).
				Padding(0, 1).
				MarginBottom(1)

	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError)
	dimStyle     = lipgloss.NewStyle().Foreground(colorTextDim)
)

// spinner draws an animated progress line on w until stopped
type spinner struct {
	w       io.Writer
	message string
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
	frame   int
}

func newSpinner(w io.Writer, message string) *spinner {
	return &spinner{
		w:       w,
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (s *spinner) start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		fmt.Fprint(s.w, "\033[?25l")
		for {
			select {
			case <-s.stop:
				fmt.Fprint(s.w, "\r\033[K\033[?25h")
				return
			case <-ticker.C:
				s.render()
				s.frame++
			}
		}
	}()
}

func (s *spinner) render() {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

	color := gradientColors[s.frame%len(gradientColors)]
	char := lipgloss.NewStyle().Foreground(color).Bold(true).Render(chars[s.frame%len(chars)])

	dots := strings.Repeat(".", (s.frame/4)%4)
	msg := lipgloss.NewStyle().Foreground(colorText).Render(s.message + dots)

	fmt.Fprintf(s.w, "\r\033[K%s %s", char, msg)
}

// halt stops the animation and waits for the line to be cleared.
// Safe to call more than once.
func (s *spinner) halt() {
	s.once.Do(func() { close(s.stop) })
	<-s.done
}

func (s *spinner) stopWithSuccess(message string) {
	s.halt()
	fmt.Fprintln(s.w, successStyle.Bold(true).Render("✓")+" "+successStyle.Render(message))
}

func (s *spinner) stopWithError() {
	s.halt()
}

type askFlags struct {
	file      string
	output    string
	maxTokens int
	copy      bool
	raw       bool
}

func newAskCmd(a *app) *cobra.Command {
	var f askFlags

	cmd := &cobra.Command{
		Use:   "ask [prompt]",
		Short: "Send a single prompt and print the reply",
		Long: `Send a single prompt and print the reply.

The prompt is taken from the arguments, from --file, or from stdin when it
is not a terminal. Replies are rendered as markdown when stdout is a
terminal and printed raw otherwise.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := a.readPrompt(f.file, args)
			if err != nil {
				return err
			}
			return a.runAsk(cmd, prompt, f)
		},
	}

	cmd.Flags().StringVarP(&f.file, "file", "f", "", "Read prompt from file")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Save response to file")
	cmd.Flags().IntVar(&f.maxTokens, "max-tokens", 0, "Maximum tokens in the reply (default from config)")
	cmd.Flags().BoolVar(&f.copy, "copy", false, "Copy the reply to the clipboard")
	cmd.Flags().BoolVar(&f.raw, "raw", false, "Print the raw reply even on a terminal")

	return cmd
}

// readPrompt resolves the prompt from file, args or stdin, in that order.
func (a *app) readPrompt(file string, args []string) (string, error) {
	var prompt string
	switch {
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
		prompt = string(data)
	case len(args) > 0:
		prompt = strings.Join(args, " ")
	case !a.deps.StdinIsTTY():
		data, err := io.ReadAll(a.deps.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		prompt = string(data)
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", apierrors.ErrEmptyMessage
	}
	return prompt, nil
}

func (a *app) runAsk(cmd *cobra.Command, prompt string, f askFlags) error {
	cfg, err := a.config()
	if err != nil {
		return err
	}
	logger, err := a.logger()
	if err != nil {
		return err
	}

	credential, err := a.loadCredential(cfg)
	if err != nil {
		return err
	}

	cfg.MaxTokens = cfg.AskMaxTokens
	if f.maxTokens > 0 {
		cfg.MaxTokens = f.maxTokens
	}

	completer, err := a.deps.NewCompleter(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	decorated := !f.raw && a.deps.StdoutIsTTY()
	stderr := a.deps.Stderr

	var spin *spinner
	if decorated {
		spin = newSpinner(stderr, "Waiting for "+cfg.Model)
		spin.start()
	}

	start := time.Now()
	reply, err := completer.Complete(cmd.Context(), credential, prompt)
	if err != nil {
		if spin != nil {
			spin.stopWithError()
		}
		logger.Warn("ask failed", "duration", time.Since(start), "error", err)
		return fmt.Errorf("completion failed: %w", err)
	}
	if spin != nil {
		spin.stopWithSuccess("Done")
	}
	logger.Debug("ask succeeded", "duration", time.Since(start), "chars", len(reply))

	if f.copy || cfg.CopyToClipboard {
		if err := a.deps.CopyToClipboard(reply); err != nil {
			fmt.Fprintln(stderr, errorStyle.Render(fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err)))
		} else {
			fmt.Fprintln(stderr, successStyle.Render("✓ Copied to clipboard"))
		}
	}

	if f.output != "" {
		if err := os.WriteFile(f.output, []byte(reply), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintln(stderr, successStyle.Render(fmt.Sprintf("✓ Response saved to %s", f.output)))
		return nil
	}

	if !decorated {
		fmt.Fprintln(a.deps.Stdout, reply)
		return nil
	}

	bubbleWidth := a.deps.TerminalWidth() - 4
	if bubbleWidth < 40 {
		bubbleWidth = 40
	}
	if bubbleWidth > 120 {
		bubbleWidth = 120
	}

	opts := render.OptionsFromConfig(cfg.Markdown).WithWidth(bubbleWidth - 4)
	rendered := render.MarkdownOrPlain(reply, opts)

	fmt.Fprintln(a.deps.Stdout, assistantLabelStyle.Render(cfg.Model))
	fmt.Fprintln(a.deps.Stdout, assistantBubbleStyle.Width(bubbleWidth).Render(rendered))
	return nil
}

// loadCredential reads the stored API key for non-interactive commands.
func (a *app) loadCredential(cfg config.Config) (string, error) {
	s, err := a.deps.OpenStore(cfg.CredentialStore)
	if err != nil {
		return "", fmt.Errorf("failed to open credential store: %w", err)
	}

	credential, err := s.Get(config.CredentialKey)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return "", apierrors.ErrMissingCredential
	case err != nil:
		return "", fmt.Errorf("failed to read API key: %w", err)
	case strings.TrimSpace(credential) == "":
		return "", apierrors.ErrMissingCredential
	}
	return credential, nil
}

// formatErrorMessage formats an error with additional context from structured errors
func formatErrorMessage(err error, context string) string {
	if err == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s: %v", context, err)))

	if status := apierrors.GetHTTPStatus(err); status > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  HTTP Status: %d", status)))
	}

	var hint string
	switch {
	case errors.Is(err, apierrors.ErrMissingCredential), apierrors.IsAuthError(err):
		hint = "run 'minigpt key set' to store a valid API key"
	case apierrors.IsTimeoutError(err):
		hint = "the request timed out, try again"
	case apierrors.IsNetworkError(err):
		hint = "check your internet connection"
	case errors.Is(err, apierrors.ErrInvalidResponse):
		hint = "the endpoint did not return a chat completion"
	}
	if hint != "" {
		sb.WriteString(dimStyle.Render("\n  Hint: " + hint))
	}

	return sb.String()
}
