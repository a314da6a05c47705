package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/atotto/clipboard"
	"golang.org/x/term"

	"github.com/diogo/minigpt/internal/api"
	"github.com/diogo/minigpt/internal/config"
	"github.com/diogo/minigpt/internal/store"
	"github.com/diogo/minigpt/internal/tui"
)

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// NewCompleter builds the completion client for cfg.
	NewCompleter func(cfg config.Config, logger *slog.Logger) (api.Completer, error)

	// OpenStore opens the named credential store backend.
	OpenStore func(backend string) (store.Store, error)

	// RunChat runs the interactive interface until the user quits.
	RunChat func(ctx context.Context, controller tui.ChatController, surface *tui.Surface, opts tui.Options) error

	CopyToClipboard func(text string) error

	// ReadPassword reads a line from the terminal without echo.
	ReadPassword func() (string, error)

	// StdinIsTTY and StdoutIsTTY report whether the streams are terminals.
	StdinIsTTY  func() bool
	StdoutIsTTY func() bool

	// TerminalWidth returns the output width in columns.
	TerminalWidth func() int
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		Stdin:           os.Stdin,
		Stdout:          os.Stdout,
		Stderr:          os.Stderr,
		NewCompleter:    newAPICompleter,
		OpenStore:       store.Open,
		RunChat:         tui.RunChat,
		CopyToClipboard: clipboard.WriteAll,
		ReadPassword:    readPassword,
		StdinIsTTY:      func() bool { return term.IsTerminal(int(os.Stdin.Fd())) },
		StdoutIsTTY:     func() bool { return term.IsTerminal(int(os.Stdout.Fd())) },
		TerminalWidth:   getTerminalWidth,
	}
}

func newAPICompleter(cfg config.Config, logger *slog.Logger) (api.Completer, error) {
	opts := append(api.FromConfig(cfg), api.WithLogger(logger))
	client, err := api.NewClient(opts...)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func readPassword() (string, error) {
	data, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}
