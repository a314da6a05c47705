package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/diogo/minigpt/internal/chat"
	"github.com/diogo/minigpt/internal/render"
	"github.com/diogo/minigpt/internal/tui"
)

func newChatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat session.

Enter the API key in the key field and press Enter to save it. Messages are
sent with Enter; Alt+Enter inserts a newline. Press Esc or Ctrl+C to quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runChat(cmd)
		},
	}
}

func (a *app) runChat(cmd *cobra.Command) error {
	cfg, err := a.config()
	if err != nil {
		return err
	}
	logger, err := a.logger()
	if err != nil {
		return err
	}

	s, err := a.deps.OpenStore(cfg.CredentialStore)
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}

	completer, err := a.deps.NewCompleter(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	tui.ApplyTheme(cfg.TUITheme)

	surface := tui.NewSurface()
	controller := chat.NewController(s, surface, completer,
		chat.WithLogger(logger),
		chat.WithNoticeTimeout(cfg.NoticeTimeout()),
	)

	logger.Debug("starting chat", "model", cfg.Model, "store", cfg.CredentialStore)

	return a.deps.RunChat(cmd.Context(), controller, surface, tui.Options{
		ModelName: cfg.Model,
		Markdown:  render.OptionsFromConfig(cfg.Markdown),
	})
}
