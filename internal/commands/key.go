package commands

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diogo/minigpt/internal/config"
	apierrors "github.com/diogo/minigpt/internal/errors"
	"github.com/diogo/minigpt/internal/store"
)

func newKeyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the stored API key",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set [key]",
		Short: "Store the API key",
		Long: `Store the API key in the configured credential store.

When the key is not given as an argument it is read from the terminal
without echo, or from stdin when stdin is not a terminal.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runKeySet(args)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the stored API key, masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runKeyShow()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the stored API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runKeyClear()
		},
	})

	return cmd
}

func (a *app) keyStore() (store.Store, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	s, err := a.deps.OpenStore(cfg.CredentialStore)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}
	return s, nil
}

func (a *app) runKeySet(args []string) error {
	var raw string
	if len(args) > 0 {
		raw = args[0]
	} else {
		var err error
		raw, err = a.promptKey()
		if err != nil {
			return err
		}
	}

	key := strings.TrimSpace(raw)
	if key == "" {
		return apierrors.ErrEmptyCredential
	}

	s, err := a.keyStore()
	if err != nil {
		return err
	}
	if err := s.Set(config.CredentialKey, key); err != nil {
		return fmt.Errorf("failed to save API key: %w", err)
	}

	fmt.Fprintln(a.deps.Stdout, successStyle.Render("✓ API key saved: "+maskCredential(key)))
	return nil
}

func (a *app) promptKey() (string, error) {
	if !a.deps.StdinIsTTY() {
		line, err := bufio.NewReader(a.deps.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("failed to read API key: %w", err)
		}
		return line, nil
	}

	fmt.Fprint(a.deps.Stderr, "OpenAI API key: ")
	key, err := a.deps.ReadPassword()
	fmt.Fprintln(a.deps.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read API key: %w", err)
	}
	return key, nil
}

func (a *app) runKeyShow() error {
	s, err := a.keyStore()
	if err != nil {
		return err
	}

	key, err := s.Get(config.CredentialKey)
	if errors.Is(err, store.ErrNotFound) || (err == nil && key == "") {
		fmt.Fprintln(a.deps.Stdout, dimStyle.Render("No API key stored"))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read API key: %w", err)
	}

	fmt.Fprintln(a.deps.Stdout, maskCredential(key))
	return nil
}

func (a *app) runKeyClear() error {
	s, err := a.keyStore()
	if err != nil {
		return err
	}
	if err := s.Delete(config.CredentialKey); err != nil {
		return fmt.Errorf("failed to remove API key: %w", err)
	}

	fmt.Fprintln(a.deps.Stdout, successStyle.Render("✓ API key removed"))
	return nil
}

// maskCredential keeps a short prefix and suffix of key visible.
func maskCredential(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:3] + strings.Repeat("*", len(key)-7) + key[len(key)-4:]
}
