// Package commands provides CLI commands for minigpt.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/diogo/minigpt/internal/config"
)

var (
	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// globalFlags are shared by every subcommand
type globalFlags struct {
	model   string
	store   string
	envFile string
	verbose bool
}

// app carries the state one command invocation shares between its steps.
type app struct {
	deps  *Dependencies
	flags globalFlags

	log     *slog.Logger
	logFile io.Closer
}

// NewRootCmd builds the command tree over deps.
func NewRootCmd(deps *Dependencies) *cobra.Command {
	cmd, _ := newRootCmd(deps)
	return cmd
}

func newRootCmd(deps *Dependencies) (*cobra.Command, *app) {
	if deps == nil {
		deps = NewDependencies()
	}
	a := &app{deps: deps}

	cmd := &cobra.Command{
		Use:   "minigpt",
		Short: "Terminal chat client for OpenAI chat completions",
		Long: `minigpt is a small terminal chat client for the OpenAI chat
completions API. Each message is sent on its own, without conversation
history, and the reply is rendered as markdown.

Examples:
  minigpt                               Start interactive chat
  minigpt key set                       Store your API key
  minigpt ask "What is Go?"             Send a single query
  minigpt ask -f prompt.md              Read prompt from file
  cat prompt.md | minigpt ask           Read prompt from stdin`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Fprintf(deps.Stdout, "minigpt %s (built %s)\n", Version, BuildTime)
				return nil
			}
			return a.runChat(cmd)
		},
	}

	cmd.SetIn(deps.Stdin)
	cmd.SetOut(deps.Stdout)
	cmd.SetErr(deps.Stderr)

	cmd.PersistentFlags().StringVarP(&a.flags.model, "model", "m", "", "Model to use (e.g., gpt-4o-mini)")
	cmd.PersistentFlags().StringVar(&a.flags.store, "store", "", "Credential store: file, keyring or memory")
	cmd.PersistentFlags().StringVar(&a.flags.envFile, "env", "", "Load environment from this .env file")
	cmd.PersistentFlags().BoolVarP(&a.flags.verbose, "verbose", "v", false, "Write debug logs to ~/.minigpt/minigpt.log")
	cmd.Flags().Bool("version", false, "Show version and exit")

	cmd.AddCommand(newChatCmd(a))
	cmd.AddCommand(newAskCmd(a))
	cmd.AddCommand(newKeyCmd(a))
	cmd.AddCommand(newConfigCmd(a))

	a.closeAfterRun(cmd)

	return cmd, a
}

// closeAfterRun wraps every RunE in the tree so resources opened during the
// run are released whether or not it fails.
func (a *app) closeAfterRun(cmd *cobra.Command) {
	if run := cmd.RunE; run != nil {
		cmd.RunE = func(c *cobra.Command, args []string) (err error) {
			defer func() {
				if cerr := a.close(); err == nil {
					err = cerr
				}
			}()
			return run(c, args)
		}
	}
	for _, sub := range cmd.Commands() {
		a.closeAfterRun(sub)
	}
}

// Execute runs the root command
func Execute() {
	root := NewRootCmd(nil)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Error"))
		os.Exit(1)
	}
}

// config returns the effective configuration with flag overrides applied.
func (a *app) config() (config.Config, error) {
	cfg, err := config.Load(a.flags.envFile)
	if err != nil {
		return cfg, err
	}

	if a.flags.model != "" {
		cfg.Model = a.flags.model
	}
	if a.flags.store != "" {
		cfg.CredentialStore = a.flags.store
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// logger returns the invocation logger. Without --verbose logs are
// discarded; the interface owns the terminal, so logs never go to stderr.
func (a *app) logger() (*slog.Logger, error) {
	if a.log != nil {
		return a.log, nil
	}

	if !a.flags.verbose {
		a.log = slog.New(slog.NewTextHandler(io.Discard, nil))
		return a.log, nil
	}

	if _, err := config.EnsureConfigDir(); err != nil {
		return nil, err
	}
	path, err := config.GetLogPath()
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	a.logFile = f
	a.log = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return a.log, nil
}

func (a *app) close() error {
	if a.logFile == nil {
		return nil
	}
	err := a.logFile.Close()
	a.logFile = nil
	a.log = nil
	return err
}
