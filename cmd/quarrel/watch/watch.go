package watchcmder

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/quarrelhq/quarrel/cmd/quarrel/bootstrap"
	"github.com/quarrelhq/quarrel/pkg/chat"
	"github.com/quarrelhq/quarrel/pkg/logger"
	"github.com/quarrelhq/quarrel/pkg/tui"
)

const watchLongDesc string = `Watch a fully automatic quarrel.

Fetches a fresh scenario from the gateway, then lets the judge and
the partner go at each other with no human in the loop. The
conversation stops at the turn cap or on the first failed turn.

Examples:
  quarrel watch
  quarrel watch --config ~/.quarrel.toml`

const watchShortDesc string = "Watch both sides argue on their own"

type watchCommander struct {
	configPath string
}

func NewWatchCmd() *cobra.Command {
	cmder := &watchCommander{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: watchShortDesc,
		Long:  watchLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&cmder.configPath, "config", "c", "", "Path to config file")

	return cmd
}

func (c *watchCommander) run(ctx context.Context) error {
	cfg, err := bootstrap.Load(c.configPath)
	if err != nil {
		return err
	}

	log, err := logger.NewFileLogger(cfg.LogFile, cfg.Debug)
	if err != nil {
		return err
	}
	defer log.Sync()

	persona, err := bootstrap.FetchPersona(ctx, cfg.GatewayURL, cfg.APIConfig())
	if err != nil {
		return fmt.Errorf("could not fetch a scenario: %w", err)
	}

	session, err := cfg.NewSession(persona, chat.ModeAuto, "", log)
	if err != nil {
		return err
	}
	session.Start()
	defer session.Teardown()

	model := tui.New(session, persona, chat.ModeAuto, "", log)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("terminal UI failed: %w", err)
	}

	return nil
}
