package playcmder

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

const playLongDesc string = `Play one side of a quarrel yourself.

Fetches a fresh scenario from the gateway and puts you in the seat
of the judge or the partner; the model plays the other side. Your
turns are sent verbatim.

Examples:
  quarrel play
  quarrel play --role judge
  quarrel play --role partner --config ~/.quarrel.toml`

const playShortDesc string = "Argue one side yourself"

type playCommander struct {
	configPath string
	role       string
}

func NewPlayCmd() *cobra.Command {
	cmder := &playCommander{}

	cmd := &cobra.Command{
		Use:   "play",
		Short: playShortDesc,
		Long:  playLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&cmder.configPath, "config", "c", "", "Path to config file")
	cmd.Flags().StringVarP(&cmder.role, "role", "r", "partner", "Side to play (judge or partner)")

	return cmd
}

func (c *playCommander) run(ctx context.Context) error {
	userRole := chat.Role(c.role)
	if !userRole.Valid() {
		return fmt.Errorf("invalid role %q: must be judge or partner", c.role)
	}

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

	session, err := cfg.NewSession(persona, chat.ModeHalf, userRole, log)
	if err != nil {
		return err
	}
	session.Start()
	defer session.Teardown()

	model := tui.New(session, persona, chat.ModeHalf, userRole, log)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("terminal UI failed: %w", err)
	}

	return nil
}
