package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	playcmder "github.com/quarrelhq/quarrel/cmd/quarrel/play"
	watchcmder "github.com/quarrelhq/quarrel/cmd/quarrel/watch"
)

func main() {
	root := &cobra.Command{
		Use:   "quarrel",
		Short: "Adversarial two-party LLM dialogues in your terminal",
		Long: `quarrel stages an argument between a furious judge and a partner
who will never admit fault, with a turn cap keeping it finite.

Run 'quarrel watch' to let both sides run on their own, or
'quarrel play' to take one side yourself. Both need a running
gatewayd and a config file pointing at it.`,
		SilenceUsage: true,
	}

	root.AddCommand(watchcmder.NewWatchCmd())
	root.AddCommand(playcmder.NewPlayCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
