// Package main provides the advisor binary: it loads rule data and a
// scenario, builds one player's tactics and prints what the AI would research,
// build or settle.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// options holds the persistent flags shared by every subcommand.
type options struct {
	configPath   string
	rulesDir     string
	scenarioPath string
	player       int
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "advisor",
		Short: "Civilization AI tactics advisor",
		Long: `Evaluates every research, build and great person option for one
player of a scenario and prints the choices the AI would make.`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to configuration file; empty uses defaults")
	flags.StringVar(&opts.rulesDir, "rules", "content/rules", "directory of rule YAML files")
	flags.StringVar(&opts.scenarioPath, "scenario", "content/scenarios/ancient.yaml", "scenario YAML file")
	flags.IntVar(&opts.player, "player", 0, "id of the player to advise")

	root.AddCommand(
		newResearchCmd(opts),
		newBuildCmd(opts),
		newSpecialistCmd(opts),
		newSaveCmd(opts),
	)
	return root
}
