package commands

import (
	"github.com/spf13/cobra"
)

var (
	// rounds is the number of ping/pong exchanges (or work units) the
	// run subcommands drive before shutting down.
	rounds int
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "rotorctl",
	Short: "rotorctl drives the example actor trees",
	Long: `rotorctl runs the example actor trees built on top of the rotor
runtime, printing each lifecycle event as the tree processes to
completion and shuts itself down.`,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().IntVar(
		&rounds, "rounds", 5,
		"number of exchanges to drive before shutting down",
	)

	rootCmd.AddCommand(pingpongCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(versionCmd)
}
