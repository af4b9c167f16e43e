package commands

import (
	"fmt"

	"github.com/roasbeef/rotorgo/examples/pingpong"
	"github.com/roasbeef/rotorgo/examples/tree"
	"github.com/spf13/cobra"
)

var pingpongCmd = &cobra.Command{
	Use:   "pingpong",
	Short: "Run the two-actor ping/pong example",
	RunE: func(cmd *cobra.Command, args []string) error {
		return pingpong.Run(rounds, func(format string, a ...any) {
			fmt.Fprintf(cmd.OutOrStdout(), format+"\n", a...)
		})
	},
}

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Run the supervisor/resource/worker example",
	RunE: func(cmd *cobra.Command, args []string) error {
		return tree.Run(rounds, func(format string, a ...any) {
			fmt.Fprintf(cmd.OutOrStdout(), format+"\n", a...)
		})
	},
}
