package commands

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yuin/goldmark"
)

// moduleVersion is the rotor module's own version tag; unlike the
// teacher's build package (which stamps this via ldflags from the
// surrounding product release), this module has no release pipeline
// of its own, so the value is a plain constant.
const moduleVersion = "0.1.0"

var renderMarkdown bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display version information",
	Long: `Display the rotorctl version.

rotorctl wraps a small set of example actor trees built on top of the
rotor runtime: a two-actor ping/pong exchange and a three-actor
supervision tree exercising linking and cascaded shutdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !renderMarkdown {
			fmt.Fprintf(cmd.OutOrStdout(), "rotorctl version %s\n", moduleVersion)
			return nil
		}

		var buf bytes.Buffer
		if err := goldmark.Convert([]byte(cmd.Long), &buf); err != nil {
			return fmt.Errorf("render long description: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), buf.String())
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(
		&renderMarkdown, "html", false,
		"render the long description as HTML instead of plain text",
	)
}
