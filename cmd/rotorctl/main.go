// Command rotorctl is a small operator-facing CLI wrapping the example
// actor trees in examples/, wiring the runtime's subsystem logger to
// stderr before handing off to the cobra command tree.
package main

import (
	"fmt"
	"os"

	"github.com/btcsuite/btclog/v2"
	"github.com/roasbeef/rotorgo/cmd/rotorctl/commands"
	"github.com/roasbeef/rotorgo/internal/rotor"
)

func main() {
	consoleHandler := btclog.NewDefaultHandler(os.Stderr)
	rotor.UseLogger(btclog.NewSLogger(consoleHandler))

	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
