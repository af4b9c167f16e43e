package rotor

import "github.com/btcsuite/btclog"

// log is the package-wide subsystem logger. It defaults to a disabled
// sink so the package is silent until a host binary wires in a real
// handler via UseLogger.
var log btclog.Logger = btclog.Disabled

// UseLogger sets the subsystem logger used by the rotor package. Host
// binaries call this once during startup, typically with a handler set
// that fans out to both console and file sinks.
func UseLogger(logger btclog.Logger) {
	log = logger
}
