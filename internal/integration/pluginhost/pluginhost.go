package pluginhost

import "time"

const (
	// DefaultBinary is the host looked up in PATH when none is configured.
	DefaultBinary = "shootout-host"
	// Plugins render in faster than real time, a minute covers any DI take.
	timeout = 60 * time.Second
	// Hand-off files are 32-bit so the host sees the exact normalized signal.
	bitDepth = 32
)
