package ffmpeg

import "time"

const (
	name = "ffmpeg"
	// Long DI tracks through convolution filters are slow, same headroom as ffprobe.
	timeout = 60 * time.Second
	// Raw sample format exchanged over pipes.
	rawFormat = "f32le"
	// Reported when the binary cannot be found.
	NotInstalled = "not installed"
)
