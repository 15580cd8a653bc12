package ffprobe

import "time"

const (
	name = "ffprobe"
	// Slow hard-drives spinning up or network retrieved resources may cause timeouts if too aggressive.
	timeout = 60 * time.Second
	// Only audio streams matter. Cover art and video tracks are never listed.
	streams = "a"
)
