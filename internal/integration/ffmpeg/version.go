package ffmpeg

import (
	"context"
	"strings"

	"github.com/farcloser/shootout/internal/integration/binary"
)

// Version returns the version token of the installed ffmpeg, or NotInstalled.
func Version(ctx context.Context) string {
	ffmpegPath, found := binary.Available(name)
	if !found {
		return NotInstalled
	}

	out, err := run(ctx, ffmpegPath, nil, "-version")
	if err != nil {
		return NotInstalled
	}

	return ParseVersion(string(out))
}

// ParseVersion extracts the version from `ffmpeg -version` output ("ffmpeg version 6.1.1 Copyright...").
func ParseVersion(output string) string {
	line, _, _ := strings.Cut(output, "\n")

	fields := strings.Fields(line)
	if len(fields) < 3 || fields[1] != "version" {
		return "unknown"
	}

	return fields[2]
}
