//nolint:tagliatelle
package ffprobe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"

	"github.com/farcloser/primordium/fault"

	"github.com/farcloser/shootout/internal/integration/binary"
)

// ErrNoAudio is returned when a container carries no audio stream.
var ErrNoAudio = errors.New("no audio stream")

// Result contains the marshalled output of ffprobe.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream holds the fields needed to decode a DI track or an impulse response.
type Stream struct {
	Index         int    `json:"index"`
	CodecName     string `json:"codec_name"`                // pcm_s24le, flac
	CodecType     string `json:"codec_type"`                // audio
	SampleRate    string `json:"sample_rate,omitempty"`     // 48000
	Channels      int    `json:"channels,omitempty"`        // 1
	SampleFmt     string `json:"sample_fmt,omitempty"`      // s32, flt
	BitsPerSample int    `json:"bits_per_sample,omitempty"` // 0 for lossy and most flac
	Duration      string `json:"duration,omitempty"`        // 12.345000
}

// Format is the container-level information.
type Format struct {
	Filename   string `json:"filename"`
	FormatName string `json:"format_name"` // wav, flac, mov,mp4,m4a,3gp,3g2,mj2
	Duration   string `json:"duration,omitempty"`
}

// Audio returns the first audio stream.
func (r *Result) Audio() (*Stream, error) {
	for i := range r.Streams {
		if r.Streams[i].CodecType == "audio" {
			return &r.Streams[i], nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrNoAudio, r.Format.Filename)
}

// Rate parses the stream sample rate.
func (s *Stream) Rate() (uint32, error) {
	rate, err := strconv.ParseUint(s.SampleRate, 10, 32)
	if err != nil || rate == 0 {
		return 0, fmt.Errorf("%w: invalid sample rate %q", fault.ErrInvalidJSON, s.SampleRate)
	}

	return uint32(rate), nil
}

// Probe runs ffprobe on the given file path and returns parsed metadata.
// It requires ffprobe to be available in the system PATH.
func Probe(ctx context.Context, filePath string) (*Result, error) {
	slog.Debug("ffprobe.Probe", "file path", filePath)

	ffprobePath, err := binary.Require(name)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	//nolint:gosec // filePath is intentionally user-provided input for probing media files
	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-select_streams", streams,
		"-show_format",
		"-show_streams",
		filePath,
	)

	var stderr bytes.Buffer

	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: after %v", fault.ErrTimeout, timeout)
		}

		return nil, fmt.Errorf("%w: %s: %w", fault.ErrCommandFailure, stderr.String(), err)
	}

	return Parse(output)
}

// Parse decodes ffprobe JSON output.
func Parse(output []byte) (*Result, error) {
	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrInvalidJSON, err)
	}

	return &result, nil
}
