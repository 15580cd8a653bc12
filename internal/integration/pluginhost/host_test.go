package pluginhost_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/farcloser/primordium/fault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farcloser/shootout/internal/audio"
	"github.com/farcloser/shootout/internal/integration/pluginhost"
	"github.com/farcloser/shootout/internal/types"
)

// passthrough copies --input to --output and records its arguments next to itself.
const passthrough = `#!/bin/sh
echo "$@" > "$(dirname "$0")/args"
while [ $# -gt 0 ]; do
  case "$1" in
    --input) in="$2"; shift ;;
    --output) out="$2"; shift ;;
  esac
  shift
done
cp "$in" "$out"
`

// resampling answers with a file rendered at another rate, kept next to itself.
const resampling = `#!/bin/sh
while [ $# -gt 0 ]; do
  case "$1" in
    --output) out="$2"; shift ;;
  esac
  shift
done
cp "$(dirname "$0")/rendered.wav" "$out"
`

const failing = `#!/bin/sh
echo "plugin crashed" >&2
exit 3
`

func script(t *testing.T, body string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("shell host scripts need a POSIX shell")
	}

	path := filepath.Join(t.TempDir(), "host")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o700)) //nolint:gosec // must be executable

	return path
}

func TestRunPassthrough(t *testing.T) {
	t.Parallel()

	bin := script(t, passthrough)
	host := pluginhost.New(bin)
	require.True(t, host.Available())

	buf := types.NewAudioBuffer([]float32{0, 0.5, -0.5, 0.25}, 48000)

	out, err := host.Run(context.Background(), "/vst3/NeuralAmpModeler.vst3", []byte("VST3"), "", buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(48000), out.SampleRate)
	require.Len(t, out.Samples, 4)

	for i := range buf.Samples {
		assert.InDelta(t, buf.Samples[i], out.Samples[i], 1e-6)
	}

	args, err := os.ReadFile(filepath.Join(filepath.Dir(bin), "args"))
	require.NoError(t, err)
	assert.Contains(t, string(args), "--plugin /vst3/NeuralAmpModeler.vst3 --preset ")
	assert.NotContains(t, string(args), "--ir")
}

func TestRunFailures(t *testing.T) {
	t.Parallel()

	buf := types.NewAudioBuffer([]float32{0.1}, 44100)

	_, err := pluginhost.New(script(t, failing)).Run(context.Background(), "x.vst3", nil, "", buf)
	require.ErrorIs(t, err, fault.ErrCommandFailure)
	assert.Contains(t, err.Error(), "plugin crashed")

	missing := pluginhost.New(filepath.Join(t.TempDir(), "no-such-host"))
	assert.False(t, missing.Available())

	_, err = missing.Run(context.Background(), "x.vst3", nil, "", buf)
	require.ErrorIs(t, err, fault.ErrMissingRequirements)

	assert.Equal(t, pluginhost.DefaultBinary, pluginhost.New("").Binary)
}

func TestRunRejectsRateChange(t *testing.T) {
	t.Parallel()

	bin := script(t, resampling)
	rendered := types.NewAudioBuffer([]float32{0.1, 0.2, 0.3}, 44100)
	require.NoError(t, audio.Write(filepath.Join(filepath.Dir(bin), "rendered.wav"), rendered, 24))

	buf := types.NewAudioBuffer([]float32{0.1, 0.2, 0.3, 0.4}, 48000)

	_, err := pluginhost.New(bin).Run(context.Background(), "x.vst3", nil, "", buf)
	require.ErrorIs(t, err, pluginhost.ErrSampleRate)
	require.ErrorIs(t, err, fault.ErrCommandFailure)
	assert.Contains(t, err.Error(), "48000 Hz in, 44100 Hz out")
}
