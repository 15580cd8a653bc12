package ffmpeg //nolint:testpackage // raw codec is unexported

import (
	"testing"

	"github.com/farcloser/primordium/fault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "6.1.1-3ubuntu5",
		ParseVersion("ffmpeg version 6.1.1-3ubuntu5 Copyright (c) 2000-2023 the FFmpeg developers\nbuilt with gcc"))
	assert.Equal(t, "n7.0", ParseVersion("ffmpeg version n7.0"))
	assert.Equal(t, "unknown", ParseVersion("garbage"))
	assert.Equal(t, "unknown", ParseVersion(""))
}

func TestRawRoundTrip(t *testing.T) {
	t.Parallel()

	samples := []float32{0, 0.5, -0.25, 1, -1}

	got, err := decodeFloats(encodeFloats(samples))
	require.NoError(t, err)
	assert.Equal(t, samples, got)

	_, err = decodeFloats([]byte{1, 2, 3})
	require.ErrorIs(t, err, fault.ErrReadFailure)
}
