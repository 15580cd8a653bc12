package dcoffset_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/farcloser/shootout/internal/audit/dcoffset"
	"github.com/farcloser/shootout/internal/types"
)

func TestDetect(t *testing.T) {
	t.Parallel()

	got := dcoffset.Detect(types.NewAudioBuffer([]float32{0.2, 0, 0.1, -0.1}, 48000))

	assert.InDelta(t, 0.05, got.Offset, 1e-7)
	assert.InDelta(t, -26.02, got.OffsetDb, 0.01)
	assert.Equal(t, uint64(4), got.Samples)

	empty := dcoffset.Detect(types.NewAudioBuffer(nil, 48000))
	assert.InDelta(t, -120.0, empty.OffsetDb, 0)

	centered := dcoffset.Detect(types.NewAudioBuffer([]float32{0.5, -0.5}, 48000))
	assert.InDelta(t, -120.0, centered.OffsetDb, 0)
}

func TestRemove(t *testing.T) {
	t.Parallel()

	buf := types.NewAudioBuffer([]float32{0.3, 0.1, 0.2}, 48000)
	out := dcoffset.Remove(buf)

	assert.InDelta(t, 0, dcoffset.Detect(out).Offset, 1e-7)
	assert.Equal(t, []float32{0.3, 0.1, 0.2}, buf.Samples)
}
