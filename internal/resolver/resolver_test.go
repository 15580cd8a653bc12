package resolver_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farcloser/shootout/internal/chain"
	"github.com/farcloser/shootout/internal/failure"
	"github.com/farcloser/shootout/internal/integration/pluginhost"
	"github.com/farcloser/shootout/internal/preset"
	"github.com/farcloser/shootout/internal/resolver"
	"github.com/farcloser/shootout/internal/types"
)

const plugin = "/vst3/NeuralAmpModeler.vst3"

// halving is a Linear capture with a single 0.5 tap.
const halving = `{"version": "0.5.2", "architecture": "Linear", "config": {"receptive_field": 1, "bias": false},
"weights": [0.5], "sample_rate": 48000}`

func discovery(found bool) *resolver.Discovery {
	return resolver.NewDiscovery(resolver.DiscoveryOptions{
		Getenv:    func(string) string { return "" },
		Locations: []string{plugin},
		Exists:    func(string) bool { return found },
	})
}

type fakeHost struct {
	calls  int
	preset []byte
	err    error
}

func (h *fakeHost) Run(_ context.Context, _ string, data []byte, _ string, buf *types.AudioBuffer) (*types.AudioBuffer, error) {
	h.calls++
	h.preset = data

	if h.err != nil {
		return nil, h.err
	}

	out := buf.Clone()
	for i := range out.Samples {
		out.Samples[i] = -out.Samples[i]
	}

	return out, nil
}

func modelsDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "half.nam"), []byte(halving), 0o600))

	return dir
}

func amp(value string) chain.Effect {
	return chain.Effect{Type: chain.Amp, Value: value}
}

func input() *types.AudioBuffer {
	return types.NewAudioBuffer([]float32{0.5, -0.25}, 48000)
}

func options(dir string) resolver.Options {
	opts := resolver.DefaultOptions()
	opts.ModelsDir = dir

	return opts
}

func TestDiscoveryOnce(t *testing.T) {
	t.Parallel()

	var scans atomic.Int32

	disc := resolver.NewDiscovery(resolver.DiscoveryOptions{
		Override:  "/custom/NeuralAmpModeler.vst3",
		Getenv:    func(string) string { return "/env/NeuralAmpModeler.vst3" },
		Locations: []string{"/a", "/b"},
		Exists: func(path string) bool {
			scans.Add(1)

			return path == "/env/NeuralAmpModeler.vst3"
		},
	})

	var wg sync.WaitGroup

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			path, ok := disc.Plugin()
			assert.True(t, ok)
			assert.Equal(t, "/env/NeuralAmpModeler.vst3", path)
		}()
	}

	wg.Wait()

	// Override, then environment: two checks, once.
	assert.Equal(t, int32(2), scans.Load())
}

func TestDiscoveryMissIsCached(t *testing.T) {
	t.Parallel()

	var scans atomic.Int32

	disc := resolver.NewDiscovery(resolver.DiscoveryOptions{
		Getenv:    func(string) string { return "" },
		Locations: []string{"/a", "/b", "/c"},
		Exists: func(string) bool {
			scans.Add(1)

			return false
		},
	})

	for range 3 {
		_, ok := disc.Plugin()
		assert.False(t, ok)
	}

	assert.Equal(t, int32(3), scans.Load())
}

func TestSearchLocations(t *testing.T) {
	t.Parallel()

	locations := resolver.SearchLocations()

	require.NotEmpty(t, locations)
	assert.Equal(t, filepath.Join("/usr/lib/vst3", resolver.Bundle), locations[0])

	for _, location := range locations {
		assert.Equal(t, resolver.Bundle, filepath.Base(location))
	}
}

func TestResolvePluginPreset(t *testing.T) {
	t.Parallel()

	dir := modelsDir(t)
	res := resolver.New(discovery(true), &fakeHost{}, options(dir))

	resolved, err := res.Resolve("half.nam", "")
	require.NoError(t, err)

	pp, ok := resolved.(resolver.PluginPreset)
	require.True(t, ok)
	assert.Equal(t, plugin, pp.Plugin)
	assert.Equal(t, filepath.Join(dir, "half.nam"), pp.ModelPath)

	decoded, err := preset.Decode(pp.Bytes)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "half.nam"), decoded.ModelPath)

	assert.Equal(t, "NeuralAmpModeler "+preset.NAMVersion, res.AmpRuntime())
}

func TestResolveLocalWithoutPlugin(t *testing.T) {
	t.Parallel()

	res := resolver.New(discovery(false), nil, options(modelsDir(t)))

	resolved, err := res.Resolve("half.nam", "")
	require.NoError(t, err)

	local, ok := resolved.(resolver.LocalInference)
	require.True(t, ok)
	assert.Equal(t, "Linear", local.Model.Architecture)
	assert.Empty(t, res.AmpRuntime())
}

func TestProcessPlugin(t *testing.T) {
	t.Parallel()

	host := &fakeHost{}
	res := resolver.New(discovery(true), host, options(modelsDir(t)))

	out, err := res.Process(context.Background(), amp("half.nam"), input())
	require.NoError(t, err)
	assert.Equal(t, []float32{-0.5, 0.25}, out.Samples)
	assert.Equal(t, 1, host.calls)
	assert.NotEmpty(t, host.preset)
}

func TestProcessFallsBackOnHostFailure(t *testing.T) {
	t.Parallel()

	host := &fakeHost{err: errors.New("host crashed")}
	res := resolver.New(discovery(true), host, options(modelsDir(t)))

	out, err := res.Process(context.Background(), amp("half.nam"), input())
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, -0.125}, out.Samples)
	assert.Equal(t, 1, host.calls)

	// A render at the wrong rate is a failed render.
	host = &fakeHost{err: pluginhost.ErrSampleRate}
	out, err = resolver.New(discovery(true), host, options(modelsDir(t))).Process(context.Background(), amp("half.nam"), input())
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, -0.125}, out.Samples)
	assert.Equal(t, 1, host.calls)

	// No host at all behaves the same.
	out, err = resolver.New(discovery(true), nil, options(modelsDir(t))).Process(context.Background(), amp("half.nam"), input())
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, -0.125}, out.Samples)
}

func TestProcessBothPathsFail(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	corrupt := filepath.Join(dir, "corrupt.nam")
	require.NoError(t, os.WriteFile(corrupt, []byte("{not json"), 0o600))

	host := &fakeHost{err: errors.New("host crashed")}

	for _, found := range []bool{true, false} {
		res := resolver.New(discovery(found), host, options(dir))

		_, err := res.Process(context.Background(), amp("corrupt.nam"), input())
		require.ErrorIs(t, err, failure.ErrModelLoad)
		assert.Contains(t, err.Error(), corrupt)

		_, err = res.Process(context.Background(), amp("missing.nam"), input())
		require.ErrorIs(t, err, failure.ErrModelLoad)
		assert.Contains(t, err.Error(), filepath.Join(dir, "missing.nam"))
	}
}

func TestProcessRejectsOtherEffects(t *testing.T) {
	t.Parallel()

	res := resolver.New(discovery(false), nil, resolver.DefaultOptions())

	_, err := res.Process(context.Background(), chain.Effect{Type: chain.Gain, Value: "3"}, input())
	require.ErrorIs(t, err, resolver.ErrNotAmp)
}

func TestModelPath(t *testing.T) {
	t.Parallel()

	res := resolver.New(discovery(false), nil, options("/models"))

	assert.Equal(t, filepath.Join("/models", "plexi.nam"), res.ModelPath("plexi.nam"))
	assert.Equal(t, "/abs/plexi.nam", res.ModelPath("/abs/plexi.nam"))
}
