package provenance

import (
	"context"
	"runtime"

	"github.com/farcloser/shootout/internal/integration/ffmpeg"
	"github.com/farcloser/shootout/internal/types"
	"github.com/farcloser/shootout/version"
)

// LocalRuntime identifies the in-process amp inference runtime.
const LocalRuntime = "shootout-nam"

// CollectVersions captures the versions of every tool that can change the rendered audio.
// ampRuntime names the plugin (with its version) when the plugin path is used; empty means local inference.
func CollectVersions(ctx context.Context, ampRuntime string) types.Versions {
	if ampRuntime == "" {
		ampRuntime = LocalRuntime + " " + version.Version()
	}

	return types.Versions{
		AmpRuntime:   ampRuntime,
		MediaEncoder: ffmpeg.Version(ctx),
		Engine:       version.Name() + " " + version.Version() + " " + version.Commit(),
		HostRuntime:  runtime.Version(),
	}
}
