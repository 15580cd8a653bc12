package resolver

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

const (
	// Bundle is the NAM plugin bundle name looked for in every search location.
	Bundle = "NeuralAmpModeler.vst3"
	// EnvPlugin names an explicit plugin bundle, checked before the search locations.
	EnvPlugin = "SHOOTOUT_NAM_PLUGIN"
)

// SearchLocations returns the VST3 directories scanned for Bundle, system-wide first.
func SearchLocations() []string {
	dirs := []string{"/usr/lib/vst3", "/usr/local/lib/vst3"}

	home, err := os.UserHomeDir()
	if err == nil {
		dirs = append(dirs, filepath.Join(home, ".vst3"))
	}

	dirs = append(dirs, "/Library/Audio/Plug-Ins/VST3")

	if err == nil {
		dirs = append(dirs, filepath.Join(home, "Library", "Audio", "Plug-Ins", "VST3"))
	}

	dirs = append(dirs, `C:\Program Files\Common Files\VST3`)

	out := make([]string, len(dirs))
	for i, dir := range dirs {
		out[i] = filepath.Join(dir, Bundle)
	}

	return out
}

type DiscoveryOptions struct {
	// Override is checked first, typically the configured plugin path.
	Override string
	// Getenv reads EnvPlugin, os.Getenv when nil.
	Getenv func(string) string
	// Locations are tried in order, SearchLocations when nil.
	Locations []string
	// Exists reports whether a candidate is present, an os.Stat check when nil.
	Exists func(string) bool
}

// Discovery finds the NAM plugin once. Every later call returns the first answer, including a miss.
// It is safe for concurrent use.
type Discovery struct {
	find func() (string, bool)
}

func NewDiscovery(opts DiscoveryOptions) *Discovery {
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}

	if opts.Locations == nil {
		opts.Locations = SearchLocations()
	}

	if opts.Exists == nil {
		opts.Exists = exists
	}

	return &Discovery{find: sync.OnceValues(func() (string, bool) {
		return discover(opts)
	})}
}

// Plugin returns the plugin bundle path, if one was found.
func (d *Discovery) Plugin() (string, bool) {
	return d.find()
}

func discover(opts DiscoveryOptions) (string, bool) {
	candidates := make([]string, 0, len(opts.Locations)+2)

	for _, explicit := range []string{opts.Override, opts.Getenv(EnvPlugin)} {
		if explicit != "" {
			candidates = append(candidates, explicit)
		}
	}

	candidates = append(candidates, opts.Locations...)

	for _, candidate := range candidates {
		if opts.Exists(candidate) {
			slog.Debug("resolver.discover", "plugin", candidate, "stage", "found")

			return candidate, true
		}
	}

	slog.Debug("resolver.discover", "stage", "not found", "candidates", len(candidates))

	return "", false
}

func exists(path string) bool {
	_, err := os.Stat(path)

	return err == nil
}
