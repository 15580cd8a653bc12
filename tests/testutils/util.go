// Package testutils provides test infrastructure for shootout command line tests.
package testutils

import (
	"path/filepath"
	"runtime"

	"github.com/containerd/nerdctl/mod/tigron/test"

	"github.com/farcloser/agar/pkg/agar"
)

// LinearModel is a one-tap Linear NAM model that halves its input.
const LinearModel = `{"version": "0.5.2", "architecture": "Linear", "config": {"receptive_field": 1, "bias": false},
"weights": [0.5], "sample_rate": 44100}`

// Setup creates a test case configured to run the shootout binary.
func Setup() *test.Case {
	_, thisFile, _, _ := runtime.Caller(0) //nolint:dogsled // runtime.Caller returns 4 values, only file is needed
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))
	binaryPath := filepath.Join(projectRoot, "bin", "shootout")

	return agar.Setup(binaryPath)
}
