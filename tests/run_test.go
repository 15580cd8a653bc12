package tests_test

import (
	"path/filepath"
	"testing"

	"github.com/containerd/nerdctl/mod/tigron/expect"
	"github.com/containerd/nerdctl/mod/tigron/test"

	"github.com/farcloser/agar/pkg/agar"

	"github.com/farcloser/shootout/tests/testutils"
)

func TestRunCLI(t *testing.T) {
	testCase := testutils.Setup()

	testCase.SubTests = []*test.Case{
		{
			Description: "run without DI tracks fails",
			Command:     test.Command("run", "--chain", "gain:0"),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
		{
			Description: "run without chains fails",
			Setup: func(data test.Data, helpers test.Helpers) {
				data.Labels().Set("file", agar.Genuine16bit44k(data, helpers))
			},
			Command: func(data test.Data, helpers test.Helpers) test.TestableCommand {
				return helpers.Command("run", "--di", data.Labels().Get("file"))
			},
			Expected: test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
		{
			Description: "run with a missing model fails",
			Setup: func(data test.Data, helpers test.Helpers) {
				data.Labels().Set("file", agar.Genuine16bit44k(data, helpers))
			},
			Command: func(data test.Data, helpers test.Helpers) test.TestableCommand {
				return helpers.Command("run", "--di", data.Labels().Get("file"),
					"--models-dir", "/nonexistent", "--chain", "amp:missing.nam")
			},
			Expected: test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
		{
			Description: "run renders every chain and writes a report",
			Setup: func(data test.Data, helpers test.Helpers) {
				fixture := agar.Genuine16bit44k(data, helpers)
				model := writeBeside(fixture, "half.nam", testutils.LinearModel)

				data.Labels().Set("file", fixture)
				data.Labels().Set("models", filepath.Dir(model))
				data.Labels().Set("report", filepath.Join(filepath.Dir(model), "report.jsonl"))
			},
			Command: func(data test.Data, helpers test.Helpers) test.TestableCommand {
				return helpers.Command("run",
					"--name", "Clean vs Half",
					"--di", data.Labels().Get("file"),
					"--chain", "clean=gain:0",
					"--chain", "half=amp:half.nam, gain:-3",
					"--models-dir", data.Labels().Get("models"),
					"--report", data.Labels().Get("report"),
				)
			},
			Expected: func(_ test.Data, _ test.Helpers) *test.Expected {
				return &test.Expected{
					ExitCode: expect.ExitCodeSuccess,
					Output: expect.All(
						expectContains("chain: clean"),
						expectContains("chain: half"),
						expectContains("segment_count: 2"),
						expectContains("role: model"),
					),
				}
			},
		},
		{
			Description: "digest summarizes a run report",
			Setup: func(data test.Data, helpers test.Helpers) {
				fixture := agar.Genuine16bit44k(data, helpers)
				model := writeBeside(fixture, "half.nam", testutils.LinearModel)
				report := filepath.Join(filepath.Dir(model), "report.jsonl")

				helpers.Ensure("run",
					"--di", fixture,
					"--chain", "clean=gain:0",
					"--chain", "half=amp:half.nam",
					"--models-dir", filepath.Dir(model),
					"--report", report,
				)

				data.Labels().Set("report", report)
			},
			Command: func(data test.Data, helpers test.Helpers) test.TestableCommand {
				return helpers.Command("digest", data.Labels().Get("report"))
			},
			Expected: func(_ test.Data, _ test.Helpers) *test.Expected {
				return &test.Expected{
					ExitCode: expect.ExitCodeSuccess,
					Output: expect.All(
						expectContains("=== Shootout Report Digest ==="),
						expectContains("Differences vs clean"),
						expectContains("spectral_centroid_hz:"),
					),
				}
			},
		},
	}

	testCase.Run(t)
}
