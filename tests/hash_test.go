package tests_test

import (
	"testing"

	"github.com/containerd/nerdctl/mod/tigron/expect"
	"github.com/containerd/nerdctl/mod/tigron/test"

	"github.com/farcloser/agar/pkg/agar"

	"github.com/farcloser/shootout/tests/testutils"
)

func TestHashCLI(t *testing.T) {
	testCase := testutils.Setup()

	testCase.SubTests = []*test.Case{
		{
			Description: "hash without arguments fails",
			Command:     test.Command("hash"),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
		{
			Description: "hash nonexistent file fails",
			Command:     test.Command("hash", "/nonexistent/path/di.wav"),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
		{
			Description: "hash of a known content",
			Setup: func(data test.Data, helpers test.Helpers) {
				fixture := agar.Genuine16bit44k(data, helpers)
				data.Labels().Set("file", writeBeside(fixture, "abc.txt", "abc"))
			},
			Command: func(data test.Data, helpers test.Helpers) test.TestableCommand {
				return helpers.Command("hash", data.Labels().Get("file"))
			},
			Expected: func(_ test.Data, _ test.Helpers) *test.Expected {
				return &test.Expected{
					ExitCode: expect.ExitCodeSuccess,
					Output:   expectContains("ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"),
				}
			},
		},
	}

	testCase.Run(t)
}
