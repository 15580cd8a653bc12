package tests_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/containerd/nerdctl/mod/tigron/test"
	"github.com/containerd/nerdctl/mod/tigron/tig"
)

// issueBlockContains checks whether the issue block for the given check contains the target string.
// It scans for "check: <check>" and then looks in adjacent lines for the target.
func issueBlockContains(stdout, check, target string) bool {
	lines := strings.Split(stdout, "\n")
	checkLine := fmt.Sprintf("check: %s", check)

	for i, line := range lines {
		if !strings.Contains(line, checkLine) {
			continue
		}

		for j := max(0, i-3); j < min(len(lines), i+4); j++ {
			if strings.Contains(lines[j], target) {
				return true
			}
		}
	}

	return false
}

// expectIssueDetected returns a comparator verifying that the given check was detected (any severity).
func expectIssueDetected(check string) test.Comparator {
	return func(stdout string, testing tig.T) {
		testing.Helper()

		if !issueBlockContains(stdout, check, "detected: true") {
			testing.Log(fmt.Sprintf("expected issue %q to be detected but was not found in output:\n%s", check, stdout))
			testing.Fail()
		}
	}
}

// expectNoIssue returns a comparator verifying that the given check ran and was not detected.
func expectNoIssue(check string) test.Comparator {
	return func(stdout string, testing tig.T) {
		testing.Helper()

		if !issueBlockContains(stdout, check, "detected: false") {
			testing.Log(fmt.Sprintf("expected %q to run without detection, output:\n%s", check, stdout))
			testing.Fail()
		}
	}
}

// expectContains returns a comparator verifying the output contains a substring.
func expectContains(substr string) test.Comparator {
	return func(stdout string, testing tig.T) {
		testing.Helper()

		if !strings.Contains(stdout, substr) {
			testing.Log(fmt.Sprintf("expected substring %q not found in output:\n%s", substr, stdout))
			testing.Fail()
		}
	}
}

// writeBeside writes content next to an existing fixture file and returns the new path.
func writeBeside(fixture, name, content string) string {
	path := filepath.Join(filepath.Dir(fixture), name)

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		panic(err)
	}

	return path
}
