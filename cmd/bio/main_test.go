// ABOUTME: Tests for run's exit codes on paths that never touch the terminal
// ABOUTME: Usage errors exit 2, --help and --version exit 0

package main

import (
	"strings"
	"testing"
)

func TestRun_ExitCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		argv       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{name: "no command", argv: nil, wantCode: exitUsage, wantStderr: "no command"},
		{name: "unknown flag", argv: []string{"--nope", "cat"}, wantCode: exitUsage, wantStderr: "unknown flag"},
		{name: "help", argv: []string{"-h"}, wantCode: 0, wantStdout: "Usage: bio"},
		{name: "version", argv: []string{"--version"}, wantCode: 0, wantStdout: "bio " + version},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var stdout, stderr strings.Builder
			code := run(tt.argv, &stdout, &stderr)
			if code != tt.wantCode {
				t.Errorf("code = %d, want %d (stderr: %s)", code, tt.wantCode, stderr.String())
			}
			if !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Errorf("stdout = %q, want it to contain %q", stdout.String(), tt.wantStdout)
			}
			if !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want it to contain %q", stderr.String(), tt.wantStderr)
			}
		})
	}
}
