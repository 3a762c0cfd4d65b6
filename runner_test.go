package extprobe

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestExecRunnerShell(t *testing.T) {
	t.Run("exit code propagates untranslated", func(t *testing.T) {
		code, err := ExecRunner{}.Shell(context.Background(), "exit 7", nil)
		if err != nil {
			t.Fatalf("Shell: %v", err)
		}
		if code != 7 {
			t.Errorf("exit code = %d, expected 7", code)
		}
	})

	t.Run("success is zero", func(t *testing.T) {
		var out bytes.Buffer
		code, err := ExecRunner{}.Shell(context.Background(), "echo hello", &out)
		if err != nil {
			t.Fatalf("Shell: %v", err)
		}
		if code != 0 {
			t.Errorf("exit code = %d, expected 0", code)
		}
		if got := strings.TrimSpace(out.String()); got != "hello" {
			t.Errorf("output = %q, expected hello", got)
		}
	})

	t.Run("unparsable command is an error", func(t *testing.T) {
		if _, err := (ExecRunner{}).Shell(context.Background(), "if then fi ((", nil); err == nil {
			t.Error("expected a parse error")
		}
	})
}

func TestRunCommand(t *testing.T) {
	code, err := RunCommand(context.Background(), "exit 5")
	if err != nil {
		t.Fatalf("RunCommand: %v", err)
	}
	if code != 5 {
		t.Errorf("exit code = %d, expected 5", code)
	}

	code, err = RunCommand(context.Background(), "true")
	if err != nil {
		t.Fatalf("RunCommand: %v", err)
	}
	if code != 0 {
		t.Errorf("exit code = %d, expected 0", code)
	}
}

func TestCapturedShell(t *testing.T) {
	runner := &fakeRunner{report: "captured text"}
	got, err := capturedShell(context.Background(), runner, "cc -E -v -")
	if err != nil {
		t.Fatalf("capturedShell: %v", err)
	}
	if got != "captured text" {
		t.Errorf("captured = %q", got)
	}
	if runner.calls != 1 {
		t.Errorf("runner invoked %d times", runner.calls)
	}
}

func TestQuoteArg(t *testing.T) {
	testCases := []struct {
		in       string
		expected string
	}{
		{"cc", "cc"},
		{"/usr/bin/cc", "/usr/bin/cc"},
		{"my cc", `"my cc"`},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got := quoteArg(tc.in)
			if tc.in == "my cc" {
				// Exact quoting style is the shell library's choice;
				// it just must round-trip as one word.
				if got == tc.in || !strings.Contains(got, "my cc") {
					t.Errorf("quoteArg(%q) = %q, not quoted", tc.in, got)
				}
				return
			}
			if got != tc.expected {
				t.Errorf("quoteArg(%q) = %q, expected %q", tc.in, got, tc.expected)
			}
		})
	}
}
