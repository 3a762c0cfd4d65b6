package extprobe

import (
	"strings"
	"testing"
)

func TestFindCompilerPrefersConfiguredCC(t *testing.T) {
	cfg := NewConfigVars()
	cfg.Set(VarCC, "/opt/toolchain/bin/cc")
	if got := FindCompiler(cfg); got != "/opt/toolchain/bin/cc" {
		t.Errorf("FindCompiler = %q, expected the configured CC", got)
	}
}

func TestCompilerMachine(t *testing.T) {
	t.Run("reports the trimmed target triple", func(t *testing.T) {
		runner := &fakeRunner{machine: "x86_64-linux-gnu\n"}
		machine, err := CompilerMachine(runner, "cc")
		if err != nil {
			t.Fatalf("CompilerMachine: %v", err)
		}
		if machine != "x86_64-linux-gnu" {
			t.Errorf("machine = %q, expected x86_64-linux-gnu", machine)
		}
		if runner.outputCalls != 1 {
			t.Errorf("compiler invoked %d times, expected 1", runner.outputCalls)
		}
	})

	t.Run("no compiler is an error", func(t *testing.T) {
		if _, err := CompilerMachine(&fakeRunner{}, ""); err == nil {
			t.Error("expected an error without a compiler")
		}
	})

	t.Run("empty output is an error", func(t *testing.T) {
		if _, err := CompilerMachine(&fakeRunner{machine: " \n"}, "cc"); err == nil {
			t.Error("expected an error for a silent compiler")
		}
	})
}

func TestCheckRequiredTools(t *testing.T) {
	t.Run("missing required tool", func(t *testing.T) {
		err := CheckRequiredTools([]ToolRequirement{
			{Name: "definitely-not-a-real-tool-9f2c", Purpose: "testing"},
		})
		if err == nil {
			t.Fatal("expected an error for a missing required tool")
		}
		if !strings.Contains(err.Error(), "definitely-not-a-real-tool-9f2c") {
			t.Errorf("error does not name the missing tool: %v", err)
		}
	})

	t.Run("missing optional tool", func(t *testing.T) {
		err := CheckRequiredTools([]ToolRequirement{
			{Name: "also-not-a-real-tool-9f2c", Optional: true},
		})
		if err != nil {
			t.Errorf("optional tools must not fail the check: %v", err)
		}
	})

	t.Run("multiple missing tools in one error", func(t *testing.T) {
		err := CheckRequiredTools([]ToolRequirement{
			{Name: "missing-one-9f2c"},
			{Name: "missing-two-9f2c"},
		})
		if err == nil {
			t.Fatal("expected an error")
		}
		msg := err.Error()
		if !strings.Contains(msg, "missing-one-9f2c") || !strings.Contains(msg, "missing-two-9f2c") {
			t.Errorf("error should list every missing tool: %v", err)
		}
	})
}
