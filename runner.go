package extprobe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/magefile/mage/sh"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// CommandRunner abstracts the external process invocations discovery makes:
// argv-style compiler probes and whole shell command lines. Tests substitute
// a fake to exercise probing logic without a toolchain on the host.
type CommandRunner interface {
	// Output runs an argv-style command and returns its combined trimmed
	// standard output. A non-zero exit is reported as an error.
	Output(name string, args ...string) (string, error)

	// Shell executes a shell command line and returns its exit code.
	// The command's stdout and stderr are written to the given writer
	// (both streams, matching what a 2>&1 pipeline would capture).
	// Exit codes are propagated untranslated; a non-nil error means the
	// command could not be run at all.
	Shell(ctx context.Context, command string, out io.Writer) (int, error)
}

// ExecRunner is the production CommandRunner. Argv probes go through
// mage/sh; shell lines run in an embedded POSIX shell interpreter, so exit
// status propagation does not depend on the host having /bin/sh.
type ExecRunner struct{}

// Output implements CommandRunner.
func (ExecRunner) Output(name string, args ...string) (string, error) {
	out, err := sh.Output(name, args...)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return strings.TrimSpace(out), nil
}

// Shell implements CommandRunner.
func (ExecRunner) Shell(ctx context.Context, command string, out io.Writer) (int, error) {
	if out == nil {
		out = io.Discard
	}
	prog, err := syntax.NewParser().Parse(strings.NewReader(command), "command")
	if err != nil {
		return -1, fmt.Errorf("parse command %q: %w", command, err)
	}
	runner, err := interp.New(
		interp.StdIO(strings.NewReader(""), out, out),
		interp.Env(nil),
	)
	if err != nil {
		return -1, fmt.Errorf("create shell interpreter: %w", err)
	}
	if err := runner.Run(ctx, prog); err != nil {
		if status, ok := interp.IsExitStatus(err); ok {
			return int(status), nil
		}
		return -1, fmt.Errorf("run command %q: %w", command, err)
	}
	return 0, nil
}

// RunCommand executes a shell command line, streaming its output to the
// process's stdout/stderr, and returns the command's exit code. Failures of
// the command itself are not errors here; the exit code carries them, the
// same way the underlying build tool would see them.
func RunCommand(ctx context.Context, command string) (int, error) {
	return ExecRunner{}.Shell(ctx, command, os.Stdout)
}

// capturedShell runs a shell command line and returns everything it wrote,
// regardless of exit status. Used for compiler interrogation, where the
// interesting report is printed on stderr and the exit code is noise.
func capturedShell(ctx context.Context, runner CommandRunner, command string) (string, error) {
	var buf bytes.Buffer
	if _, err := runner.Shell(ctx, command, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// quoteArg renders a string as a single shell word.
func quoteArg(s string) string {
	quoted, err := syntax.Quote(s, syntax.LangPOSIX)
	if err != nil {
		// Control bytes in a compiler path; no sane quoting exists.
		return "''"
	}
	return quoted
}
