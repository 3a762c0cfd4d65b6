package extprobe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// writeTree creates the given relative files under a fresh temp dir.
func writeTree(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, file := range files {
		path := filepath.Join(root, file)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestDiscoveryRun(t *testing.T) {
	t.Setenv(HostPlatformEnv, "linux")

	includeDir := writeTree(t,
		"sys/socket.h",
		"ffi.h",
		"tk.h",
	)
	libDir := writeTree(t, "libffi.so")

	cfg := NewConfigVars()
	cfg.Set(VarSrcDir, t.TempDir())

	manifest := &Manifest{
		Disabled: []string{"_tkinter"},
		Modules: []ModuleSpec{
			{Name: "_ctypes", Sources: []string{"_ctypes.c"}, Headers: []string{"ffi.h"}, Libraries: []string{"ffi"}},
			{Name: "_socket", Sources: []string{"socketmodule.c"}, Headers: []string{"sys/socket.h"}},
			{Name: "_tkinter", Sources: []string{"_tkinter.c"}, Headers: []string{"tk.h"}},
			{Name: "zlib", Sources: []string{"zlibmodule.c"}, Headers: []string{"zlib.h"}, Libraries: []string{"z"}},
			{Name: "_scproxy", Sources: []string{"_scproxy.c"}, Platforms: []string{"darwin"}},
		},
	}

	disc, err := NewDiscovery(cfg, manifest, DiscoveryOptions{
		IncludeDirs: []string{includeDir},
		LibraryDirs: []string{libDir},
	})
	if err != nil {
		t.Fatalf("NewDiscovery: %v", err)
	}
	if disc.Platform() != PlatformLinux {
		t.Fatalf("Platform = %v, expected linux", disc.Platform())
	}

	report, err := disc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var configured []string
	for _, ext := range report.Configured {
		configured = append(configured, ext.Name)
	}
	// _tkinter dropped by the disabled list, _ctypes relocated to the end.
	if expected := []string{"_socket", "_ctypes"}; !reflect.DeepEqual(configured, expected) {
		t.Errorf("Configured = %v, expected %v", configured, expected)
	}
	if expected := []string{"zlib"}; !reflect.DeepEqual(report.Missing, expected) {
		t.Errorf("Missing = %v, expected %v", report.Missing, expected)
	}
	if expected := []string{"_scproxy"}; !reflect.DeepEqual(report.Skipped, expected) {
		t.Errorf("Skipped = %v, expected %v", report.Skipped, expected)
	}
	if expected := []string{"_tkinter"}; !reflect.DeepEqual(report.Disabled, expected) {
		t.Errorf("Disabled = %v, expected %v", report.Disabled, expected)
	}

	summary := report.Summary()
	if !strings.Contains(summary, "2 modules configured") {
		t.Errorf("summary missing configured count:\n%s", summary)
	}
	if !strings.Contains(summary, "zlib") || !strings.Contains(summary, "_tkinter") {
		t.Errorf("summary missing module names:\n%s", summary)
	}
}

func TestNewDiscoveryMissingSrcDir(t *testing.T) {
	cfg := NewConfigVars()
	if _, err := NewDiscovery(cfg, &Manifest{}, DiscoveryOptions{}); !errors.Is(err, ErrNoSourceDir) {
		t.Errorf("expected ErrNoSourceDir, got %v", err)
	}
}

func TestNewDiscoveryFoldsNoDistFlags(t *testing.T) {
	t.Setenv(HostPlatformEnv, "linux")

	cfg := NewConfigVars()
	cfg.Set(VarSrcDir, t.TempDir())
	cfg.Set(VarCFLAGS, "-O2")
	cfg.Set(VarCFLAGSNoDist, "-fno-plt")
	cfg.Set(VarLDFLAGSNoDist, "-Wl,-z,now")

	if _, err := NewDiscovery(cfg, &Manifest{}, DiscoveryOptions{}); err != nil {
		t.Fatalf("NewDiscovery: %v", err)
	}

	if got := cfg.Get(VarCFLAGS); got != "-O2 -fno-plt" {
		t.Errorf("CFLAGS = %q, expected %q", got, "-O2 -fno-plt")
	}
	if got := cfg.Get(VarLDFLAGS); got != " -Wl,-z,now" {
		t.Errorf("LDFLAGS = %q, expected %q", got, " -Wl,-z,now")
	}
}

func TestDiscoveryProbesCompilerTarget(t *testing.T) {
	t.Setenv(HostPlatformEnv, "linux")

	cfg := NewConfigVars()
	cfg.Set(VarSrcDir, t.TempDir())
	cfg.Set(VarCC, "cc")
	runner := &fakeRunner{machine: "x86_64-linux-gnu"}

	// No IncludeDirs override, so the default search directories get
	// assembled, which asks the compiler for its multiarch triple.
	disc, err := NewDiscovery(cfg, &Manifest{}, DiscoveryOptions{
		Runner:      runner,
		LibraryDirs: []string{},
	})
	if err != nil {
		t.Fatalf("NewDiscovery: %v", err)
	}
	if _, err := disc.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if runner.outputCalls != 1 {
		t.Errorf("compiler target probed %d times, expected exactly 1", runner.outputCalls)
	}
}

func TestReportParallelFollowsMakeflags(t *testing.T) {
	t.Setenv(HostPlatformEnv, "linux")
	t.Setenv("MAKEFLAGS", "-j4")

	cfg := NewConfigVars()
	cfg.Set(VarSrcDir, t.TempDir())

	disc, err := NewDiscovery(cfg, &Manifest{}, DiscoveryOptions{
		IncludeDirs: []string{},
		LibraryDirs: []string{},
	})
	if err != nil {
		t.Fatalf("NewDiscovery: %v", err)
	}
	report, err := disc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.Parallel {
		t.Error("MAKEFLAGS=-j4 should enable the parallel flag")
	}
}
