package extprobe

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
)

// DiscoveryOptions tune a Discovery. The zero value is usable: live
// filesystem, real toolchain, default search directories, silent logger.
type DiscoveryOptions struct {
	// Runner performs external process invocations. Defaults to ExecRunner.
	Runner CommandRunner
	// Logger receives structured progress output. Defaults to a discard
	// logger.
	Logger *log.Logger
	// IncludeDirs overrides the standard header search directories.
	IncludeDirs []string
	// LibraryDirs overrides the standard library search directories.
	LibraryDirs []string
}

// Discovery is the top-level orchestrator: it owns the platform tag, the SDK
// root resolver, and the path prober for one configuration run, and drives
// the per-module detectors over the manifest.
type Discovery struct {
	cfg      *ConfigVars
	manifest *Manifest
	opts     DiscoveryOptions

	platform Platform
	sdk      *SDKRoot
	prober   *Prober
	registry *DetectorRegistry
	logger   *log.Logger
	srcdir   string
}

// Report is the outcome of a discovery run, consumed by the build tool and
// rendered for humans.
type Report struct {
	// Configured holds the descriptors to build, in build order, after
	// disabled-module filtering and the FFI reorder.
	Configured []*Extension
	// Missing names modules whose requirements were not found.
	Missing []string
	// Skipped names modules that don't apply to this run.
	Skipped []string
	// Disabled names modules removed by the disabled-module list.
	Disabled []string
	// Parallel mirrors the build tool's -j request from MAKEFLAGS.
	Parallel bool
}

// NewDiscovery validates the configuration and assembles a run.
//
// The source directory must exist; ErrNoSourceDir otherwise, which is the
// one fatal configuration error. The platform is detected here, once, and
// the no-dist compiler and linker flags are folded into CFLAGS/LDFLAGS,
// which is why NewDiscovery must be called at most once per ConfigVars.
func NewDiscovery(cfg *ConfigVars, manifest *Manifest, opts DiscoveryOptions) (*Discovery, error) {
	srcdir, err := cfg.SourceDir()
	if err != nil {
		return nil, err
	}
	if opts.Runner == nil {
		opts.Runner = ExecRunner{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	platform := DetectPlatform()
	sdk := NewSDKRoot(cfg, opts.Runner, platform)
	prober := NewProber(platform, sdk)

	cfg.AppendNoDist(VarCFLAGS, VarCFLAGSNoDist)
	cfg.AppendNoDist(VarLDFLAGS, VarLDFLAGSNoDist)

	return &Discovery{
		cfg:      cfg,
		manifest: manifest,
		opts:     opts,
		platform: platform,
		sdk:      sdk,
		prober:   prober,
		registry: NewDetectorRegistry(manifest.Modules),
		logger:   logger,
		srcdir:   srcdir,
	}, nil
}

// Platform returns the platform tag detected for this run.
func (d *Discovery) Platform() Platform { return d.platform }

// SDK returns the run's SDK root resolver.
func (d *Discovery) SDK() *SDKRoot { return d.sdk }

// Run probes every manifest module, fills the extension list, applies the
// disabled-module filter and FFI reorder, and returns the report.
func (d *Discovery) Run(ctx context.Context) (*Report, error) {
	if err := CheckRequiredTools(baseToolRequirements()); err != nil {
		// Probing mostly reads the filesystem, so a missing toolchain
		// is only a warning here; the build tool will fail properly.
		d.logger.Warn("build tools missing", "err", err)
	}

	env := &ProbeEnv{
		Config:      d.cfg,
		Prober:      d.prober,
		SDK:         d.sdk,
		Platform:    d.platform,
		IncludeDirs: d.includeDirs(),
		LibraryDirs: d.libraryDirs(),
		Log:         d.logger,
	}
	d.logger.Debug("probing modules",
		"platform", d.platform, "srcdir", d.srcdir,
		"include_dirs", env.IncludeDirs, "library_dirs", env.LibraryDirs)

	detections, err := d.registry.DetectAll(ctx, env)
	if err != nil {
		return nil, err
	}

	report := &Report{Parallel: ParallelJobs()}
	list := &ExtensionList{}
	for i := range d.manifest.Modules {
		name := d.manifest.Modules[i].Name
		det := detections[name]
		switch {
		case det == nil:
			continue
		case det.Found:
			list.Add(det.Extension)
		case det.Skipped:
			report.Skipped = append(report.Skipped, name)
		default:
			d.logger.Info("module missing", "module", name, "reason", det.Reason)
			report.Missing = append(report.Missing, name)
		}
	}

	before := list.Names()
	list.RemoveDisabled(d.manifest.Disabled)
	report.Configured = list.Extensions()
	report.Disabled = diffNames(before, list.Names())

	sort.Strings(report.Missing)
	sort.Strings(report.Skipped)
	d.logger.Info("discovery complete",
		"configured", len(report.Configured),
		"missing", len(report.Missing),
		"disabled", len(report.Disabled))
	return report, nil
}

// includeDirs assembles the standard header search directories: the
// defaults, the compiler's multiarch directory when it reports one, and,
// when cross-compiling, the toolchain sysroot's header trees.
func (d *Discovery) includeDirs() []string {
	if d.opts.IncludeDirs != nil {
		return d.opts.IncludeDirs
	}
	dirs := []string{"/usr/include", "/usr/local/include"}
	if machine, err := CompilerMachine(d.opts.Runner, FindCompiler(d.cfg)); err == nil {
		d.logger.Debug("compiler target", "machine", machine)
		dirs = d.prober.AddDirToList(dirs, "/usr/include/"+machine)
	}
	if CrossCompiling() {
		dirs = d.prober.SysrootPaths(d.cfg, []string{VarCFLAGS, VarCC}, dirs)
	}
	return dirs
}

func (d *Discovery) libraryDirs() []string {
	if d.opts.LibraryDirs != nil {
		return d.opts.LibraryDirs
	}
	dirs := []string{"/lib64", "/usr/lib64", "/lib", "/usr/lib", "/usr/local/lib"}
	if CrossCompiling() {
		dirs = d.prober.SysrootPaths(d.cfg, []string{VarLDFLAGS, VarCC}, dirs)
	}
	return dirs
}

// Summary renders the human-readable closing report, in the style build
// logs print after configuration.
func (r *Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d modules configured", len(r.Configured))
	if r.Parallel {
		b.WriteString(" (parallel build enabled)")
	}
	b.WriteString("\n")
	if len(r.Missing) > 0 {
		b.WriteString("\nThe necessary bits to build these optional modules were not found:\n")
		writeNameColumns(&b, r.Missing)
	}
	if len(r.Disabled) > 0 {
		b.WriteString("\nThe following modules are disabled:\n")
		writeNameColumns(&b, r.Disabled)
	}
	return b.String()
}

func writeNameColumns(b *strings.Builder, names []string) {
	for i, name := range names {
		if i%3 == 0 {
			if i > 0 {
				b.WriteString("\n")
			}
		}
		fmt.Fprintf(b, "%-24s", name)
	}
	b.WriteString("\n")
}

// diffNames returns the entries of before missing from after, preserving
// before's order.
func diffNames(before, after []string) []string {
	kept := make(map[string]bool, len(after))
	for _, name := range after {
		kept[name] = true
	}
	var removed []string
	for _, name := range before {
		if !kept[name] {
			removed = append(removed, name)
		}
	}
	return removed
}
