package extprobe

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/log"
)

// ProbeEnv carries the shared state detectors probe against: the config
// store, the path prober, and the standard search directories discovered for
// this run. One ProbeEnv serves a whole discovery run.
type ProbeEnv struct {
	Config   *ConfigVars
	Prober   *Prober
	SDK      *SDKRoot
	Platform Platform

	// IncludeDirs are the standard header search directories.
	IncludeDirs []string
	// LibraryDirs are the standard library search directories.
	LibraryDirs []string

	Log *log.Logger
}

// Detection is the outcome of probing one module.
type Detection struct {
	// Found means the module's requirements are all satisfied and
	// Extension holds the finished descriptor.
	Found bool
	// Skipped means the module does not apply to this run (wrong
	// platform, test-only module with tests disabled) and should not be
	// reported as missing.
	Skipped bool
	// Reason explains a missing or skipped outcome.
	Reason string
	// Extension is the build descriptor, set only when Found.
	Extension *Extension
}

// Detector decides whether one extension module can be configured on the
// host. Implementations must be stateless; the registry may reuse them
// across runs.
type Detector interface {
	// Name returns the module name this detector probes for.
	Name() string

	// Detect probes the host and reports the outcome. Probe misses are
	// normal results, not errors; an error means probing itself failed.
	Detect(ctx context.Context, env *ProbeEnv) (*Detection, error)
}

// DetectorRegistry holds the detectors for a discovery run, in build order.
type DetectorRegistry struct {
	detectors []Detector
}

// NewDetectorRegistry builds a registry with one manifest-driven detector
// per module spec, preserving manifest order.
func NewDetectorRegistry(specs []ModuleSpec) *DetectorRegistry {
	r := &DetectorRegistry{}
	for i := range specs {
		r.Register(&specDetector{spec: specs[i]})
	}
	return r
}

// Register appends a detector. Not safe for concurrent use; register
// everything before running.
func (r *DetectorRegistry) Register(d Detector) {
	r.detectors = append(r.detectors, d)
}

// Detectors returns a copy of the registered detectors.
func (r *DetectorRegistry) Detectors() []Detector {
	return append([]Detector{}, r.detectors...)
}

// DetectAll probes every registered module in order. Probing stops early
// only on context cancellation or a probe failure; individual misses are
// recorded in their Detection and do not interrupt the run.
func (r *DetectorRegistry) DetectAll(ctx context.Context, env *ProbeEnv) (map[string]*Detection, error) {
	results := make(map[string]*Detection, len(r.detectors))
	for _, d := range r.detectors {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		det, err := d.Detect(ctx, env)
		if err != nil {
			return results, fmt.Errorf("probe %s: %w", d.Name(), err)
		}
		results[d.Name()] = det
	}
	return results, nil
}

// specDetector probes a module declared in the manifest: every required
// header and library must be reachable, and whatever additional directories
// the probes surface become the descriptor's search paths.
type specDetector struct {
	spec ModuleSpec
}

func (d *specDetector) Name() string { return d.spec.Name }

func (d *specDetector) Detect(ctx context.Context, env *ProbeEnv) (*Detection, error) {
	spec := &d.spec

	if !spec.SupportsPlatform(env.Platform) {
		return &Detection{Skipped: true, Reason: fmt.Sprintf("not supported on %s", env.Platform)}, nil
	}
	if spec.TestOnly && !env.Config.TestModulesEnabled() {
		return &Detection{Skipped: true, Reason: "test modules disabled"}, nil
	}
	if miss, err := d.checkSDKVersion(ctx, env); err != nil || miss != nil {
		return miss, err
	}

	ext := &Extension{
		Name:             spec.Name,
		Sources:          spec.Sources,
		Libraries:        spec.Libraries,
		ExtraCompileArgs: spec.ExtraCompileArgs,
		ExtraLinkArgs:    spec.ExtraLinkArgs,
		TestOnly:         spec.TestOnly,
	}

	for _, header := range spec.Headers {
		extra, found, err := env.Prober.FindFile(ctx, header, env.IncludeDirs, spec.ExtraIncludeDirs)
		if err != nil {
			return nil, err
		}
		if !found {
			return &Detection{Reason: fmt.Sprintf("header %s not found", header)}, nil
		}
		ext.IncludeDirs = mergeDirs(ext.IncludeDirs, extra)
	}

	for _, lib := range spec.Libraries {
		extra, found, err := d.findLibrary(ctx, env, lib)
		if err != nil {
			return nil, err
		}
		if !found {
			return &Detection{Reason: fmt.Sprintf("library %s not found", lib)}, nil
		}
		ext.LibraryDirs = mergeDirs(ext.LibraryDirs, extra)
	}

	if env.Log != nil {
		env.Log.Debug("module detected", "module", spec.Name,
			"include_dirs", ext.IncludeDirs, "library_dirs", ext.LibraryDirs)
	}
	return &Detection{Found: true, Extension: ext}, nil
}

// checkSDKVersion gates the module on a minimum SDK version. A live system
// without a versioned SDK passes; the gate only applies when an SDK is
// active and identifiable.
func (d *specDetector) checkSDKVersion(ctx context.Context, env *ProbeEnv) (*Detection, error) {
	if d.spec.MinSDKVersion == "" || !env.Platform.IsDarwin() || env.SDK == nil {
		return nil, nil
	}
	minVer, err := semver.NewVersion(d.spec.MinSDKVersion)
	if err != nil {
		return nil, fmt.Errorf("module %s: bad min_sdk_version %q: %w", d.spec.Name, d.spec.MinSDKVersion, err)
	}
	ver, err := env.SDK.Version(ctx)
	if errors.Is(err, ErrNoSDKVersion) {
		return nil, nil // no versioned SDK, nothing to gate on
	}
	if err != nil {
		return nil, fmt.Errorf("module %s: resolve SDK version: %w", d.spec.Name, err)
	}
	if ver.LessThan(minVer) {
		return &Detection{Reason: fmt.Sprintf("requires SDK %s, have %s", minVer, ver)}, nil
	}
	return nil, nil
}

// findLibrary probes for any linkable artifact of the named library across
// the platform's suffixes. SDKs since Xcode 7 may ship textual .tbd stubs
// instead of the .dylib installed on a live system, so both are candidates.
func (d *specDetector) findLibrary(ctx context.Context, env *ProbeEnv, name string) ([]string, bool, error) {
	var suffixes []string
	if env.Platform.IsDarwin() {
		suffixes = []string{".dylib", ".tbd", ".a"}
	} else {
		suffixes = []string{".so", ".a"}
	}
	for _, suffix := range suffixes {
		extra, found, err := env.Prober.FindFile(ctx, "lib"+name+suffix, env.LibraryDirs, d.spec.ExtraLibraryDirs)
		if err != nil {
			return nil, false, err
		}
		if found {
			return extra, true, nil
		}
	}
	return nil, false, nil
}

// mergeDirs appends dirs not already present, preserving order.
func mergeDirs(list, dirs []string) []string {
	for _, dir := range dirs {
		present := false
		for _, existing := range list {
			if existing == dir {
				present = true
				break
			}
		}
		if !present {
			list = append(list, dir)
		}
	}
	return list
}
