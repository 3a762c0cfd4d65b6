package extprobe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrPathOutsideSearchDirs reports an internal inconsistency: a resolved
// file path was expected to live under one of the standard or additional
// search directories but matched neither. It signals a programming error in
// the caller, not bad user input.
var ErrPathOutsideSearchDirs = errors.New("path not found in standard or additional directories")

var sysrootPattern = regexp.MustCompile(`--sysroot=([^"]\S*|"[^"]+")`)

// Prober answers "is this header/library reachable, and what extra search
// directory does it cost" questions against the host filesystem.
//
// On macOS it rewrites lookups inside SDK-owned trees under the resolved SDK
// root, because those directories are virtual overlays rather than real
// paths at runtime. The filesystem predicates are injectable so probing
// logic can be tested against a fake tree.
type Prober struct {
	Platform Platform
	SDK      *SDKRoot

	// Exists reports whether a path exists. Defaults to an os.Stat check.
	Exists func(path string) bool
	// IsDir reports whether a path is an existing directory.
	IsDir func(path string) bool
}

// NewProber creates a Prober backed by the live filesystem.
func NewProber(platform Platform, sdk *SDKRoot) *Prober {
	return &Prober{
		Platform: platform,
		SDK:      sdk,
		Exists: func(path string) bool {
			_, err := os.Stat(path)
			return err == nil
		},
		IsDir: func(path string) bool {
			info, err := os.Stat(path)
			return err == nil && info.IsDir()
		},
	}
}

// FindFile searches for the directory where filename is located.
//
// stdDirs are the compiler's standard search directories; a hit there means
// no extra build flags are needed and the returned slice is empty. extraDirs
// are candidate locations that would each require an extra search-path flag;
// a hit there returns that single directory. Scanning is in order and the
// first match wins. found is false when the file exists in neither set,
// which callers treat as "skip this module", not as an error.
func (p *Prober) FindFile(ctx context.Context, filename string, stdDirs, extraDirs []string) (extra []string, found bool, err error) {
	sysroot, err := p.sysroot(ctx)
	if err != nil {
		return nil, false, err
	}

	for _, dir := range stdDirs {
		if p.Exists(p.sdkAwareJoin(sysroot, dir, filename)) {
			return []string{}, true, nil
		}
	}
	for _, dir := range extraDirs {
		if p.Exists(p.sdkAwareJoin(sysroot, dir, filename)) {
			return []string{dir}, true, nil
		}
	}
	return nil, false, nil
}

// DirContaining performs the inverse query: given a file path already
// resolved by some other means (typically a compiler invocation), determine
// which of the known directories it belongs to, in FindFile's vocabulary.
//
// It returns an empty slice when the file sits in a standard directory and a
// single-element slice naming the matching additional directory otherwise.
// A path belonging to neither list returns ErrPathOutsideSearchDirs.
func (p *Prober) DirContaining(ctx context.Context, path string, stdDirs, extraDirs []string) ([]string, error) {
	sysroot, err := p.sysroot(ctx)
	if err != nil {
		return nil, err
	}
	dirname := filepath.Dir(path)

	for _, dir := range stdDirs {
		dir = strings.TrimRight(dir, string(os.PathSeparator))
		if p.SDK != nil && p.SDK.IsSDKPath(dir) {
			if filepath.Join(sysroot, dir[1:]) == dirname {
				return []string{}, nil
			}
		}
		if dir == dirname {
			return []string{}, nil
		}
	}
	for _, dir := range extraDirs {
		dir = strings.TrimRight(dir, string(os.PathSeparator))
		if p.SDK != nil && p.SDK.IsSDKPath(dir) {
			if filepath.Join(sysroot, dir[1:]) == dirname {
				return []string{dir}, nil
			}
		}
		if dir == dirname {
			return []string{dir}, nil
		}
	}
	return nil, fmt.Errorf("%q: %w", path, ErrPathOutsideSearchDirs)
}

// AddDirToList inserts dir into an ordered search-directory list and returns
// the updated list. The directory is skipped when empty, already present, or
// not an existing directory. Absolute entries sort after relative ones, so
// the insertion point is just after the first relative entry when one
// exists, else the front of the list.
func (p *Prober) AddDirToList(list []string, dir string) []string {
	if dir == "" || !p.IsDir(dir) {
		return list
	}
	for _, existing := range list {
		if existing == dir {
			return list
		}
	}
	for i, path := range list {
		if !filepath.IsAbs(path) {
			list = append(list, "")
			copy(list[i+2:], list[i+1:])
			list[i+1] = dir
			return list
		}
	}
	return append([]string{dir}, list...)
}

// SysrootPaths returns the existing sysroot subdirectories for a
// cross-compilation toolchain.
//
// makeVars names configuration variables (typically CFLAGS then CC) that may
// carry a --sysroot= flag; the first variable containing one wins. Each of
// subdirs (header or library locations) is then joined under that sysroot,
// keeping the ones that exist as directories.
func (p *Prober) SysrootPaths(cfg *ConfigVars, makeVars, subdirs []string) []string {
	var dirs []string
	for _, name := range makeVars {
		value := cfg.Get(name)
		if value == "" {
			continue
		}
		m := sysrootPattern.FindStringSubmatch(value)
		if m == nil {
			continue
		}
		sysroot := strings.Trim(m[1], `"`)
		for _, subdir := range subdirs {
			if filepath.IsAbs(subdir) {
				subdir = subdir[1:]
			}
			path := filepath.Join(sysroot, subdir)
			if p.IsDir(path) {
				dirs = append(dirs, path)
			}
		}
		break
	}
	return dirs
}

// sysroot resolves the SDK root once per query on darwin and reports the
// no-SDK sentinel everywhere else.
func (p *Prober) sysroot(ctx context.Context) (string, error) {
	if p.SDK == nil || !p.Platform.IsDarwin() {
		return NoSDKSentinel, nil
	}
	return p.SDK.Root(ctx)
}

// sdkAwareJoin joins dir and filename, relocating SDK-owned directories
// under the resolved sysroot first.
func (p *Prober) sdkAwareJoin(sysroot, dir, filename string) string {
	if p.SDK != nil && p.SDK.IsSDKPath(dir) {
		return filepath.Join(sysroot, dir[1:], filename)
	}
	return filepath.Join(dir, filename)
}
