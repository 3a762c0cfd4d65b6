package extprobe

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// NoSDKSentinel is the SDK root value meaning "no SDK": system headers are
// installed on the live filesystem and paths need no rewriting.
const NoSDKSentinel = "/"

// ErrNoSDKVersion is returned by SDKRoot.Version when the resolved root does
// not carry a version in its name (including the no-SDK sentinel).
var ErrNoSDKVersion = errors.New("sdk root has no version")

var isysrootPattern = regexp.MustCompile(`-isysroot\s*(\S+)`)

// SDKRoot resolves the effective system-header root on macOS.
//
// An SDK is a directory tree with the same layout as a real system root but
// containing only headers and libraries; when one is active, probing for
// /usr/include/foo.h must actually look under <sdk>/usr/include/foo.h.
//
// Resolution order:
//  1. An explicit -isysroot flag in the CFLAGS configuration variable.
//  2. Interrogating the compiler for its default header search root.
//
// The result is resolved lazily on first use and memoized on the instance
// for the remainder of the run, together with whether the SDK was explicitly
// configured. One SDKRoot belongs to one Discovery; there is no package
// level cache.
//
// On non-darwin platforms an SDKRoot is inert: Root always reports the
// no-SDK sentinel and IsSDKPath never matches.
type SDKRoot struct {
	cfg      *ConfigVars
	runner   CommandRunner
	platform Platform

	resolved  bool
	root      string
	specified bool
}

// NewSDKRoot creates a resolver bound to the given configuration store.
// A nil runner defaults to ExecRunner.
func NewSDKRoot(cfg *ConfigVars, runner CommandRunner, platform Platform) *SDKRoot {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &SDKRoot{cfg: cfg, runner: runner, platform: platform}
}

// Root returns the directory of the current SDK, or NoSDKSentinel when the
// compiler searches the live /usr/include. The first call may invoke the
// compiler; subsequent calls return the cached result.
func (s *SDKRoot) Root(ctx context.Context) (string, error) {
	if s.resolved {
		return s.root, nil
	}
	if !s.platform.IsDarwin() {
		s.resolved = true
		s.root = NoSDKSentinel
		return s.root, nil
	}

	if m := isysrootPattern.FindStringSubmatch(s.cfg.Get(VarCFLAGS)); m != nil {
		s.root = m[1]
		s.specified = s.root != NoSDKSentinel
		s.resolved = true
		return s.root, nil
	}

	root, err := s.defaultSysroot(ctx)
	if err != nil {
		return "", err
	}
	s.root = root
	s.specified = false
	s.resolved = true
	return s.root, nil
}

// Specified reports whether an SDK was explicitly configured (via an
// -isysroot flag) rather than implied by the toolchain's defaults. Some
// decisions, like framework search paths, depend on the distinction.
func (s *SDKRoot) Specified(ctx context.Context) (bool, error) {
	if !s.resolved {
		if _, err := s.Root(ctx); err != nil {
			return false, err
		}
	}
	return s.specified, nil
}

// Version parses the SDK version out of the resolved root's directory name,
// e.g. "11.3" from ".../MacOSX11.3.sdk". ErrNoSDKVersion is returned for
// the no-SDK sentinel and for unversioned SDK names.
func (s *SDKRoot) Version(ctx context.Context) (*semver.Version, error) {
	root, err := s.Root(ctx)
	if err != nil {
		return nil, err
	}
	base := filepath.Base(root)
	if root == NoSDKSentinel || !strings.HasSuffix(base, ".sdk") {
		return nil, ErrNoSDKVersion
	}
	raw := strings.TrimSuffix(base, ".sdk")
	raw = strings.TrimLeftFunc(raw, func(r rune) bool {
		return r < '0' || r > '9'
	})
	if raw == "" {
		return nil, ErrNoSDKVersion
	}
	ver, err := semver.NewVersion(raw)
	if err != nil {
		return nil, fmt.Errorf("sdk version %q: %w", raw, err)
	}
	return ver, nil
}

// IsSDKPath reports whether the directory is one that gets relocated into an
// SDK overlay when an SDK is active. These are the Apple-owned trees; user
// prefixes like /usr/local stay on the live filesystem.
func (s *SDKRoot) IsSDKPath(dir string) bool {
	if !s.platform.IsDarwin() {
		return false
	}
	return (strings.HasPrefix(dir, "/usr/") && !strings.HasPrefix(dir, "/usr/local")) ||
		strings.HasPrefix(dir, "/System/") ||
		strings.HasPrefix(dir, "/Library/")
}

// defaultSysroot asks the compiler which header roots it searches by
// default. The compiler prints its include search list on stderr between
// "#include <...> search starts here:" and "End of search list"; finding
// /usr/include there means no SDK, while a path ending in .sdk/usr/include
// names the active SDK.
func (s *SDKRoot) defaultSysroot(ctx context.Context) (string, error) {
	cc := FindCompiler(s.cfg)
	if cc == "" {
		return "", fmt.Errorf("interrogate compiler for sysroot: %w", errNoCompiler)
	}
	report, err := capturedShell(ctx, s.runner, quoteArg(cc)+" -c -E -v - </dev/null")
	if err != nil {
		return "", fmt.Errorf("interrogate compiler for sysroot: %w", err)
	}
	return parseDefaultSysroot(report), nil
}

func parseDefaultSysroot(report string) string {
	root := NoSDKSentinel
	inIncludeDirs := false
	for _, line := range strings.Split(report, "\n") {
		switch {
		case strings.HasPrefix(line, "#include <...>"):
			inIncludeDirs = true
		case strings.HasPrefix(line, "End of search list"):
			inIncludeDirs = false
		case inIncludeDirs:
			line = strings.TrimSpace(line)
			if line == "/usr/include" {
				root = NoSDKSentinel
			} else if strings.HasSuffix(line, ".sdk/usr/include") {
				root = strings.TrimSuffix(line, "/usr/include")
			}
		}
	}
	return root
}
