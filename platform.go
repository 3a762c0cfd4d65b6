package extprobe

import (
	"os"
	"runtime"
	"strings"
)

// HostPlatformEnv is the environment variable that overrides host platform
// detection when cross-compiling. Its value uses GOOS-style names ("linux",
// "darwin", ...) or the richer triplet-ish names some build systems export;
// only the leading OS token is significant.
const HostPlatformEnv = "EXTPROBE_HOST_PLATFORM"

// Platform identifies the operating system the extensions are being built
// for. It is computed once at the start of discovery and threaded through
// every probing routine, so platform-dependent behavior never re-derives
// itself from strings at the point of use.
type Platform int

const (
	// PlatformOther covers hosts with no platform-specific probing behavior.
	PlatformOther Platform = iota
	// PlatformLinux is a Linux host.
	PlatformLinux
	// PlatformDarwin is a macOS host. SDK-aware path rewriting applies.
	PlatformDarwin
	// PlatformWindows is a native Windows host.
	PlatformWindows
	// PlatformCygwin is a Cygwin environment on Windows.
	PlatformCygwin
	// PlatformAIX is an AIX host.
	PlatformAIX
	// PlatformVxWorks is a VxWorks target (cross-compiled).
	PlatformVxWorks
)

// String returns the canonical lowercase name of the platform.
func (p Platform) String() string {
	switch p {
	case PlatformLinux:
		return "linux"
	case PlatformDarwin:
		return "darwin"
	case PlatformWindows:
		return "windows"
	case PlatformCygwin:
		return "cygwin"
	case PlatformAIX:
		return "aix"
	case PlatformVxWorks:
		return "vxworks"
	default:
		return "other"
	}
}

// IsDarwin reports whether SDK-aware path handling applies.
func (p Platform) IsDarwin() bool { return p == PlatformDarwin }

// CrossCompiling reports whether the host platform override is set, meaning
// the extensions are being configured for a platform other than the one the
// process runs on.
func CrossCompiling() bool {
	return os.Getenv(HostPlatformEnv) != ""
}

// DetectPlatform determines the target platform for this run.
//
// The EXTPROBE_HOST_PLATFORM environment variable wins when set, so that
// cross-compilation builds probe for the target rather than the build host.
// Otherwise the running OS decides.
func DetectPlatform() Platform {
	if host := os.Getenv(HostPlatformEnv); host != "" {
		return platformFromName(host)
	}
	return platformFromName(runtime.GOOS)
}

func platformFromName(name string) Platform {
	name = strings.ToLower(strings.TrimSpace(name))
	switch {
	case name == "darwin" || name == "macos":
		return PlatformDarwin
	case name == "windows" || name == "win32":
		return PlatformWindows
	case name == "cygwin":
		return PlatformCygwin
	case strings.HasPrefix(name, "aix"):
		return PlatformAIX
	case strings.Contains(name, "vxworks"):
		return PlatformVxWorks
	case strings.HasPrefix(name, "linux"):
		return PlatformLinux
	default:
		return PlatformOther
	}
}

// ParallelJobs reports whether the external build tool has been asked to
// compile independent extensions in parallel, by checking for a -j flag in
// the MAKEFLAGS environment variable. The probing code itself stays
// sequential; the flag is only handed through to the build tool.
func ParallelJobs() bool {
	return strings.Contains(os.Getenv("MAKEFLAGS"), "-j")
}
