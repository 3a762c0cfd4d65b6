package extprobe

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Manifest declares the extension modules a runtime's standard library
// ships, plus the externally maintained disabled-module list. It is the
// static input to discovery; probing decides which declared modules the host
// can actually build.
//
// The on-disk format is TOML:
//
//	disabled = ["_tkinter"]
//
//	[[module]]
//	name      = "_socket"
//	sources   = ["socketmodule.c"]
//	headers   = ["sys/socket.h"]
//
//	[[module]]
//	name      = "zlib"
//	sources   = ["zlibmodule.c"]
//	headers   = ["zlib.h"]
//	libraries = ["z"]
type Manifest struct {
	// Disabled lists module names excluded from the build outright.
	Disabled []string `toml:"disabled"`
	// Modules are the declared extension modules, in build order.
	Modules []ModuleSpec `toml:"module"`
}

// ModuleSpec is one module's manifest entry: the descriptor fields plus the
// probe requirements deciding whether the module can be configured.
type ModuleSpec struct {
	Name    string   `toml:"name"`
	Sources []string `toml:"sources"`

	// Headers must all be locatable through the standard or additional
	// include directories for the module to be configured.
	Headers []string `toml:"headers"`
	// Libraries must all be locatable through the library directories.
	// They are also linked into the module.
	Libraries []string `toml:"libraries"`
	// ExtraIncludeDirs are module-specific candidate header locations
	// beyond the shared additional directories.
	ExtraIncludeDirs []string `toml:"extra_include_dirs"`
	// ExtraLibraryDirs are module-specific candidate library locations.
	ExtraLibraryDirs []string `toml:"extra_library_dirs"`

	ExtraCompileArgs []string `toml:"extra_compile_args"`
	ExtraLinkArgs    []string `toml:"extra_link_args"`

	// Platforms restricts the module to the named platforms when
	// non-empty ("linux", "darwin", ...).
	Platforms []string `toml:"platforms"`
	// MinSDKVersion skips the module on darwin when the active SDK is
	// older than this version. Ignored elsewhere.
	MinSDKVersion string `toml:"min_sdk_version"`
	// TestOnly modules are configured only when TEST_MODULES is enabled.
	TestOnly bool `toml:"test_only"`
}

// SupportsPlatform reports whether the module entry applies to the platform.
func (m *ModuleSpec) SupportsPlatform(p Platform) bool {
	if len(m.Platforms) == 0 {
		return true
	}
	for _, name := range m.Platforms {
		if name == p.String() {
			return true
		}
	}
	return false
}

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return ParseManifest(data)
}

// ParseManifest decodes a manifest from TOML and validates it: every module
// needs a name, and names must be unique so that the disabled-list filter
// and the FFI reorder can operate by name lookup.
func ParseManifest(data []byte) (*Manifest, error) {
	var manifest Manifest
	if err := toml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	seen := make(map[string]bool, len(manifest.Modules))
	for i := range manifest.Modules {
		name := manifest.Modules[i].Name
		if name == "" {
			return nil, fmt.Errorf("parse manifest: module %d has no name", i)
		}
		if seen[name] {
			return nil, fmt.Errorf("parse manifest: duplicate module %q", name)
		}
		seen[name] = true
	}
	return &manifest, nil
}
