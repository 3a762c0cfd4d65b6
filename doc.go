// Package extprobe configures and drives the discovery of native extension
// modules for a language runtime's standard library.
//
// Before a runtime's optional C extension modules can be compiled, something
// has to decide which of them the host system can actually support. This
// package is that something: it probes the host platform, interrogates the
// compiler toolchain, searches header and library directories, and then
// filters and reorders the build tool's extension list accordingly.
//
// # Discovery Pipeline
//
// A typical run looks like:
//
//	cfg := extprobe.NewConfigVars()
//	manifest, err := extprobe.LoadManifest("modules.toml")
//	disc, err := extprobe.NewDiscovery(cfg, manifest, extprobe.DiscoveryOptions{})
//	report, err := disc.Run(ctx)
//
// The Discovery orchestrator:
//  1. Validates the source directory (fatal if missing)
//  2. Detects the host platform once, honoring cross-compilation overrides
//  3. Probes each manifest module for required headers and libraries
//  4. Removes disabled modules and moves the FFI module to the end
//  5. Produces a Report of detected, missing, and disabled modules
//
// # Platform Probing
//
// Path searches are SDK-aware on macOS: directories that live inside an SDK
// overlay (for example /usr/include when an SDK is active) are rewritten
// under the resolved SDK root before the filesystem is consulted. The SDK
// root itself is resolved lazily from CFLAGS or by interrogating the
// compiler, and memoized on the SDKRoot instance for the rest of the run.
//
// # Configuration
//
// Compiler and build settings flow through ConfigVars, a key-value store for
// the runtime's build configuration (CC, CFLAGS, srcdir, ...). Values can be
// seeded programmatically, loaded from a file, or overridden through the
// environment.
//
// # Platform Support
//
// Full support on Linux and macOS. Windows and Cygwin hosts are recognized
// but extension probing there is delegated to the platform's own build
// machinery.
package extprobe
