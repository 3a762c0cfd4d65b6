package extprobe

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ErrNoSourceDir is returned when the srcdir configuration variable is unset
// or does not name an existing directory. Discovery cannot proceed without a
// source tree, so callers should treat this as fatal.
var ErrNoSourceDir = errors.New("no source directory; cannot proceed")

// Well-known configuration variable names.
const (
	// VarCC names the C compiler driver.
	VarCC = "CC"
	// VarCFLAGS holds the compiler flags shared by the runtime and its
	// extension modules.
	VarCFLAGS = "CFLAGS"
	// VarLDFLAGS holds the shared linker flags.
	VarLDFLAGS = "LDFLAGS"
	// VarCFLAGSNoDist holds compiler flags reserved for building the
	// runtime and stdlib modules, never exported to third-party builds.
	VarCFLAGSNoDist = "CFLAGS_NODIST"
	// VarLDFLAGSNoDist is the linker counterpart of VarCFLAGSNoDist.
	VarLDFLAGSNoDist = "LDFLAGS_NODIST"
	// VarSrcDir names the root of the runtime source tree.
	VarSrcDir = "srcdir"
	// VarTestModules gates test-only extension modules ("yes" enables).
	VarTestModules = "TEST_MODULES"
)

// ConfigVars is the shared configuration-variable store for a discovery run.
//
// It plays the role the build system's generated makefile variables play for
// the runtime itself: a flat map of string-valued settings (CC, CFLAGS,
// srcdir, ...) that both the prober and the external build tool read.
// Values may be loaded from a config file with LoadFile, overridden through
// EXTPROBE_-prefixed environment variables, or assigned directly with Set;
// later sources in that order win.
//
// ConfigVars is not safe for concurrent mutation; discovery writes it only
// before parallel compilation begins.
type ConfigVars struct {
	v *viper.Viper
}

// NewConfigVars creates an empty store with environment overrides enabled.
//
// A variable FOO may be overridden by the EXTPROBE_FOO environment variable.
func NewConfigVars() *ConfigVars {
	v := viper.New()
	v.SetEnvPrefix("EXTPROBE")
	v.AutomaticEnv()
	return &ConfigVars{v: v}
}

// LoadFile merges configuration variables from the given file into the
// store. The format is inferred from the file extension (toml, yaml, json).
func (c *ConfigVars) LoadFile(path string) error {
	c.v.SetConfigFile(path)
	if err := c.v.MergeInConfig(); err != nil {
		return fmt.Errorf("load config vars from %s: %w", path, err)
	}
	return nil
}

// Get returns the value of the named variable, or "" when unset.
func (c *ConfigVars) Get(name string) string {
	return c.v.GetString(name)
}

// Set assigns the named variable, replacing any previous value.
func (c *ConfigVars) Set(name, value string) {
	c.v.Set(name, value)
}

// AppendNoDist concatenates the "no-dist" flags variable onto the target
// flags variable and writes the result back to the store.
//
// The two sides are joined with exactly one space and neither side is ever
// dropped, even when empty. The routine does not guard against repeated
// invocation; callers must apply it at most once per variable pair, before
// the build tool consumes the target variable.
func (c *ConfigVars) AppendNoDist(target, noDist string) {
	c.v.Set(target, c.v.GetString(target)+" "+c.v.GetString(noDist))
}

// SourceDir returns the absolute path of the runtime source tree.
//
// The srcdir variable must be set and must name an existing directory;
// otherwise ErrNoSourceDir is returned and discovery must abort.
func (c *ConfigVars) SourceDir() (string, error) {
	srcdir := c.v.GetString(VarSrcDir)
	if srcdir == "" {
		return "", ErrNoSourceDir
	}
	abs, err := filepath.Abs(srcdir)
	if err != nil {
		return "", fmt.Errorf("resolve srcdir %q: %w", srcdir, err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("srcdir %q: %w", abs, ErrNoSourceDir)
	}
	return abs, nil
}

// TestModulesEnabled reports whether test-only extension modules should be
// configured, controlled by the TEST_MODULES variable.
func (c *ConfigVars) TestModulesEnabled() bool {
	return c.v.GetString(VarTestModules) == "yes"
}
