package extprobe

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var commonCCompilers = []string{"clang", "gcc", "cc"}

// errNoCompiler means neither the CC variable nor PATH yielded a compiler.
var errNoCompiler = errors.New("no C compiler found")

// ToolRequirement describes an external tool the discovery or the subsequent
// extension build needs. Alternatives let one of several binaries satisfy
// the requirement (gcc/clang/cc); optional tools are checked but never fail
// the run.
type ToolRequirement struct {
	// Name is the primary binary name.
	Name string
	// Alternatives may satisfy the requirement in Name's place.
	Alternatives []string
	// Optional tools don't cause an error when missing.
	Optional bool
	// Purpose is included in error messages.
	Purpose string
}

// FindCompiler returns the C compiler driver for the run.
//
// The CC configuration variable wins when set (including its environment
// override); otherwise common compiler names are tried against PATH in
// order. An empty result means no compiler could be found.
func FindCompiler(cfg *ConfigVars) string {
	if cc := cfg.Get(VarCC); cc != "" {
		return cc
	}
	for _, candidate := range commonCCompilers {
		if path, err := exec.LookPath(candidate); err == nil {
			return path
		}
	}
	return ""
}

// CompilerMachine returns the compiler's target triple (for example
// "x86_64-linux-gnu"), obtained by running it with -dumpmachine. The triple
// names the multiarch header directory on Debian-style systems.
func CompilerMachine(runner CommandRunner, cc string) (string, error) {
	if cc == "" {
		return "", errNoCompiler
	}
	out, err := runner.Output(cc, "-dumpmachine")
	if err != nil {
		return "", fmt.Errorf("query compiler target: %w", err)
	}
	machine := strings.TrimSpace(out)
	if machine == "" {
		return "", fmt.Errorf("query compiler target: %s printed nothing", cc)
	}
	return machine, nil
}

// CheckToolAvailable reports whether a tool is resolvable through PATH.
func CheckToolAvailable(tool string) error {
	if _, err := exec.LookPath(tool); err != nil {
		return fmt.Errorf("%s not found in PATH", tool)
	}
	return nil
}

// CheckRequiredTools verifies a set of tool requirements, trying each
// requirement's alternatives before declaring it missing. All missing
// required tools are reported in a single error.
func CheckRequiredTools(requirements []ToolRequirement) error {
	var missing []string

	for _, req := range requirements {
		found := CheckToolAvailable(req.Name) == nil
		if !found {
			for _, alt := range req.Alternatives {
				if CheckToolAvailable(alt) == nil {
					found = true
					break
				}
			}
		}
		if !found && !req.Optional {
			if req.Purpose != "" {
				missing = append(missing, fmt.Sprintf("%s (%s)", req.Name, req.Purpose))
			} else {
				missing = append(missing, req.Name)
			}
		}
	}

	switch len(missing) {
	case 0:
		return nil
	case 1:
		return fmt.Errorf("%s not found in PATH", missing[0])
	default:
		return fmt.Errorf("missing required tools: %s", strings.Join(missing, ", "))
	}
}

// baseToolRequirements are the tools every discovery run leans on.
func baseToolRequirements() []ToolRequirement {
	return []ToolRequirement{
		{
			Name:         "gcc",
			Alternatives: []string{"clang", "cc"},
			Purpose:      "C compiler for native extensions",
		},
		{
			Name:         "make",
			Alternatives: []string{"gmake"},
			Optional:     true,
			Purpose:      "build tool driving extension compilation",
		},
	}
}
