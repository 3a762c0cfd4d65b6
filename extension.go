package extprobe

// FFIModuleName is the C foreign-function-interface module. It depends on
// other modules having been registered first, so the extension list filter
// always moves it to the end of the build order.
const FFIModuleName = "_ctypes"

// Extension describes one native extension module to the build tool:
// everything needed to compile and link it. Descriptors are constructed once
// during configuration, collected into an ExtensionList, optionally removed
// or reordered, and consumed exactly once by the build tool.
type Extension struct {
	// Name uniquely identifies the module (e.g. "_socket").
	Name string
	// Sources are the C source files, relative to the source tree.
	Sources []string
	// IncludeDirs are extra header search directories.
	IncludeDirs []string
	// LibraryDirs are extra library search directories.
	LibraryDirs []string
	// Libraries are library names to link against (without lib prefix).
	Libraries []string
	// ExtraCompileArgs are additional compiler flags.
	ExtraCompileArgs []string
	// ExtraLinkArgs are additional linker flags.
	ExtraLinkArgs []string
	// TestOnly marks modules used only by the runtime's test suite,
	// configured only when TEST_MODULES is enabled.
	TestOnly bool
}

// ExtensionList is the build tool's ordered, mutable collection of extension
// descriptors. Discovery appends to it as modules are detected and filters
// it once at the end; order is the build order.
type ExtensionList struct {
	exts []*Extension
}

// Add appends a descriptor to the list.
func (l *ExtensionList) Add(ext *Extension) {
	l.exts = append(l.exts, ext)
}

// Len returns the number of descriptors.
func (l *ExtensionList) Len() int { return len(l.exts) }

// Extensions returns the descriptors in build order. The slice is shared;
// callers must not reorder it behind the list's back.
func (l *ExtensionList) Extensions() []*Extension { return l.exts }

// Names returns the module names in build order.
func (l *ExtensionList) Names() []string {
	names := make([]string, len(l.exts))
	for i, ext := range l.exts {
		names[i] = ext.Name
	}
	return names
}

// Contains reports whether a module with the given name is in the list.
func (l *ExtensionList) Contains(name string) bool {
	for _, ext := range l.exts {
		if ext.Name == name {
			return true
		}
	}
	return false
}

// RemoveDisabled filters the list in place against a set of disabled module
// names, then moves the FFI module to the end of the remaining sequence.
//
// Relative order of the surviving descriptors is preserved apart from that
// single relocation, and nothing happens when the FFI module is absent. The
// operation assumes names are unique, which holds for any list built by
// Discovery.
func (l *ExtensionList) RemoveDisabled(disabled []string) {
	disabledSet := make(map[string]bool, len(disabled))
	for _, name := range disabled {
		disabledSet[name] = true
	}

	kept := l.exts[:0]
	for _, ext := range l.exts {
		if !disabledSet[ext.Name] {
			kept = append(kept, ext)
		}
	}

	// The FFI module links against others, so it must build last.
	for i, ext := range kept {
		if ext.Name == FFIModuleName {
			kept = append(append(kept[:i:i], kept[i+1:]...), ext)
			break
		}
	}
	l.exts = kept
}
