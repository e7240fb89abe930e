// Package platform derives file names of native build outputs from logical
// names, following the conventions of the target operating system.
package platform

const (
	// SharedObjectSuffix is the suffix most build tools give native
	// extensions and shared libraries on ELF platforms.
	SharedObjectSuffix = ".so"

	// AlternateSharedObjectSuffix is the dynamic library suffix a build tool
	// may produce instead of SharedObjectSuffix (Mach-O platforms).
	AlternateSharedObjectSuffix = ".dylib"
)

// ExecutableName returns the file name of the executable base on goos.
func ExecutableName(base, goos string) string {
	if goos == "windows" {
		return base + ".exe"
	}
	return base
}

// DynamicLibraryName returns the file name of the dynamic library base on goos.
func DynamicLibraryName(base, goos string) string {
	switch goos {
	case "windows":
		return base + ".dll"
	case "darwin", "ios":
		return "lib" + base + ".dylib"
	default:
		return "lib" + base + ".so"
	}
}

// ExtensionSuffix returns the fallback suffix of a host-language native
// extension on goos, used when the interpreter cannot be asked.
func ExtensionSuffix(goos string) string {
	if goos == "windows" {
		return ".pyd"
	}
	return ".so"
}

// MultiConfig reports whether the default generator on goos writes each
// build configuration into its own subdirectory.
func MultiConfig(goos string) bool {
	return goos == "windows"
}
