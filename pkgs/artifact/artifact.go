// Package artifact describes build outputs that are installed into a
// package tree and resolves them against a build output directory.
package artifact

import (
	"fmt"
	"path"
	"runtime"
	"strings"

	"github.com/goplus/stager/pkgs/platform"
)

// Placeholder tokens recognized in source patterns.
const (
	CacheDirToken  = "%CACHE_DIR%"
	BuildTypeToken = "%BUILD_TYPE%"
)

// Kind tells how a descriptor's source is named and where it is installed.
type Kind int

const (
	GenericFile Kind = iota
	Executable
	DynamicLibrary
	ExtensionModule
)

func (k Kind) String() string {
	switch k {
	case GenericFile:
		return "file"
	case Executable:
		return "executable"
	case DynamicLibrary:
		return "dynamic_lib"
	case ExtensionModule:
		return "extension"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "", "file":
		return GenericFile, nil
	case "executable":
		return Executable, nil
	case "dynamic_lib":
		return DynamicLibrary, nil
	case "extension":
		return ExtensionModule, nil
	}
	return 0, fmt.Errorf("unknown artifact kind %q", s)
}

// BuildType is the build configuration name.
type BuildType string

const (
	Debug   BuildType = "Debug"
	Release BuildType = "Release"
)

// BuildTypeOf maps the debug switch to a build type.
func BuildTypeOf(debug bool) BuildType {
	if debug {
		return Debug
	}
	return Release
}

// Context is the state of one build that descriptors are resolved against.
// It is produced once by the build orchestrator and must not be modified
// afterwards.
type Context struct {
	BuildType BuildType

	// CacheDir is the build tool's output tree. Empty if the build tool did
	// not run in this process.
	CacheDir string

	// GOOS is the target operating system used for file naming.
	GOOS string

	// MultiConfig is set when the generator places outputs in per
	// configuration subdirectories.
	MultiConfig bool

	// WorkDir is the search root for patterns without CacheDirToken.
	// Empty means the process working directory.
	WorkDir string

	// ExtSuffix is the file suffix the host interpreter expects for native
	// extension modules, e.g. ".cpython-312-x86_64-linux-gnu.so".
	ExtSuffix string

	// ConfigureArgs and BuildArgs are the arguments passed to the build tool.
	ConfigureArgs []string
	BuildArgs     []string
}

// NewContext returns a context for the host platform.
func NewContext(bt BuildType, cacheDir string) *Context {
	return &Context{
		BuildType:   bt,
		CacheDir:    cacheDir,
		GOOS:        runtime.GOOS,
		MultiConfig: platform.MultiConfig(runtime.GOOS),
		ExtSuffix:   platform.ExtensionSuffix(runtime.GOOS),
	}
}

// Descriptor describes a single build output to install.
type Descriptor struct {
	// Source is a slash-separated pattern that may contain placeholder
	// tokens and glob wildcards.
	Source string

	// Dest is where the artifact goes, relative to the install root. A
	// trailing "/" marks a directory. For ExtensionModule it is a dotted
	// module path.
	Dest string

	// Name uniquely identifies the descriptor. It is not a path.
	Name string

	Kind Kind

	// NeedsStub asks in-place installs to generate a loader shim next to
	// an ExtensionModule.
	NeedsStub bool
}

// NewBuiltFile returns a descriptor for a file produced by the build tool.
// srcDir may contain placeholder tokens; srcName is the logical file name
// which Executable and DynamicLibrary kinds rename per platform.
func NewBuiltFile(srcDir, srcName, dst string, kind Kind) (*Descriptor, error) {
	if kind == ExtensionModule {
		return nil, fmt.Errorf("built file %s: use NewExtension for extension modules", srcName)
	}
	if srcName == "" || strings.Contains(srcName, "/") {
		return nil, fmt.Errorf("built file: invalid source name %q", srcName)
	}
	src := path.Join(srcDir, srcName)
	return &Descriptor{
		Source: src,
		Dest:   dst,
		Name:   fmt.Sprintf("@BuiltFile_%s:%s", src, dst),
		Kind:   kind,
	}, nil
}

// NewExtension returns a descriptor for a native extension module. src is
// relative to the build output tree and may be a glob; modpath is the
// dotted module path the extension is imported as.
func NewExtension(src, modpath string) (*Descriptor, error) {
	if strings.Contains(modpath, "/") {
		return nil, fmt.Errorf("modpath must be a dotted module path: saw %q", modpath)
	}
	if modpath == "" || strings.HasPrefix(modpath, ".") || strings.HasSuffix(modpath, ".") {
		return nil, fmt.Errorf("invalid module path %q", modpath)
	}
	return &Descriptor{
		Source: CacheDirToken + "/" + src,
		Dest:   modpath,
		Name:   modpath,
		Kind:   ExtensionModule,
	}, nil
}

// IsDirDest reports whether Dest names a directory.
func (d *Descriptor) IsDirDest() bool {
	return d.Kind != ExtensionModule && (d.Dest == "" || strings.HasSuffix(d.Dest, "/"))
}

func (d *Descriptor) String() string {
	return fmt.Sprintf("%s %s -> %s", d.Kind, d.Source, d.Dest)
}
