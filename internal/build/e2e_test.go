package build

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/goplus/stager/internal/install"
	"github.com/goplus/stager/internal/manifest"
	"github.com/goplus/stager/pkgs/buildsys/cmake"
)

// TestE2E_ConfigureBuildInstall runs the real build tool on a tiny project
// and stages the artifact it produces.
func TestE2E_ConfigureBuildInstall(t *testing.T) {
	if _, err := exec.LookPath("cmake"); err != nil {
		t.Skip("cmake not found in PATH")
	}
	if runtime.GOOS == "windows" {
		t.Skip("single-config generator layout")
	}
	if _, err := exec.LookPath("make"); err != nil {
		t.Skip("make not found in PATH")
	}

	src := t.TempDir()
	data, err := os.ReadFile(filepath.Join("testdata", "project", "CMakeLists.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "CMakeLists.txt"), data, 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := manifest.Load(filepath.Join("testdata", "manifest.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	sel := m.Select(toggles{})

	tool := cmake.New("", "")
	tool.Stdout = io.Discard
	o := New(Options{SourceDir: src, BuildTemp: "pip-out/temp"}, &fakeSettings{}, sel, &fakePython{info: hostInfo}, tool)

	ctx := context.Background()
	c, err := o.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	cache, err := os.ReadFile(tool.CachePath())
	if err != nil {
		t.Fatalf("read cache: %v", err)
	}
	for key, want := range map[string]string{"STAGER_E2E": "ON", "CMAKE_BUILD_TYPE": "Release"} {
		if got := cacheValue(string(cache), key); got != want {
			t.Fatalf("cache %s = %q, want %q", key, got, want)
		}
	}

	ds, err := sel.Descriptors()
	if err != nil {
		t.Fatal(err)
	}
	root := t.TempDir()
	if err := install.InstallAll(ctx, &install.Staged{Root: root, Ctx: c}, ds, nil); err != nil {
		t.Fatalf("InstallAll: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "demo", "bin", "tool.txt")); err != nil {
		t.Fatalf("staged artifact missing: %v", err)
	}
}

// cacheValue returns the value of key in CMakeCache.txt content, whatever
// its type.
func cacheValue(cache, key string) string {
	for _, line := range strings.Split(cache, "\n") {
		name, rest, ok := strings.Cut(line, ":")
		if !ok || name != key {
			continue
		}
		if _, v, ok := strings.Cut(rest, "="); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
