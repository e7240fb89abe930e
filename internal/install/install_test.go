package install

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goplus/stager/pkgs/artifact"
)

func touch(t *testing.T, file string, perm os.FileMode) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(file, []byte(filepath.Base(file)), perm); err != nil {
		t.Fatal(err)
	}
	return file
}

func linuxContext(cacheDir, workDir string) *artifact.Context {
	return &artifact.Context{
		BuildType: artifact.Release,
		CacheDir:  cacheDir,
		GOOS:      "linux",
		WorkDir:   workDir,
		ExtSuffix: ".cpython-312-x86_64-linux-gnu.so",
	}
}

func mustBuiltFile(t *testing.T, srcDir, srcName, dst string, kind artifact.Kind) *artifact.Descriptor {
	t.Helper()
	d, err := artifact.NewBuiltFile(srcDir, srcName, dst, kind)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func mustExtension(t *testing.T, src, modpath string) *artifact.Descriptor {
	t.Helper()
	d, err := artifact.NewExtension(src, modpath)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestStagedDestinations(t *testing.T) {
	cache := t.TempDir()
	work := t.TempDir()
	root := t.TempDir()
	touch(t, filepath.Join(cache, "third-party", "flatbuffers", "flatc"), 0o755)
	touch(t, filepath.Join(work, "build", "pip_data_bin_init.py.in"), 0o644)
	touch(t, filepath.Join(cache, "kernels", "quantized", "libquantized_ops_aot_lib.so"), 0o755)
	touch(t, filepath.Join(cache, "_portable_lib.cpython-312-x86_64-linux-gnu.so"), 0o755)

	s := &Staged{Root: root, Ctx: linuxContext(cache, work)}
	tests := []struct {
		d    *artifact.Descriptor
		want string
	}{
		{
			mustBuiltFile(t, "%CACHE_DIR%/third-party/flatbuffers/%BUILD_TYPE%/", "flatc", "executorch/data/bin/", artifact.Executable),
			"executorch/data/bin/flatc",
		},
		{
			mustBuiltFile(t, "build/", "pip_data_bin_init.py.in", "executorch/data/bin/__init__.py", artifact.GenericFile),
			"executorch/data/bin/__init__.py",
		},
		{
			mustBuiltFile(t, "%CACHE_DIR%/kernels/quantized/%BUILD_TYPE%/", "quantized_ops_aot_lib", "executorch/kernels/quantized/", artifact.DynamicLibrary),
			"executorch/kernels/quantized/libquantized_ops_aot_lib.so",
		},
		{
			mustExtension(t, "_portable_lib.*", "executorch.extension.pybindings._portable_lib"),
			"executorch/extension/pybindings/_portable_lib.cpython-312-x86_64-linux-gnu.so",
		},
	}
	for _, tt := range tests {
		t.Run(tt.d.Name, func(t *testing.T) {
			got, err := s.Install(context.Background(), tt.d)
			if err != nil {
				t.Fatalf("Install: %v", err)
			}
			want := filepath.Join(root, filepath.FromSlash(tt.want))
			if got != want {
				t.Fatalf("Install = %q, want %q", got, want)
			}
			if _, err := os.Stat(want); err != nil {
				t.Fatalf("destination missing: %v", err)
			}
		})
	}
}

func TestStagedMakesWritable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX permission bits")
	}
	cache := t.TempDir()
	root := t.TempDir()
	touch(t, filepath.Join(cache, "flatc"), 0o555)

	s := &Staged{Root: root, Ctx: linuxContext(cache, "")}
	d := mustBuiltFile(t, "%CACHE_DIR%", "flatc", "bin/", artifact.Executable)
	for i := 0; i < 2; i++ {
		dst, err := s.Install(context.Background(), d)
		if err != nil {
			t.Fatalf("Install #%d: %v", i, err)
		}
		fi, err := os.Stat(dst)
		if err != nil {
			t.Fatal(err)
		}
		if got := fi.Mode().Perm(); got != 0o755 {
			t.Fatalf("mode = %v, want 0755", got)
		}
	}
}

func TestStagedResolutionError(t *testing.T) {
	cache := t.TempDir()
	root := t.TempDir()
	s := &Staged{Root: root, Ctx: linuxContext(cache, "")}
	d := mustBuiltFile(t, "%CACHE_DIR%", "missing", "bin/", artifact.GenericFile)

	_, err := s.Install(context.Background(), d)
	var re *artifact.ResolutionError
	if !errors.As(err, &re) {
		t.Fatalf("Install error = %v, want *artifact.ResolutionError", err)
	}
	entries, _ := os.ReadDir(root)
	if len(entries) != 0 {
		t.Fatalf("root modified on failure: %v", entries)
	}
}

type fakeInstaller struct {
	fail string
	done []string
}

func (f *fakeInstaller) Install(_ context.Context, d *artifact.Descriptor) (string, error) {
	if d.Name == f.fail {
		return "", errors.New("boom")
	}
	f.done = append(f.done, d.Name)
	return "/out/" + d.Name, nil
}

func TestInstallAllStopsAtFirstFailure(t *testing.T) {
	ds := []*artifact.Descriptor{{Name: "a"}, {Name: "b"}, {Name: "c"}}
	f := &fakeInstaller{fail: "b"}
	var reported []string
	err := InstallAll(context.Background(), f, ds, func(d *artifact.Descriptor, dst string) {
		reported = append(reported, dst)
	})
	if err == nil || !strings.Contains(err.Error(), "installing b") {
		t.Fatalf("InstallAll error = %v", err)
	}
	if diff := cmp.Diff([]string{"a"}, f.done); diff != "" {
		t.Fatalf("installed mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"/out/a"}, reported); diff != "" {
		t.Fatalf("progress mismatch (-want +got):\n%s", diff)
	}
}

func TestInstallAllCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := &fakeInstaller{}
	if err := InstallAll(ctx, f, []*artifact.Descriptor{{Name: "a"}}, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("InstallAll error = %v, want context.Canceled", err)
	}
	if len(f.done) != 0 {
		t.Fatalf("installed after cancel: %v", f.done)
	}
}

func TestStagedPath(t *testing.T) {
	tests := []struct {
		d    *artifact.Descriptor
		src  string
		want string
	}{
		{&artifact.Descriptor{Kind: artifact.DynamicLibrary, Dest: "destdir/"}, "/c/out/libfoo.so", "destdir/libfoo.so"},
		{&artifact.Descriptor{Kind: artifact.GenericFile, Dest: "destdir/renamed.so"}, "/c/out/libfoo.so", "destdir/renamed.so"},
		{&artifact.Descriptor{Kind: artifact.GenericFile, Dest: ""}, "/c/out/libfoo.so", "libfoo.so"},
		{&artifact.Descriptor{Kind: artifact.ExtensionModule, Dest: "pkg.sub._ext"}, "/c/_ext.so", "pkg/sub/_ext.pyd"},
	}
	for _, tt := range tests {
		if got := stagedPath(tt.d, tt.src, ".pyd"); got != tt.want {
			t.Errorf("stagedPath(%q, %q) = %q, want %q", tt.d.Dest, tt.src, got, tt.want)
		}
	}
}
