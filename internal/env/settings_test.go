package env

import (
	"os"
	"runtime"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEnabled(t *testing.T) {
	const name = "STAGER_TEST_FEATURE"
	tests := []struct {
		value string
		set   bool
		def   bool
		want  bool
	}{
		{set: false, def: true, want: true},
		{set: false, def: false, want: false},
		{value: "", set: true, def: true, want: false},
		{value: "0", set: true, def: true, want: false},
		{value: "OFF", set: true, def: true, want: false},
		{value: "1", set: true, def: false, want: true},
		{value: "ON", set: true, def: false, want: true},
		{value: "off", set: true, def: false, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.value+"/"+strconv.FormatBool(tt.set), func(t *testing.T) {
			if tt.set {
				t.Setenv(name, tt.value)
			}
			if got := Load().Enabled(name, tt.def); got != tt.want {
				t.Fatalf("Enabled(%s=%q, set=%v, def=%v) = %v, want %v", name, tt.value, tt.set, tt.def, got, tt.want)
			}
		})
	}
}

func TestDebug(t *testing.T) {
	for value, want := range map[string]bool{"": false, "0": false, "1": true, "2": true, " 0 ": false} {
		t.Setenv("DEBUG", value)
		got, err := Load().Debug()
		if err != nil {
			t.Fatalf("Debug(%q): %v", value, err)
		}
		if got != want {
			t.Fatalf("Debug(%q) = %v, want %v", value, got, want)
		}
	}
	t.Setenv("DEBUG", "yes")
	if _, err := Load().Debug(); err == nil {
		t.Fatal("expected error for non-integer DEBUG")
	}
}

func TestToolExecutableFallbackOrder(t *testing.T) {
	for _, k := range []string{"BUCK2_EXECUTABLE", "BUCK2", "BUCK"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	if got := Load().ToolExecutable(); got != "" {
		t.Fatalf("ToolExecutable = %q, want empty", got)
	}

	t.Setenv("BUCK", "/opt/buck")
	t.Setenv("BUCK2", "/opt/buck2")
	if got := Load().ToolExecutable(); got != "/opt/buck2" {
		t.Fatalf("ToolExecutable = %q, want %q", got, "/opt/buck2")
	}
	t.Setenv("BUCK2_EXECUTABLE", "/usr/bin/buck2")
	if got := Load().ToolExecutable(); got != "/usr/bin/buck2" {
		t.Fatalf("ToolExecutable = %q, want %q", got, "/usr/bin/buck2")
	}
}

func TestArgsSplitOnWhitespace(t *testing.T) {
	t.Setenv("CMAKE_ARGS", " -DEXECUTORCH_BUILD_XNNPACK=ON   -DFOO=1\t-DBAR=2 ")
	t.Setenv("CMAKE_BUILD_ARGS", "--target  extra")
	s := Load()
	if diff := cmp.Diff([]string{"-DEXECUTORCH_BUILD_XNNPACK=ON", "-DFOO=1", "-DBAR=2"}, s.ConfigureArgs()); diff != "" {
		t.Fatalf("ConfigureArgs mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"--target", "extra"}, s.BuildArgs()); diff != "" {
		t.Fatalf("BuildArgs mismatch (-want +got):\n%s", diff)
	}
}

func TestParallel(t *testing.T) {
	t.Setenv("CMAKE_BUILD_PARALLEL_LEVEL", "")
	want := strconv.Itoa(max(runtime.NumCPU()-1, 1))
	if got := Load().Parallel(); got != want {
		t.Fatalf("Parallel = %q, want %q", got, want)
	}
	t.Setenv("CMAKE_BUILD_PARALLEL_LEVEL", "3")
	if got := Load().Parallel(); got != "3" {
		t.Fatalf("Parallel = %q, want %q", got, "3")
	}
}

func TestPrefixPath(t *testing.T) {
	t.Setenv("CMAKE_PREFIX_PATH", "/opt/torch")
	if got, ok := Load().PrefixPath(); !ok || got != "/opt/torch" {
		t.Fatalf("PrefixPath = %q, %v", got, ok)
	}
}

func TestVersionTrimmed(t *testing.T) {
	t.Setenv("BUILD_VERSION", " 0.6.0.dev20250101 \n")
	if got := Load().Version(); got != "0.6.0.dev20250101" {
		t.Fatalf("Version = %q", got)
	}
}
