package platform

import "testing"

func TestExecutableName(t *testing.T) {
	tests := []struct {
		goos string
		want string
	}{
		{"linux", "flatc"},
		{"darwin", "flatc"},
		{"freebsd", "flatc"},
		{"windows", "flatc.exe"},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			if got := ExecutableName("flatc", tt.goos); got != tt.want {
				t.Fatalf("ExecutableName(flatc, %s) = %q, want %q", tt.goos, got, tt.want)
			}
		})
	}
}

func TestDynamicLibraryName(t *testing.T) {
	tests := []struct {
		goos string
		want string
	}{
		{"linux", "libcustom_ops.so"},
		{"android", "libcustom_ops.so"},
		{"darwin", "libcustom_ops.dylib"},
		{"ios", "libcustom_ops.dylib"},
		{"windows", "custom_ops.dll"},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			if got := DynamicLibraryName("custom_ops", tt.goos); got != tt.want {
				t.Fatalf("DynamicLibraryName(custom_ops, %s) = %q, want %q", tt.goos, got, tt.want)
			}
		})
	}
}

func TestNamingIsDeterministicAndDistinct(t *testing.T) {
	seen := map[string]string{}
	for _, goos := range []string{"linux", "darwin", "windows"} {
		first := DynamicLibraryName("x", goos)
		if again := DynamicLibraryName("x", goos); again != first {
			t.Fatalf("DynamicLibraryName not deterministic on %s: %q vs %q", goos, first, again)
		}
		if prev, ok := seen[first]; ok {
			t.Fatalf("%s and %s share the form %q", prev, goos, first)
		}
		seen[first] = goos
	}
}

func TestMultiConfig(t *testing.T) {
	if !MultiConfig("windows") {
		t.Fatal("windows should use per-configuration directories")
	}
	if MultiConfig("linux") || MultiConfig("darwin") {
		t.Fatal("single-configuration platforms reported as multi-config")
	}
}
