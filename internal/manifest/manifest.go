// Package manifest loads the tables that tell a build which features
// exist, which artifacts they produce and which resource files ship with
// the package.
package manifest

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultManifest []byte

// Manifest is the root document.
type Manifest struct {
	// Package is the namespace root package. In-place installs strip it
	// from destinations since the source checkout is that package.
	Package   string     `yaml:"package"`
	Features  []Feature  `yaml:"features"`
	Configure Configure  `yaml:"configure"`
	Artifacts []Artifact `yaml:"artifacts"`
	Resources []Resource `yaml:"resources"`
	Headers   []Headers  `yaml:"headers"`
}

// Feature is an optional part of the build switched by an environment
// variable.
type Feature struct {
	Name     string            `yaml:"name"`
	Env      string            `yaml:"env"`
	Default  bool              `yaml:"default"`
	Requires []string          `yaml:"requires"`
	Defines  map[string]string `yaml:"defines"`
	Targets  []string          `yaml:"targets"`
}

// Configure holds definitions passed to every configure step.
type Configure struct {
	Defines map[string]string `yaml:"defines"`
}

// Artifact is a build output to install. Extensions use Src and Module;
// every other kind uses SrcDir, SrcName and Dst.
type Artifact struct {
	Feature string `yaml:"feature"`
	Kind    string `yaml:"kind"`
	SrcDir  string `yaml:"src_dir"`
	SrcName string `yaml:"src_name"`
	Dst     string `yaml:"dst"`
	Src     string `yaml:"src"`
	Module  string `yaml:"module"`
	Stub    bool   `yaml:"stub"`
}

// Resource maps a source-tree file to a package-relative destination.
type Resource struct {
	Src string `yaml:"src"`
	Dst string `yaml:"dst"`
}

// Headers selects header files under Dirs to ship below Dst.
type Headers struct {
	Dirs []string `yaml:"dirs"`
	Ext  string   `yaml:"ext"`
	Dst  string   `yaml:"dst"`
}

// Default returns the built-in manifest.
func Default() (*Manifest, error) {
	m, err := Parse(defaultManifest)
	if err != nil {
		return nil, fmt.Errorf("default manifest: %w", err)
	}
	return m, nil
}

// Load reads the manifest at path, or the built-in one if path is empty.
func Load(path string) (*Manifest, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return m, nil
}

// Parse validates data against the manifest schema and decodes it.
func Parse(data []byte) (*Manifest, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if err := m.check(); err != nil {
		return nil, err
	}
	return &m, nil
}

// check enforces the cross references the schema cannot express.
func (m *Manifest) check() error {
	features := make(map[string]bool, len(m.Features))
	for _, f := range m.Features {
		if features[f.Name] {
			return fmt.Errorf("duplicate feature %q", f.Name)
		}
		features[f.Name] = true
	}
	for _, f := range m.Features {
		for _, r := range f.Requires {
			if !features[r] {
				return fmt.Errorf("feature %q requires unknown feature %q", f.Name, r)
			}
		}
	}
	for i, a := range m.Artifacts {
		if a.Feature != "" && !features[a.Feature] {
			return fmt.Errorf("artifacts[%d]: unknown feature %q", i, a.Feature)
		}
	}
	return nil
}
