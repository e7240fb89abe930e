package manifest

import (
	"fmt"

	"github.com/goplus/stager/pkgs/artifact"
)

// Toggles reports whether a feature switch is on. *env.Settings implements
// it.
type Toggles interface {
	Enabled(name string, def bool) bool
}

// Selection is the set of features enabled for one build.
type Selection struct {
	m       *Manifest
	enabled map[string]bool
}

// Select evaluates every feature's switch. A feature is enabled when its
// switch is on and all the features it requires are enabled.
func (m *Manifest) Select(t Toggles) *Selection {
	on := make(map[string]bool, len(m.Features))
	byName := make(map[string]*Feature, len(m.Features))
	for i := range m.Features {
		f := &m.Features[i]
		byName[f.Name] = f
		on[f.Name] = t.Enabled(f.Env, f.Default)
	}

	enabled := make(map[string]bool, len(m.Features))
	visiting := make(map[string]bool)
	var resolve func(name string) bool
	resolve = func(name string) bool {
		if v, ok := enabled[name]; ok {
			return v
		}
		if visiting[name] {
			return false // require cycle
		}
		visiting[name] = true
		v := on[name]
		for _, r := range byName[name].Requires {
			if !resolve(r) {
				v = false
			}
		}
		visiting[name] = false
		enabled[name] = v
		return v
	}
	for _, f := range m.Features {
		resolve(f.Name)
	}
	return &Selection{m: m, enabled: enabled}
}

// Enabled reports whether the named feature is part of the build.
func (s *Selection) Enabled(name string) bool {
	return s.enabled[name]
}

// Features returns the enabled features in manifest order.
func (s *Selection) Features() []Feature {
	var ret []Feature
	for _, f := range s.m.Features {
		if s.enabled[f.Name] {
			ret = append(ret, f)
		}
	}
	return ret
}

// Defines returns the configure definitions: the always-on ones merged
// with those of every enabled feature.
func (s *Selection) Defines() map[string]string {
	defines := make(map[string]string, len(s.m.Configure.Defines))
	for k, v := range s.m.Configure.Defines {
		defines[k] = v
	}
	for _, f := range s.Features() {
		for k, v := range f.Defines {
			defines[k] = v
		}
	}
	return defines
}

// Targets returns the build targets of the enabled features, in manifest
// order, without duplicates.
func (s *Selection) Targets() []string {
	var targets []string
	seen := make(map[string]bool)
	for _, f := range s.Features() {
		for _, t := range f.Targets {
			if !seen[t] {
				seen[t] = true
				targets = append(targets, t)
			}
		}
	}
	return targets
}

// Descriptors returns the artifacts to install for the enabled features,
// in manifest order.
func (s *Selection) Descriptors() ([]*artifact.Descriptor, error) {
	var ret []*artifact.Descriptor
	names := make(map[string]bool)
	for i, a := range s.m.Artifacts {
		if a.Feature != "" && !s.enabled[a.Feature] {
			continue
		}
		d, err := a.Descriptor()
		if err != nil {
			return nil, fmt.Errorf("artifacts[%d]: %w", i, err)
		}
		if names[d.Name] {
			return nil, fmt.Errorf("artifacts[%d]: duplicate artifact %s", i, d.Name)
		}
		names[d.Name] = true
		ret = append(ret, d)
	}
	return ret, nil
}

// Descriptor converts a to an artifact descriptor.
func (a *Artifact) Descriptor() (*artifact.Descriptor, error) {
	kind, err := artifact.ParseKind(a.Kind)
	if err != nil {
		return nil, err
	}
	if kind == artifact.ExtensionModule {
		d, err := artifact.NewExtension(a.Src, a.Module)
		if err != nil {
			return nil, err
		}
		d.NeedsStub = a.Stub
		return d, nil
	}
	return artifact.NewBuiltFile(a.SrcDir, a.SrcName, a.Dst, kind)
}
