// Package config loads the optional YAML configuration file that overrides
// the default entry-point heuristic tables and directory exclusion list.
//
// Grounded on the teacher's yaml.v3 usage (internal/httplink/config.go,
// internal/lang/yaml_lang.go) and its Load/Save file-config pattern
// (mesdx-cli's internal/config, used here for the on-disk shape only — the
// teacher's own config reads/writes JSON; this analyzer's is YAML because
// that is the dependency the rest of the pack wires for config).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/symreach/symreach/internal/langspec"
)

// DefaultExcludes are the directory names skipped during file discovery
// when no --exclude flag or config override is given (spec.md §6).
var DefaultExcludes = []string{".build", "Pods", "Carthage", "DerivedData"}

// Heuristics is the on-disk shape of the optional override file. Any field
// left empty keeps langspec.Default's value.
type Heuristics struct {
	FrameworkRoots     []string `yaml:"frameworkRoots"`
	MainAttributes     []string `yaml:"mainAttributes"`
	LifecycleNames     []string `yaml:"lifecycleNames"`
	RepresentableNames []string `yaml:"representableNames"`
	PersistenceMacros  []string `yaml:"persistenceMacros"`
	TestNamePrefixes   []string `yaml:"testNamePrefixes"`
	Excludes           []string `yaml:"excludes"`
}

// Load reads a YAML heuristics file. A missing path is not an error — it
// simply yields a zero-value Heuristics so defaults apply untouched.
func Load(path string) (*Heuristics, error) {
	if path == "" {
		return &Heuristics{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Heuristics{}, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var h Heuristics
	if err := yaml.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &h, nil
}

// Apply merges non-empty override fields onto a copy of base and returns it.
func (h *Heuristics) Apply(base langspec.Spec) langspec.Spec {
	spec := base
	if len(h.FrameworkRoots) > 0 {
		spec.FrameworkRoots = h.FrameworkRoots
	}
	if len(h.MainAttributes) > 0 {
		spec.MainAttributes = h.MainAttributes
	}
	if len(h.LifecycleNames) > 0 {
		spec.LifecycleNames = h.LifecycleNames
	}
	if len(h.RepresentableNames) > 0 {
		spec.RepresentableNames = h.RepresentableNames
	}
	if len(h.PersistenceMacros) > 0 {
		spec.PersistenceMacros = h.PersistenceMacros
	}
	if len(h.TestNamePrefixes) > 0 {
		spec.TestNamePrefixes = h.TestNamePrefixes
	}
	return spec
}

// Excludes returns the effective directory exclusion list: config file
// overrides, else the --exclude flag value, else DefaultExcludes.
func (h *Heuristics) Excludes(flagValue []string) []string {
	if len(h.Excludes) > 0 {
		return h.Excludes
	}
	if len(flagValue) > 0 {
		return flagValue
	}
	return DefaultExcludes
}
