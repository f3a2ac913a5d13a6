// Package config loads a project's optional kei.yaml manifest: where to
// find the standard library and third-party modules, and which host C
// compiler to prefer, mirroring the teacher's BenchmarkSpec YAML loader
// (internal/eval_harness/spec.go) in shape even though the fields are
// entirely kei's own.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Project is the parsed contents of kei.yaml. Every field is optional; the
// driver falls back to its own defaults (and CLI flags always win over
// whatever a manifest says).
type Project struct {
	StdlibRoot string   `yaml:"stdlib_root"`
	DepsRoot   string   `yaml:"deps_root"`
	CC         []string `yaml:"cc"` // host compiler search order, tried in this order
}

// Default returns the zero-value manifest a project with no kei.yaml gets.
func Default() *Project {
	return &Project{CC: []string{"cc", "gcc", "clang"}}
}

// Load reads kei.yaml from dir, or returns Default() if the file is
// absent. A malformed file that does exist is always an error.
func Load(dir string) (*Project, error) {
	path := filepath.Join(dir, "kei.yaml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read kei.yaml: %w", err)
	}

	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse kei.yaml: %w", err)
	}
	if len(p.CC) == 0 {
		p.CC = Default().CC
	}
	return &p, nil
}

// Resolve folds CLI overrides over the manifest: a non-empty override
// always wins, matching spec.md §6's "CLI flags take precedence" rule.
func (p *Project) Resolve(stdlibOverride, depsOverride string, ccOverride []string) *Project {
	out := *p
	if stdlibOverride != "" {
		out.StdlibRoot = stdlibOverride
	}
	if depsOverride != "" {
		out.DepsRoot = depsOverride
	}
	if len(ccOverride) > 0 {
		out.CC = ccOverride
	}
	return &out
}
