// Copyright © 2018 The ELPS authors

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ManifestFile is the name of the project manifest.
const ManifestFile = "kiln.toml"

// Manifest is a kiln.toml project configuration.
type Manifest struct {
	Project Project         `toml:"project"`
	Runtime RuntimeSettings `toml:"runtime"`

	// Dir is the directory containing the manifest (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata and the files loaded before any
// program runs.
type Project struct {
	Name    string   `toml:"name"`
	Preload []string `toml:"preload"`
	Exclude []string `toml:"exclude"`
}

// RuntimeSettings are defaults for the runtime flags.  Unset values leave
// the flag defaults in place.
type RuntimeSettings struct {
	Strict          *bool   `toml:"strict"`
	Debug           *bool   `toml:"debug"`
	Optimize        *bool   `toml:"optimize"`
	Reader          *string `toml:"reader"`
	MaxNestingDepth *int    `toml:"max-nesting-depth"`
	Parallelism     *int    `toml:"parallelism"`
}

// LoadManifest parses the manifest in dir.
func LoadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	var m Manifest
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return nil, fmt.Errorf("unknown key in %s: %s", path, undec[0])
	}
	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	if m.Project.Name == "" {
		m.Project.Name = filepath.Base(m.Dir)
	}
	return &m, nil
}

// FindManifest walks up from startDir to find a manifest.  FindManifest
// returns nil if there is none.
func FindManifest(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ManifestFile)); err == nil {
			return LoadManifest(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// PreloadPaths returns the paths of the preload files.
func (m *Manifest) PreloadPaths() []string {
	paths := make([]string, len(m.Project.Preload))
	for i, p := range m.Project.Preload {
		if filepath.IsAbs(p) {
			paths[i] = p
		} else {
			paths[i] = filepath.Join(m.Dir, p)
		}
	}
	return paths
}

// settings returns the runtime table as configuration keys.
func (m *Manifest) settings() map[string]interface{} {
	s := make(map[string]interface{})
	r := m.Runtime
	if r.Strict != nil {
		s["strict"] = *r.Strict
	}
	if r.Debug != nil {
		s["debug"] = *r.Debug
	}
	if r.Optimize != nil {
		s["optimize"] = *r.Optimize
	}
	if r.Reader != nil {
		s["reader"] = *r.Reader
	}
	if r.MaxNestingDepth != nil {
		s["max-nesting-depth"] = *r.MaxNestingDepth
	}
	if r.Parallelism != nil {
		s["parallelism"] = *r.Parallelism
	}
	return s
}
