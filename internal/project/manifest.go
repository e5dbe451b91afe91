// Package project locates and reads ilo.toml, the optional per-project
// manifest carrying default file and command settings.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// ManifestName is the file searched for from the working directory up.
const ManifestName = "ilo.toml"

// Manifest is a parsed ilo.toml plus its location.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Config mirrors the ilo.toml sections.
type Config struct {
	Project ProjectConfig `toml:"project"`
	Check   CheckConfig   `toml:"check"`
	Batch   BatchConfig   `toml:"batch"`
}

// ProjectConfig holds project-wide defaults.
type ProjectConfig struct {
	// Diagram is the default diagram file, relative to the manifest.
	Diagram string `toml:"diagram"`
	// Mode is the default validation mode, strict or native.
	Mode string `toml:"mode"`
}

// CheckConfig configures the check command.
type CheckConfig struct {
	// Files lists diagrams checked when no arguments are given,
	// relative to the manifest.
	Files []string `toml:"files"`
}

// BatchConfig configures the batch command.
type BatchConfig struct {
	// Diff sets the default diff level: none, summary, or full.
	Diff string `toml:"diff"`
	// UI sets the default progress mode: auto, on, or off.
	UI string `toml:"ui"`
}

// Find walks up from startDir to locate ilo.toml.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load finds and parses the nearest manifest. ok is false when no
// manifest exists, which is not an error.
func Load(startDir string) (*Manifest, bool, error) {
	path, ok, err := Find(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, true, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if meta.IsDefined("project", "mode") {
		mode := strings.TrimSpace(cfg.Project.Mode)
		if mode != "strict" && mode != "native" {
			return nil, true, fmt.Errorf("%s: invalid [project].mode %q (expected strict or native)", path, mode)
		}
	}
	return &Manifest{
		Path:   path,
		Root:   filepath.Dir(path),
		Config: cfg,
	}, true, nil
}

// DiagramPath resolves the default diagram relative to the manifest.
// ok is false when the manifest declares none.
func (m *Manifest) DiagramPath() (string, bool) {
	if m == nil || m.Config.Project.Diagram == "" {
		return "", false
	}
	return m.resolve(m.Config.Project.Diagram), true
}

// CheckFiles resolves the [check].files list relative to the manifest.
func (m *Manifest) CheckFiles() []string {
	if m == nil || len(m.Config.Check.Files) == 0 {
		return nil
	}
	out := make([]string, 0, len(m.Config.Check.Files))
	for _, f := range m.Config.Check.Files {
		out = append(out, m.resolve(f))
	}
	return out
}

func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Root, p)
}
