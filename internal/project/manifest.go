package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultMaxDiagnostics = 100
	DefaultMaxSteps       = 10_000_000
)

var (
	// ErrPackageSectionMissing indicates that [package] is missing in keb.toml.
	ErrPackageSectionMissing = errors.New("missing [package]")
	// ErrPackageNameMissing indicates that [package].name is missing or empty.
	ErrPackageNameMissing = errors.New("missing [package].name")
	// ErrBuildMainMissing indicates that [build].main is missing or empty.
	ErrBuildMainMissing = errors.New("missing [build].main")
)

// Manifest is a parsed keb.toml.
type Manifest struct {
	Path string // keb.toml itself
	Root string // directory of keb.toml

	Name           string
	Main           string // absolute path of the entry file
	MaxDiagnostics int
	Jobs           int
	MaxSteps       uint64
}

type manifestFile struct {
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
	Build struct {
		Main           string `toml:"main"`
		MaxDiagnostics int    `toml:"max_diagnostics"`
		Jobs           int    `toml:"jobs"`
	} `toml:"build"`
	Run struct {
		MaxSteps uint64 `toml:"max_steps"`
	} `toml:"run"`
}

// LoadManifest parses and validates keb.toml at path. Optional keys fall back
// to defaults; [build].main is resolved relative to the manifest directory.
func LoadManifest(path string) (*Manifest, error) {
	var cfg manifestFile
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if !meta.IsDefined("package") {
		return nil, fmt.Errorf("%s: %w", path, ErrPackageSectionMissing)
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrPackageNameMissing)
	}
	if !meta.IsDefined("build", "main") || strings.TrimSpace(cfg.Build.Main) == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrBuildMainMissing)
	}
	if cfg.Build.MaxDiagnostics < 0 || cfg.Build.Jobs < 0 {
		return nil, fmt.Errorf("%s: [build] limits must not be negative", path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	root := filepath.Dir(abs)
	m := &Manifest{
		Path:           abs,
		Root:           root,
		Name:           cfg.Package.Name,
		Main:           cfg.Build.Main,
		MaxDiagnostics: cfg.Build.MaxDiagnostics,
		Jobs:           cfg.Build.Jobs,
		MaxSteps:       cfg.Run.MaxSteps,
	}
	if !filepath.IsAbs(m.Main) {
		m.Main = filepath.Join(root, filepath.FromSlash(m.Main))
	}
	if m.MaxDiagnostics == 0 {
		m.MaxDiagnostics = DefaultMaxDiagnostics
	}
	if m.MaxSteps == 0 {
		m.MaxSteps = DefaultMaxSteps
	}
	return m, nil
}
