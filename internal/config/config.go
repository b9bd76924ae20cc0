// internal/config/config.go
//
// This package handles the objbundle.yaml project file. Every source tree
// that ships a single-header release keeps one at its root; a missing file
// means "use the defaults", which match the OBJ parser layout.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// FileName is the name of the project file read from the source root
	FileName = "objbundle.yaml"

	// StateDir is the directory we keep logs in, relative to the source root
	StateDir = ".objbundle"

	// OnExistingAbort stops the run when the output directory is present.
	OnExistingAbort = "abort"
	// OnExistingOverwrite deletes the previous output before bundling.
	OnExistingOverwrite = "overwrite"

	defaultProject    = "OBJ Parser"
	defaultHomepage   = "https://github.com/XavierEgan/simple-obj-parser"
	defaultSourceDir  = "src"
	defaultIncludeDir = "include"
	defaultOutputDir  = "release"
	defaultVendorDir  = "ext"
	defaultBundleName = "obj_parser.hpp"
	defaultSelector   = "OBJ_PARSER_IMPLEMENTATION"
	defaultVersionTxt = "release.txt"
)

const defaultProjectConfigYAML = `# objbundle project configuration
version: 1

project: OBJ Parser
homepage: https://github.com/XavierEgan/simple-obj-parser

# Layout of the source tree, relative to this file.
source_dir: src
include_dir: include
output_dir: release

# Third-party headers under include/<vendor_dir> are copied verbatim next to
# the bundle. Leave empty to disable.
vendor_dir: ext

bundle_name: obj_parser.hpp
implementation_symbol: OBJ_PARSER_IMPLEMENTATION

# Headers in include order, relative to include_dir. When empty the include
# directory is walked instead and "exclude" applies.
headers:
  - PtError.hpp
  - ObjParserError.hpp
  - Material.hpp
  - Mesh.hpp
  - MtlParser.hpp
  - ObjParser.hpp

exclude:
  - ext

# abort | overwrite
on_existing: overwrite
readme: true
version_file: release.txt
`

// ProjectConfig models objbundle.yaml.
type ProjectConfig struct {
	Version              int      `yaml:"version"`
	Project              string   `yaml:"project"`
	Homepage             string   `yaml:"homepage,omitempty"`
	SourceDir            string   `yaml:"source_dir"`
	IncludeDir           string   `yaml:"include_dir"`
	OutputDir            string   `yaml:"output_dir"`
	VendorDir            string   `yaml:"vendor_dir"`
	BundleName           string   `yaml:"bundle_name"`
	ImplementationSymbol string   `yaml:"implementation_symbol"`
	Headers              []string `yaml:"headers,omitempty"`
	Exclude              []string `yaml:"exclude,omitempty"`
	OnExisting           string   `yaml:"on_existing"`
	Readme               bool     `yaml:"readme"`
	VersionFile          string   `yaml:"version_file,omitempty"`
}

// Config holds the runtime configuration for a bundling run.
type Config struct {
	// ProjectDir is the root of the source tree being released
	ProjectDir string

	// Path is where the project file was (or would be) read from
	Path string

	Project ProjectConfig
}

// InitProject writes a commented default objbundle.yaml into projectDir.
// An existing file is left untouched.
func InitProject(projectDir string) (string, error) {
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		return "", fmt.Errorf("config: ensure project dir: %w", err)
	}
	path := filepath.Join(projectDir, FileName)
	if err := ensureProjectConfig(path); err != nil {
		return "", fmt.Errorf("config: write %s: %w", path, err)
	}
	return path, nil
}

// Load reads the project file under projectDir. When path is non-empty it
// overrides the default location; a relative override resolves against
// projectDir. A missing default file yields the built-in defaults, a missing
// explicit file is an error.
func Load(projectDir, path string) (*Config, error) {
	root, err := filepath.Abs(strings.TrimSpace(projectDir))
	if err != nil {
		return nil, fmt.Errorf("config: resolve project dir: %w", err)
	}
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = filepath.Join(root, FileName)
	} else {
		path = resolvePath(root, path)
	}
	cfg := &Config{
		ProjectDir: root,
		Path:       path,
		Project:    defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(explicit); err != nil {
		return nil, err
	}
	if err := cfg.checkOutputDir(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SourceDir returns the absolute directory holding implementation files
func (c *Config) SourceDir() string {
	return resolvePath(c.ProjectDir, c.Project.SourceDir)
}

// IncludeDir returns the absolute directory holding public headers
func (c *Config) IncludeDir() string {
	return resolvePath(c.ProjectDir, c.Project.IncludeDir)
}

// OutputDir returns the absolute release directory
func (c *Config) OutputDir() string {
	return resolvePath(c.ProjectDir, c.Project.OutputDir)
}

// VendorSourceDir returns include/<vendor>, or "" when vendoring is disabled.
func (c *Config) VendorSourceDir() string {
	if c.Project.VendorDir == "" {
		return ""
	}
	return filepath.Join(c.IncludeDir(), filepath.FromSlash(c.Project.VendorDir))
}

// VendorOutputDir returns release/<vendor>, or "" when vendoring is disabled.
func (c *Config) VendorOutputDir() string {
	if c.Project.VendorDir == "" {
		return ""
	}
	return filepath.Join(c.OutputDir(), filepath.FromSlash(c.Project.VendorDir))
}

// BundlePath returns the location of the amalgamated header.
func (c *Config) BundlePath() string {
	return filepath.Join(c.OutputDir(), c.Project.BundleName)
}

// LogPath returns the release log location.
func (c *Config) LogPath() string {
	return filepath.Join(c.ProjectDir, StateDir, "logs", "release.log")
}

// VersionFilePath returns the absolute version file path, or "" if unset.
func (c *Config) VersionFilePath() string {
	return resolvePath(c.ProjectDir, c.Project.VersionFile)
}

// SetOutputDir overrides the output directory (CLI flag).
func (c *Config) SetOutputDir(dir string) error {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return fmt.Errorf("config: output dir is required")
	}
	next := *c
	next.Project.OutputDir = dir
	if err := next.Project.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := next.checkOutputDir(); err != nil {
		return err
	}
	c.Project = next.Project
	return nil
}

// SetOnExisting overrides the pre-existing output policy (CLI flag).
func (c *Config) SetOnExisting(policy string) error {
	next := c.Project
	next.OnExisting = normalizePolicy(policy)
	if err := next.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	c.Project = next
	return nil
}

// ReadVersionFile returns the trimmed contents of the configured version file.
func (c *Config) ReadVersionFile() (string, error) {
	path := c.VersionFilePath()
	if path == "" {
		return "", fmt.Errorf("config: no version_file configured")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("config: read version file: %w", err)
	}
	version := strings.TrimSpace(string(data))
	if version == "" {
		return "", fmt.Errorf("config: version file %s is empty", path)
	}
	return version, nil
}

func (c *Config) loadProjectConfig(required bool) error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", c.Path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", c.Path, err)
	}

	parsed.applyDefaults(topLevelKeys(data))
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

// checkOutputDir rejects an output directory that would take the inputs with
// it when it is cleaned: the project root, the include or source directory,
// or anything containing them. Nesting the output inside the include or
// source directory is rejected too, since discovery would pick it up.
func (c *Config) checkOutputDir() error {
	out := c.OutputDir()
	if contains(out, c.ProjectDir) {
		return fmt.Errorf("config: output_dir %s must not contain the project root %s", out, c.ProjectDir)
	}
	for _, input := range []struct{ key, dir string }{
		{"include_dir", c.IncludeDir()},
		{"source_dir", c.SourceDir()},
	} {
		if contains(out, input.dir) || contains(input.dir, out) {
			return fmt.Errorf("config: output_dir %s must not overlap %s %s", out, input.key, input.dir)
		}
	}
	return nil
}

// contains reports whether dir equals parent or lies beneath it. Both paths
// must be absolute and clean.
func contains(parent, dir string) bool {
	rel, err := filepath.Rel(parent, dir)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func defaultProjectConfig() ProjectConfig {
	pc := ProjectConfig{}
	pc.applyDefaults(nil)
	return pc
}

// applyDefaults fills unset fields. vendor_dir, exclude and readme are only
// defaulted when absent from the file, since an explicit empty or false
// value disables them.
func (pc *ProjectConfig) applyDefaults(present map[string]bool) {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.Project) == "" {
		pc.Project = defaultProject
	}
	if strings.TrimSpace(pc.Homepage) == "" {
		pc.Homepage = defaultHomepage
	}
	if strings.TrimSpace(pc.SourceDir) == "" {
		pc.SourceDir = defaultSourceDir
	}
	if strings.TrimSpace(pc.IncludeDir) == "" {
		pc.IncludeDir = defaultIncludeDir
	}
	if strings.TrimSpace(pc.OutputDir) == "" {
		pc.OutputDir = defaultOutputDir
	}
	if strings.TrimSpace(pc.BundleName) == "" {
		pc.BundleName = defaultBundleName
	}
	if strings.TrimSpace(pc.ImplementationSymbol) == "" {
		pc.ImplementationSymbol = defaultSelector
	}
	if strings.TrimSpace(pc.OnExisting) == "" {
		pc.OnExisting = OnExistingOverwrite
	}
	if strings.TrimSpace(pc.VersionFile) == "" {
		pc.VersionFile = defaultVersionTxt
	}
	if !present["readme"] {
		pc.Readme = true
	}
	if !present["vendor_dir"] {
		pc.VendorDir = defaultVendorDir
	}
	if vendor := normalizeVendor(pc.VendorDir); !present["exclude"] && vendor != "" {
		pc.Exclude = []string{vendor}
	}
}

func (pc *ProjectConfig) normalize() {
	pc.Project = strings.TrimSpace(pc.Project)
	pc.Homepage = strings.TrimSpace(pc.Homepage)
	pc.SourceDir = strings.TrimSpace(pc.SourceDir)
	pc.IncludeDir = strings.TrimSpace(pc.IncludeDir)
	pc.OutputDir = strings.TrimSpace(pc.OutputDir)
	pc.VendorDir = normalizeVendor(pc.VendorDir)
	pc.BundleName = strings.TrimSpace(pc.BundleName)
	pc.ImplementationSymbol = strings.TrimSpace(pc.ImplementationSymbol)
	pc.OnExisting = normalizePolicy(pc.OnExisting)
	pc.VersionFile = strings.TrimSpace(pc.VersionFile)
	pc.Headers = trimAll(pc.Headers)
	pc.Exclude = trimAll(pc.Exclude)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if pc.BundleName == "" || strings.ContainsAny(pc.BundleName, `/\`) {
		return fmt.Errorf("bundle_name must be a plain file name")
	}
	if !isIdentifier(pc.ImplementationSymbol) {
		return fmt.Errorf("implementation_symbol %q is not a valid macro name", pc.ImplementationSymbol)
	}
	switch pc.OnExisting {
	case OnExistingAbort, OnExistingOverwrite:
	default:
		return fmt.Errorf("on_existing must be 'abort' or 'overwrite'")
	}
	if pc.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	seen := make(map[string]int, len(pc.Headers))
	for i, header := range pc.Headers {
		if header == "" {
			return fmt.Errorf("headers[%d]: path is required", i)
		}
		if prev, ok := seen[header]; ok {
			return fmt.Errorf("headers[%d]: %s already listed at headers[%d]", i, header, prev)
		}
		seen[header] = i
	}
	for i, excl := range pc.Exclude {
		if excl == "" {
			return fmt.Errorf("exclude[%d]: empty pattern", i)
		}
	}
	return nil
}

// topLevelKeys lists the keys set in the document's root mapping.
func topLevelKeys(data []byte) map[string]bool {
	keys := make(map[string]bool)
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil || len(root.Content) == 0 {
		return keys
	}
	mapping := root.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return keys
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		keys[mapping.Content[i].Value] = true
	}
	return keys
}

func normalizeVendor(value string) string {
	return strings.Trim(filepath.ToSlash(strings.TrimSpace(value)), "/")
}

func normalizePolicy(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func trimAll(values []string) []string {
	if len(values) == 0 {
		return values
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0644)
}
