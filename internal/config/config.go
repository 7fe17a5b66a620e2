// Package config loads and saves the dotscaffold configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/example/dotscaffold/internal/core/scaffold"
)

// CurrentVersion is written into new config files.
const CurrentVersion = "1"

// FileName is the config file inside the dotscaffold home.
const FileName = "config.yaml"

// HomeEnv overrides the dotscaffold home directory.
const HomeEnv = "DOTSCAFFOLD_HOME"

// Config is the user configuration.
type Config struct {
	Version   string            `yaml:"version"`
	Toolchain ToolchainConfig   `yaml:"toolchain"`
	Git       GitConfig         `yaml:"git"`
	Modes     map[string]string `yaml:"modes,omitempty"` // phase -> best-effort | fail-fast
	Journal   string            `yaml:"journal,omitempty"`
	LogFile   string            `yaml:"log_file,omitempty"`
}

// ToolchainConfig selects the build tool.
type ToolchainConfig struct {
	Binary      string `yaml:"binary"`
	SkipRestore bool   `yaml:"skip_restore"`
}

// GitConfig controls repository initialization.
type GitConfig struct {
	Binary        string `yaml:"binary"`
	Skip          bool   `yaml:"skip"`
	AuthorName    string `yaml:"author_name"`
	AuthorEmail   string `yaml:"author_email"`
	CommitMessage string `yaml:"commit_message"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Toolchain: ToolchainConfig{
			Binary: "dotnet",
		},
		Git: GitConfig{
			Binary:        "git",
			AuthorName:    "Author",
			AuthorEmail:   "author@example.com",
			CommitMessage: "Initial commit",
		},
	}
}

// DefaultDir returns $DOTSCAFFOLD_HOME or ~/.dotscaffold.
func DefaultDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".dotscaffold"), nil
}

// Path returns the config file path inside dir.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// LoadConfig reads config.yaml from dir. A missing file yields Default();
// fields absent from the file keep their default values.
func LoadConfig(dir string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(Path(dir))
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if _, err := cfg.ErrorModes(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", Path(dir), err)
	}

	return cfg, nil
}

// SaveConfig writes config.yaml to dir.
func SaveConfig(dir string, cfg *Config) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(Path(dir), data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// ErrorModes converts the modes map into per-phase error modes.
func (c *Config) ErrorModes() (scaffold.Modes, error) {
	phases := make([]string, 0, len(c.Modes))
	for p := range c.Modes {
		phases = append(phases, p)
	}
	sort.Strings(phases)

	assignments := make([]string, 0, len(phases))
	for _, p := range phases {
		assignments = append(assignments, p+"="+c.Modes[p])
	}
	return scaffold.ParseModes(nil, assignments)
}

// JournalPath returns the journal file, defaulting to dir/journal.db.
func (c *Config) JournalPath(dir string) string {
	if c.Journal != "" {
		return c.Journal
	}
	return filepath.Join(dir, "journal.db")
}

// LogPath returns the log file, defaulting to dir/dotscaffold.log.
func (c *Config) LogPath(dir string) string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(dir, "dotscaffold.log")
}
