// Package config provides configuration types and defaults for parley.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zjrosen/parley/internal/log"
)

// Config holds all configuration options for parley.
type Config struct {
	Engine      EngineConfig      `mapstructure:"engine"`
	UI          UIConfig          `mapstructure:"ui"`
	Transcripts TranscriptsConfig `mapstructure:"transcripts"`
	Tracing     TracingConfig     `mapstructure:"tracing"`
}

// EngineConfig selects and configures the conversation engine.
type EngineConfig struct {
	// Type selects the engine backend. "echo" is the built-in local
	// engine used for development and demos.
	Type string `mapstructure:"type"`

	// Model is the model name passed to the engine at session creation.
	Model string `mapstructure:"model"`

	// WorkingDir is the directory sessions run against.
	// Default: current directory at startup.
	WorkingDir string `mapstructure:"working_dir"`
}

// UIConfig holds user interface configuration options.
type UIConfig struct {
	ShowStatusBar bool   `mapstructure:"show_status_bar"`
	MarkdownStyle string `mapstructure:"markdown_style"` // "dark" (default) or "light"
}

// TranscriptsConfig holds transcript discovery configuration.
type TranscriptsConfig struct {
	// RootDir is the directory scanned for session transcripts.
	// Default: ~/.parley/projects
	RootDir string `mapstructure:"root_dir"`

	// AutoRefresh re-scans when transcript files change on disk.
	AutoRefresh bool `mapstructure:"auto_refresh"`

	// CacheTTLSeconds bounds how long scan results are served from cache.
	// Default: 30
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds"`
}

// TracingConfig holds distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether tracing is active.
	// Default: false
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "file", "stdout", "otlp"
	// Default: "file"
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output file for "file" exporter.
	// Default: ~/.config/parley/traces/traces.jsonl
	FilePath string `mapstructure:"file_path"`

	// OTLPEndpoint is the collector endpoint for "otlp" exporter.
	// Default: "localhost:4317"
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0).
	// Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate"`
}

// DefaultTracesFilePath returns the default path for trace file export.
// Returns ~/.config/parley/traces/traces.jsonl or empty string if home dir
// unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "parley", "traces", "traces.jsonl")
}

// DefaultTranscriptsRootDir returns the default transcript root.
// Returns ~/.parley/projects or empty string if home dir unavailable.
func DefaultTranscriptsRootDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".parley", "projects")
}

// ValidateEngine checks engine configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateEngine(engine EngineConfig) error {
	if engine.Type != "" && engine.Type != "echo" {
		return fmt.Errorf("engine.type must be \"echo\", got %q", engine.Type)
	}
	if engine.WorkingDir != "" && !filepath.IsAbs(engine.WorkingDir) {
		return fmt.Errorf("engine.working_dir must be an absolute path, got %q", engine.WorkingDir)
	}
	return nil
}

// ValidateTranscripts checks transcript configuration for errors.
func ValidateTranscripts(t TranscriptsConfig) error {
	if t.RootDir != "" && !filepath.IsAbs(t.RootDir) {
		return fmt.Errorf("transcripts.root_dir must be an absolute path, got %q", t.RootDir)
	}
	if t.CacheTTLSeconds < 0 {
		return fmt.Errorf("transcripts.cache_ttl_seconds must be non-negative, got %d", t.CacheTTLSeconds)
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tracing TracingConfig) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	if tracing.Exporter != "" {
		switch tracing.Exporter {
		case "none", "file", "stdout", "otlp":
			// Valid
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
		}
	}

	// Only validate path requirements when tracing is enabled
	if tracing.Enabled {
		if tracing.Exporter == "file" && tracing.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}

	return nil
}

// Validate checks the full configuration for errors.
func (c Config) Validate() error {
	if err := ValidateEngine(c.Engine); err != nil {
		return err
	}
	if err := ValidateTranscripts(c.Transcripts); err != nil {
		return err
	}
	if err := ValidateTracing(c.Tracing); err != nil {
		return err
	}
	if c.UI.MarkdownStyle != "" && c.UI.MarkdownStyle != "dark" && c.UI.MarkdownStyle != "light" {
		return fmt.Errorf("ui.markdown_style must be \"dark\" or \"light\", got %q", c.UI.MarkdownStyle)
	}
	return nil
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Engine: EngineConfig{
			Type:       "echo",
			Model:      "echo-1",
			WorkingDir: "",
		},
		UI: UIConfig{
			ShowStatusBar: true,
			MarkdownStyle: "dark",
		},
		Transcripts: TranscriptsConfig{
			RootDir:         DefaultTranscriptsRootDir(),
			AutoRefresh:     true,
			CacheTTLSeconds: 30,
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			FilePath:     "", // Derived from config dir at runtime
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
	}
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Parley Configuration

# Engine settings
engine:
  # Engine backend. "echo" is the built-in local engine.
  type: echo

  # Model passed to the engine at session creation
  model: echo-1

  # Directory sessions run against (default: current directory)
  # working_dir: /path/to/project

# UI settings
ui:
  show_status_bar: true   # Show status bar at bottom
  # markdown_style: dark  # Markdown rendering style: "dark" (default) or "light"

# Transcript discovery
transcripts:
  # Root directory scanned for session transcripts
  # root_dir: ~/.parley/projects

  # Re-scan when transcript files change on disk
  auto_refresh: true

  # How long scan results are served from cache, in seconds
  cache_ttl_seconds: 30

# Distributed tracing configuration
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp (default: file)
#   file_path: ~/.config/parley/traces/traces.jsonl  # Output file for file exporter
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)
#
# Example: Send traces to Jaeger via OTLP
# tracing:
#   enabled: true
#   exporter: otlp
#   otlp_endpoint: jaeger.internal:4317
#   sample_rate: 0.1  # Sample 10% of traces
`
}

// WriteDefaultConfig creates a config file at the given path with default
// settings and comments. Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
