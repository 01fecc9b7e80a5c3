package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	chatsvc "github.com/zjrosen/parley/internal/chat"
	"github.com/zjrosen/parley/internal/config"
	"github.com/zjrosen/parley/internal/conversation"
	"github.com/zjrosen/parley/internal/discovery"
	"github.com/zjrosen/parley/internal/display"
	"github.com/zjrosen/parley/internal/engine"
	"github.com/zjrosen/parley/internal/engine/echo"
	"github.com/zjrosen/parley/internal/log"
	"github.com/zjrosen/parley/internal/session"
	"github.com/zjrosen/parley/internal/tracing"
	chatui "github.com/zjrosen/parley/internal/ui/chat"
	"github.com/zjrosen/parley/internal/watcher"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE
	// any Bubble Tea program starts. This prevents the terminal's OSC 11
	// response from racing with Bubble Tea's input loop and appearing as
	// garbage text in input fields.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

var (
	version = "dev"
	cfgFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:     "parley",
	Short:   "A terminal ui for concurrent AI conversations",
	Long:    `A terminal user interface for running multiple concurrent AI conversations, each with its own session, streaming output, and message queue.`,
	Version: version,
	RunE:    runApp,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/parley/config.yaml)")
	rootCmd.Flags().Bool("debug", false,
		"write debug logs to parley.log")
	rootCmd.Flags().StringP("resume", "r", "",
		"resume a session by id, id prefix, or \"__most_recent__\"")
	rootCmd.Flags().StringP("model", "m", "",
		"model to use for new sessions")

	_ = viper.BindPFlag("engine.model", rootCmd.Flags().Lookup("model"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("engine.type", defaults.Engine.Type)
	viper.SetDefault("engine.model", defaults.Engine.Model)
	viper.SetDefault("ui.show_status_bar", defaults.UI.ShowStatusBar)
	viper.SetDefault("ui.markdown_style", defaults.UI.MarkdownStyle)
	viper.SetDefault("transcripts.root_dir", defaults.Transcripts.RootDir)
	viper.SetDefault("transcripts.auto_refresh", defaults.Transcripts.AutoRefresh)
	viper.SetDefault("transcripts.cache_ttl_seconds", defaults.Transcripts.CacheTTLSeconds)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .parley/config.yaml (current directory)
		// 2. ~/.config/parley/config.yaml (user config)
		if _, err := os.Stat(".parley/config.yaml"); err == nil {
			viper.SetConfigFile(".parley/config.yaml")
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "parley"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file found anywhere - create default at .parley/config.yaml
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			defaultPath := ".parley/config.yaml"
			if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
				viper.SetConfigFile(defaultPath)
				_ = viper.ReadInConfig()
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	_ = viper.Unmarshal(&cfg)
}

func runApp(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	debug, _ := cmd.Flags().GetBool("debug")
	if debug || os.Getenv("PARLEY_DEBUG") != "" {
		cleanup, err := log.Init("parley.log")
		if err != nil {
			return fmt.Errorf("initializing logging: %w", err)
		}
		defer cleanup()
		log.SetEnabled(true)
	}

	tracingCfg := tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		Exporter:     cfg.Tracing.Exporter,
		FilePath:     cfg.Tracing.FilePath,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SampleRate:   cfg.Tracing.SampleRate,
	}
	if tracingCfg.Enabled && tracingCfg.Exporter == "file" && tracingCfg.FilePath == "" {
		tracingCfg.FilePath = config.DefaultTracesFilePath()
	}
	provider, err := tracing.NewProvider(tracingCfg)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = provider.Shutdown(shutdownCtx)
	}()

	workingDir := cfg.Engine.WorkingDir
	if workingDir == "" {
		workingDir, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("getting current directory: %w", err)
		}
	}

	eng := newEngine(cfg.Engine)
	registry := session.NewRegistry(eng)
	tracker := conversation.NewTracker()
	disp := display.NewBrokerDisplay()
	defer disp.Close()

	svc := chatsvc.NewService(registry, tracker, disp, chatsvc.Config{
		Tracer: provider.Tracer(),
		SessionDefaults: engine.SessionConfig{
			WorkingDir: workingDir,
			Model:      cfg.Engine.Model,
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scanner := newScanner(cfg.Transcripts)
	var transcriptWatcher *watcher.Watcher
	if cfg.Transcripts.AutoRefresh && cfg.Transcripts.RootDir != "" {
		if w, err := watcher.New(watcher.DefaultConfig(cfg.Transcripts.RootDir)); err == nil {
			if changes, err := w.Start(); err == nil {
				transcriptWatcher = w
				go func() {
					for {
						select {
						case <-ctx.Done():
							return
						case <-changes:
							scanner.Invalidate()
						}
					}
				}()
			}
		}
		// Watcher failures are non-fatal; discovery falls back to TTL expiry.
	}
	defer func() {
		if transcriptWatcher != nil {
			_ = transcriptWatcher.Stop()
		}
	}()

	if resumeID, _ := cmd.Flags().GetString("resume"); resumeID != "" {
		resolved, err := scanner.ResolveSessionID(ctx, resumeID)
		if err != nil {
			return fmt.Errorf("resolving session %q: %w", resumeID, err)
		}
		if _, err := svc.Resume(ctx, resolved, ""); err != nil {
			return fmt.Errorf("resuming session %q: %w", resolved, err)
		}
	}

	model := chatui.New(ctx, chatui.Config{
		Service:       svc,
		Events:        disp.Broker(),
		Scanner:       scanner,
		ShowStatusBar: cfg.UI.ShowStatusBar,
		MarkdownStyle: cfg.UI.MarkdownStyle,
	})
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// newEngine builds the configured engine backend. Only the echo engine is
// built in; Validate rejects anything else before we get here.
func newEngine(cfg config.EngineConfig) engine.Engine {
	e := echo.New()
	if cfg.Model != "" {
		e.Model = cfg.Model
	}
	return e
}

func newScanner(cfg config.TranscriptsConfig) *discovery.Scanner {
	rootDir := cfg.RootDir
	if rootDir == "" {
		rootDir = config.DefaultTranscriptsRootDir()
	}
	return discovery.NewScanner(rootDir, time.Duration(cfg.CacheTTLSeconds)*time.Second)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
