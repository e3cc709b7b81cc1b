package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/msalah0e/kgviz/internal/config"
	"github.com/msalah0e/kgviz/internal/logging"
	"github.com/msalah0e/kgviz/internal/ui"
)

var version = "0.3.0"

var (
	configPath string
	logLevel   string
	noColor    bool
)

var rootCmd = &cobra.Command{
	Use:   "kgviz",
	Short: "kgviz - knowledge graph layout and viewer",
	Long: ui.Brand.Sprint(ui.Mark+" kgviz") + " - lay out and explore knowledge graphs\n" +
		ui.Subtle.Sprint("Force-directed layout, filtering and a live canvas viewer for graph snapshots"),
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor || os.Getenv("NO_COLOR") != "" {
			ui.SetColor(false)
		}
	},
}

func init() {
	rootCmd.SetVersionTemplate("kgviz {{ .Version }}\n")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/kgviz/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		layoutCmd(),
		statsCmd(),
		validateCmd(),
		legendCmd(),
		serveCmd(),
		configCmd(),
	)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads --config if given, the default config file otherwise.
func loadConfig() *config.Config {
	if configPath == "" {
		cfg := config.Load()
		applyUI(cfg)
		return cfg
	}
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		ui.Bad.Printf("  Failed to load config: %v\n", err)
		os.Exit(1)
	}
	applyUI(cfg)
	return cfg
}

func applyUI(cfg *config.Config) {
	if !cfg.UI.Color {
		ui.SetColor(false)
	}
}

// newLogger builds the logger for long-running commands.
func newLogger(cfg *config.Config) *zap.Logger {
	lc := cfg.Log
	if logLevel != "" {
		lc.Level = logLevel
	}
	l, err := logging.New(lc)
	if err != nil {
		ui.Bad.Printf("  %v\n", err)
		os.Exit(1)
	}
	return l
}
