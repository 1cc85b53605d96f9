package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/soocke/reticle-bot/config"
)

// Version is set at build time.
var Version = "dev"

// LoggerFunc builds the process logger from --log-level and --log-format.
type LoggerFunc func(level slog.Leveler, format string, w io.Writer) *slog.Logger

var newLogger LoggerFunc = func(level slog.Leveler, _ string, w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

var rootCmd = &cobra.Command{
	Use:           "reticle-bot",
	Short:         "Watch a window for the timing puzzle and press the key on cue",
	Long:          "Captures the target window, detects the reticle timing puzzle with edge templates and injects the trigger key when the reticle reaches the target. Toggle with the hotkey (default f8).",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRun,
}

// Execute runs the CLI and returns the process exit code.
func Execute(logger LoggerFunc) int {
	if logger != nil {
		newLogger = logger
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "error:", err)
		return 1
	}
	return 0
}

func init() {
	rootCmd.Version = Version
	rootCmd.PersistentFlags().String("config", "reticle-bot.yaml", "Config file (.yaml, .yml, .json or .toml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "json", "Log format: json or text")
	rootCmd.PersistentFlags().String("window", "", "Target window title or app name substring (overrides config)")
	rootCmd.PersistentFlags().Bool("enabled", false, "Start with automation enabled")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable periodic stats logging")
}

// loadConfig reads the config file named by --config and applies flag
// overrides on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return applyFlags(cmd, cfg)
}

// loadConfigDefaults is loadConfig without the file.
func loadConfigDefaults(cmd *cobra.Command) (*config.Config, error) {
	return applyFlags(cmd, config.DefaultConfig())
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) (*config.Config, error) {
	if f := cmd.Flags().Lookup("window"); f != nil && f.Changed {
		cfg.Window.Match = f.Value.String()
	}
	if enabled, _ := cmd.Flags().GetBool("enabled"); enabled {
		cfg.Keys.StartEnabled = true
	}
	if dbg, _ := cmd.Flags().GetBool("debug"); dbg {
		cfg.Debug.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loggerFromFlags builds the logger writing to the command's stderr.
func loggerFromFlags(cmd *cobra.Command) (*slog.Logger, error) {
	levelStr, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", levelStr, err)
	}
	format = strings.ToLower(format)
	switch format {
	case "json", "text":
	default:
		return nil, fmt.Errorf("unsupported --log-format %q (use json or text)", format)
	}
	return newLogger(level, format, cmd.ErrOrStderr()), nil
}
