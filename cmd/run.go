package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/soocke/reticle-bot/app"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the automation loop (default)",
	Long:  "Start the capture loop and the global hotkey listener. Runs until interrupted.",
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	logger, err := loggerFromFlags(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Window.Match == "" {
		logger.Warn("no target window configured, nothing will be captured until window.match or --window is set")
	}
	c, err := app.BuildContainer(cfg, logger, app.Platform{})
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return app.Run(ctx, c)
}
