package cmd

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/soocke/reticle-bot/domain/capture"
)

var windowsCmd = &cobra.Command{
	Use:   "windows",
	Short: "List visible windows",
	Long:  "List visible top-level windows with their app name and bounds. The window selected by the current match is flagged.",
	RunE:  runWindows,
}

func init() {
	rootCmd.AddCommand(windowsCmd)
}

// windowEntry is the YAML output of the windows command.
type windowEntry struct {
	Title    string `yaml:"title"`
	App      string `yaml:"app,omitempty"`
	X        int    `yaml:"x"`
	Y        int    `yaml:"y"`
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
	Selected bool   `yaml:"selected,omitempty"`
}

var windowLister = capture.NewPlatformLister

func runWindows(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	windows, err := windowLister().ListWindows()
	if err != nil {
		return err
	}
	selected, found := capture.FindMatch(windows, cfg.Window.Match)
	entries := make([]windowEntry, 0, len(windows))
	for _, w := range windows {
		entries = append(entries, windowEntry{
			Title:    w.Title,
			App:      w.AppName,
			X:        w.Bounds.Min.X,
			Y:        w.Bounds.Min.Y,
			Width:    w.Bounds.Dx(),
			Height:   w.Bounds.Dy(),
			Selected: found && w == selected,
		})
	}
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return err
	}
	return enc.Close()
}
