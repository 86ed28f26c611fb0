package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/hovercard/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive card grid",
	Long: `Launch the interactive terminal user interface.

Cards are shown as tiles. The focused tile (or the one under the mouse)
opens its popover, which follows the grid as it scrolls and the terminal as
it resizes. Pinned popovers stay open while focus moves on. Changes to the
config file are applied live.

Key bindings:
  ←↓↑→, hjkl   Move focus
  pgup/pgdn    Scroll the grid
  enter        Show/hide the focused popover
  p            Pin the focused popover
  esc          Hide all popovers
  ?            Show help
  q            Quit`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	tuiLogger, closeLog, err := newTUILogger()
	if err != nil {
		return err
	}
	defer closeLog()

	return tui.Run(tui.RunOptions{
		Config:     cfg,
		ConfigPath: configPath(),
		Cards:      catalog.All(),
		Logger:     tuiLogger,
	})
}

// newTUILogger keeps log output off the terminal while the TUI owns it.
// With --verbose it writes to a file in the temp directory instead.
func newTUILogger() (*slog.Logger, func(), error) {
	if !globalOpts.verbose {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}

	path := filepath.Join(os.TempDir(), "hovercard-tui.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	logger.Info("TUI logging to file", "path", path)
	return l, func() { _ = f.Close() }, nil
}
