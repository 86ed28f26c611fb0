package tui

import (
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jmylchreest/hovercard/internal/card"
	"github.com/jmylchreest/hovercard/internal/config"
)

// RunOptions configures the TUI.
type RunOptions struct {
	Config     *config.Config
	ConfigPath string // Path to watch for changes (empty = no watching)
	Cards      []*card.Card
	Logger     *slog.Logger
}

// Run starts the TUI with the given options.
func Run(opts RunOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m := New(Options{
		Config: opts.Config,
		Cards:  opts.Cards,
		Logger: logger,
	})

	progOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if m.cfg.TUI.Mouse {
		progOpts = append(progOpts, tea.WithMouseAllMotion())
	}
	p := tea.NewProgram(m, progOpts...)

	if opts.ConfigPath != "" {
		watcher, err := config.NewWatcher(opts.ConfigPath, func(cfg *config.Config) {
			p.Send(ConfigReloadedMsg{Config: cfg})
		}, logger)
		if err != nil {
			logger.Warn("failed to create config watcher", "error", err)
		} else if err := watcher.Start(); err != nil {
			logger.Warn("failed to start config watcher", "error", err)
			if err := watcher.Stop(); err != nil {
				logger.Debug("failed to stop config watcher", "error", err)
			}
		} else {
			defer func() {
				if err := watcher.Stop(); err != nil {
					logger.Debug("failed to stop config watcher", "error", err)
				}
			}()
		}
	}

	final, err := p.Run()

	// Release any subscriptions still held by visible popovers.
	if fm, ok := final.(Model); ok {
		fm.manager.HideAll()
	}

	return err
}
