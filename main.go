package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"timetracker/internal"
	"timetracker/internal/config"
	"timetracker/internal/storage"
	"timetracker/internal/tracker"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	dbPath     string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:          "timetracker",
		Short:        "Track time spent on tasks",
		Long:         `Create named tasks, start and pause them, and keep the elapsed time across sessions.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.timetracker/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "storage database, overrides the config file")

	cmd.AddCommand(
		newListCmd(opts),
		newAddCmd(opts),
		newToggleCmd(opts),
		newRmCmd(opts),
		newExportCmd(opts),
	)
	return cmd
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(opts *options) (*config.Config, error) {
	mgr, err := config.NewManager(opts.configPath)
	if err != nil {
		return nil, err
	}
	cfg := mgr.GetConfig()

	if opts.dbPath != "" {
		cfg.Storage.Path = opts.dbPath
	} else if !filepath.IsAbs(cfg.Storage.Path) {
		cfg.Storage.Path = filepath.Join(filepath.Dir(mgr.Path()), cfg.Storage.Path)
	}
	return cfg, nil
}

// openTracker opens storage and loads the saved tasks. The caller closes
// the returned store.
func openTracker(ctx context.Context, cfg *config.Config, autosave bool) (*tracker.Tracker, *storage.SQLite, error) {
	db, err := storage.NewSQLite(cfg.Storage.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	tr := tracker.New(db,
		tracker.WithKey(cfg.Storage.Key),
		tracker.WithDefaultName(cfg.Tracker.DefaultTaskName),
		tracker.WithExclusive(cfg.Tracker.Exclusive),
		tracker.WithAutosave(autosave),
	)
	if err := tr.Load(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return tr, db, nil
}

func runTUI(ctx context.Context, opts *options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	if cfg.UI.DebugLog != "" {
		f, err := tea.LogToFile(cfg.UI.DebugLog, "timetracker")
		if err != nil {
			return err
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	tr, db, err := openTracker(ctx, cfg, cfg.Tracker.Autosave)
	if err != nil {
		return err
	}
	defer db.Close()

	m := internal.NewModel(tr)
	p := tea.NewProgram(m, tea.WithAltScreen())

	ticker := time.NewTicker(cfg.UI.RefreshInterval)
	defer ticker.Stop()
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			select {
			case <-ticker.C:
				p.Send(internal.MsgTick{})
			case <-done:
				return
			}
		}
	}()

	_, runErr := p.Run()
	if runErr != nil {
		runErr = fmt.Errorf("error running program: %w", runErr)
	}
	if err := m.Close(ctx, cfg.Tracker.PauseOnExit); err != nil {
		log.Printf("final save: %v", err)
		return errors.Join(runErr, err)
	}
	return runErr
}
