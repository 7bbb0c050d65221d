// Terra viewer: a rotating Earth in the terminal with a welcome panel,
// a lesson panel and free orbit controls.
//
// Usage:
//
//	terra-tui [flags]
//
// Flags:
//
//	--config      Path to a config file (default: ~/.terra/terra.yaml)
//	--db          Path to the motion journal (default: ~/.terra/terra.db)
//	--fps         Frames per second
//	--stars       Number of stars
//	--sun         Sun mode: fixed or realtime
//	--no-journal  Do not record motions
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Mr-Dark-debug/terra/internal/config"
	"github.com/Mr-Dark-debug/terra/internal/database"
	"github.com/Mr-Dark-debug/terra/internal/journal"
	"github.com/Mr-Dark-debug/terra/internal/logging"
	"github.com/Mr-Dark-debug/terra/internal/motion"
	"github.com/Mr-Dark-debug/terra/internal/panel"
	"github.com/Mr-Dark-debug/terra/internal/scene"
	"github.com/Mr-Dark-debug/terra/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

func main() {
	fs := config.Flags("terra-tui")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if err := run(fs); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(fs *pflag.FlagSet) error {
	configFile, _ := fs.GetString("config")
	cfg, err := config.Load(configFile, fs)
	if err != nil {
		return err
	}

	start := time.Now()
	log, logFile, err := logging.OpenFile(cfg.LogsDir, "terra", cfg.LogLevel, start)
	if err != nil {
		return err
	}
	defer logFile.Close()

	clock := clockwork.NewRealClock()
	sc, err := scene.Bootstrap(cfg.SceneOptions(), clock.Now(), log)
	if err != nil {
		log.Error().Err(err).Msg("scene bootstrap failed")
		return fmt.Errorf("building scene: %w", err)
	}

	seq := motion.NewSequencer(sc.Camera,
		motion.WithClock(clock),
		motion.WithLogger(log.With().Str("component", "motion").Logger()),
		motion.WithCurveLift(cfg.Motion.CurveLift),
		motion.WithAuxYawStep(cfg.Motion.AuxYawStep),
	)

	rec, store := startJournal(cfg, sc, log)
	if rec != nil {
		defer store.Close()
		seq.Subscribe(rec.Record)
	}

	pcfg := cfg.PanelConfig()
	pcfg.Earth = sc.Earth
	ctrl := panel.NewController(seq, sc.Controls, pcfg, log.With().Str("component", "panel").Logger())

	model := tui.NewModel(sc, seq, ctrl, tui.Options{
		FrameInterval: cfg.FrameInterval(),
		FadeDuration:  cfg.UI.FadeDuration,
		CellAspect:    cfg.Render.CellAspect,
		Clock:         clock,
		Logger:        log.With().Str("component", "tui").Logger(),
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())

	_, runErr := p.Run()
	seq.Cancel()

	if rec != nil {
		rec.SetFrames(int64(sc.Frames()))
		if err := rec.Stop(); err != nil {
			log.Warn().Err(err).Msg("closing journal")
		}
	}

	if runErr != nil {
		return fmt.Errorf("running TUI: %w", runErr)
	}
	log.Info().Uint64("frames", sc.Frames()).Dur("uptime", time.Since(start)).Msg("viewer closed")
	return nil
}

// startJournal opens the journal database and starts recording. A journal
// that cannot be opened is disabled with a warning; the viewer still runs.
func startJournal(cfg *config.Config, sc *scene.Scene, log zerolog.Logger) (*journal.Recorder, *database.DBService) {
	if !cfg.Journal.Enabled {
		log.Info().Msg("journal disabled")
		return nil, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DB.Path), 0755); err != nil {
		log.Warn().Err(err).Msg("journal disabled")
		return nil, nil
	}
	store, err := database.NewDBService(cfg.DB.Path)
	if err != nil {
		log.Warn().Err(err).Str("db", cfg.DB.Path).Msg("journal disabled")
		return nil, nil
	}

	opts := sc.Options()
	rec := journal.NewRecorder(journal.Config{
		BatchSize:     cfg.Journal.BatchSize,
		FlushInterval: cfg.Journal.FlushInterval,
		Metadata: map[string]string{
			"sun":   string(opts.Sun),
			"stars": fmt.Sprint(opts.Stars),
			"seed":  fmt.Sprint(opts.Seed),
		},
	}, store, log.With().Str("component", "journal").Logger())

	if err := rec.Start(context.Background()); err != nil {
		log.Warn().Err(err).Msg("journal disabled")
		store.Close()
		return nil, nil
	}
	log.Info().Str("db", store.Path()).Str("session", rec.SessionID()).Msg("journal enabled")
	return rec, store
}
