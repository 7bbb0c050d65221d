// Terra CLI queries the motion journal written by the viewer.
//
// Usage:
//
//	terra <command> [flags]
//
// Commands:
//
//	history   List recorded camera motions
//	sessions  List viewer sessions
//	stats     Show aggregated motion statistics
//	config    Print the effective configuration
//	version   Print version information
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/Mr-Dark-debug/terra/internal/config"
	"github.com/Mr-Dark-debug/terra/internal/database"
	"github.com/Mr-Dark-debug/terra/internal/logging"
	"github.com/Mr-Dark-debug/terra/pkg/timeutil"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "history":
		cmdHistory(os.Args[2:])
	case "sessions":
		cmdSessions(os.Args[2:])
	case "stats":
		cmdStats(os.Args[2:])
	case "config":
		cmdConfig(os.Args[2:])
	case "version":
		fmt.Printf("Terra v%s (commit: %s, built: %s)\n", Version, GitCommit, BuildTime)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Terra: a rotating Earth in your terminal

Usage:
  terra <command> [flags]

Commands:
  history    List recorded camera motions
  sessions   List viewer sessions
  stats      Show aggregated motion statistics
  config     Print the effective configuration
  version    Print version information

Run 'terra <command> --help' for details on each command.
Start the viewer with 'terra-tui'.`)
}

// env is the shared state of a subcommand run.
type env struct {
	cfg *config.Config
	log zerolog.Logger
}

// setup parses args on fs, loads configuration and builds the stderr
// logger. Parse errors exit.
func setup(fs *pflag.FlagSet, args []string) env {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	configFile, _ := fs.GetString("config")
	cfg, err := config.Load(configFile, fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return env{cfg: cfg, log: logging.New(os.Stderr, cfg.LogLevel, true)}
}

func (e env) openStore() *database.DBService {
	store, err := database.NewDBService(e.cfg.DB.Path)
	if err != nil {
		e.log.Fatal().Err(err).Str("db", e.cfg.DB.Path).Msg("Failed to open database")
	}
	e.log.Debug().Str("db", store.Path()).Msg("Opened journal")
	return store
}

// cmdHistory lists motions matching a filter.
func cmdHistory(args []string) {
	fs := config.Flags("history")
	session := fs.String("session", "", "Only motions of this session")
	kind := fs.String("kind", "", "Filter by kind: linear, curved")
	outcome := fs.String("outcome", "", "Filter by outcome: running, completed, superseded, cancelled")
	since := fs.String("since", "", "Only motions started after this (duration like 24h, or RFC 3339)")
	limit := fs.Int("limit", 20, "Maximum results")
	format := fs.String("format", "table", "Output format: table, json")
	e := setup(fs, args)

	filter := database.MotionFilter{Limit: *limit}
	if *session != "" {
		filter.SessionID = session
	}
	if *kind != "" {
		filter.Kind = kind
	}
	if *outcome != "" {
		filter.Outcome = outcome
	}
	if *since != "" {
		ns, err := timeutil.ParseSince(*since, time.Now())
		if err != nil {
			e.log.Fatal().Err(err).Msg("Bad --since")
		}
		filter.Since = &ns
	}

	store := e.openStore()
	defer store.Close()

	motions, err := store.QueryMotions(filter)
	if err != nil {
		e.log.Fatal().Err(err).Msg("Query failed")
	}

	switch *format {
	case "json":
		printJSON(motions)
	case "table":
		writeMotions(os.Stdout, motions)
	default:
		e.log.Fatal().Str("format", *format).Msg("Unknown format")
	}
}

// cmdSessions lists viewer sessions, most recent first.
func cmdSessions(args []string) {
	fs := config.Flags("sessions")
	since := fs.String("since", "", "Only sessions started after this (duration like 24h, or RFC 3339)")
	limit := fs.Int("limit", 20, "Maximum results")
	format := fs.String("format", "table", "Output format: table, json")
	e := setup(fs, args)

	filter := database.SessionFilter{Limit: *limit}
	if *since != "" {
		ns, err := timeutil.ParseSince(*since, time.Now())
		if err != nil {
			e.log.Fatal().Err(err).Msg("Bad --since")
		}
		filter.Since = &ns
	}

	store := e.openStore()
	defer store.Close()

	sessions, err := store.QuerySessions(filter)
	if err != nil {
		e.log.Fatal().Err(err).Msg("Query failed")
	}

	switch *format {
	case "json":
		printJSON(sessions)
	case "table":
		writeSessions(os.Stdout, sessions, time.Now())
	default:
		e.log.Fatal().Str("format", *format).Msg("Unknown format")
	}
}

// cmdStats prints aggregated motion statistics.
func cmdStats(args []string) {
	fs := config.Flags("stats")
	session := fs.String("session", "", "Only this session")
	format := fs.String("format", "table", "Output format: table, json")
	e := setup(fs, args)

	store := e.openStore()
	defer store.Close()

	stats, err := store.GetMotionStats(*session)
	if err != nil {
		e.log.Fatal().Err(err).Msg("Stats failed")
	}

	switch *format {
	case "json":
		printJSON(stats)
	case "table":
		writeStats(os.Stdout, stats)
	default:
		e.log.Fatal().Str("format", *format).Msg("Unknown format")
	}
}

// cmdConfig prints the effective configuration as JSON.
func cmdConfig(args []string) {
	fs := config.Flags("config")
	e := setup(fs, args)
	printJSON(e.cfg)
}

func printJSON(v interface{}) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func writeMotions(w io.Writer, motions []*database.Motion) {
	if len(motions) == 0 {
		fmt.Fprintln(w, "No motions recorded.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tID\tKIND\tOUTCOME\tSTARTED\tDURATION\tELAPSED\tFRAMES\tTO")
	for _, m := range motions {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%d\t(%.2f, %.2f, %.2f)\n",
			shortID(m.SessionID, 8), m.MotionID, m.Kind, m.Outcome,
			timeutil.FormatTimestampFull(m.StartTime),
			timeutil.FormatDuration(m.DurationMs),
			timeutil.Elapsed(m.StartTime, m.EndTime),
			m.Frames, m.To.X, m.To.Y, m.To.Z)
	}
	tw.Flush()
}

func writeSessions(w io.Writer, sessions []*database.Session, now time.Time) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions recorded.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tSTARTED\tLENGTH\tFRAMES\tSUN")
	for _, s := range sessions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			s.SessionID,
			timeutil.RelativeTime(s.StartTime, now),
			timeutil.Elapsed(s.StartTime, s.EndTime),
			s.Frames, s.Metadata["sun"])
	}
	tw.Flush()
}

func writeStats(w io.Writer, s *database.MotionStats) {
	scope := "all sessions"
	if s.SessionID != "" {
		scope = "session " + s.SessionID
	}
	fmt.Fprintf(w, "Motion statistics (%s)\n\n", scope)
	fmt.Fprintf(w, "  Sessions:            %d\n", s.Sessions)
	fmt.Fprintf(w, "  Motions:             %d (%d linear, %d curved)\n", s.TotalMotions, s.Linear, s.Curved)
	fmt.Fprintf(w, "  Completed:           %d\n", s.Completed)
	fmt.Fprintf(w, "  Superseded:          %d\n", s.Superseded)
	fmt.Fprintf(w, "  Cancelled:           %d\n", s.Cancelled)
	fmt.Fprintf(w, "  Still running:       %d\n", s.Running)
	fmt.Fprintf(w, "  Frames in motion:    %d\n", s.TotalFrames)
	fmt.Fprintf(w, "  Avg elapsed:         %s\n", timeutil.FormatDuration(int64(s.AvgElapsedMs)))
	fmt.Fprintf(w, "  Avg frames/motion:   %.1f\n", s.AvgFrameCount)
}

// shortID returns first n characters of an ID string.
func shortID(id string, n int) string {
	if len(id) <= n {
		return id
	}
	return id[:n]
}
