// Package main provides the CLI entrypoint for tuifitts.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/tuifitts/internal/analysis"
	"github.com/verte-zerg/tuifitts/internal/config"
	"github.com/verte-zerg/tuifitts/internal/generator"
	"github.com/verte-zerg/tuifitts/internal/logging"
	"github.com/verte-zerg/tuifitts/internal/model"
	"github.com/verte-zerg/tuifitts/internal/plot"
	"github.com/verte-zerg/tuifitts/internal/stats"
	"github.com/verte-zerg/tuifitts/internal/store"
	"github.com/verte-zerg/tuifitts/internal/trial"
	"github.com/verte-zerg/tuifitts/internal/tui"
)

const (
	defaultTrials      = tui.DefaultTrials
	defaultWidth       = 1400
	defaultHeight      = 800
	defaultHold        = 0.5
	defaultMinDistance = 50.0
	defaultFPS         = 60
	defaultOutDir      = "."

	defaultLogLevel      = "info"
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
)

var (
	sessionName        string
	sessionDevice      string
	sessionTrials      int
	sessionWidth       int
	sessionHeight      int
	sessionHold        float64
	sessionMinDistance float64
	sessionRadiusMin   int
	sessionRadiusMax   int
	sessionFPS         int
	sessionOutDir      string
	sessionSeed        int64

	historyDevice      string
	historyParticipant string
	historySince       string
	historyLast        int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tuifitts",
		Short:         "Terminal Fitts' Law pointing experiment",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runExperimentCmd,
	}

	rootCmd.Flags().StringVar(&sessionName, "name", "", "participant name (prompted when empty)")
	rootCmd.Flags().StringVar(&sessionDevice, "device", "", "pointing device (prompted when empty)")
	rootCmd.Flags().IntVar(&sessionTrials, "trials", defaultTrials, "number of scored trials")
	rootCmd.Flags().IntVar(&sessionWidth, "width", defaultWidth, "canvas width in virtual pixels")
	rootCmd.Flags().IntVar(&sessionHeight, "height", defaultHeight, "canvas height in virtual pixels")
	rootCmd.Flags().Float64Var(&sessionHold, "hold", defaultHold, "dwell time in seconds that confirms a target")
	rootCmd.Flags().Float64Var(&sessionMinDistance, "min-distance", defaultMinDistance, "minimum distance between consecutive targets")
	rootCmd.Flags().IntVar(&sessionRadiusMin, "radius-min", generator.DefaultRadiusMin, "smallest target radius")
	rootCmd.Flags().IntVar(&sessionRadiusMax, "radius-max", generator.DefaultRadiusMax, "largest target radius")
	rootCmd.Flags().IntVar(&sessionFPS, "fps", defaultFPS, "pointer sampling rate")
	rootCmd.Flags().StringVar(&sessionOutDir, "out-dir", defaultOutDir, "directory for session logs and plots")
	rootCmd.Flags().Int64Var(&sessionSeed, "seed", 0, "random seed for target placement (0: time based)")

	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func runExperimentCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "name", &sessionName, fileCfg.Session.Name)
	applyStringConfig(cmd, "device", &sessionDevice, fileCfg.Session.Device)
	applyIntConfig(cmd, "trials", &sessionTrials, fileCfg.Session.Trials)
	applyIntConfig(cmd, "width", &sessionWidth, fileCfg.Session.Width)
	applyIntConfig(cmd, "height", &sessionHeight, fileCfg.Session.Height)
	applyFloatConfig(cmd, "hold", &sessionHold, fileCfg.Session.Hold)
	applyFloatConfig(cmd, "min-distance", &sessionMinDistance, fileCfg.Session.MinDistance)
	applyIntConfig(cmd, "radius-min", &sessionRadiusMin, fileCfg.Session.RadiusMin)
	applyIntConfig(cmd, "radius-max", &sessionRadiusMax, fileCfg.Session.RadiusMax)
	applyIntConfig(cmd, "fps", &sessionFPS, fileCfg.Session.FPS)
	applyStringConfig(cmd, "out-dir", &sessionOutDir, fileCfg.Session.OutDir)

	cfg := model.Config{
		Name:        strings.TrimSpace(sessionName),
		Device:      strings.TrimSpace(sessionDevice),
		Trials:      sessionTrials,
		Width:       sessionWidth,
		Height:      sessionHeight,
		Hold:        time.Duration(sessionHold * float64(time.Second)),
		MinDistance: sessionMinDistance,
		RadiusMin:   sessionRadiusMin,
		RadiusMax:   sessionRadiusMax,
		FPS:         sessionFPS,
		OutDir:      sessionOutDir,
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	// The TUI owns the terminal, so diagnostics go to the log file only.
	logger := newLogger(fileCfg.Log, nil)
	defer syncLogger(logger)

	seed := sessionSeed
	ui := tui.NewModel(tui.Options{
		Config:    cfg,
		SkipSetup: cfg.Name != "" && cfg.Device != "",
		Logger:    logger,
		Source: func(c model.Config) trial.TargetSource {
			if seed != 0 {
				return generator.NewWithSeed(c.Width, c.Height, c.RadiusMin, c.RadiusMax, seed)
			}
			return generator.New(c.Width, c.Height, c.RadiusMin, c.RadiusMax)
		},
	})
	program := tea.NewProgram(ui, tea.WithAltScreen(), tea.WithMouseAllMotion())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	outcome := ui.Outcome()
	if outcome.Err != nil {
		return fmt.Errorf("session failed: %w", outcome.Err)
	}
	if outcome.Meta.LogPath == "" {
		return nil
	}
	out := cmd.OutOrStdout()
	if !outcome.Completed {
		logErrf("Session aborted after %d trials; completed trials are kept in %s\n",
			len(outcome.Records), outcome.Meta.LogPath)
		return nil
	}
	return reportSession(commandContext(cmd), out, logger, outcome)
}

// reportSession prints the per-trial summary and fit, writes the session plot
// and stores the session in the history database.
func reportSession(ctx context.Context, out io.Writer, logger *zap.Logger, outcome tui.Outcome) error {
	meta := outcome.Meta
	if err := stats.RenderTrials(out, outcome.Records); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	res, err := analysis.Analyze(analysis.RowsFromRecords(outcome.Records), 1.0)
	if err != nil {
		logger.Warn("skipping regression", zap.Error(err))
		logErrf("Not enough distinct trials for a regression: %v\n", err)
		meta.PlotPath = ""
	} else {
		res.Name = "Session"
		if err := stats.RenderFit(out, res); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		series := []stats.ScatterSeries{{Name: meta.Device, Points: res.Points, Fit: &res.Fit}}
		if err := stats.PlotScatter(out, "", series, 0, 0); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		if err := plot.WriteFile(meta.PlotPath, func(w io.Writer) error {
			return plot.Session(w, res, plot.Options{})
		}); err != nil {
			return fmt.Errorf("failed to write plot: %w", err)
		}
		logErrf("Wrote %s\n", meta.PlotPath)
	}
	logErrf("Wrote %s\n", meta.LogPath)

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	id, err := st.InsertSession(ctx, meta, outcome.Records)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	logger.Info("session stored", zap.String("session", id), zap.String("log", meta.LogPath))
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded sessions",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&historyDevice, "device", "", "device filter")
	cmd.Flags().StringVar(&historyParticipant, "participant", "", "participant filter")
	cmd.Flags().StringVar(&historySince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to last N sessions")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	filter, err := historyFilter(historyDevice, historyParticipant, historySince, historyLast)
	if err != nil {
		return err
	}
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	sessions, err := st.ListSessions(commandContext(cmd), filter)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	return stats.RenderHistory(cmd.OutOrStdout(), sessions)
}

func historyFilter(device, participant, since string, last int) (model.HistoryFilter, error) {
	if last < 0 {
		return model.HistoryFilter{}, fmt.Errorf("--last must be >= 0")
	}
	filter := model.HistoryFilter{
		Device:      strings.TrimSpace(device),
		Participant: strings.TrimSpace(participant),
		Last:        last,
	}
	if since != "" {
		parsed, err := time.ParseInLocation("2006-01-02", since, time.Local)
		if err != nil {
			return model.HistoryFilter{}, fmt.Errorf("invalid --since value: %w", err)
		}
		filter.Since = &parsed
	}
	return filter, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newLogger(cfg config.LogConfig, console io.Writer) *zap.Logger {
	opts := logging.Options{
		Level:      defaultLogLevel,
		File:       config.DefaultLogFile(),
		MaxSize:    defaultLogMaxSize,
		MaxBackups: defaultLogMaxBackups,
		MaxAge:     defaultLogMaxAge,
		Console:    console,
	}
	if cfg.Level != nil {
		opts.Level = *cfg.Level
	}
	if cfg.File != nil {
		opts.File = *cfg.File
	}
	if cfg.MaxSize != nil {
		opts.MaxSize = *cfg.MaxSize
	}
	if cfg.MaxBackups != nil {
		opts.MaxBackups = *cfg.MaxBackups
	}
	if cfg.MaxAge != nil {
		opts.MaxAge = *cfg.MaxAge
	}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			logErrf("failed to create log directory: %v\n", err)
			opts.File = ""
		}
	}
	return logging.New(opts)
}

func syncLogger(logger *zap.Logger) {
	if err := logger.Sync(); err != nil {
		// Sync fails on non-file console sinks.
		_ = err
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# tuifitts configuration
# Uncomment a value to enable it. CLI flags override config values.

[session]
# name = "participant"    # Participant name (prompted when empty)
# device = "mouse"        # Pointing device (prompted when empty)
# trials = %d             # Number of scored trials
# width = %d            # Canvas width in virtual pixels
# height = %d            # Canvas height in virtual pixels
# hold = %.1f             # Dwell time in seconds
# min-distance = %.0f      # Minimum distance between consecutive targets
# radius-min = %d         # Smallest target radius
# radius-max = %d         # Largest target radius
# fps = %d                # Pointer sampling rate
# out-dir = %q           # Directory for session logs and plots

[analyze]
# default-quantile = %.2f # Trimming threshold for datasets without an entry below
# x-min = %.1f
# x-max = %.1f
# y-min = %.1f
# y-max = %.1f
# out = %q

[analyze.quantiles]
# mouse = 0.95
# touchpad = 0.70
# air-mouse = 0.70

[log]
# level = %q
# file = "%s"
# max-size = %d           # Megabytes before rotation
# max-backups = %d
# max-age = %d            # Days
`,
		defaultTrials,
		defaultWidth,
		defaultHeight,
		defaultHold,
		defaultMinDistance,
		generator.DefaultRadiusMin,
		generator.DefaultRadiusMax,
		defaultFPS,
		defaultOutDir,
		defaultQuantile,
		defaultXMin,
		defaultXMax,
		defaultYMin,
		defaultYMax,
		defaultComparisonOut,
		defaultLogLevel,
		config.DefaultLogFile(),
		defaultLogMaxSize,
		defaultLogMaxBackups,
		defaultLogMaxAge,
	)
}

func validateConfig(cfg model.Config) error {
	if cfg.Trials < 0 {
		return fmt.Errorf("--trials must be >= 0")
	}
	if cfg.Width <= 0 {
		return fmt.Errorf("--width must be > 0")
	}
	if cfg.Height <= 0 {
		return fmt.Errorf("--height must be > 0")
	}
	if cfg.Hold <= 0 {
		return fmt.Errorf("--hold must be > 0")
	}
	if cfg.MinDistance < 0 {
		return fmt.Errorf("--min-distance must be >= 0")
	}
	if cfg.RadiusMin <= 0 {
		return fmt.Errorf("--radius-min must be > 0")
	}
	if cfg.RadiusMax < cfg.RadiusMin {
		return fmt.Errorf("--radius-max must be >= --radius-min")
	}
	if 2*cfg.RadiusMax > cfg.Width || 2*cfg.RadiusMax > cfg.Height {
		return fmt.Errorf("--radius-max must fit the canvas")
	}
	if cfg.FPS <= 0 {
		return fmt.Errorf("--fps must be > 0")
	}
	if strings.TrimSpace(cfg.OutDir) == "" {
		return fmt.Errorf("--out-dir must not be empty")
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
