// Package tui provides the Bubble Tea experiment interface.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"go.uber.org/zap"

	"github.com/verte-zerg/tuifitts/internal/model"
	"github.com/verte-zerg/tuifitts/internal/recorder"
	"github.com/verte-zerg/tuifitts/internal/trial"
)

type screen int

const (
	screenSetup screen = iota
	screenRunning
	screenDone
)

type tickMsg time.Time

// SourceFactory builds the target source for a session once the canvas is known.
type SourceFactory func(cfg model.Config) trial.TargetSource

// Options wires the experiment model.
type Options struct {
	Config model.Config
	// SkipSetup starts the session immediately with Config.Name, Config.Device
	// and Config.Trials.
	SkipSetup bool
	Source    SourceFactory
	Logger    *zap.Logger
	// Now defaults to time.Now and stamps session start and end.
	Now func() time.Time
}

// Outcome describes how the experiment ended.
type Outcome struct {
	Meta      model.SessionMeta
	Records   []model.TrialRecord
	Completed bool
	Err       error
}

// Model implements the Bubble Tea experiment UI.
type Model struct {
	cfg    model.Config
	source SourceFactory
	logger *zap.Logger
	now    func() time.Time

	screen screen
	form   setupForm

	width  int
	height int

	pointerCol int
	pointerRow int
	hasPointer bool
	dwelling   bool

	state    trial.State
	src      trial.TargetSource
	rec      *recorder.Recorder
	meta     model.SessionMeta
	outcome  Outcome
	finished bool
}

var (
	targetStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E0443E"))
	dwellStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0A020"))
	gridStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#3A3A3A"))
	titleStyle  = lipgloss.NewStyle().Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

// NewModel constructs the experiment model.
func NewModel(opts Options) *Model {
	m := &Model{
		cfg:    opts.Config,
		source: opts.Source,
		logger: opts.Logger,
		now:    opts.Now,
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.cfg.Hold <= 0 {
		m.cfg.Hold = trial.DefaultHold
	}
	if m.cfg.FPS <= 0 {
		m.cfg.FPS = 60
	}
	m.form = newSetupForm(m.cfg.Name, m.cfg.Device, m.cfg.Trials)
	if opts.SkipSetup {
		if m.cfg.Trials <= 0 {
			m.cfg.Trials = DefaultTrials
		}
		m.begin()
	}
	return m
}

// Outcome returns the result once the program has exited.
func (m *Model) Outcome() Outcome {
	return m.outcome
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	switch m.screen {
	case screenRunning:
		return m.tick()
	case screenDone:
		return tea.Quit
	}
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil
	case tickMsg:
		if m.screen != screenRunning {
			return m, nil
		}
		m.advance(time.Time(msg))
		if m.screen == screenDone {
			return m, tea.Quit
		}
		return m, m.tick()
	}
	if m.screen == screenSetup {
		return m, m.form.update(msg)
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	switch m.screen {
	case screenSetup:
		content := m.form.view()
		if m.width == 0 || m.height == 0 {
			return content
		}
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	case screenRunning:
		if m.width == 0 || m.height < 2 {
			return m.renderFooter()
		}
		style := targetStyle
		if m.dwelling {
			style = dwellStyle
		}
		body := m.viewport().render(m.state.Current, style, gridStyle)
		return body + "\n" + m.renderFooter()
	default:
		return ""
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.abort()
		return m, tea.Quit
	case "q":
		if m.screen != screenSetup {
			m.abort()
			return m, tea.Quit
		}
	}
	if m.screen != screenSetup {
		return m, nil
	}
	switch msg.String() {
	case "tab", "down":
		return m, m.form.focus(m.form.index + 1)
	case "shift+tab", "up":
		return m, m.form.focus(m.form.index - 1)
	case "enter":
		if m.form.index < len(m.form.inputs)-1 {
			return m, m.form.focus(m.form.index + 1)
		}
		name, device, trials, ok := m.form.submit()
		if !ok {
			return m, nil
		}
		m.cfg.Name = name
		m.cfg.Device = device
		m.cfg.Trials = trials
		m.begin()
		if m.screen == screenDone {
			return m, tea.Quit
		}
		return m, m.tick()
	}
	return m, m.form.update(msg)
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	v := m.viewport()
	if !v.valid() {
		return
	}
	m.pointerCol = clamp(msg.X, 0, v.cols-1)
	m.pointerRow = clamp(msg.Y, 0, v.rows-1)
	m.hasPointer = true
}

func (m *Model) begin() {
	startedAt := m.now()
	logPath := recorder.LogPath(m.cfg.OutDir, m.cfg.Name, m.cfg.Device, startedAt)
	rec, err := recorder.Create(logPath)
	if err != nil {
		m.logger.Error("failed to create session log", zap.String("path", logPath), zap.Error(err))
		m.outcome = Outcome{Err: err}
		m.screen = screenDone
		return
	}
	m.rec = rec
	m.meta = model.SessionMeta{
		Participant: m.cfg.Name,
		Device:      m.cfg.Device,
		Requested:   m.cfg.Trials,
		StartedAt:   startedAt,
		LogPath:     logPath,
		PlotPath:    recorder.PlotPath(logPath),
	}
	m.src = m.source(m.cfg)
	m.state = trial.Start(trial.Params{
		Requested:   m.cfg.Trials,
		Hold:        m.cfg.Hold,
		MinDistance: m.cfg.MinDistance,
	}, m.src)
	m.screen = screenRunning
	m.logger.Info("session started",
		zap.String("participant", m.cfg.Name),
		zap.String("device", m.cfg.Device),
		zap.Int("trials", m.cfg.Trials),
		zap.String("log", logPath),
	)
}

func (m *Model) advance(now time.Time) {
	v := m.viewport()
	if !m.hasPointer || !v.valid() {
		return
	}
	col := clamp(m.pointerCol, 0, v.cols-1)
	row := clamp(m.pointerRow, 0, v.rows-1)
	pointer := v.pointerAt(col, row, m.state.Current)
	next, ev := trial.Step(m.state, trial.Input{Pointer: pointer, Now: now}, m.src)
	m.state = next
	switch ev.Kind {
	case trial.EventDwellStarted:
		m.dwelling = true
	case trial.EventDwellReset:
		m.dwelling = false
	case trial.EventWarmup:
		m.dwelling = false
		m.logger.Debug("warm-up trial discarded")
	case trial.EventTrialRecorded:
		m.dwelling = false
		if err := m.rec.Record(*ev.Record); err != nil {
			m.logger.Error("failed to record trial", zap.Int("trial", ev.Trial), zap.Error(err))
			m.finish(false, err)
			return
		}
		m.logger.Debug("trial recorded",
			zap.Int("trial", ev.Trial),
			zap.Float64("id", ev.Record.ID),
			zap.Float64("time", ev.Record.MovementTime),
		)
	}
	if ev.Done {
		m.finish(true, nil)
	}
}

func (m *Model) abort() {
	if m.screen == screenRunning {
		m.logger.Info("session aborted", zap.Int("completed", m.state.Scored()))
		m.finish(false, nil)
		return
	}
	m.screen = screenDone
}

func (m *Model) finish(completed bool, err error) {
	if m.finished {
		return
	}
	m.finished = true
	m.screen = screenDone
	m.meta.EndedAt = m.now()
	if cerr := m.rec.Close(); cerr != nil && err == nil {
		err = cerr
	}
	m.outcome = Outcome{
		Meta:      m.meta,
		Records:   m.rec.Records(),
		Completed: completed,
		Err:       err,
	}
	if completed {
		m.logger.Info("session finished", zap.Int("trials", len(m.outcome.Records)))
	}
}

func (m *Model) tick() tea.Cmd {
	interval := time.Second / time.Duration(m.cfg.FPS)
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) viewport() viewport {
	return viewport{
		cols:    m.width,
		rows:    m.height - 1,
		canvasW: float64(m.cfg.Width),
		canvasH: float64(m.cfg.Height),
	}
}

// counter mirrors the on-screen trial counter: completed dwells capped at the
// requested count, so the warm-up advances it to 1.
func (m *Model) counter() string {
	done := m.state.Count
	if done > m.cfg.Trials {
		done = m.cfg.Trials
	}
	return fmt.Sprintf("Trial: %d/%d", done, m.cfg.Trials)
}

func (m *Model) renderFooter() string {
	segments := []string{m.counter(), fmt.Sprintf("%s · %s", m.cfg.Name, m.cfg.Device)}
	if m.dwelling {
		segments = append(segments, "hold…")
	}
	segments = append(segments, "quit: q")
	footer := strings.Join(segments, "  ")
	if m.width > 0 && runewidth.StringWidth(footer) > m.width {
		footer = runewidth.Truncate(footer, m.width, "…")
	}
	return footerStyle.Render(footer)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
