// Package ui provides the Bubble Tea live fasting timer.
package ui

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hyperengineering/fastline/internal/fasting"
	"github.com/hyperengineering/fastline/internal/prefs"
	"github.com/hyperengineering/fastline/internal/types"
)

// Engine is the part of the fasting engine the timer drives.
type Engine interface {
	Tick(now time.Time) fasting.Progress
	Status() types.FastingStatus
	TargetHours() int
	EndsAt() (time.Time, bool)
	Start(ctx context.Context, targetHours int) (types.FastingLog, error)
	End(ctx context.Context) (types.FastingLog, error)
	AnnotateMood(ctx context.Context, mood string) (types.FastingLog, error)
	Acknowledge(ctx context.Context)
	SetTarget(hours int) error
}

// Mood is one selectable post-fast mood tag.
type Mood struct {
	Tag   string
	Label string
}

// Moods are offered in key order 1-5.
var Moods = []Mood{
	{Tag: "great", Label: "Great"},
	{Tag: "good", Label: "Good"},
	{Tag: "okay", Label: "Okay"},
	{Tag: "tired", Label: "Tired"},
	{Tag: "hungry", Label: "Hungry"},
}

// BannerDuration is how long the completion banner stays up.
const BannerDuration = 10 * time.Second

// Options configures the timer.
type Options struct {
	Context   context.Context
	Engine    Engine
	Now       func() time.Time
	Tick      time.Duration
	ThemeName string
	// PrefsPath, when set, receives preset and theme changes.
	PrefsPath string
	Presets   []int
}

// Model is the timer state for Bubble Tea.
type Model struct {
	ctx       context.Context
	engine    Engine
	now       func() time.Time
	tick      time.Duration
	prefsPath string
	presets   []int
	keys      keyMap

	theme Theme
	bar   progress.Model
	width int

	progress    fasting.Progress
	lastNow     time.Time
	confirmEnd  bool
	celebrated  bool
	bannerUntil time.Time
	mood        string
	flash       string
}

// New creates a timer model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	tick := opts.Tick
	if tick <= 0 {
		tick = time.Second
	}
	presets := opts.Presets
	if len(presets) == 0 {
		presets = prefs.Presets
	}
	theme := GetTheme(opts.ThemeName)

	m := Model{
		ctx:       ctx,
		engine:    opts.Engine,
		now:       now,
		tick:      tick,
		prefsPath: opts.PrefsPath,
		presets:   presets,
		keys:      DefaultKeyMap(),
		theme:     theme,
		bar:       newBar(theme),
	}
	m.refresh(now())
	// A fast restored past its target has already been celebrated.
	m.celebrated = m.progress.Percent >= 100
	return m
}

// Run starts the timer and blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	if opts.Engine == nil {
		return fmt.Errorf("ui requires a fasting engine")
	}
	if opts.Context == nil {
		opts.Context = ctx
	}
	_, err := tea.NewProgram(New(opts), tea.WithContext(ctx), tea.WithAltScreen()).Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

func newBar(t Theme) progress.Model {
	return progress.New(
		progress.WithGradient(t.BarFrom, t.BarTo),
		progress.WithoutPercentage(),
		progress.WithWidth(40),
	)
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tickCmd(m.tick)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = min(max(msg.Width-8, 10), 60)
		return m, nil

	case tickMsg:
		m.refresh(time.Time(msg))
		return m, tickCmd(m.tick)
	}
	return m, nil
}

// refresh recomputes progress and raises the banner on the first crossing
// of the target.
func (m *Model) refresh(now time.Time) {
	m.lastNow = now
	m.progress = m.engine.Tick(now)

	switch m.progress.Status {
	case types.StatusRunning:
		if m.progress.Percent >= 100 && !m.celebrated {
			m.celebrated = true
			m.bannerUntil = now.Add(BannerDuration)
		}
	case types.StatusIdle:
		m.celebrated = false
		m.mood = ""
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.flash = ""

	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	if m.confirmEnd {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			m.confirmEnd = false
			m.endFast()
		case key.Matches(msg, m.keys.Cancel):
			m.confirmEnd = false
		}
		return m, nil
	}

	switch m.engine.Status() {
	case types.StatusIdle:
		switch {
		case key.Matches(msg, m.keys.Start):
			m.startFast()
		case key.Matches(msg, m.keys.Preset):
			m.cyclePreset()
		}
	case types.StatusRunning:
		if key.Matches(msg, m.keys.End) {
			m.confirmEnd = true
		}
	case types.StatusCompleted:
		switch {
		case key.Matches(msg, m.keys.Mood):
			m.annotate(msg.String())
		case key.Matches(msg, m.keys.Dismiss):
			m.engine.Acknowledge(m.ctx)
			m.bannerUntil = time.Time{}
		}
	}

	if key.Matches(msg, m.keys.CycleTheme) {
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.bar = newBar(m.theme)
		m.savePrefs(func(p *prefs.Prefs) { p.Theme = m.theme.Name })
	}

	m.refresh(m.now())
	return m, nil
}

func (m *Model) startFast() {
	if _, err := m.engine.Start(m.ctx, m.engine.TargetHours()); err != nil {
		m.flash = err.Error()
	}
}

func (m *Model) endFast() {
	if _, err := m.engine.End(m.ctx); err != nil {
		m.flash = err.Error()
	}
}

func (m *Model) annotate(digit string) {
	i := int(digit[0] - '1')
	if i < 0 || i >= len(Moods) {
		return
	}
	if _, err := m.engine.AnnotateMood(m.ctx, Moods[i].Tag); err != nil {
		m.flash = err.Error()
		return
	}
	m.mood = Moods[i].Tag
}

func (m *Model) cyclePreset() {
	current := m.engine.TargetHours()
	next := m.presets[0]
	if i := slices.Index(m.presets, current); i >= 0 {
		next = m.presets[(i+1)%len(m.presets)]
	}
	if err := m.engine.SetTarget(next); err != nil {
		m.flash = err.Error()
		return
	}
	m.savePrefs(func(p *prefs.Prefs) { p.PresetHours = next })
}

func (m *Model) savePrefs(apply func(*prefs.Prefs)) {
	if m.prefsPath == "" {
		return
	}
	p, _ := prefs.Load(m.prefsPath)
	apply(&p)
	if err := prefs.Save(m.prefsPath, p); err != nil {
		slog.Warn("failed to save preferences",
			"component", "ui",
			"action", "save_prefs",
			"error", err,
		)
	}
}

// View implements tea.Model.
func (m Model) View() string {
	s := m.theme.Styles()
	p := m.progress
	var b strings.Builder

	b.WriteString(s.Title.Render(fmt.Sprintf("fastline · %dh fast", p.TargetHours)))
	b.WriteString("\n\n")

	switch p.Status {
	case types.StatusIdle:
		b.WriteString(s.MutedText.Render("Not fasting"))
		b.WriteString("\n")
		b.WriteString(s.Clock.Render(fasting.FormatHMS(p.TargetMs)))
		b.WriteString("\n")
	default:
		label := s.AccentText.Render("Fasting")
		if p.Status == types.StatusCompleted {
			label = s.SuccessText.Render("Completed")
		}
		b.WriteString(label)
		b.WriteString("\n")
		b.WriteString(s.Clock.Render(fasting.FormatHMS(p.ElapsedMs)))
		b.WriteString(s.MutedText.Render(" elapsed   "))
		b.WriteString(s.Clock.Render(fasting.FormatHMS(p.RemainingMs)))
		b.WriteString(s.MutedText.Render(" remaining"))
		b.WriteString("\n")
	}

	b.WriteString(m.bar.ViewAs(p.Percent / 100))
	b.WriteString(s.MutedText.Render(fmt.Sprintf(" %3.0f%%", p.Percent)))
	b.WriteString("\n")

	if chip := s.Milestone(p.Milestone); chip != "" {
		b.WriteString(chip)
		b.WriteString("\n")
	}
	if p.Status == types.StatusRunning {
		if end, ok := m.engine.EndsAt(); ok {
			b.WriteString(s.MutedText.Render("Ends " + fasting.FormatEndsAt(end.Local(), m.lastNow.Local())))
			b.WriteString("\n")
		}
	}

	if m.lastNow.Before(m.bannerUntil) {
		b.WriteString("\n")
		b.WriteString(s.Banner.Render(fmt.Sprintf("Goal reached! %dh fast complete", p.TargetHours)))
		b.WriteString("\n")
	}

	if p.Status == types.StatusCompleted {
		b.WriteString("\n")
		b.WriteString(m.renderMoods(s))
	}

	if m.confirmEnd {
		b.WriteString("\n")
		b.WriteString(s.WarningText.Render("End this fast now? (y/n)"))
		b.WriteString("\n")
	}
	if m.flash != "" {
		b.WriteString("\n")
		b.WriteString(s.DangerText.Render(m.flash))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(s.Help.Render(m.helpLine()))
	return b.String()
}

func (m Model) renderMoods(s Styles) string {
	var b strings.Builder
	b.WriteString(s.Text.Render("How do you feel?"))
	b.WriteString("\n")
	for i, mood := range Moods {
		item := fmt.Sprintf("%d %s", i+1, mood.Label)
		if mood.Tag == m.mood {
			item = s.SuccessText.Render("[" + item + "]")
		} else {
			item = s.MutedText.Render(item)
		}
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(item)
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) helpLine() string {
	var bindings []key.Binding
	switch m.progress.Status {
	case types.StatusIdle:
		bindings = []key.Binding{m.keys.Start, m.keys.Preset}
	case types.StatusRunning:
		bindings = []key.Binding{m.keys.End}
	case types.StatusCompleted:
		bindings = []key.Binding{m.keys.Mood, m.keys.Dismiss}
	}
	bindings = append(bindings, m.keys.CycleTheme, m.keys.Quit)

	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " · ")
}

// Messages

type tickMsg time.Time

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
