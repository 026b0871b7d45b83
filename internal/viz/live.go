package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/episim/internal/config"
	"github.com/san-kum/episim/internal/history"
	"github.com/san-kum/episim/internal/sim"
)

const (
	tickInterval    = time.Second / 30
	chartWidth      = 40
	chartHeight     = 8
	sparkWidth      = 40
	maxStepsPerTick = 20
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// param is one live-editable configuration value.
type param struct {
	label    string
	step     float64
	min, max float64
	get      func(*config.Config) float64
	set      func(*config.Config, float64)
}

var liveParams = []param{
	{"beta", 0.01, 0, 5,
		func(c *config.Config) float64 { return c.Beta },
		func(c *config.Config, v float64) { c.Beta = v }},
	{"days infectious", 1, 1, 90,
		func(c *config.Config) float64 { return c.DaysInfectious() },
		func(c *config.Config, v float64) { c.SetDaysInfectious(v) }},
	{"mu", 0.001, 0, 1,
		func(c *config.Config) float64 { return c.Mu },
		func(c *config.Config, v float64) { c.Mu = v }},
	{"vaccine eff. %", 5, 0, 100,
		func(c *config.Config) float64 { return c.VaccineEfficacy },
		func(c *config.Config, v float64) { c.VaccineEfficacy = v }},
	{"coverage %", 5, 0, 100,
		func(c *config.Config) float64 { return c.VaxCoverage },
		func(c *config.Config, v float64) { c.VaxCoverage = v }},
	{"vax rate %/day", 0.1, 0, 10,
		func(c *config.Config) float64 { return c.VaxRate },
		func(c *config.Config, v float64) { c.VaxRate = v }},
	{"mutation", 0.001, 0, 1,
		func(c *config.Config) float64 { return c.MutationRate },
		func(c *config.Config, v float64) { c.MutationRate = v }},
	{"N", 100, 2, 10000,
		func(c *config.Config) float64 { return float64(c.N) },
		func(c *config.Config, v float64) { c.N = int(v) }},
	{"I0", 1, 0, 10000,
		func(c *config.Config) float64 { return float64(c.I0) },
		func(c *config.Config, v float64) { c.I0 = int(v) }},
	{"R0 init", 10, 0, 10000,
		func(c *config.Config) float64 { return float64(c.R0Init) },
		func(c *config.Config, v float64) { c.R0Init = int(v) }},
	{"dt", 0.1, 0.1, 5,
		func(c *config.Config) float64 { return c.Dt },
		func(c *config.Config, v float64) { c.Dt = v }},
	{"seed", 1, 0, math.MaxUint32,
		func(c *config.Config) float64 { return float64(c.Seed) },
		func(c *config.Config, v float64) { c.Seed = uint32(v) }},
}

// Model is the live view. It owns one simulator and the user-facing config
// it was built from.
type Model struct {
	sim          *sim.Simulator
	cfg          *config.Config
	initial      config.Config
	running      bool
	selected     int
	stepsPerTick int
	status       string
	showHelp     bool
}

// NewModel builds a simulator from cfg and starts in the running state.
func NewModel(cfg *config.Config) Model {
	c := *cfg
	return Model{
		sim:          sim.New(c.Sim()),
		cfg:          &c,
		initial:      c,
		running:      true,
		stepsPerTick: 1,
	}
}

func (m Model) Simulator() *sim.Simulator { return m.sim }
func (m Model) Config() config.Config     { return *m.cfg }
func (m Model) Running() bool             { return m.running }

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.togglePause()
		case "r":
			m.reset()
		case "[":
			m.scrub(-1)
		case "]":
			m.scrub(1)
		case "{":
			m.scrub(-10)
		case "}":
			m.scrub(10)
		case "b":
			m.branch(false)
		case "v":
			m.branch(true)
		case "tab":
			m.selected = (m.selected + 1) % len(liveParams)
		case "shift+tab":
			m.selected = (m.selected + len(liveParams) - 1) % len(liveParams)
		case "up", "k":
			m.adjustParam(1)
		case "down", "j":
			m.adjustParam(-1)
		case "c":
			if m.cfg.Contacts == 6 {
				m.cfg.Contacts = 4
			} else {
				m.cfg.Contacts = 6
			}
			m.apply()
		case "s":
			m.cfg.Stochastic = !m.cfg.Stochastic
			m.apply()
		case "a":
			m.cfg.AutoStop = !m.cfg.AutoStop
			m.apply()
		case "p":
			m.nextPreset()
		case "+", "=":
			m.stepsPerTick = min(maxStepsPerTick, m.stepsPerTick+1)
		case "-", "_":
			m.stepsPerTick = max(1, m.stepsPerTick-1)
		case "t":
			NextTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

// advance steps the simulation, forking first if a past step is viewed.
func (m *Model) advance() {
	if m.sim.Resume() {
		m.status = "branched"
	}
	for i := 0; i < m.stepsPerTick; i++ {
		if _, halt := m.sim.Step(); halt {
			m.running = false
			m.status = "auto-stopped"
			return
		}
	}
}

func (m *Model) togglePause() {
	if m.running {
		m.running = false
		return
	}
	if m.sim.Resume() {
		m.status = "branched"
	}
	m.running = true
}

// scrub moves the view through history. Moving past the last step returns
// to live view.
func (m *Model) scrub(dir int) {
	hist := m.sim.History()
	n := hist.Len()
	if n == 0 {
		return
	}
	idx, viewing := hist.View()
	if !viewing {
		idx = n - 1
		m.running = false
	}
	idx = max(0, idx+dir)
	if idx >= n {
		m.sim.ViewLive()
		return
	}
	m.sim.SetView(idx)
}

func (m *Model) branch(reassign bool) {
	if m.sim.Branch(reassign) {
		m.status = sim.Branched.String()
		if reassign {
			m.status = sim.BranchedWithVaccination.String()
		}
	}
}

func (m *Model) adjustParam(dir float64) {
	p := liveParams[m.selected]
	v := p.get(m.cfg) + dir*p.step
	v = math.Round(v/p.step) * p.step
	v = math.Max(p.min, math.Min(p.max, v))
	p.set(m.cfg, v)
	m.apply()
}

func (m *Model) nextPreset() {
	names := config.ListPresets()
	next := names[0]
	for i, name := range names {
		if name == m.cfg.Scenario {
			next = names[(i+1)%len(names)]
			break
		}
	}
	m.cfg.ApplyPreset(next)
	m.apply()
}

func (m *Model) apply() {
	change := m.sim.UpdateParams(m.cfg.Sim())
	if change != sim.NoChange {
		m.status = change.String()
	}
}

// reset restores the initial configuration and rebuilds the run.
func (m *Model) reset() {
	*m.cfg = m.initial
	m.sim.Initialize(m.cfg.Sim())
	m.status = sim.Reinitialized.String()
}

func (m Model) statusLine(st styles) string {
	hist := m.sim.History()
	if idx, viewing := hist.View(); viewing {
		t := math.NaN()
		if row, ok := hist.Row(idx); ok {
			t = row.T
		}
		return st.replay.Render(fmt.Sprintf("VIEW %d/%d (t=%.1f)", idx+1, hist.Len(), t))
	}
	switch {
	case m.running:
		return st.running.Render(fmt.Sprintf("RUNNING t=%.1f x%d", m.sim.Time(), m.stepsPerTick))
	case m.sim.Halted():
		return st.paused.Render(fmt.Sprintf("STOPPED t=%.1f", m.sim.Time()))
	default:
		return st.paused.Render(fmt.Sprintf("PAUSED t=%.1f", m.sim.Time()))
	}
}

// viewedRows returns the series up to and including the viewed step.
func (m Model) viewedRows() []history.Row {
	hist := m.sim.History()
	rows := hist.Rows()
	if idx, ok := hist.Viewed(); ok {
		rows = rows[:idx+1]
	}
	return rows
}

// View renders the TUI interface.
func (m Model) View() string {
	theme := CurrentTheme
	st := newStyles(theme)
	pop := m.sim.Population()
	snap := m.sim.ViewedSnapshot()
	counts := snap.Counts()
	n := max(1, len(snap))

	gridView := st.grid.Render(RenderGrid(snap, pop.Cols, pop.Rows, theme))

	var s strings.Builder
	title := "EPISIM"
	if m.cfg.Scenario != "" {
		title += " · " + strings.ToUpper(m.cfg.Scenario)
	}
	s.WriteString(st.header.Render(title) + "\n")
	s.WriteString(m.statusLine(st))
	if m.status != "" {
		s.WriteString("  " + st.label.UnsetWidth().Render(m.status))
	}
	s.WriteString("\n\n")

	compartments := []struct {
		name  string
		count int
		color lipgloss.Color
	}{
		{"S", counts.S, theme.Susceptible},
		{"E", counts.E, theme.Exposed},
		{"I", counts.I, theme.Infectious},
		{"R", counts.R, theme.Recovered},
		{"D", counts.D, theme.Dead},
	}
	for _, c := range compartments {
		bar := ProgressBar(float64(c.count)/float64(n), 20, lipgloss.NewStyle().Foreground(c.color))
		s.WriteString(fmt.Sprintf("%s %s %5d\n", c.name, bar, c.count))
	}
	s.WriteString(st.label.Render("vaccinated") +
		st.value.Render(fmt.Sprintf("%d (%d effective)", counts.Vaccinated, counts.VaccineEffective)) + "\n")

	rows := m.viewedRows()
	if len(rows) > 1 {
		series := [][]float64{
			history.Series(rows, func(r history.Row) float64 { return float64(r.S) }),
			history.Series(rows, func(r history.Row) float64 { return float64(r.E) }),
			history.Series(rows, func(r history.Row) float64 { return float64(r.I) }),
			history.Series(rows, func(r history.Row) float64 { return float64(r.R) }),
			history.Series(rows, func(r history.Row) float64 { return float64(r.D) }),
		}
		chart := asciigraph.PlotMany(series,
			asciigraph.Height(chartHeight),
			asciigraph.Width(chartWidth),
			asciigraph.SeriesColors(asciigraph.Blue, asciigraph.Yellow, asciigraph.Red, asciigraph.Green, asciigraph.Gray),
			asciigraph.Caption("S E I R D"))
		s.WriteString(st.graph.Render(chart) + "\n")

		onsets := history.Series(rows, func(r history.Row) float64 { return float64(r.Onsets) })
		s.WriteString(st.label.Render("onsets") + SparklineChart(onsets, sparkWidth-16, st.sparkHi, st.sparkLow) + "\n")
	}

	s.WriteString("\n")
	for _, f := range m.sim.Metrics().Fields() {
		s.WriteString(st.label.Render(f.Label) + st.value.Render(f.Value) + "\n")
	}

	s.WriteString("\nPARAMETERS\n")
	for i, p := range liveParams {
		line := fmt.Sprintf("%-16s %g", p.label, p.get(m.cfg))
		if i == m.selected {
			s.WriteString(st.active.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + st.value.Render(line) + "\n")
		}
	}
	toggles := fmt.Sprintf("contacts %d  stochastic %v  auto-stop %v", m.cfg.Contacts, m.cfg.Stochastic, m.cfg.AutoStop)
	s.WriteString("  " + st.value.Render(toggles) + "\n")

	s.WriteString(st.help.Render("SP:Pause [ ]:Scrub B:Branch R:Reset\nTab ↑↓:Tune P:Preset T:Theme ?:Help Q:Quit"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, gridView, st.stats.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════════╗
║            KEYBOARD SHORTCUTS            ║
╠══════════════════════════════════════════╣
║  Space    - Pause/Resume (forks if past) ║
║  [ ]      - View previous/next step      ║
║  { }      - Jump ten steps               ║
║  B        - Fork at the viewed step      ║
║  V        - Fork and revaccinate         ║
║  Tab      - Cycle parameters             ║
║  Up/K     - Increase parameter           ║
║  Down/J   - Decrease parameter           ║
║  C / S / A - Contacts, stochastic, stop  ║
║  P        - Next scenario preset         ║
║  + / -    - Steps per frame              ║
║  R        - Reset                        ║
║  T        - Cycle themes                 ║
║  Q        - Quit                         ║
╚══════════════════════════════════════════╝`

// Run starts the live view in the alternate screen.
func Run(cfg *config.Config) error {
	_, err := tea.NewProgram(NewModel(cfg), tea.WithAltScreen()).Run()
	return err
}
