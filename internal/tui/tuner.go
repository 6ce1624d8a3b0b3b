// Package tui is an interactive weight tuner: it re-scores one recorded
// trajectory every time a weight, the exponent or normalization changes.
package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/trajcost/internal/dynamo"
	"github.com/san-kum/trajcost/internal/goal"
	"github.com/san-kum/trajcost/internal/integrators"
	"github.com/san-kum/trajcost/internal/model"
	"github.com/san-kum/trajcost/internal/problem"
	"github.com/san-kum/trajcost/internal/viz"
)

const (
	weightStep   = 0.5
	exponentStep = 0.5
)

type Settings struct {
	Name                 string
	Exponent             float64
	DivideByDisplacement bool
	Weights              *goal.WeightSet
	Rule                 integrators.Rule
	Theme                string
}

type Tuner struct {
	plant *model.Plant
	traj  *dynamo.Trajectory
	name  string
	rule  integrators.Rule

	channels []string
	extra    []goal.Weight // configured for names the plant lacks
	weights  []float64
	stash    []float64 // weight to restore when a channel is re-included
	exponent float64
	divide   bool
	cursor   int

	bound     int
	breakdown *problem.Breakdown
	err       error

	r      *viz.Renderer
	width  int
	height int
}

// NewTuner scores traj once with s before returning. Weights in s for names
// the plant does not have stay in every goal the tuner builds, so binding
// keeps failing until the configuration is fixed.
func NewTuner(plant *model.Plant, traj *dynamo.Trajectory, s Settings) Tuner {
	names := plant.ControlNames()
	m := Tuner{
		plant:    plant,
		traj:     traj,
		name:     s.Name,
		rule:     s.Rule,
		channels: names,
		weights:  make([]float64, len(names)),
		stash:    make([]float64, len(names)),
		exponent: s.Exponent,
		divide:   s.DivideByDisplacement,
		r:        viz.NewRenderer(viz.GetTheme(s.Theme)),
		width:    80,
		height:   24,
	}
	if m.name == "" {
		m.name = "control_effort"
	}
	for i, n := range names {
		m.weights[i] = goal.DefaultWeight
		if w, ok := s.Weights.Get(n); ok {
			m.weights[i] = w
		}
		m.stash[i] = goal.DefaultWeight
	}
	for _, w := range s.Weights.Entries() {
		if !slices.Contains(names, w.Name) {
			m.extra = append(m.extra, w)
		}
	}
	m.evaluate()
	return m
}

func (m Tuner) Init() tea.Cmd { return nil }

func (m Tuner) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Tuner) handleKey(msg tea.KeyMsg) (Tuner, tea.Cmd) {
	changed := true
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		changed = false
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		changed = false
		if m.cursor < len(m.channels)-1 {
			m.cursor++
		}
	case "+", "=", "right", "l":
		m.adjust(weightStep)
	case "-", "left", "h":
		m.adjust(-weightStep)
	case "0":
		m.toggleExcluded()
	case "e":
		m.exponent += exponentStep
	case "E":
		m.exponent -= exponentStep
	case "d":
		m.divide = !m.divide
	default:
		changed = false
	}
	if changed {
		m.evaluate()
	}
	return m, nil
}

func (m *Tuner) adjust(delta float64) {
	if len(m.channels) == 0 {
		return
	}
	m.weights[m.cursor] += delta
	if m.weights[m.cursor] != 0 {
		m.stash[m.cursor] = m.weights[m.cursor]
	}
}

func (m *Tuner) toggleExcluded() {
	if len(m.channels) == 0 {
		return
	}
	i := m.cursor
	if m.weights[i] == 0 {
		m.weights[i] = m.stash[i]
		return
	}
	m.stash[i] = m.weights[i]
	m.weights[i] = 0
}

// Goal builds a fresh, unbound goal from the tuner's current settings.
func (m Tuner) Goal() *goal.ControlGoal {
	g := goal.NewControlGoal(m.name)
	g.SetExponent(m.exponent)
	g.SetDivideByDisplacement(m.divide)
	for i, n := range m.channels {
		g.SetWeightForControl(n, m.weights[i])
	}
	for _, w := range m.extra {
		g.SetWeightForControl(w.Name, w.Weight)
	}
	return g
}

// evaluate re-binds and re-scores synchronously, so a binding is never read
// while another is being built.
func (m *Tuner) evaluate() {
	g := m.Goal()
	p := problem.New(problem.WithRule(m.rule))
	p.AddGoal(g, 1)

	m.breakdown = nil
	m.bound = 0
	if m.err = p.Initialize(m.plant); m.err != nil {
		return
	}
	m.bound = len(g.Bound())
	m.breakdown, m.err = p.Evaluate(context.Background(), m.traj)
}

func (m Tuner) Total() (float64, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.breakdown.Total, nil
}

func (m Tuner) View() string {
	var b strings.Builder

	b.WriteString(m.r.Header.Render("tune " + m.name))
	b.WriteString("\n\n")

	for i, n := range m.channels {
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		line := fmt.Sprintf("%s%-16s %6.2f", cursor, n, m.weights[i])
		switch {
		case m.weights[i] == 0:
			b.WriteString(m.r.Subtle.Render(line + "  excluded"))
		case i == m.cursor:
			b.WriteString(m.r.Value.Render(line))
		default:
			b.WriteString(m.r.Label.Render(line))
		}
		b.WriteString("\n")
	}

	norm := "off"
	if m.divide {
		norm = "on"
	}
	b.WriteString("\n")
	b.WriteString(m.r.Label.Render(fmt.Sprintf("exponent %.2f   normalize %s   bound %d/%d",
		m.exponent, norm, m.bound, len(m.channels))))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(m.r.Warn.Render(m.err.Error()))
	} else {
		t := m.breakdown.Terms[0]
		b.WriteString(m.r.Value.Render(fmt.Sprintf("cost %.6g", m.breakdown.Total)))
		b.WriteString("  ")
		b.WriteString(m.r.Subtle.Render(fmt.Sprintf("integral %.6g", t.Integral)))
		b.WriteString("\n")
		b.WriteString(m.r.Sparkline(t.Integrand, max(10, min(60, m.width-4))))
	}
	b.WriteString("\n\n")
	b.WriteString(m.r.Subtle.Render("↑↓ select  +/- weight  0 exclude  e/E exponent  d normalize  q quit"))
	return b.String()
}

// Run opens the tuner full screen and returns the goal as it was when the
// user quit.
func Run(plant *model.Plant, traj *dynamo.Trajectory, s Settings) (*goal.ControlGoal, error) {
	final, err := tea.NewProgram(NewTuner(plant, traj, s), tea.WithAltScreen()).Run()
	if err != nil {
		return nil, err
	}
	return final.(Tuner).Goal(), nil
}
