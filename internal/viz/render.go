package viz

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/trajcost/internal/goal"
	"github.com/san-kum/trajcost/internal/problem"
)

const sparkWidth = 32

var defaultRenderer = NewRenderer(ThemeNeon)

func Description(g *goal.ControlGoal) string { return defaultRenderer.Description(g) }
func Breakdown(b *problem.Breakdown) string  { return defaultRenderer.Breakdown(b) }

// Description shows the goal settings and, once bound, the bound controls in
// the goal's own description format.
func (r *Renderer) Description(g *goal.ControlGoal) string {
	norm := "off"
	if g.DivideByDisplacement() {
		norm = "mass-center displacement"
	}

	var lines []string
	lines = append(lines, r.Header.Render("goal "+g.Name()))
	lines = append(lines, r.field("exponent", fmt.Sprintf("%g", g.Exponent())))
	lines = append(lines, r.field("normalize", norm))

	var buf bytes.Buffer
	if err := g.Describe(&buf); err != nil {
		lines = append(lines, r.Warn.Render("not bound: "+err.Error()))
		return r.Panel.Render(strings.Join(lines, "\n"))
	}
	if buf.Len() == 0 {
		lines = append(lines, r.Subtle.Render("no controls bound"))
	} else {
		lines = append(lines, strings.TrimRight(buf.String(), "\n"))
	}
	if excluded := excludedControls(g); len(excluded) > 0 {
		lines = append(lines, r.Subtle.Render("excluded: "+strings.Join(excluded, ", ")))
	}
	return r.Panel.Render(strings.Join(lines, "\n"))
}

func excludedControls(g *goal.ControlGoal) []string {
	var out []string
	for _, w := range g.Weights().Entries() {
		if w.Weight == 0 {
			out = append(out, w.Name)
		}
	}
	return out
}

// Breakdown shows each term's cost, its share of the total and a sparkline of
// its integrand over time.
func (r *Renderer) Breakdown(b *problem.Breakdown) string {
	var sections []string
	for _, t := range b.Terms {
		share := 0.0
		if b.Total != 0 {
			share = math.Abs(t.Weighted / b.Total)
		}
		lines := []string{
			r.Header.Render(t.Name),
			r.field("integral", fmt.Sprintf("%.6g", t.Integral)),
			r.field("cost", fmt.Sprintf("%.6g", t.Cost)),
			r.field("weighted", fmt.Sprintf("%.6g  (x%g)", t.Weighted, t.Weight)),
			r.field("share", r.ShareBar(share, 20)+fmt.Sprintf(" %5.1f%%", 100*share)),
		}
		if len(t.Integrand) > 0 {
			lines = append(lines,
				r.field("integrand", r.Sparkline(t.Integrand, sparkWidth)),
				r.field("", r.Subtle.Render(fmt.Sprintf("mean %.4g  max %.4g  p95 %.4g",
					t.Summary.Mean, t.Summary.Max, t.Summary.P95))),
			)
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	footer := strings.Join([]string{
		r.field("nodes", fmt.Sprintf("%d", b.Nodes)),
		r.field("peak |u|", fmt.Sprintf("%.4g", b.PeakControl)),
		r.field("total", fmt.Sprintf("%.6g", b.Total)),
	}, "\n")
	sections = append(sections, footer)

	return r.Panel.Render(lipgloss.JoinVertical(lipgloss.Left, strings.Join(sections, "\n\n")))
}

func (r *Renderer) field(label, value string) string {
	return r.Label.Render(fmt.Sprintf("%-10s", label)) + " " + r.Value.Render(value)
}
