package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Renderer holds the styles derived from one theme.
type Renderer struct {
	Theme Theme

	Header lipgloss.Style
	Panel  lipgloss.Style
	Label  lipgloss.Style
	Value  lipgloss.Style
	Subtle lipgloss.Style
	Warn   lipgloss.Style
	low    lipgloss.Style
	mid    lipgloss.Style
	high   lipgloss.Style
}

func NewRenderer(t Theme) *Renderer {
	return &Renderer{
		Theme: t,
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Title).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(t.Muted),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Muted).
			Padding(0, 1),
		Label:  lipgloss.NewStyle().Foreground(t.Label),
		Value:  lipgloss.NewStyle().Foreground(t.Value).Bold(true),
		Subtle: lipgloss.NewStyle().Foreground(t.Muted),
		Warn:   lipgloss.NewStyle().Foreground(t.Warning).Bold(true),
		low:    lipgloss.NewStyle().Foreground(t.Low),
		mid:    lipgloss.NewStyle().Foreground(t.Mid),
		high:   lipgloss.NewStyle().Foreground(t.High),
	}
}

func (r *Renderer) level(norm float64) lipgloss.Style {
	switch {
	case norm > 0.7:
		return r.high
	case norm > 0.3:
		return r.mid
	}
	return r.low
}

// ShareBar draws frac of width filled, colored by how large frac is.
func (r *Renderer) ShareBar(frac float64, width int) string {
	filled := int(frac * float64(width))
	filled = max(0, min(width, filled))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return r.level(frac).Render(bar)
}

// Sparkline samples values down to width cells.
func (r *Renderer) Sparkline(values []float64, width int) string {
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	step := max(1, len(values)/width)

	var b strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - lo) / rng
		idx := max(0, min(len(chars)-1, int(norm*float64(len(chars)-1))))
		b.WriteString(r.level(norm).Render(string(chars[idx])))
	}
	return b.String()
}
