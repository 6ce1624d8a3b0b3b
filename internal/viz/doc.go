// Package viz renders goal descriptions and cost breakdowns for the terminal
// with lipgloss. Colors come from a [Theme]; [Description] and [Breakdown]
// use the default neon theme.
package viz
