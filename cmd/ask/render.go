package main

import (
	"fmt"
	"strings"

	"school-assistant/internal/retrieval"
)

func renderAnswer(text string) string {
	return strings.TrimSpace(retrieval.ReplaceCharts(text, renderChart))
}

// renderChart prints a chart as a titled list of label/value lines, one
// block per dataset.
func renderChart(c retrieval.Chart) string {
	var b strings.Builder
	title := c.Title
	if title == "" {
		title = "Grafik"
	}
	fmt.Fprintf(&b, "[%s: %s]\n", strings.ToUpper(c.Type), title)
	for _, ds := range c.Data.Datasets {
		if ds.Label != "" && len(c.Data.Datasets) > 1 {
			fmt.Fprintf(&b, "%s\n", ds.Label)
		}
		for i, label := range c.Data.Labels {
			if i >= len(ds.Data) {
				break
			}
			fmt.Fprintf(&b, "  %-24s %s\n", label, formatValue(ds.Data[i]))
		}
	}
	return b.String()
}

func formatValue(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
