package retrieval

import (
	"encoding/json"
	"regexp"
	"strings"
)

const (
	chartOpen  = "[CHART_DATA]"
	chartClose = "[/CHART_DATA]"
)

var reChartBlock = regexp.MustCompile(`(?s)\[CHART_DATA\](.*?)\[/CHART_DATA\]`)

type ChartDataset struct {
	Label           string          `json:"label"`
	Data            []float64       `json:"data"`
	BackgroundColor json.RawMessage `json:"backgroundColor,omitempty"`
}

type ChartData struct {
	Labels   []string       `json:"labels"`
	Datasets []ChartDataset `json:"datasets"`
}

// Chart is one visualization block embedded in an answer.
type Chart struct {
	Type  string    `json:"type"` // pie | bar
	Title string    `json:"title"`
	Data  ChartData `json:"data"`
}

// ExtractCharts returns every valid chart block in text, in order. Blocks with
// invalid JSON or an unknown type are skipped.
func ExtractCharts(text string) []Chart {
	var out []Chart
	for _, m := range reChartBlock.FindAllStringSubmatch(text, -1) {
		body := StripCodeFence(m[1])
		var c Chart
		if err := json.Unmarshal([]byte(body), &c); err != nil {
			continue
		}
		c.Type = strings.ToLower(strings.TrimSpace(c.Type))
		if c.Type != "pie" && c.Type != "bar" {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ReplaceCharts returns text with each chart block replaced by render(chart).
// Invalid blocks are removed.
func ReplaceCharts(text string, render func(Chart) string) string {
	return reChartBlock.ReplaceAllStringFunc(text, func(block string) string {
		charts := ExtractCharts(block)
		if len(charts) == 0 {
			return ""
		}
		return render(charts[0])
	})
}
