package main

import (
	"strings"
	"testing"
)

func TestRenderAnswer(t *testing.T) {
	in := "Berikut distribusinya:\n" +
		`[CHART_DATA]{"type":"pie","title":"Jenis Kelamin","data":{"labels":["L","P"],"datasets":[{"label":"Jumlah","data":[12,15.5]}]}}[/CHART_DATA]` +
		"\n[CHART_DATA]not json[/CHART_DATA]"

	out := renderAnswer(in)

	for _, want := range []string{"Berikut distribusinya:", "[PIE: Jenis Kelamin]", "L", "12", "15.50"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "CHART_DATA") {
		t.Errorf("chart markers left in output:\n%s", out)
	}
}
