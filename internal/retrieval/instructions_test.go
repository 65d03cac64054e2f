package retrieval

import (
	"strings"
	"testing"

	"school-assistant/internal/domain/model"
)

func TestClassifyAndInstruction(t *testing.T) {
	nonEmpty := model.RetrievalPlan{Searches: []model.Search{{SourceName: "SISWA"}}}
	subset := NewSubset()
	subset.Add("SISWA", "Nama\nBudi\n")
	subset.Add("GURU", "Nama\nPak Ali\n")

	if Classify(model.RetrievalPlan{}, subset) != OutcomeOutOfScope {
		t.Fatalf("empty plan must be out of scope")
	}
	if Classify(nonEmpty, NewSubset()) != OutcomeNoMatch {
		t.Fatalf("empty subset must be no match")
	}
	if Classify(nonEmpty, subset) != OutcomeData {
		t.Fatalf("non-empty subset must be data")
	}

	data := AnswerInstruction(OutcomeData, "q", "SMAN 11 Makassar", subset)
	if !strings.Contains(data, `Data: {"SISWA":"Nama\nBudi\n","GURU":"Nama\nPak Ali\n"}`) {
		t.Fatalf("data instruction must embed the subset in plan order: %s", data)
	}
	if !strings.Contains(data, "untuk SMAN 11 Makassar") || !strings.Contains(data, "[CHART_DATA]") {
		t.Fatalf("data instruction missing school name or chart guidance")
	}

	none := AnswerInstruction(OutcomeNoMatch, "Siapa Zaki?", "", nil)
	if !strings.Contains(none, "tidak ditemukan") || strings.Contains(none, "Data:") {
		t.Fatalf("no-match instruction = %s", none)
	}
	oos := AnswerInstruction(OutcomeOutOfScope, "Cuaca besok?", "", nil)
	if !strings.Contains(oos, "di luar lingkup") {
		t.Fatalf("out-of-scope instruction = %s", oos)
	}
}

func TestExtractCharts(t *testing.T) {
	text := `Tentu, ini grafiknya: [CHART_DATA]{"type":"pie","title":"Gender","data":{"labels":["L","P"],"datasets":[{"label":"Siswa","data":[10,12],"backgroundColor":["#111","#222"]}]}}[/CHART_DATA]
dan [CHART_DATA]not json[/CHART_DATA] serta [CHART_DATA]{"type":"line","title":"x","data":{}}[/CHART_DATA]
[CHART_DATA]
` + "```json\n" + `{"type":"BAR","title":"Per kelas","data":{"labels":["X 1"],"datasets":[{"label":"n","data":[30]}]}}` + "\n```\n" + `[/CHART_DATA]`

	charts := ExtractCharts(text)
	if len(charts) != 2 {
		t.Fatalf("charts = %d, want 2", len(charts))
	}
	if charts[0].Type != "pie" || charts[0].Data.Datasets[0].Data[1] != 12 {
		t.Fatalf("first chart = %+v", charts[0])
	}
	if charts[1].Type != "bar" || charts[1].Title != "Per kelas" {
		t.Fatalf("second chart = %+v", charts[1])
	}

	plain := ReplaceCharts(text, func(c Chart) string { return "<" + c.Title + ">" })
	if !strings.Contains(plain, "<Gender>") || strings.Contains(plain, "CHART_DATA") {
		t.Fatalf("ReplaceCharts = %q", plain)
	}
}
