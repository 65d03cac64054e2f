package retrieval

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"school-assistant/internal/domain/model"
	"school-assistant/internal/domain/ports/adapter"
)

func TestParsePlan(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		ok       bool
		searches int
	}{
		{"plain object", `{"searches":[{"sheetName":"SISWA","filters":[{"column":"Rombel Saat Ini","value":"X 1"}]}]}`, true, 1},
		{"json fence", "```json\n{\"searches\":[{\"sheetName\":\"SISWA\",\"filters\":[]}]}\n```", true, 1},
		{"bare fence", "```\n{\"searches\":[]}\n```", true, 0},
		{"prose around", `Tentu! Berikut rencananya: {"searches":[{"sheetName":"GURU"}]} Semoga membantu.`, true, 1},
		{"top-level array", `[{"sheetName":"SISWA"},{"sheetName":"GURU","filters":[]}]`, true, 2},
		{"entries without a name dropped", `{"searches":[{"filters":[]},{"sheetName":"  "},{"sourceName":"GURU"}]}`, true, 1},
		{"garbage", `I cannot help with that.`, false, 0},
		{"empty", "", false, 0},
		{"broken json", `{"searches":[{"sheetName":"SISWA"`, false, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			plan, ok := ParsePlan(tc.raw)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if len(plan.Searches) != tc.searches {
				t.Fatalf("searches = %d, want %d (%+v)", len(plan.Searches), tc.searches, plan)
			}
		})
	}
}

func TestParsePlan_NumericValues(t *testing.T) {
	plan, ok := ParsePlan(`{"searches":[{"sheetName":"SISWA","filters":[{"column":"Angkatan","value":2024}]}]}`)
	if !ok || plan.Searches[0].Filters[0].Value != "2024" {
		t.Fatalf("plan = %+v ok=%v", plan, ok)
	}
}

type mockAI struct {
	GenerateJSONFunc func(ctx context.Context, req adapter.JSONRequest) (string, error)
}

func (m *mockAI) GenerateJSON(ctx context.Context, req adapter.JSONRequest) (string, error) {
	return m.GenerateJSONFunc(ctx, req)
}
func (m *mockAI) Chat(context.Context, adapter.ChatRequest) (string, error) { return "", nil }
func (m *mockAI) CountTokens(context.Context, string, string) (int, error)  { return 0, nil }

func TestPlanner_Plan(t *testing.T) {
	t.Run("unparseable output degrades to empty plan", func(t *testing.T) {
		p := NewPlanner(&mockAI{GenerateJSONFunc: func(context.Context, adapter.JSONRequest) (string, error) {
			return "Maaf, saya tidak mengerti.", nil
		}}, nil)
		plan, err := p.Plan(context.Background(), "gemini-2.5-flash", "halo", "{}")
		if err != nil || !plan.Empty() {
			t.Fatalf("plan=%+v err=%v", plan, err)
		}
	})

	t.Run("model error is returned", func(t *testing.T) {
		boom := errors.New("400 bad request")
		p := NewPlanner(&mockAI{GenerateJSONFunc: func(context.Context, adapter.JSONRequest) (string, error) {
			return "", boom
		}}, nil)
		if _, err := p.Plan(context.Background(), "m", "q", "{}"); !errors.Is(err, boom) {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("request carries question, schema and shape", func(t *testing.T) {
		var got adapter.JSONRequest
		p := NewPlanner(&mockAI{GenerateJSONFunc: func(_ context.Context, req adapter.JSONRequest) (string, error) {
			got = req
			return `{"searches":[{"sheetName":"SISWA"}]}`, nil
		}}, nil)
		plan, err := p.Plan(context.Background(), "gemini-2.5-pro", "Berapa siswa kelas X 1?", `{"SISWA":{"headers":["Nama"]}}`)
		if err != nil || len(plan.Searches) != 1 {
			t.Fatalf("plan=%+v err=%v", plan, err)
		}
		if got.Shape != adapter.ShapeRetrievalPlan || got.Model != "gemini-2.5-pro" {
			t.Fatalf("request = %+v", got)
		}
		if !strings.Contains(got.Prompt, "Berapa siswa kelas X 1?") || !strings.Contains(got.Prompt, `"headers":["Nama"]`) {
			t.Fatalf("prompt missing question or schema: %s", got.Prompt)
		}
	})
}

func TestBuildSchema(t *testing.T) {
	snap := &model.DataSnapshot{
		Data:  map[string]string{"SISWA": siswaCSV, "KOSONG": ""},
		Names: []string{"SISWA", "KOSONG"},
	}
	schema := BuildSchema(snap, 2, rand.New(rand.NewPCG(1, 2)))
	if _, ok := schema["KOSONG"]; ok {
		t.Fatalf("empty source should be omitted")
	}
	s := schema["SISWA"]
	if len(s.Headers) != 4 || s.Headers[2] != "Rombel Saat Ini" {
		t.Fatalf("headers = %v", s.Headers)
	}
	if len(s.SampleRows) != 2 {
		t.Fatalf("samples = %d", len(s.SampleRows))
	}
	if got := BuildSchema(snap, 0, nil)["SISWA"].SampleRows; got != nil {
		t.Fatalf("no samples requested, got %v", got)
	}
}
