package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"school-assistant/internal/domain/model"
)

func TestCheck_Unconfigured(t *testing.T) {
	uc := NewStatusUseCase(nil, nil, nil, "gemini-2.5-flash")

	st := uc.Check(context.Background())

	if st.Sheets.Status != StateUnconfigured || st.Gemini.Status != StateUnconfigured {
		t.Fatalf("status = %+v", st)
	}
}

func TestCheck_ConnectedAndError(t *testing.T) {
	sources := []model.DataSource{{Name: "SISWA", URL: "https://a"}, {Name: "GURU", URL: "https://b"}}
	var fetched []string
	fetcher := &mockFetcher{FetchFunc: func(_ context.Context, url string) (string, error) {
		fetched = append(fetched, url)
		return "", errors.New("Failed to fetch https://a: 404 Not Found")
	}}
	ai := &mockAI{CountTokensFunc: func(_ context.Context, model, text string) (int, error) { return 1, nil }}
	uc := NewStatusUseCase(sources, fetcher, ai, "gemini-2.5-flash")

	st := uc.Check(context.Background())

	if st.Sheets.Status != StateError || !strings.Contains(st.Sheets.Message, "404") {
		t.Fatalf("sheets = %+v", st.Sheets)
	}
	if len(fetched) != 1 || fetched[0] != "https://a" {
		t.Fatalf("fetched = %v, want only the first source", fetched)
	}
	if st.Gemini.Status != StateConnected {
		t.Fatalf("gemini = %+v", st.Gemini)
	}
}

func TestCheck_GeminiErrorTruncated(t *testing.T) {
	ai := &mockAI{CountTokensFunc: func(context.Context, string, string) (int, error) {
		return 0, errors.New(strings.Repeat("x", 400))
	}}
	uc := NewStatusUseCase(nil, nil, ai, "m")

	st := uc.Check(context.Background())

	if st.Gemini.Status != StateError || strings.Count(st.Gemini.Message, "x") != 150 {
		t.Fatalf("gemini = %+v", st.Gemini)
	}
}

func TestCheck_GeminiErrorTruncatedOnRuneBoundary(t *testing.T) {
	ai := &mockAI{CountTokensFunc: func(context.Context, string, string) (int, error) {
		return 0, errors.New(strings.Repeat("é", 200))
	}}
	uc := NewStatusUseCase(nil, nil, ai, "m")

	st := uc.Check(context.Background())

	if !utf8.ValidString(st.Gemini.Message) {
		t.Fatalf("message is not valid UTF-8: %q", st.Gemini.Message)
	}
	if got := strings.Count(st.Gemini.Message, "é"); got != 150 {
		t.Fatalf("kept %d runes, want 150", got)
	}
}
