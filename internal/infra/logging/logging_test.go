package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"school-assistant/internal/config"
)

func TestWith_AttachesContextFields(t *testing.T) {
	var buf bytes.Buffer
	base := NewWithWriter(&buf, config.LogConfig{Level: "info", Format: "json"}, false)

	ctx := WithJobID(WithUserID(WithTraceID(context.Background(), "tr-1"), "u-1"), "job-1")
	With(ctx, base).Info().Msg("hello")

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("log line is not json: %v (%q)", err, buf.String())
	}
	for k, want := range map[string]string{"trace_id": "tr-1", "user_id": "u-1", "job_id": "job-1", "message": "hello"} {
		if got[k] != want {
			t.Fatalf("%s = %v, want %s", k, got[k], want)
		}
	}
	if TraceID(ctx) != "tr-1" {
		t.Fatalf("TraceID = %q", TraceID(ctx))
	}
}

func TestRedact(t *testing.T) {
	if Redact("short", false) != "***" {
		t.Fatalf("short secrets should be fully hidden")
	}
	if got := Redact("AIzaSyABCDEFGH", false); got != "AIza...GH" {
		t.Fatalf("Redact = %q", got)
	}
	if Redact("visible", true) != "visible" {
		t.Fatalf("dev mode should not redact")
	}
}
