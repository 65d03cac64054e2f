package model

import (
	"errors"
	"testing"
	"time"

	"school-assistant/internal/domain"
)

func TestJob_Lifecycle(t *testing.T) {
	now := time.Unix(100, 0)
	j := NewJob("j", UserProfile{ID: "u"}, JobInput{}, now)
	if j.Status != JobStatusPending || j.StatusMessage != StatusMessageWaiting {
		t.Fatalf("new job = %+v", j)
	}
	if err := j.Transition(JobStatusProcessing, now); err != nil {
		t.Fatalf("pending -> processing: %v", err)
	}
	if err := j.Transition(JobStatusProcessing, now); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("second claim should fail, got %v", err)
	}
	if err := j.Complete("jawaban", now.Add(time.Second)); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if j.StatusMessage != StatusMessageDone || j.Result != "jawaban" {
		t.Fatalf("completed job = %+v", j)
	}
	if err := j.Fail("late", now); err == nil {
		t.Fatalf("terminal job must not fail")
	}
	if err := j.Touch("x", now); err == nil {
		t.Fatalf("terminal job must not accept progress messages")
	}
}

func TestJob_PendingMayFailDirectly(t *testing.T) {
	j := NewJob("j", UserProfile{}, JobInput{}, time.Now())
	if err := j.Fail("dispatch failed", time.Now()); err != nil {
		t.Fatalf("pending -> failed: %v", err)
	}
	if j.Status != JobStatusFailed || j.Error != "dispatch failed" {
		t.Fatalf("job = %+v", j)
	}
}

func TestJobInput_ValidateAndHistory(t *testing.T) {
	cases := []struct {
		name string
		in   JobInput
		ok   bool
	}{
		{"empty", JobInput{}, false},
		{"unknown role", JobInput{Messages: []ChatMessage{{Role: "bot", Text: "x"}}}, false},
		{"last is model", JobInput{Messages: []ChatMessage{{Role: RoleUser, Text: "a"}, {Role: RoleModel, Text: "b"}}}, false},
		{"blank last", JobInput{Messages: []ChatMessage{{Role: RoleUser, Text: "  "}}}, false},
		{"ok", JobInput{Messages: []ChatMessage{{Role: RoleUser, Text: "hai"}}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.in.Validate()
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && !errors.Is(err, domain.ErrInvalidArgument) {
				t.Fatalf("want ErrInvalidArgument, got %v", err)
			}
		})
	}

	in := JobInput{Messages: []ChatMessage{
		{Role: RoleSystem, Text: "sys"},
		{Role: RoleUser, Text: "q1"},
		{Role: RoleModel, Text: "a1"},
		{Role: RoleUser, Text: "q2"},
	}}
	h := in.History()
	if len(h) != 2 || h[0].Text != "q1" || h[1].Text != "a1" {
		t.Fatalf("history = %+v", h)
	}
	if in.Latest().Text != "q2" {
		t.Fatalf("latest = %+v", in.Latest())
	}
}
