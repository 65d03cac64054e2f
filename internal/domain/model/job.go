package model

import (
	"fmt"
	"strings"
	"time"

	"school-assistant/internal/domain"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// Status messages shown to the chat client while a job advances.
const (
	StatusMessageWaiting    = "Menunggu untuk diproses..."
	StatusMessageAnalyzing  = "Menganalisis data..."
	StatusMessageGenerating = "Menghasilkan respons..."
	StatusMessageDone       = "Selesai"
)

// Terminal reports whether no further transition may leave s.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

type MessageRole string

const (
	RoleUser   MessageRole = "user"
	RoleModel  MessageRole = "model"
	RoleSystem MessageRole = "system"
)

type ChatMessage struct {
	Role MessageRole `json:"role"`
	Text string      `json:"text"`
}

// JobInput is the originating request payload. It is never mutated after submission.
type JobInput struct {
	Messages []ChatMessage `json:"messages"`
	Model    string        `json:"model,omitempty"`
}

// Validate checks the submit-time shape: a non-empty history made of known roles
// whose newest entry is a non-blank user message.
func (in JobInput) Validate() error {
	if len(in.Messages) == 0 {
		return fmt.Errorf("%w: \"messages\" array is required", domain.ErrInvalidArgument)
	}
	for i, m := range in.Messages {
		switch m.Role {
		case RoleUser, RoleModel, RoleSystem:
		default:
			return fmt.Errorf("%w: message %d has unknown role %q", domain.ErrInvalidArgument, i, m.Role)
		}
	}
	last := in.Messages[len(in.Messages)-1]
	if last.Role != RoleUser || strings.TrimSpace(last.Text) == "" {
		return fmt.Errorf("%w: last message must be a non-empty user message", domain.ErrInvalidArgument)
	}
	return nil
}

// Latest returns the newest user message.
func (in JobInput) Latest() ChatMessage {
	if len(in.Messages) == 0 {
		return ChatMessage{}
	}
	return in.Messages[len(in.Messages)-1]
}

// History returns the prior conversation without the newest message and
// without system entries.
func (in JobInput) History() []ChatMessage {
	if len(in.Messages) < 2 {
		return nil
	}
	out := make([]ChatMessage, 0, len(in.Messages)-1)
	for _, m := range in.Messages[:len(in.Messages)-1] {
		if m.Role == RoleUser || m.Role == RoleModel {
			out = append(out, m)
		}
	}
	return out
}

type Job struct {
	ID            string      `json:"jobId"`
	Status        JobStatus   `json:"status"`
	StatusMessage string      `json:"statusMessage,omitempty"`
	Input         JobInput    `json:"input"`
	Result        string      `json:"result,omitempty"`
	Error         string      `json:"error,omitempty"`
	User          UserProfile `json:"user"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

func NewJob(id string, user UserProfile, input JobInput, now time.Time) *Job {
	return &Job{
		ID:            id,
		Status:        JobStatusPending,
		StatusMessage: StatusMessageWaiting,
		Input:         input,
		User:          user,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Transition moves the job along PENDING -> PROCESSING -> {COMPLETED | FAILED}.
// PENDING may also fail directly when dispatch never reached a processor.
func (j *Job) Transition(to JobStatus, now time.Time) error {
	if !canTransition(j.Status, to) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, j.Status, to)
	}
	j.Status = to
	j.UpdatedAt = now
	return nil
}

// Touch records a progress message without changing status.
func (j *Job) Touch(statusMessage string, now time.Time) error {
	if j.Status.Terminal() {
		return fmt.Errorf("%w: %s is terminal", domain.ErrInvalidTransition, j.Status)
	}
	j.StatusMessage = statusMessage
	j.UpdatedAt = now
	return nil
}

func (j *Job) Complete(result string, now time.Time) error {
	if err := j.Transition(JobStatusCompleted, now); err != nil {
		return err
	}
	j.Result = result
	j.Error = ""
	j.StatusMessage = StatusMessageDone
	return nil
}

func (j *Job) Fail(reason string, now time.Time) error {
	if err := j.Transition(JobStatusFailed, now); err != nil {
		return err
	}
	j.Error = reason
	j.Result = ""
	return nil
}

func canTransition(from, to JobStatus) bool {
	switch from {
	case JobStatusPending:
		return to == JobStatusProcessing || to == JobStatusFailed
	case JobStatusProcessing:
		return to == JobStatusCompleted || to == JobStatusFailed
	default:
		return false
	}
}

// JobSnapshot is the public view returned to pollers.
type JobSnapshot struct {
	Status        JobStatus `json:"status"`
	StatusMessage string    `json:"statusMessage,omitempty"`
	Result        string    `json:"result,omitempty"`
	Error         string    `json:"error,omitempty"`
}

func (j *Job) Snapshot() JobSnapshot {
	return JobSnapshot{
		Status:        j.Status,
		StatusMessage: j.StatusMessage,
		Result:        j.Result,
		Error:         j.Error,
	}
}
