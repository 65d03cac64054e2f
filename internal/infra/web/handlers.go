package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"school-assistant/internal/domain"
	"school-assistant/internal/domain/model"
	"school-assistant/internal/infra/dispatch"
	"school-assistant/internal/infra/logging"
)

type errorBody struct {
	Error string `json:"error"`
}

type messageBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps domain sentinels to HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrQueueFull):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	msg := err.Error()
	switch code {
	case http.StatusNotFound:
		msg = "Job not found"
	case http.StatusTooManyRequests:
		msg = "Terlalu banyak permintaan. Silakan coba lagi sebentar lagi."
	case http.StatusInternalServerError:
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, code, errorBody{Error: msg})
}

type startRequest struct {
	Messages []model.ChatMessage `json:"messages"`
	Model    string              `json:"model"`
}

// handleStart is the Job Orchestrator entry point: 202 with the job ID.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid request body: " + err.Error()})
		return
	}
	id, err := s.jobs.Submit(r.Context(), userFrom(r.Context()), model.JobInput{Messages: req.Messages, Model: req.Model})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"jobId": id})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Job ID is required"})
		return
	}
	snap, err := s.jobs.Status(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, snap)
}

// handleProcess is the internal trigger. It answers as soon as the job is
// handed to the worker pool.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if !secretsEqual(r.Header.Get(dispatch.InternalSecretHeader), s.opts.InternalSecret) {
		writeJSON(w, http.StatusForbidden, errorBody{Error: "Forbidden"})
		return
	}
	var body struct {
		JobID string `json:"jobId"`
	}
	_ = json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&body)
	body.JobID = strings.TrimSpace(body.JobID)
	if body.JobID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Job ID is required"})
		return
	}
	if err := s.process.Enqueue(r.Context(), body.JobID); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "Processing job " + body.JobID})
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	if s.opts.AdminPassword == "" {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Admin password not configured on server."})
		return
	}
	var body struct {
		Password string `json:"password"`
	}
	_ = json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&body)
	if body.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Password required."})
		return
	}
	if !secretsEqual(body.Password, s.opts.AdminPassword) {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "Invalid password."})
		return
	}
	if _, err := s.auth.Mint(w, AdminProfile()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "Admin login successful."})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	claims, err := s.auth.ParseFromRequest(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "Invalid session token."})
		return
	}
	writeJSON(w, http.StatusOK, claims.Profile())
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	s.auth.Clear(w)
	writeJSON(w, http.StatusOK, messageBody{Message: "Logged out successfully."})
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.opts.Public)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.status.Check(r.Context()))
}

func (s *Server) handleStarters(w http.ResponseWriter, r *http.Request) {
	questions, err := s.starters.Questions(r.Context())
	if err != nil {
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Msg("prompt starters failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error(), "questions": []string{}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": questions})
}
