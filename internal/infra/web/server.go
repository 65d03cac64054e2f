package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"school-assistant/internal/domain/model"
	"school-assistant/internal/domain/ports/adapter"
	"school-assistant/internal/infra/api"
	"school-assistant/internal/infra/logging"
	"school-assistant/internal/usecase"
)

type StartersService interface {
	Questions(ctx context.Context) ([]string, error)
}

type StatusService interface {
	Check(ctx context.Context) usecase.ConnectivityStatus
}

// PublicConfig is served to the browser before login.
type PublicConfig struct {
	SchoolNameFull          string `json:"schoolNameFull,omitempty"`
	SchoolNameShort         string `json:"schoolNameShort,omitempty"`
	AppVersion              string `json:"appVersion,omitempty"`
	GoogleClientID          string `json:"googleClientId,omitempty"`
	IsGoogleLoginConfigured bool   `json:"isGoogleLoginConfigured"`
	AppBaseURL              string `json:"appBaseUrl,omitempty"`
}

type Options struct {
	AdminPassword  string
	InternalSecret string
	RequestTimeout time.Duration
	Public         PublicConfig
}

type Server struct {
	jobs     usecase.JobUseCase
	process  adapter.TaskQueue
	starters StartersService
	status   StatusService
	auth     *AuthManager
	opts     Options
	log      *zerolog.Logger
}

// NewServer wires the HTTP surface. process runs triggered jobs in this
// instance; it is the local queue regardless of the configured dispatch mode.
func NewServer(
	jobs usecase.JobUseCase,
	process adapter.TaskQueue,
	starters StartersService,
	status StatusService,
	auth *AuthManager,
	opts Options,
	logger *zerolog.Logger,
) *Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Server{
		jobs:     jobs,
		process:  process,
		starters: starters,
		status:   status,
		auth:     auth,
		opts:     opts,
		log:      logger,
	}
}

// Routes builds the router with the middleware chain applied.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(
		api.TraceID(),
		api.RequestLog(s.log),
		api.Recover(s.log),
		api.Timeout(s.opts.RequestTimeout),
	)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "Method not allowed"})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/config", s.handleConfig)
		r.Get("/status", s.handleStatus)
		r.Post("/auth-admin", s.handleAdminLogin)
		r.Get("/auth-verify", s.handleVerify)
		r.Post("/auth-logout", s.handleLogout)
		r.Post("/chat/process", s.handleProcess)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/chat/start", s.handleStart)
			r.Get("/chat/status", s.handleJobStatus)
			r.Get("/prompt-starters", s.handleStarters)
		})
	})
	return r
}

type ctxKey struct{}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ParseFromRequest(r)
		if err != nil {
			msg := "Unauthorized: Invalid or expired session token."
			if err == errNoToken {
				msg = "Unauthorized: No session token found."
			}
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: msg})
			return
		}
		user := claims.Profile()
		ctx := logging.WithUserID(r.Context(), user.ID)
		ctx = context.WithValue(ctx, ctxKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userFrom(ctx context.Context) model.UserProfile {
	u, _ := ctx.Value(ctxKey{}).(model.UserProfile)
	return u
}
