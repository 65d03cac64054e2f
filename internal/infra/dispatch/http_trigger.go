package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"school-assistant/internal/domain/ports/adapter"
	"school-assistant/internal/infra/logging"
	"school-assistant/internal/infra/metrics"
)

// InternalSecretHeader authenticates trigger calls to the process endpoint.
const InternalSecretHeader = "X-Internal-API-Secret"

// ProcessPath is where the trigger POSTs job IDs.
const ProcessPath = "/api/chat/process"

// HTTPTrigger posts job IDs to the process endpoint of a (possibly remote)
// instance. The POST runs on the worker pool so Enqueue never waits on the
// network.
type HTTPTrigger struct {
	pool   Submitter
	client *http.Client
	url    string
	secret string
	onFail adapter.DispatchFailureHandler
	log    *zerolog.Logger
}

func NewHTTPTrigger(pool Submitter, baseURL, secret string, client *http.Client, onFail adapter.DispatchFailureHandler, log *zerolog.Logger) *HTTPTrigger {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &HTTPTrigger{
		pool:   pool,
		client: client,
		url:    strings.TrimRight(baseURL, "/") + ProcessPath,
		secret: secret,
		onFail: onFail,
		log:    log,
	}
}

func (h *HTTPTrigger) Enqueue(ctx context.Context, jobID string) error {
	err := h.pool.Submit(func(wctx context.Context) error {
		wctx = logging.WithJobID(carry(ctx, wctx), jobID)
		if err := h.post(wctx, jobID); err != nil {
			metrics.IncDispatchFailure("http")
			logging.With(wctx, h.log).Error().Err(err).Str("url", h.url).Msg("process trigger failed")
			if h.onFail != nil {
				h.onFail(wctx, jobID, err)
			}
			return nil
		}
		return nil
	})
	if err != nil {
		metrics.IncDispatchFailure("http")
		return fmt.Errorf("enqueue job %s: %w", jobID, err)
	}
	return nil
}

func (h *HTTPTrigger) post(ctx context.Context, jobID string) error {
	body, err := json.Marshal(map[string]string{"jobId": jobID})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(InternalSecretHeader, h.secret)

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", ProcessPath, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("post %s: unexpected status %s", ProcessPath, resp.Status)
	}
	return nil
}
