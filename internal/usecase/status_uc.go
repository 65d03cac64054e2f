package usecase

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"school-assistant/internal/domain/model"
	"school-assistant/internal/domain/ports/adapter"
)

type ConnState string

const (
	StateConnected    ConnState = "connected"
	StateError        ConnState = "error"
	StateUnconfigured ConnState = "unconfigured"
)

type ServiceStatus struct {
	Status  ConnState `json:"status"`
	Message string    `json:"message"`
}

type ConnectivityStatus struct {
	Sheets ServiceStatus `json:"sheets"`
	Gemini ServiceStatus `json:"gemini"`
}

// StatusUseCase probes the external collaborators: the first data source and
// the first LLM credential. Only the first of each is checked.
type StatusUseCase struct {
	sources []model.DataSource
	fetcher adapter.SourceFetcher
	primary adapter.AIServiceAdapter
	model   string
	timeout time.Duration
}

// NewStatusUseCase takes the adapter of the first credential; nil means no
// keys are configured.
func NewStatusUseCase(sources []model.DataSource, fetcher adapter.SourceFetcher, primary adapter.AIServiceAdapter, defaultModel string) *StatusUseCase {
	return &StatusUseCase{sources: sources, fetcher: fetcher, primary: primary, model: defaultModel, timeout: 10 * time.Second}
}

func (u *StatusUseCase) Check(ctx context.Context) ConnectivityStatus {
	var st ConnectivityStatus
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		st.Sheets = u.checkSheets(gctx)
		return nil
	})
	g.Go(func() error {
		st.Gemini = u.checkGemini(gctx)
		return nil
	})
	_ = g.Wait()
	return st
}

func (u *StatusUseCase) checkSheets(ctx context.Context) ServiceStatus {
	if len(u.sources) == 0 || u.fetcher == nil {
		return ServiceStatus{StateUnconfigured, "URL sumber data belum dikonfigurasi."}
	}
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()
	if _, err := u.fetcher.Fetch(ctx, u.sources[0].URL); err != nil {
		return ServiceStatus{StateError, fmt.Sprintf("Gagal menghubungi URL sumber data pertama. Error: %v", err)}
	}
	return ServiceStatus{StateConnected, "Koneksi ke sumber data berhasil."}
}

func (u *StatusUseCase) checkGemini(ctx context.Context) ServiceStatus {
	if u.primary == nil {
		return ServiceStatus{StateUnconfigured, "Kunci API Gemini belum dikonfigurasi."}
	}
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()
	if _, err := u.primary.CountTokens(ctx, u.model, "hello"); err != nil {
		return ServiceStatus{StateError, "Kunci API Gemini pertama tidak valid atau ada masalah jaringan. Error: " + truncate(err.Error(), 150) + "..."}
	}
	return ServiceStatus{StateConnected, "Koneksi ke Gemini API berhasil."}
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
