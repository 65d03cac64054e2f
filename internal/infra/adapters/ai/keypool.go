package ai

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"school-assistant/internal/domain"
	"school-assistant/internal/domain/ports/adapter"
	"school-assistant/internal/infra/metrics"
)

var _ adapter.AIServiceAdapter = (*KeyPool)(nil)

// KeyPool spreads calls over one adapter per API key. A call starts at the key
// after the last one that answered; on a quota error it moves to the next key,
// on any other error it fails at once. When every key hit its quota the call
// fails with domain.ErrAllCredentialsBusy.
type KeyPool struct {
	members []adapter.AIServiceAdapter
	log     *zerolog.Logger

	mu   sync.Mutex
	next int
}

func NewKeyPool(members []adapter.AIServiceAdapter, logger *zerolog.Logger) *KeyPool {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &KeyPool{members: members, log: logger}
}

func (p *KeyPool) Len() int { return len(p.members) }

// Primary returns the first configured key's adapter, or nil when none is configured.
func (p *KeyPool) Primary() adapter.AIServiceAdapter {
	if len(p.members) == 0 {
		return nil
	}
	return p.members[0]
}

func (p *KeyPool) GenerateJSON(ctx context.Context, req adapter.JSONRequest) (string, error) {
	var out string
	err := p.do(ctx, string(req.Shape), func(a adapter.AIServiceAdapter) error {
		var err error
		out, err = a.GenerateJSON(ctx, req)
		return err
	})
	return out, err
}

func (p *KeyPool) Chat(ctx context.Context, req adapter.ChatRequest) (string, error) {
	var out string
	err := p.do(ctx, "chat", func(a adapter.AIServiceAdapter) error {
		var err error
		out, err = a.Chat(ctx, req)
		return err
	})
	return out, err
}

func (p *KeyPool) CountTokens(ctx context.Context, model, text string) (int, error) {
	var out int
	err := p.do(ctx, "count", func(a adapter.AIServiceAdapter) error {
		var err error
		out, err = a.CountTokens(ctx, model, text)
		return err
	})
	return out, err
}

func (p *KeyPool) do(ctx context.Context, kind string, call func(adapter.AIServiceAdapter) error) error {
	n := len(p.members)
	if n == 0 {
		return fmt.Errorf("%w: GEMINI_API_KEYS environment variable not configured", domain.ErrNotConfigured)
	}

	p.mu.Lock()
	start := p.next
	p.mu.Unlock()

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		idx := (start + i) % n
		err := call(p.members[idx])
		if err == nil {
			p.advance(idx)
			return nil
		}
		if !IsQuotaError(err) {
			p.advance(idx)
			p.log.Error().Err(err).Int("key_index", idx).Str("kind", kind).Msg("non-retriable AI error")
			return err
		}
		metrics.IncKeyRotation()
		p.log.Warn().Int("key_index", idx).Str("kind", kind).Msg("API key rate-limited; trying next key")
	}

	metrics.IncCredentialsExhausted()
	p.log.Warn().Int("keys", n).Str("kind", kind).Msg("all API keys are rate-limited")
	return domain.ErrAllCredentialsBusy
}

func (p *KeyPool) advance(idx int) {
	p.mu.Lock()
	p.next = (idx + 1) % len(p.members)
	p.mu.Unlock()
}
