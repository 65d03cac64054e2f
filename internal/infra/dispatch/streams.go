package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"school-assistant/internal/domain"
	"school-assistant/internal/infra/logging"
	"school-assistant/internal/infra/metrics"
)

var errStopped = errors.New("stream consumer stopped: worker pool refused work")

type StreamsConfig struct {
	Stream   string
	Group    string
	Consumer string
	MaxLen   int64
	Block    time.Duration
}

// StreamsQueue publishes job IDs to a Redis stream and, via Run, consumes them
// in a consumer group. Entries are acknowledged once handed to the worker:
// job state lives in the job store and a redelivered ID is a no-op for any job
// that already left PENDING. An entry the pool refuses stays pending and is
// re-read from the consumer's history the next time Run starts.
type StreamsQueue struct {
	cli  *redis.Client
	cfg  StreamsConfig
	pool Submitter
	proc Processor
	log  *zerolog.Logger
}

func NewStreamsQueue(cli *redis.Client, cfg StreamsConfig, pool Submitter, proc Processor, log *zerolog.Logger) *StreamsQueue {
	if cfg.Stream == "" {
		cfg.Stream = "chat_jobs"
	}
	if cfg.Group == "" {
		cfg.Group = "chat_workers"
	}
	if cfg.Consumer == "" {
		cfg.Consumer = "app-1"
	}
	if cfg.MaxLen <= 0 {
		cfg.MaxLen = 10000
	}
	if cfg.Block <= 0 {
		cfg.Block = 5 * time.Second
	}
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &StreamsQueue{cli: cli, cfg: cfg, pool: pool, proc: proc, log: log}
}

func (q *StreamsQueue) Enqueue(ctx context.Context, jobID string) error {
	values := map[string]interface{}{"job_id": jobID}
	if id := logging.TraceID(ctx); id != "" {
		values["trace_id"] = id
	}
	err := q.cli.XAdd(ctx, &redis.XAddArgs{
		Stream: q.cfg.Stream,
		MaxLen: q.cfg.MaxLen,
		Approx: true,
		Values: values,
	}).Err()
	if err != nil {
		metrics.IncDispatchFailure("redis")
		return fmt.Errorf("enqueue to stream: %w", err)
	}
	return nil
}

// Run consumes the stream until ctx is cancelled.
func (q *StreamsQueue) Run(ctx context.Context) error {
	if err := q.ensureGroup(ctx); err != nil {
		return err
	}
	q.log.Info().Str("stream", q.cfg.Stream).Str("group", q.cfg.Group).Str("consumer", q.cfg.Consumer).Msg("stream consumer started")

	if err := q.recoverPending(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		streams, err := q.cli.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    q.cfg.Group,
			Consumer: q.cfg.Consumer,
			Streams:  []string{q.cfg.Stream, ">"},
			Count:    10,
			Block:    q.cfg.Block,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			q.log.Error().Err(err).Msg("xreadgroup failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}

		for _, stream := range streams {
			for _, item := range stream.Messages {
				if !q.handle(ctx, item) {
					return errStopped
				}
			}
		}
	}
}

// recoverPending replays entries delivered to this consumer but never acked,
// e.g. ones refused by a stopping pool during the previous shutdown.
func (q *StreamsQueue) recoverPending(ctx context.Context) error {
	start := "0"
	for {
		streams, err := q.cli.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    q.cfg.Group,
			Consumer: q.cfg.Consumer,
			Streams:  []string{q.cfg.Stream, start},
			Count:    10,
			Block:    -1,
		}).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read pending stream entries: %w", err)
		}
		n := 0
		for _, stream := range streams {
			for _, item := range stream.Messages {
				n++
				start = item.ID
				if !q.handle(ctx, item) {
					return errStopped
				}
			}
		}
		if n == 0 {
			return nil
		}
		q.log.Info().Int("entries", n).Msg("replayed pending stream entries")
	}
}

// handle hands one entry to the pool and acks it. It reports false when the
// pool is stopped; the entry is then left unacked.
func (q *StreamsQueue) handle(ctx context.Context, item redis.XMessage) bool {
	jobID, traceID := parseMessage(item)
	if jobID == "" {
		q.log.Warn().Str("stream_id", item.ID).Msg("stream entry without job_id dropped")
		q.ackAndDelete(ctx, item.ID)
		return true
	}

	task := func(wctx context.Context) error {
		if traceID != "" {
			wctx = logging.WithTraceID(wctx, traceID)
		}
		return q.proc.Process(wctx, jobID)
	}
	if err := q.pool.Submit(task); err != nil {
		if !errors.Is(err, domain.ErrQueueFull) {
			q.log.Warn().Err(err).Str("job_id", jobID).Str("stream_id", item.ID).Msg("worker pool refused job; entry left pending")
			return false
		}
		// saturated pool: process inline so the read loop applies backpressure
		_ = task(ctx)
	}
	q.ackAndDelete(ctx, item.ID)
	return true
}

func (q *StreamsQueue) ensureGroup(ctx context.Context) error {
	err := q.cli.XGroupCreateMkStream(ctx, q.cfg.Stream, q.cfg.Group, "$").Err()
	if err == nil || strings.Contains(err.Error(), "BUSYGROUP") {
		return nil
	}
	return fmt.Errorf("ensure stream group: %w", err)
}

func (q *StreamsQueue) ackAndDelete(ctx context.Context, streamID string) {
	if err := q.cli.XAck(ctx, q.cfg.Stream, q.cfg.Group, streamID).Err(); err != nil {
		q.log.Warn().Err(err).Str("stream_id", streamID).Msg("xack failed")
		return
	}
	if err := q.cli.XDel(ctx, q.cfg.Stream, streamID).Err(); err != nil {
		q.log.Warn().Err(err).Str("stream_id", streamID).Msg("xdel failed")
	}
}

func parseMessage(item redis.XMessage) (jobID, traceID string) {
	str := func(key string) string {
		switch v := item.Values[key].(type) {
		case string:
			return strings.TrimSpace(v)
		case []byte:
			return strings.TrimSpace(string(v))
		case nil:
			return ""
		default:
			return strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return str("job_id"), str("trace_id")
}
