//go:build integration

package redis

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"school-assistant/internal/config"
	"school-assistant/internal/domain"
	"school-assistant/internal/domain/model"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	c, err := NewClient(context.Background(), &config.RedisConfig{URL: addr})
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func newJob(now time.Time) *model.Job {
	in := model.JobInput{Messages: []model.ChatMessage{{Role: model.RoleUser, Text: "halo"}}}
	return model.NewJob(uuid.NewString(), model.UserProfile{ID: "u1"}, in, now)
}

func TestJobRepo_CreateGetUpdateKeepsTTL(t *testing.T) {
	c := newTestClient(t)
	repo := NewJobRepo(c, time.Hour)
	ctx := context.Background()
	now := time.Now()
	job := newJob(now)

	if err := repo.Create(ctx, job); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, job); err == nil {
		t.Fatalf("second Create with the same id should fail")
	}
	// shorten the TTL so we can see an update does not reset it
	if err := c.Expire(ctx, jobKey(job.ID), time.Minute); err != nil {
		t.Fatalf("Expire: %v", err)
	}

	got, err := repo.Update(ctx, job.ID, func(j *model.Job) error {
		return j.Transition(model.JobStatusProcessing, now)
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Status != model.JobStatusProcessing {
		t.Fatalf("status = %s", got.Status)
	}
	ttl := c.cli.TTL(ctx, jobKey(job.ID)).Val()
	if ttl > time.Minute || ttl <= 0 {
		t.Fatalf("ttl after update = %v, want <= 1m", ttl)
	}

	if _, err := repo.Get(ctx, "missing-"+job.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get missing: %v", err)
	}
}

func TestJobRepo_ConcurrentClaimSingleWinner(t *testing.T) {
	c := newTestClient(t)
	repo := NewJobRepo(c, time.Hour)
	ctx := context.Background()
	job := newJob(time.Now())
	if err := repo.Create(ctx, job); err != nil {
		t.Fatalf("Create: %v", err)
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Update(ctx, job.ID, func(j *model.Job) error {
				return j.Transition(model.JobStatusProcessing, time.Now())
			})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("winners = %d, want 1", wins)
	}
}
