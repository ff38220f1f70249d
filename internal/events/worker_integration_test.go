//go:build integration

package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/beanbook/beanbook/internal/metrics"
	"github.com/beanbook/beanbook/internal/model"
	"github.com/beanbook/beanbook/internal/testutil"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	opt, err := redis.ParseURL(testutil.RequireEnv(t, "REDIS_URL"))
	if err != nil {
		t.Fatalf("parse redis url: %v", err)
	}
	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })

	if err := testutil.FlushRedis(context.Background(), client); err != nil {
		t.Fatalf("flush redis: %v", err)
	}
	return client
}

func TestIntegrationWorker_DeliversAndAcks(t *testing.T) {
	client := newTestRedis(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := metrics.NewInMemory()

	var mu sync.Mutex
	var got []model.BrewUpdate
	handled := make(chan struct{}, 4)

	handler := func(ctx context.Context, update model.BrewUpdate) error {
		mu.Lock()
		got = append(got, update)
		mu.Unlock()
		handled <- struct{}{}
		if update.After.SaveCount == 99 {
			return errors.New("handler failure")
		}
		return nil
	}

	worker := NewWorker(client, handler, logger, NewConsumerID(), recorder)
	worker.SetBlockTimeout(200 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	publisher := NewPublisher(client, logger, recorder)
	now := time.Now().UTC()
	for _, count := range []int{1, 99} {
		update := model.BrewUpdate{Before: snapshot("b1", count-1), After: snapshot("b1", count), OccurredAt: now}
		if _, err := publisher.Publish(ctx, update); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}
	if err := client.XAdd(ctx, &redis.XAddArgs{Stream: StreamKey, Values: map[string]any{payloadField: "garbage"}}).Err(); err != nil {
		t.Fatalf("xadd garbage: %v", err)
	}

	for i := 0; i < 2; i++ {
		select {
		case <-handled:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		n, _ := client.XLen(ctx, DeadLetterStreamKey).Result()
		pending, _ := client.XPending(ctx, StreamKey, ConsumerGroup).Result()
		if n == 1 && pending != nil && pending.Count == 0 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := worker.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	if n, _ := client.XLen(context.Background(), DeadLetterStreamKey).Result(); n != 1 {
		t.Errorf("expected 1 dead-lettered message, got %d", n)
	}
	pending, err := client.XPending(context.Background(), StreamKey, ConsumerGroup).Result()
	if err != nil {
		t.Fatalf("xpending: %v", err)
	}
	if pending.Count != 0 {
		t.Errorf("failed handler calls must still be acknowledged, %d pending", pending.Count)
	}

	snap := recorder.Snapshot()
	if snap.EventsProcessed[metrics.StatusSuccess] != 1 || snap.EventsProcessed[metrics.StatusFailed] != 1 {
		t.Errorf("unexpected processed counts: %v", snap.EventsProcessed)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 {
		t.Errorf("expected 2 handled events, got %d", len(got))
	}
}
