package usecase

import (
	"context"
	"reflect"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func newTestStats(t *testing.T) (*RedisStats, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStats(client), mr
}

func TestRedisStatsSnapshotStartsAtZero(t *testing.T) {
	stats, _ := newTestStats(t)

	snapshot, err := stats.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if len(snapshot) != len(statNames) {
		t.Fatalf("expected %d counters, got %v", len(statNames), snapshot)
	}
	for name, value := range snapshot {
		if value != 0 {
			t.Fatalf("expected %s to be 0, got %d", name, value)
		}
	}
}

func TestRedisStatsIncrAccumulates(t *testing.T) {
	stats, mr := newTestStats(t)
	ctx := context.Background()

	if err := stats.Incr(ctx, map[string]int64{StatRequests: 1, StatSucceeded: 1, StatFullMatches: 2}); err != nil {
		t.Fatalf("incr failed: %v", err)
	}
	if err := stats.Incr(ctx, map[string]int64{StatRequests: 1, StatFailed: 1, StatFullMatches: 0}); err != nil {
		t.Fatalf("incr failed: %v", err)
	}

	snapshot, err := stats.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	want := map[string]int64{
		StatRequests:              2,
		StatSucceeded:             1,
		StatFailed:                1,
		StatFullMatches:           2,
		StatPartialMatches:        0,
		StatVisuallySimilarImages: 0,
	}
	if !reflect.DeepEqual(snapshot, want) {
		t.Fatalf("expected %v, got %v", want, snapshot)
	}

	if got, _ := mr.Get(statsKeyPrefix + StatRequests); got != "2" {
		t.Fatalf("expected raw redis value 2, got %q", got)
	}
}

func TestRedisStatsUnavailable(t *testing.T) {
	stats, mr := newTestStats(t)
	mr.Close()

	if err := stats.Incr(context.Background(), map[string]int64{StatRequests: 1}); err == nil {
		t.Fatal("expected error when redis is down")
	}
}
