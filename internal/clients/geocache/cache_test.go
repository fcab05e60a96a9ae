package geocache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type countingNamer struct {
	calls int
	name  string
	err   error
}

func (n *countingNamer) PlaceName(context.Context, float64, float64) (string, error) {
	n.calls++
	return n.name, n.err
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestReadThrough(t *testing.T) {
	mr, rdb := newRedis(t)
	next := &countingNamer{name: "Chamonix"}
	c := New(rdb, next, time.Hour, nil)

	for i := 0; i < 3; i++ {
		name, err := c.PlaceName(context.Background(), 6.86912, 45.92371)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if name != "Chamonix" {
			t.Fatalf("unexpected name: %s", name)
		}
	}
	if next.calls != 1 {
		t.Fatalf("expected one upstream call, got %d", next.calls)
	}

	got, err := mr.Get("geocode:6.8691,45.9237")
	if err != nil || got != "Chamonix" {
		t.Fatalf("expected cached entry, got %q (%v)", got, err)
	}
	if ttl := mr.TTL("geocode:6.8691,45.9237"); ttl != time.Hour {
		t.Fatalf("unexpected ttl: %v", ttl)
	}
}

func TestFailuresAreNotCached(t *testing.T) {
	mr, rdb := newRedis(t)
	next := &countingNamer{err: errors.New("upstream down")}
	c := New(rdb, next, time.Hour, nil)

	if _, err := c.PlaceName(context.Background(), 1, 2); err == nil {
		t.Fatalf("expected error")
	}
	if mr.Exists(Key(1, 2)) {
		t.Fatalf("failure should not be cached")
	}
}

func TestRedisDownFallsThrough(t *testing.T) {
	mr, rdb := newRedis(t)
	mr.Close()
	next := &countingNamer{name: "Zermatt"}
	c := New(rdb, next, time.Hour, nil)

	name, err := c.PlaceName(context.Background(), 7.74, 46.02)
	if err != nil || name != "Zermatt" {
		t.Fatalf("expected passthrough, got %q (%v)", name, err)
	}
}

func TestNilRedisPassthrough(t *testing.T) {
	next := &countingNamer{name: "Zermatt"}
	c := New(nil, next, 0, nil)
	c.PlaceName(context.Background(), 0, 0)
	c.PlaceName(context.Background(), 0, 0)
	if next.calls != 2 {
		t.Fatalf("expected two upstream calls, got %d", next.calls)
	}
}
