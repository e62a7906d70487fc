package redisad_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	redisad "github.com/b-coman/prop-management-sub006/internal/adapters/redis"
)

func TestCache_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)
	ctx := context.Background()

	prices := map[int]float64{1: 120.5, 15: 99}
	if err := cache.Set(ctx, "rates:P:2025-06", prices, 60); err != nil {
		t.Fatalf("set: %v", err)
	}

	var got map[int]float64
	ok, err := cache.Get(ctx, "rates:P:2025-06", &got)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got[1] != 120.5 || got[15] != 99 {
		t.Fatalf("got %+v", got)
	}

	if err := cache.Del(ctx, "rates:P:2025-06"); err != nil {
		t.Fatalf("del: %v", err)
	}
	ok, err = cache.Get(ctx, "rates:P:2025-06", &got)
	if err != nil || ok {
		t.Fatalf("expected miss after del: ok=%v err=%v", ok, err)
	}
}

func TestCache_MissOnUnknownKey(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)

	var dst map[int]float64
	ok, err := cache.Get(context.Background(), "nope", &dst)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatalf("unexpected hit")
	}
}
