package gold_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"GoldCatalog/internal/gold"
)

// fakeRedis implements the two commands RedisSlot issues; anything else
// panics on the nil embedded Cmdable.
type fakeRedis struct {
	redis.Cmdable

	mu   sync.Mutex
	vals map[string]string
	ttls map[string]time.Duration
	err  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{vals: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.vals[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	b, ok := value.([]byte)
	if !ok {
		return redis.NewStatusResult("", errors.New("unexpected value type"))
	}
	f.vals[key] = string(b)
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func TestRedisSlot_MissingKeyIsEmpty(t *testing.T) {
	s := gold.NewRedisSlot(newFakeRedis())

	_, ok, err := s.Load(context.Background())
	if ok || err != nil {
		t.Fatalf("ok=%v err=%v want empty slot", ok, err)
	}
}

func TestRedisSlot_StoreThenLoad(t *testing.T) {
	rdb := newFakeRedis()
	s := gold.NewRedisSlot(rdb, gold.WithSlotKey("test:spot"))
	ctx := context.Background()

	in := gold.Price{PerGram: 77.18, ObservedAt: time.Unix(1700000000, 42)}
	if err := s.Store(ctx, in); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if _, ok := rdb.vals["test:spot"]; !ok {
		t.Fatalf("value not written under custom key: %v", rdb.vals)
	}
	if ttl := rdb.ttls["test:spot"]; ttl != 0 {
		t.Fatalf("ttl=%s want no expiry", ttl)
	}

	out, ok, err := s.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if out.PerGram != in.PerGram || !out.ObservedAt.Equal(in.ObservedAt) {
		t.Fatalf("got=%+v want=%+v", out, in)
	}
}

func TestRedisSlot_ErrorsPropagate(t *testing.T) {
	rdb := newFakeRedis()
	rdb.err = errors.New("dial tcp: connection refused")
	s := gold.NewRedisSlot(rdb)
	ctx := context.Background()

	if _, _, err := s.Load(ctx); err == nil {
		t.Fatalf("Load: expected error")
	}
	if err := s.Store(ctx, gold.Price{PerGram: 1, ObservedAt: time.Unix(1, 0)}); err == nil {
		t.Fatalf("Store: expected error")
	}
}

func TestRedisSlot_GarbageValueIsError(t *testing.T) {
	rdb := newFakeRedis()
	rdb.vals["goldcatalog:spot"] = "not json"

	if _, ok, err := gold.NewRedisSlot(rdb).Load(context.Background()); ok || err == nil {
		t.Fatalf("ok=%v err=%v want decode error", ok, err)
	}
}

func TestRedisSlot_SharedBetweenCaches(t *testing.T) {
	clk := newFakeClock()
	rdb := newFakeRedis()

	first := &fakeSource{prices: []float64{60}}
	second := &fakeSource{prices: []float64{99}}
	a := gold.NewCache(first, 10*time.Second, gold.WithClock(clk.Now), gold.WithSlot(gold.NewRedisSlot(rdb)))
	b := gold.NewCache(second, 10*time.Second, gold.WithClock(clk.Now), gold.WithSlot(gold.NewRedisSlot(rdb)))

	if _, err := a.Price(context.Background()); err != nil {
		t.Fatalf("a: %v", err)
	}
	clk.Advance(3 * time.Second)

	p, err := b.Price(context.Background())
	if err != nil {
		t.Fatalf("b: %v", err)
	}
	if p.PerGram != 60 || second.Calls() != 0 {
		t.Fatalf("per_gram=%v second calls=%d want peer value without fetch", p.PerGram, second.Calls())
	}
}
