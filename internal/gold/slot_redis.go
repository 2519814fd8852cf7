package gold

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSlot shares the cached observation between replicas. Coalescing is
// still per process; the slot only spares a replica whose peer refreshed recently.
type RedisSlot struct {
	rdb redis.Cmdable
	key string
}

type RedisSlotOption func(*RedisSlot)

func WithSlotKey(key string) RedisSlotOption {
	return func(s *RedisSlot) {
		if k := strings.TrimSpace(key); k != "" {
			s.key = k
		}
	}
}

func NewRedisSlot(rdb redis.Cmdable, opts ...RedisSlotOption) *RedisSlot {
	s := &RedisSlot{
		rdb: rdb,
		key: "goldcatalog:spot",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type slotRecord struct {
	PerGram    float64 `json:"per_gram"`
	ObservedAt int64   `json:"observed_at_ns"`
}

func encodeSlot(p Price) ([]byte, error) {
	return json.Marshal(slotRecord{PerGram: p.PerGram, ObservedAt: p.ObservedAt.UnixNano()})
}

// decodeSlot treats a record missing either half as empty.
func decodeSlot(b []byte) (Price, bool, error) {
	var rec slotRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return Price{}, false, fmt.Errorf("decode slot: %w", err)
	}
	if rec.ObservedAt == 0 {
		return Price{}, false, nil
	}
	p := Price{PerGram: rec.PerGram, ObservedAt: time.Unix(0, rec.ObservedAt)}
	if !p.valid() {
		return Price{}, false, nil
	}
	return p, true, nil
}

func (s *RedisSlot) Load(ctx context.Context) (Price, bool, error) {
	b, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Price{}, false, nil
	}
	if err != nil {
		return Price{}, false, err
	}
	return decodeSlot(b)
}

func (s *RedisSlot) Store(ctx context.Context, p Price) error {
	b, err := encodeSlot(p)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key, b, 0).Err()
}
