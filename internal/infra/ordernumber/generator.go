package ordernumber

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shoporder/internal/logger"

	"github.com/redis/go-redis/v9"
)

const (
	prefix     = "ORD"
	keyPrefix  = "shop:order_seq:"
	sequenceTT = 48 * time.Hour
	suffixMod  = 1_000_000
)

// INCR/EXPIREだけ使う
type counter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, ttl time.Duration) *redis.BoolCmd
}

// 注文番号: ORD + YYMMDD + 6桁
// Redisがあれば日ごとの連番、なければミリ秒の下6桁
type Generator struct {
	store counter
	log   *logger.Logger
}

func New(client *redis.Client, log *logger.Logger) *Generator {
	if log == nil {
		log = logger.Nop()
	}
	g := &Generator{log: log}
	if client != nil {
		g.store = client
	}
	return g
}

func (g *Generator) Next(ctx context.Context, now time.Time) (string, error) {
	day := now.Format("060102")
	if g.store == nil {
		return format(day, clockSuffix(now)), nil
	}

	seq, err := g.incr(ctx, keyPrefix+day)
	if err != nil {
		//Redisが落ちていても注文は受ける（重複はunique indexで409になる）
		g.log.Warn(ctx, "order sequence unavailable, falling back to clock", err)
		return format(day, clockSuffix(now)), nil
	}
	if seq >= suffixMod {
		return "", fmt.Errorf("order sequence exhausted for %s", day)
	}
	return format(day, seq), nil
}

func (g *Generator) incr(ctx context.Context, key string) (int64, error) {
	seq, err := g.store.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if seq == 1 {
		if err := g.store.Expire(ctx, key, sequenceTT).Err(); err != nil && !errors.Is(err, redis.Nil) {
			g.log.Warn(ctx, "setting order sequence ttl", err)
		}
	}
	return seq, nil
}

func clockSuffix(now time.Time) int64 {
	return now.UnixMilli() % suffixMod
}

func format(day string, suffix int64) string {
	return fmt.Sprintf("%s%s%06d", prefix, day, suffix)
}
