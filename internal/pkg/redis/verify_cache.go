package redis

import (
	"Attestor/internal/pkg/consts"
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// VerifyCache remembers anchors that already passed on-chain verification.
type VerifyCache interface {
	IsVerified(ctx context.Context, txID, fingerprint string) (bool, error)
	MarkVerified(ctx context.Context, txID, fingerprint string) error
}

type verifyCacheImpl struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewVerifyCache(rdb redis.Cmdable, ttl time.Duration) VerifyCache {
	return &verifyCacheImpl{rdb: rdb, ttl: ttl}
}

// IsVerified 命中且指纹一致才视为已校验
func (s *verifyCacheImpl) IsVerified(ctx context.Context, txID, fingerprint string) (bool, error) {
	value, err := s.rdb.Get(ctx, consts.AnchorVerifiedKey+txID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return value == fingerprint, nil
}

func (s *verifyCacheImpl) MarkVerified(ctx context.Context, txID, fingerprint string) error {
	return s.rdb.Set(ctx, consts.AnchorVerifiedKey+txID, fingerprint, s.ttl).Err()
}

// NoopVerifyCache is used when Redis is not configured.
type NoopVerifyCache struct{}

func (NoopVerifyCache) IsVerified(context.Context, string, string) (bool, error) { return false, nil }

func (NoopVerifyCache) MarkVerified(context.Context, string, string) error { return nil }
