package auth

import (
	"context"
	"time"

	"github.com/mr-tron/base58"
	"github.com/redis/go-redis/v9"

	code_data "github.com/code-payments/presale-server/pkg/code/data"
)

// ReplayGuard remembers signatures for at least as long as a signed request
// would be accepted
type ReplayGuard interface {
	// MarkSeen records the signature and reports whether it was seen before
	MarkSeen(ctx context.Context, signature []byte) (bool, error)
}

type estimatedReplayGuard struct {
	data code_data.EstimatedData
}

// NewEstimatedReplayGuard uses the process local bloom filters of the data
// provider. A small fraction of fresh signatures may be rejected as replays.
func NewEstimatedReplayGuard(data code_data.EstimatedData) ReplayGuard {
	return &estimatedReplayGuard{
		data: data,
	}
}

func (g *estimatedReplayGuard) MarkSeen(ctx context.Context, signature []byte) (bool, error) {
	return g.data.TestAndAddRecentSignature(ctx, signature)
}

const redisReplayKeyPrefix = "presale:signature:"

// redisSetter is the subset of redis.Cmdable used by the guard
type redisSetter interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

type redisReplayGuard struct {
	client redisSetter
	ttl    time.Duration
}

// NewRedisReplayGuard shares seen signatures across every server instance
// using the same redis deployment
func NewRedisReplayGuard(client redis.Cmdable, ttl time.Duration) ReplayGuard {
	return &redisReplayGuard{
		client: client,
		ttl:    ttl,
	}
}

func (g *redisReplayGuard) MarkSeen(ctx context.Context, signature []byte) (bool, error) {
	key := redisReplayKeyPrefix + base58.Encode(signature)

	isNew, err := g.client.SetNX(ctx, key, 1, g.ttl).Result()
	if err != nil {
		return false, err
	}
	return !isNew, nil
}
