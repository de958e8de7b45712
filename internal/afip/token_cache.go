package afip

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenCache stores gateway sessions between issuances.  The gateway
// rate-limits /auth, so sessions are reused until they expire.
type TokenCache interface {
	Get(ctx context.Context, key string) (Session, bool)
	Set(ctx context.Context, key string, s Session, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

type noCache struct{}

func (noCache) Get(context.Context, string) (Session, bool)         { return Session{}, false }
func (noCache) Set(context.Context, string, Session, time.Duration) {}
func (noCache) Delete(context.Context, string)                      {}

// RedisTokenCache keeps sessions in Redis so every replica shares them.
type RedisTokenCache struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisTokenCache returns a Redis-backed cache.  Without a client it
// returns a cache that never hits.
func NewRedisTokenCache(rdb *redis.Client) TokenCache {
	if rdb == nil {
		return noCache{}
	}
	return &RedisTokenCache{rdb: rdb, prefix: "afip:session:"}
}

func (c *RedisTokenCache) Get(ctx context.Context, key string) (Session, bool) {
	bs, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[afip] token cache get failed: %v", err)
		}
		return Session{}, false
	}
	var s Session
	if err := json.Unmarshal(bs, &s); err != nil || s.Token == "" {
		return Session{}, false
	}
	return s, true
}

func (c *RedisTokenCache) Set(ctx context.Context, key string, s Session, ttl time.Duration) {
	bs, err := json.Marshal(s)
	if err != nil {
		return
	}
	if err := c.rdb.SetEx(ctx, c.prefix+key, bs, ttl).Err(); err != nil {
		log.Printf("[afip] token cache set failed: %v", err)
	}
}

func (c *RedisTokenCache) Delete(ctx context.Context, key string) {
	if err := c.rdb.Del(ctx, c.prefix+key).Err(); err != nil {
		log.Printf("[afip] token cache delete failed: %v", err)
	}
}
