package deduplication

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"compass/types"

	"github.com/redis/go-redis/v9"
)

// SeenSet remembers which signals earlier runs already published.
type SeenSet interface {
	Exists(ctx context.Context, key string) (bool, error)
	Add(ctx context.Context, key string) error
}

// BloomConfig configures the Redis connection and key
type BloomConfig struct {
	Addr     string // e.g. localhost:6379
	Password string
	DB       int
	Key      string // redis key for bloom filter
	TTL      time.Duration
	// Capacity sets the initial BF.RESERVE capacity (number of items)
	Capacity int
	// ErrorRate sets the desired false positive probability (e.g. 0.001)
	ErrorRate float64
}

// RedisBloom is a Redis-backed seen-set. It uses RedisBloom commands when the
// module is loaded and falls back to a plain Redis set otherwise.
type RedisBloom struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	plain  bool
}

// NewRedisBloom creates a RedisBloom wrapper and verifies connectivity
func NewRedisBloom(ctx context.Context, cfg BloomConfig) (*RedisBloom, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	rb, err := NewRedisBloomWithClient(ctx, client, cfg)
	if err != nil {
		client.Close()
		return nil, err
	}
	return rb, nil
}

// NewRedisBloomWithClient wraps an existing client.
func NewRedisBloomWithClient(ctx context.Context, client *redis.Client, cfg BloomConfig) (*RedisBloom, error) {
	if cfg.Key == "" {
		cfg.Key = "compass:seen"
	}
	if cfg.TTL == 0 {
		cfg.TTL = 7 * 24 * time.Hour
	}
	if cfg.Capacity == 0 {
		cfg.Capacity = 100000
	}
	if cfg.ErrorRate == 0 {
		cfg.ErrorRate = 0.001
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	rb := &RedisBloom{client: client, key: cfg.Key, ttl: cfg.TTL}

	exists, err := client.Exists(pingCtx, cfg.Key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to check seen-set key: %w", err)
	}
	if exists == 0 {
		// BF.RESERVE <key> <error_rate> <capacity>
		err := client.Do(pingCtx, "BF.RESERVE", cfg.Key, fmt.Sprintf("%f", cfg.ErrorRate), cfg.Capacity).Err()
		if err != nil && isUnknownCommand(err) {
			rb.plain = true
		}
	} else {
		kind, err := client.Type(pingCtx, cfg.Key).Result()
		if err == nil && kind == "set" {
			rb.plain = true
		}
	}
	return rb, nil
}

func isUnknownCommand(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unknown command") || strings.Contains(msg, "err unknown")
}

// Close closes the underlying Redis client
func (r *RedisBloom) Close() error {
	return r.client.Close()
}

// Exists checks if the hashed value is present.
func (r *RedisBloom) Exists(ctx context.Context, hash string) (bool, error) {
	if r.plain {
		return r.client.SIsMember(ctx, r.key, hash).Result()
	}

	// BF.EXISTS <key> <item>
	res, err := r.client.Do(ctx, "BF.EXISTS", r.key, hash).Result()
	if err != nil {
		return false, err
	}

	switch v := res.(type) {
	case int64:
		return v == 1, nil
	case bool:
		return v, nil
	case string:
		return v == "1", nil
	default:
		return false, fmt.Errorf("unexpected BF.EXISTS response type %T: %v", res, res)
	}
}

// Add inserts the hashed value and resets the TTL on the key, so the set
// stays alive for ttl after the most recent insertion.
func (r *RedisBloom) Add(ctx context.Context, hash string) error {
	var err error
	if r.plain {
		err = r.client.SAdd(ctx, r.key, hash).Err()
	} else {
		err = r.client.Do(ctx, "BF.ADD", r.key, hash).Err()
	}
	if err != nil {
		return err
	}
	return r.client.Expire(ctx, r.key, r.ttl).Err()
}

// SeenKey hashes the signal's normalized URL, or its normalized title when it
// has no URL. Signals with neither yield "".
func SeenKey(s types.Signal) string {
	c := Extract(s)
	base := NormalizeURL(c.URL)
	if base == "" {
		base = normalizeTitle(c.Title)
	}
	if base == "" {
		return ""
	}
	h := sha256.Sum256([]byte(base))
	return hex.EncodeToString(h[:])
}
