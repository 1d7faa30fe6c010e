package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the key is absent.
var ErrMiss = errors.New("cache miss")

type Cache struct {
	client *redis.Client
	prefix string
}

func NewCache(client *redis.Client, prefix string) *Cache {
	return &Cache{client: client, prefix: prefix}
}

func (c *Cache) key(k string) string {
	return c.prefix + k
}

func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	val, err := c.client.Get(ctx, c.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return fmt.Errorf("cache get %s: %w", key, err)
	}
	return json.Unmarshal([]byte(val), dest)
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}
	return c.client.Set(ctx, c.key(key), data, ttl).Err()
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	return c.client.Del(ctx, full...).Err()
}

// Fingerprint identifies a credential without storing the secret.
func Fingerprint(kind, secret string) string {
	sum := sha256.Sum256([]byte(kind + ":" + secret))
	return hex.EncodeToString(sum[:])
}

// CredentialMemo remembers credential test verdicts so each distinct
// credential is probed against the vendor at most once per TTL.
type CredentialMemo struct {
	cache *Cache
	ttl   time.Duration
}

func NewCredentialMemo(c *Cache, ttl time.Duration) *CredentialMemo {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CredentialMemo{cache: c, ttl: ttl}
}

type credentialVerdict struct {
	Valid    bool      `json:"valid"`
	TestedAt time.Time `json:"tested_at"`
}

// Verdict reports a remembered result. ok is false on a miss.
func (m *CredentialMemo) Verdict(ctx context.Context, kind, secret string) (valid, ok bool, err error) {
	var v credentialVerdict
	err = m.cache.Get(ctx, "cred:"+Fingerprint(kind, secret), &v)
	if errors.Is(err, ErrMiss) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	return v.Valid, true, nil
}

func (m *CredentialMemo) Remember(ctx context.Context, kind, secret string, valid bool) error {
	return m.cache.Set(ctx, "cred:"+Fingerprint(kind, secret), credentialVerdict{Valid: valid, TestedAt: time.Now().UTC()}, m.ttl)
}
