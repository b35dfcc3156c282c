package holded

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ContactCache stores a tenant's contact directory between syncs.
type ContactCache interface {
	Get(ctx context.Context, company string) ([]Contact, bool, error)
	Set(ctx context.Context, company string, contacts []Contact) error
}

type RedisContactCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisContactCache(client *redis.Client, ttl time.Duration) *RedisContactCache {
	return &RedisContactCache{client: client, ttl: ttl}
}

func contactCacheKey(company string) string {
	return fmt.Sprintf("holded:contacts:%s", company)
}

func (c *RedisContactCache) Get(ctx context.Context, company string) ([]Contact, bool, error) {
	raw, err := c.client.Get(ctx, contactCacheKey(company)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var contacts []Contact
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&contacts); err != nil {
		return nil, false, fmt.Errorf("decoding cached contacts: %w", err)
	}
	return contacts, true, nil
}

func (c *RedisContactCache) Set(ctx context.Context, company string, contacts []Contact) error {
	raw, err := json.Marshal(contacts)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, contactCacheKey(company), raw, c.ttl).Err()
}
