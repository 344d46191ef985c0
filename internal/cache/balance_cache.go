// Package cache holds a read-through cache of wallet balances.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Entry is the result of a cache lookup. Generation identifies the wallet's cache state
// at lookup time and must be handed back to Set when filling a miss.
type Entry struct {
	Balance    int64
	Found      bool
	Generation int64
}

// BalanceCache caches committed wallet balances in minor units.
type BalanceCache interface {
	Get(ctx context.Context, walletID int64) (Entry, error)
	// Set stores balance unless the wallet was invalidated after generation was read,
	// so a fill racing a transfer cannot resurrect the pre-transfer balance.
	Set(ctx context.Context, walletID int64, balance int64, generation int64) error
	Invalidate(ctx context.Context, walletIDs ...int64) error
}

// generationTTL keeps generation counters around far longer than any read-through fill.
const generationTTL = 24 * time.Hour

// setIfGeneration writes KEYS[1] only while KEYS[2] still holds ARGV[1] (a missing
// counter counts as "0"). ARGV[3] is the TTL in milliseconds, 0 for none.
const setIfGeneration = `
local gen = redis.call('GET', KEYS[2]) or '0'
if gen ~= ARGV[1] then
	return 0
end
if ARGV[3] == '0' then
	redis.call('SET', KEYS[1], ARGV[2])
else
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
end
return 1
`

// RedisBalanceCache stores balances under "wallet:balance:<id>" with a TTL, next to a
// per-wallet generation counter under "wallet:balance-gen:<id>".
type RedisBalanceCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisBalanceCache(client redis.Cmdable, ttl time.Duration) *RedisBalanceCache {
	return &RedisBalanceCache{client: client, ttl: ttl}
}

func balanceKey(walletID int64) string {
	return fmt.Sprintf("wallet:balance:%d", walletID)
}

func generationKey(walletID int64) string {
	return fmt.Sprintf("wallet:balance-gen:%d", walletID)
}

func (c *RedisBalanceCache) Get(ctx context.Context, walletID int64) (Entry, error) {
	values, err := c.client.MGet(ctx, balanceKey(walletID), generationKey(walletID)).Result()
	if err != nil {
		return Entry{}, fmt.Errorf("redis get balance: %w", err)
	}

	var entry Entry
	if raw, ok := values[1].(string); ok {
		if entry.Generation, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return Entry{}, fmt.Errorf("redis balance generation %q: %w", raw, err)
		}
	}
	if raw, ok := values[0].(string); ok {
		if entry.Balance, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return Entry{}, fmt.Errorf("redis balance %q: %w", raw, err)
		}
		entry.Found = true
	}
	return entry, nil
}

func (c *RedisBalanceCache) Set(ctx context.Context, walletID int64, balance int64, generation int64) error {
	err := c.client.Eval(ctx, setIfGeneration,
		[]string{balanceKey(walletID), generationKey(walletID)},
		strconv.FormatInt(generation, 10),
		strconv.FormatInt(balance, 10),
		strconv.FormatInt(c.ttl.Milliseconds(), 10),
	).Err()
	if err != nil {
		return fmt.Errorf("redis set balance: %w", err)
	}
	return nil
}

// Invalidate bumps each wallet's generation before dropping its balance, which makes
// any fill that read the store before the bump a no-op.
func (c *RedisBalanceCache) Invalidate(ctx context.Context, walletIDs ...int64) error {
	if len(walletIDs) == 0 {
		return nil
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range walletIDs {
			pipe.Incr(ctx, generationKey(id))
			pipe.Expire(ctx, generationKey(id), generationTTL)
			pipe.Del(ctx, balanceKey(id))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis invalidate balances: %w", err)
	}
	return nil
}

// NopBalanceCache never hits; used when no redis address is configured.
type NopBalanceCache struct{}

func (NopBalanceCache) Get(context.Context, int64) (Entry, error) { return Entry{}, nil }

func (NopBalanceCache) Set(context.Context, int64, int64, int64) error { return nil }

func (NopBalanceCache) Invalidate(context.Context, ...int64) error { return nil }
