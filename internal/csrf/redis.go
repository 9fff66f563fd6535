package csrf

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "pollguard:csrf:"

// consumeScript flips consumed_at only while the stored value still matches
// and nothing consumed it before.
var consumeScript = redis.NewScript(`
local v = redis.call('HGET', KEYS[1], 'value')
if not v or v ~= ARGV[1] then
	return 0
end
if redis.call('HEXISTS', KEYS[1], 'consumed_at') == 1 then
	return 0
end
redis.call('HSET', KEYS[1], 'consumed_at', ARGV[2])
return 1
`)

// RedisStore shares tokens between server instances. Each scope is a hash
// whose key expires with the token TTL.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Save(ctx context.Context, t Token, ttl time.Duration) error {
	key := redisKeyPrefix + t.Scope
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			"value", t.Value,
			"issued_at", strconv.FormatInt(t.IssuedAt.UnixNano(), 10),
		)
		pipe.PExpire(ctx, key, ttl)
		return nil
	})
	return err
}

func (s *RedisStore) Load(ctx context.Context, scope string) (Token, error) {
	fields, err := s.client.HGetAll(ctx, redisKeyPrefix+scope).Result()
	if err != nil {
		return Token{}, err
	}
	if len(fields) == 0 || fields["value"] == "" {
		return Token{}, ErrNoToken
	}

	t := Token{Value: fields["value"], Scope: scope}
	if ns, err := strconv.ParseInt(fields["issued_at"], 10, 64); err == nil {
		t.IssuedAt = time.Unix(0, ns)
	}
	if raw, ok := fields["consumed_at"]; ok {
		at := time.Time{}
		if ns, err := strconv.ParseInt(raw, 10, 64); err == nil {
			at = time.Unix(0, ns)
		}
		t.ConsumedAt = &at
	}
	return t, nil
}

func (s *RedisStore) Consume(ctx context.Context, scope, value string, at time.Time) (bool, error) {
	n, err := consumeScript.Run(ctx, s.client,
		[]string{redisKeyPrefix + scope},
		value, strconv.FormatInt(at.UnixNano(), 10),
	).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *RedisStore) Delete(ctx context.Context, scope string) error {
	return s.client.Del(ctx, redisKeyPrefix+scope).Err()
}
