package otp

import (
	"context"

	"github.com/go-redis/redis/v8"
)

// verifyScript atomically compares and deletes the stored code, so two
// concurrent verifications cannot both succeed with the same code.
var verifyScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	redis.call("DEL", KEYS[1])
	return 1
end
return 0
`)

// RedisStore keeps codes in redis with a TTL, making the verification flow
// safe across multiple service instances and restarts.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a code store on top of an existing redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "otp:"}
}

// Issue generates a code for identity and stores it with TTL, replacing any
// prior code.
func (s *RedisStore) Issue(ctx context.Context, identity string) (string, error) {
	code, err := GenerateCode()
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, s.prefix+identity, code, TTL).Err(); err != nil {
		return "", err
	}
	return code, nil
}

// Verify checks and consumes the code for identity. Expiry is enforced by
// the key TTL; a mismatching code leaves the entry in place.
func (s *RedisStore) Verify(ctx context.Context, identity, code string) (bool, error) {
	ok, err := verifyScript.Run(ctx, s.client, []string{s.prefix + identity}, code).Int()
	if err != nil {
		return false, err
	}
	return ok == 1, nil
}
