package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisWeekLockStore hands out short leases on (faculty, week) pairs via
// SET NX. The stored value is a per-acquisition token so release can refuse
// to free a lease that already expired and was re-acquired elsewhere.
type RedisWeekLockStore struct {
	client *redis.Client
}

// NewRedisWeekLockStore creates the week lease adapter.
func NewRedisWeekLockStore(client *redis.Client) *RedisWeekLockStore {
	return &RedisWeekLockStore{client: client}
}

var releaseIfTokenMatches = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (s *RedisWeekLockStore) Acquire(ctx context.Context, facultyID uuid.UUID, weekStart time.Time, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := s.client.SetNX(ctx, weekLockKey(facultyID, weekStart), token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (s *RedisWeekLockStore) Release(ctx context.Context, facultyID uuid.UUID, weekStart time.Time, token string) error {
	return releaseIfTokenMatches.Run(ctx, s.client, []string{weekLockKey(facultyID, weekStart)}, token).Err()
}

func weekLockKey(facultyID uuid.UUID, weekStart time.Time) string {
	return "resolution:weeklock:" + facultyID.String() + ":" + weekStart.UTC().Format("2006-01-02")
}
