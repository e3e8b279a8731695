package rdx

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only while it still holds our token, so a
// holder whose TTL ran out can not free the lock of the next one.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker is a SETNX lock shared by every instance talking to the same Redis.
type Locker struct {
	rdx *redis.Client
}

func NewLocker(client *redis.Client) *Locker {
	return &Locker{rdx: client}
}

// Acquire tries to take key for ttl and returns the holder token. It returns
// "" when someone else holds it.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	ok, err := l.rdx.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return token, nil
}

// Release drops the lock if token still holds it. Failures are logged; the
// TTL frees it eventually.
func (l *Locker) Release(ctx context.Context, key, token string) {
	n, err := releaseScript.Run(ctx, l.rdx, []string{key}, token).Int()
	if err != nil {
		log.Printf("ReleaseLock: failed for %s, err=%v\n", key, err)
		return
	}
	if n == 0 {
		log.Printf("ReleaseLock: %s was no longer held by this request\n", key)
	}
}
