package bookings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/royalresponse/platform/pkg/logging"
)

// releaseScript deletes the lock only if this holder still owns it, so a
// slow request never releases a lock a later request has since acquired.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

// TenantLock serializes booking admission per tenant with a Redis SET NX
// lease. Overlap checking reads existing rows and then writes, and two
// concurrent requests could both pass the read; holding the tenant's lock
// across check+write closes that race. The TTL bounds how long a crashed
// holder can block the tenant.
type TenantLock struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
	logger *logging.Logger
}

// NewTenantLock creates a lock manager.
func NewTenantLock(client *redis.Client, ttl, retry time.Duration, logger *logging.Logger) *TenantLock {
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	if retry <= 0 {
		retry = 50 * time.Millisecond
	}
	return &TenantLock{client: client, ttl: ttl, retry: retry, logger: logger}
}

func lockKey(agentID string) string {
	return "booking:lock:" + agentID
}

// Acquire blocks until the tenant's lock is held or the context ends. The
// returned release function is safe to call exactly once, from a defer.
func (l *TenantLock) Acquire(ctx context.Context, agentID string) (func(), error) {
	key := lockKey(agentID)
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ErrLockUnavailable
		case <-time.After(l.retry):
		}
	}

	release := func() {
		// Release must not inherit a cancelled request context.
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(rctx, l.client, []string{key}, token).Err(); err != nil && err != redis.Nil {
			l.logger.Warn("failed to release booking lock", "error", err, "agent_id", agentID)
		}
	}
	return release, nil
}
