package cooldown

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces the per button and player cooldown keys.
const KeyPrefix = "button-commands:cooldown:"

// allowScript returns the remaining milliseconds of a running cooldown, or
// starts a new one and returns 0. Check and record happen in one step so two
// processes cannot both pass the gate.
var allowScript = redis.NewScript(`
local ttl = redis.call("PTTL", KEYS[1])
if ttl > 0 then
	return ttl
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[1])
return 0
`)

// RedisTracker keeps cooldowns in Redis so every API and worker process
// sharing the instance gates the same (button, player) pair. Each successful
// press sets a key that expires when the cooldown ends.
type RedisTracker struct {
	rdb *redis.Client
	now func() time.Time
}

func NewRedisTracker(rdb *redis.Client) *RedisTracker {
	return &RedisTracker{rdb: rdb, now: time.Now}
}

// Key returns the Redis key holding the cooldown for a button and player.
func Key(buttonID, playerID uint64) string {
	return KeyPrefix + strconv.FormatUint(buttonID, 10) + ":" + strconv.FormatUint(playerID, 10)
}

// Allow has the same contract as Tracker.Allow. A Redis failure is returned
// as an error and the press is not recorded.
func (t *RedisTracker) Allow(ctx context.Context, buttonID, playerID uint64, cooldown time.Duration) (time.Duration, bool, error) {
	if cooldown <= 0 {
		return 0, true, nil
	}

	ms := max(cooldown.Milliseconds(), 1)
	ttl, err := allowScript.Run(ctx, t.rdb, []string{Key(buttonID, playerID)}, ms, t.now().UnixMilli()).Int64()
	if err != nil {
		return 0, false, fmt.Errorf("failed to check cooldown: %w", err)
	}
	if ttl > 0 {
		return time.Duration(ttl) * time.Millisecond, false, nil
	}
	return 0, true, nil
}
