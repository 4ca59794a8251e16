package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const onlineUsersKey = "presence:online"

// OnlineSetRedis mirrors the set of online user ids into redis so other
// processes can read presence without touching postgres.
type OnlineSetRedis struct {
	client *redis.Client
}

// NewOnlineSetRedis connects using a redis:// URL. An explicit password
// overrides whatever the URL carries.
func NewOnlineSetRedis(ctx context.Context, redisURL, password string) (*OnlineSetRedis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if password != "" {
		opts.Password = password
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)

	// Verify connection
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &OnlineSetRedis{client: rdb}, nil
}

// NewOnlineSetRedisFromClient wraps an existing client.
func NewOnlineSetRedisFromClient(client *redis.Client) *OnlineSetRedis {
	return &OnlineSetRedis{client: client}
}

func (r *OnlineSetRedis) Mark(ctx context.Context, userID int64, online bool) error {
	if r == nil || r.client == nil {
		// No-op when redis is not configured
		return nil
	}
	member := strconv.FormatInt(userID, 10)
	if online {
		return r.client.SAdd(ctx, onlineUsersKey, member).Err()
	}
	return r.client.SRem(ctx, onlineUsersKey, member).Err()
}

func (r *OnlineSetRedis) Members(ctx context.Context) ([]int64, error) {
	if r == nil || r.client == nil {
		return nil, nil
	}
	members, err := r.client.SMembers(ctx, onlineUsersKey).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Reset drops the whole set. Used at startup, when no connection is live.
func (r *OnlineSetRedis) Reset(ctx context.Context) error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Del(ctx, onlineUsersKey).Err()
}

func (r *OnlineSetRedis) Enabled() bool {
	return r != nil && r.client != nil
}

func (r *OnlineSetRedis) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}
