package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/overlay3d/pkg/cache"
)

// DefaultRedisPrefix namespaces stats keys.
const DefaultRedisPrefix = "overlay3d:stats:"

// Redis key suffixes.
const (
	redisTotals     = "totals"
	redisIPs        = "ips"
	redisNames      = "names"
	redisActivities = "activities"
	redisHourly     = "hourly"
	redisDaily      = "daily"

	fieldVideos    = "videos"
	fieldDownloads = "downloads"
)

// RedisStore keeps stats in Redis hashes, a set and a capped list.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisStore connects to url and verifies the connection, retrying with backoff.
func NewRedisStore(ctx context.Context, url, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	client := redis.NewClient(opts)
	err = cache.RetryWithBackoff(ctx, func() error {
		if err := client.Ping(ctx).Err(); err != nil {
			return cache.Retryable(errors.Join(cache.ErrUnavailable, err))
		}
		return nil
	})
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return NewRedisStoreFromClient(client, prefix), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

func (s *RedisStore) key(name string) string { return s.prefix + name }

func (s *RedisStore) AddVideo(ctx context.Context, ip, name string) error {
	return s.add(ctx, newEvent(KindVideo, s.now(), ip, name))
}

func (s *RedisStore) AddDownload(ctx context.Context, ip, name string) error {
	return s.add(ctx, newEvent(KindDownload, s.now(), ip, name))
}

func (s *RedisStore) add(ctx context.Context, e event) error {
	act, err := json.Marshal(e.act)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		switch e.kind {
		case KindVideo:
			p.HIncrBy(ctx, s.key(redisTotals), fieldVideos, 1)
			p.HIncrBy(ctx, s.key(redisNames), e.act.Name, 1)
			p.HIncrBy(ctx, s.key(redisHourly), e.hour, 1)
			p.HIncrBy(ctx, s.key(redisDaily), e.day, 1)
		case KindDownload:
			p.HIncrBy(ctx, s.key(redisTotals), fieldDownloads, 1)
		}
		if e.act.IP != UnknownIP {
			p.SAdd(ctx, s.key(redisIPs), e.act.IP)
		}
		p.LPush(ctx, s.key(redisActivities), act)
		p.LTrim(ctx, s.key(redisActivities), 0, MaxActivities-1)
		return nil
	})
	return err
}

func (s *RedisStore) Snapshot(ctx context.Context) (Stats, error) {
	var (
		totals *redis.MapStringStringCmd
		names  *redis.MapStringStringCmd
		hourly *redis.MapStringStringCmd
		daily  *redis.MapStringStringCmd
		ips    *redis.StringSliceCmd
		acts   *redis.StringSliceCmd
	)
	_, err := s.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		totals = p.HGetAll(ctx, s.key(redisTotals))
		names = p.HGetAll(ctx, s.key(redisNames))
		hourly = p.HGetAll(ctx, s.key(redisHourly))
		daily = p.HGetAll(ctx, s.key(redisDaily))
		ips = p.SMembers(ctx, s.key(redisIPs))
		acts = p.LRange(ctx, s.key(redisActivities), 0, MaxActivities-1)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return Stats{}, err
	}

	st := Empty()
	t := totals.Val()
	st.TotalVideos, _ = strconv.ParseInt(t[fieldVideos], 10, 64)
	st.TotalDownloads, _ = strconv.ParseInt(t[fieldDownloads], 10, 64)
	st.Names = counts(names.Val())
	st.HourlyStats = counts(hourly.Val())
	st.DailyStats = counts(daily.Val())
	st.UniqueIPs = append(st.UniqueIPs, ips.Val()...)
	slices.Sort(st.UniqueIPs)

	// Newest first in Redis; oldest first in Stats.
	raw := acts.Val()
	for i := len(raw) - 1; i >= 0; i-- {
		var a Activity
		if json.Unmarshal([]byte(raw[i]), &a) == nil {
			st.Activities = append(st.Activities, a)
		}
	}
	return st, nil
}

func counts(m map[string]string) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			out[k] = n
		}
	}
	return out
}

func (s *RedisStore) Close() error { return s.client.Close() }

var _ Store = (*RedisStore)(nil)
