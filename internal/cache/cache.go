// Package cache keeps public job listings in Redis. Invalidation bumps a
// generation counter so every cached page goes stale at once.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/hongminglow/jobportal-be/internal/logging"
	"github.com/hongminglow/jobportal-be/internal/models"
)

const generationKey = "jobs:list:gen"

type client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	Close() error
}

// Redis caches job list pages. Failures are logged and treated as misses.
type Redis struct {
	client client
	ttl    time.Duration
	logger zerolog.Logger
}

// Open connects to the Redis server at url and verifies it answers.
func Open(ctx context.Context, url string, ttl time.Duration, logger zerolog.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	c := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info().Str("addr", opts.Addr).Int("db", opts.DB).Msg("connected to redis")
	return newRedis(c, ttl, logger), nil
}

func newRedis(c client, ttl time.Duration, logger zerolog.Logger) *Redis {
	return &Redis{client: c, ttl: ttl, logger: logger.With().Str("component", "jobs_cache").Logger()}
}

// GetJobs returns the cached page for filter, if any, along with the key
// the page lives under at the current generation. Callers pass that key back
// to SetJobs so a page read before an invalidation is never stored under the
// newer generation. The key is empty when Redis could not be reached.
func (r *Redis) GetJobs(ctx context.Context, filter models.JobFilter) ([]models.Job, string, bool) {
	key, err := r.key(ctx, filter)
	if err != nil {
		return nil, "", false
	}

	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logging.Err(r.logger.Warn(), err).Msg("read cached jobs")
		}
		return nil, key, false
	}

	var jobs []models.Job
	if err := json.Unmarshal(raw, &jobs); err != nil {
		logging.Err(r.logger.Warn(), err).Str("key", key).Msg("decode cached jobs")
		return nil, key, false
	}
	return jobs, key, true
}

// SetJobs stores a page under key, as returned by a missed GetJobs.
func (r *Redis) SetJobs(ctx context.Context, key string, jobs []models.Job) {
	if key == "" {
		return
	}
	raw, err := json.Marshal(jobs)
	if err != nil {
		logging.Err(r.logger.Warn(), err).Msg("encode jobs for cache")
		return
	}
	if err := r.client.Set(ctx, key, raw, r.ttl).Err(); err != nil {
		logging.Err(r.logger.Warn(), err).Msg("write cached jobs")
	}
}

// InvalidateJobs makes every cached page stale.
func (r *Redis) InvalidateJobs(ctx context.Context) {
	if err := r.client.Incr(ctx, generationKey).Err(); err != nil {
		logging.Err(r.logger.Warn(), err).Msg("bump jobs cache generation")
	}
}

// Close releases the connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) key(ctx context.Context, f models.JobFilter) (string, error) {
	gen, err := r.client.Get(ctx, generationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		logging.Err(r.logger.Warn(), err).Msg("read jobs cache generation")
		return "", err
	}
	return fmt.Sprintf("jobs:list:%d:%s|%s|%s|%d|%d", gen,
		strings.ToLower(f.Category), strings.ToLower(f.Location), strings.ToLower(f.ExperienceLevel),
		f.Limit, f.Offset), nil
}
