package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/KotFed0t/portfolio_xray/config"
	"github.com/KotFed0t/portfolio_xray/internal/model"
	"github.com/KotFed0t/portfolio_xray/utils"
	"github.com/redis/go-redis/v9"
)

// ViewsKeyPrefix prefixes every cached analysis result.
const ViewsKeyPrefix = "xray:views:"

var ErrCacheMiss = errors.New("cache miss")

type RedisCache struct {
	redis *redis.Client
	cfg   *config.Config
}

func NewRedisCache(redisClient *redis.Client, cfg *config.Config) *RedisCache {
	return &RedisCache{redis: redisClient, cfg: cfg}
}

func (r *RedisCache) GetViews(ctx context.Context, key string) (model.AnalysisResult, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "RedisCache.GetViews"
	slog.Debug("GetViews start", slog.String("rqID", rqID), slog.String("op", op), slog.String("key", key))

	res, err := r.redis.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.AnalysisResult{}, ErrCacheMiss
		}
		slog.Error("failed on redis.Get", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()), slog.String("key", key))
		return model.AnalysisResult{}, err
	}

	result := model.AnalysisResult{}
	err = json.Unmarshal([]byte(res), &result)
	if err != nil {
		slog.Error("can't unmarshall views", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.AnalysisResult{}, errors.New("can't unmarshall views")
	}

	slog.Debug("GetViews finished", slog.String("rqID", rqID), slog.String("op", op))

	return result, nil
}

func (r *RedisCache) SetViews(ctx context.Context, key string, result model.AnalysisResult) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "RedisCache.SetViews"
	slog.Debug("SetViews start", slog.String("rqID", rqID), slog.String("op", op), slog.String("key", key))

	resultJson, err := json.Marshal(result)
	if err != nil {
		slog.Error("can't marshall views", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return errors.New("can't marshall views")
	}

	err = r.redis.Set(ctx, key, resultJson, r.cfg.Cache.ViewsExpiration).Err()
	if err != nil {
		slog.Error("failed on redis.Set", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	slog.Debug("SetViews completed", slog.String("rqID", rqID), slog.String("op", op))

	return nil
}

// FlushViews removes every cached analysis result.
func (r *RedisCache) FlushViews(ctx context.Context) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "RedisCache.FlushViews"

	var keys []string
	iter := r.redis.Scan(ctx, 0, ViewsKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		slog.Error("failed on redis.Scan", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	if len(keys) == 0 {
		return nil
	}

	pipe := r.redis.Pipeline()
	for _, key := range keys {
		pipe.Del(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Error("failed on pipe.Exec", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	slog.Debug("FlushViews completed", slog.String("rqID", rqID), slog.String("op", op), slog.Int("deleted", len(keys)))

	return nil
}
