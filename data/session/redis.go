package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"

	"github.com/KotFed0t/portfolio_xray/config"
	"github.com/KotFed0t/portfolio_xray/internal/model"
	"github.com/KotFed0t/portfolio_xray/utils"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "xray:session:"

type RedisSession struct {
	redis *redis.Client
	cfg   *config.Config
}

func NewRedisSession(redisClient *redis.Client, cfg *config.Config) *RedisSession {
	return &RedisSession{redis: redisClient, cfg: cfg}
}

func Key(chatID int64) string {
	return keyPrefix + strconv.FormatInt(chatID, 10)
}

// GetSession returns the chat preferences, or the defaults for a new chat.
func (s *RedisSession) GetSession(ctx context.Context, chatID int64) (model.Session, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "RedisSession.GetSession"

	res, err := s.redis.Get(ctx, Key(chatID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.DefaultSession(), nil
		}
		slog.Error("failed on redis.Get", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()), slog.Int64("chatID", chatID))
		return model.DefaultSession(), err
	}

	sess := model.DefaultSession()
	if err = json.Unmarshal([]byte(res), &sess); err != nil {
		slog.Error("can't unmarshall session", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.DefaultSession(), err
	}

	return sess, nil
}

func (s *RedisSession) SetSession(ctx context.Context, chatID int64, sess model.Session) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "RedisSession.SetSession"

	sessJson, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	err = s.redis.Set(ctx, Key(chatID), sessJson, s.cfg.Cache.SessionExpiration).Err()
	if err != nil {
		slog.Error("failed on redis.Set", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()), slog.Int64("chatID", chatID))
		return err
	}

	return nil
}
